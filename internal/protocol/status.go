package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"mcscanner/internal/models"
)

// Per-field bounds applied while decoding a status payload. Fields over
// their bound are truncated or dropped rather than failing the decode.
const (
	MaxDescriptionLen = 1024
	MaxVersionNameLen = 128
	MaxSamplePlayers  = 32
	MaxPlayerNameLen  = 64
	MaxPlayerUUIDLen  = 36
	MaxFaviconLen     = 64 << 10
)

// ErrDecode reports a status payload whose top-level structure could not
// be parsed.
var ErrDecode = errors.New("protocol: malformed status payload")

type statusJSON struct {
	Version struct {
		Name     string `json:"name"`
		Protocol int32  `json:"protocol"`
	} `json:"version"`
	Players struct {
		Max    int32 `json:"max"`
		Online int32 `json:"online"`
		Sample []struct {
			Name string `json:"name"`
			ID   string `json:"id"`
		} `json:"sample"`
	} `json:"players"`
	Description json.RawMessage `json:"description"`
	Favicon     string          `json:"favicon,omitempty"`
}

// DecodeStatusPayload parses a status response frame into a bounded
// ServerStatus. The frame carries packet id 0x00 followed by a
// varint-length JSON string.
func DecodeStatusPayload(payload []byte) (*models.ServerStatus, error) {
	r := bytes.NewReader(payload)

	id, err := ReadVarInt(r)
	if err != nil {
		return nil, fmt.Errorf("%w: packet id: %v", ErrDecode, err)
	}
	if id != 0x00 {
		return nil, fmt.Errorf("%w: unexpected packet id 0x%02x", ErrDecode, id)
	}

	n, err := ReadVarInt(r)
	if err != nil {
		return nil, fmt.Errorf("%w: string length: %v", ErrDecode, err)
	}
	if n < 0 || int(n) > r.Len() {
		return nil, fmt.Errorf("%w: declared string of %d bytes, %d available", ErrDecode, n, r.Len())
	}

	raw := make([]byte, n)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	var sj statusJSON
	if err := json.Unmarshal(raw, &sj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	st := &models.ServerStatus{
		VersionName: truncate(sj.Version.Name, MaxVersionNameLen),
		Protocol:    sj.Version.Protocol,
		Description: truncate(DescriptionText(sj.Description), MaxDescriptionLen),
		Online:      clampNonNegative(sj.Players.Online),
		MaxPlayers:  clampNonNegative(sj.Players.Max),
	}

	for i, p := range sj.Players.Sample {
		if i >= MaxSamplePlayers {
			break
		}
		st.Sample = append(st.Sample, models.PlayerSample{
			UUID: truncate(p.ID, MaxPlayerUUIDLen),
			Name: truncate(p.Name, MaxPlayerNameLen),
		})
	}

	// An oversized favicon is dropped, not fatal.
	if len(sj.Favicon) <= MaxFaviconLen {
		st.Favicon = sj.Favicon
	}

	return st, nil
}

// EncodeStatusResponse builds a status response frame for the given
// status. The description is emitted in its plain-string form.
func EncodeStatusResponse(st *models.ServerStatus) ([]byte, error) {
	var sj statusJSON
	sj.Version.Name = st.VersionName
	sj.Version.Protocol = st.Protocol
	sj.Players.Online = st.Online
	sj.Players.Max = st.MaxPlayers
	for _, p := range st.Sample {
		sj.Players.Sample = append(sj.Players.Sample, struct {
			Name string `json:"name"`
			ID   string `json:"id"`
		}{Name: p.Name, ID: p.UUID})
	}
	desc, err := json.Marshal(st.Description)
	if err != nil {
		return nil, err
	}
	sj.Description = desc
	sj.Favicon = st.Favicon

	raw, err := json.Marshal(&sj)
	if err != nil {
		return nil, err
	}
	p := AppendVarInt(make([]byte, 0, len(raw)+8), 0x00)
	p = appendString(p, string(raw))
	return frame(p), nil
}

// chatComponent is the subset of the chat format needed to flatten a
// description object into plain text.
type chatComponent struct {
	Text      string            `json:"text"`
	Translate string            `json:"translate"`
	Extra     []json.RawMessage `json:"extra"`
}

// DescriptionText flattens a status description, which may be a plain
// JSON string or a chat component tree, into its visible text. Malformed
// or overly nested descriptions yield an empty string rather than an
// error; the field is informational.
func DescriptionText(raw json.RawMessage) string {
	return descriptionText(raw, 0)
}

func descriptionText(raw json.RawMessage, depth int) string {
	if len(raw) == 0 || depth > 8 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var c chatComponent
	if err := json.Unmarshal(raw, &c); err != nil {
		return ""
	}
	out := c.Text
	if out == "" && c.Translate != "" {
		out = c.Translate
	}
	for _, e := range c.Extra {
		out += descriptionText(e, depth+1)
		if len(out) > MaxDescriptionLen {
			break
		}
	}
	return out
}

// truncate cuts s to at most max bytes without splitting a UTF-8 rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && s[cut]&0xc0 == 0x80 {
		cut--
	}
	return s[:cut]
}

func clampNonNegative(v int32) int32 {
	if v < 0 {
		return 0
	}
	return v
}
