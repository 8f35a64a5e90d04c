package probe

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"mcscanner/internal/models"
	"mcscanner/internal/protocol"
)

// Login start carries the player UUID from protocol 764 (1.20.2) on.
const loginUUIDProtocol = 764

// loginCheck opens a second connection in the login state and classifies
// the server's first reply: an encryption request means the server
// verifies accounts (online mode), a disconnect mentioning the whitelist
// means the server is whitelisted.
func (p *Prober) loginCheck(ctx context.Context, deadline time.Time, target models.Target, protoVersion int32) (*models.LoginCheck, error) {
	conn, err := p.dialer.DialContext(ctx, "tcp", target.Addr())
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	_ = conn.SetDeadline(deadline)

	hs, err := protocol.EncodeHandshake(protoVersion, target.Host, target.Port, protocol.StateLogin)
	if err != nil {
		return nil, err
	}
	var uuid []byte
	if protoVersion >= loginUUIDProtocol {
		uuid = make([]byte, 16)
	}
	ls, err := protocol.EncodeLoginStart(p.cfg.Username, uuid)
	if err != nil {
		return nil, err
	}
	if _, err := conn.Write(hs); err != nil {
		return nil, err
	}
	if _, err := conn.Write(ls); err != nil {
		return nil, err
	}

	payload, err := protocol.ReadFrame(conn)
	if err != nil {
		return nil, err
	}
	r := bytes.NewReader(payload)
	id, err := protocol.ReadVarInt(r)
	if err != nil {
		return nil, err
	}

	switch id {
	case protocol.LoginEncryptionRequest:
		return &models.LoginCheck{Licensed: true}, nil
	case protocol.LoginSuccess, protocol.LoginSetCompression:
		return &models.LoginCheck{}, nil
	case protocol.LoginDisconnect:
		lc := &models.LoginCheck{}
		if reason, err := readChatString(r); err == nil {
			lc.Whitelisted = mentionsWhitelist(reason)
		}
		return lc, nil
	default:
		return nil, fmt.Errorf("unexpected login packet id 0x%02x", id)
	}
}

// readChatString reads a varint-length JSON chat string and flattens it.
func readChatString(r *bytes.Reader) (string, error) {
	n, err := protocol.ReadVarInt(r)
	if err != nil {
		return "", err
	}
	if n < 0 || int(n) > r.Len() {
		return "", fmt.Errorf("chat string of %d bytes, %d available", n, r.Len())
	}
	raw := make([]byte, n)
	if _, err := r.Read(raw); err != nil {
		return "", err
	}
	return protocol.DescriptionText(raw), nil
}

func mentionsWhitelist(reason string) bool {
	s := strings.ToLower(reason)
	return strings.Contains(s, "whitelist") || strings.Contains(s, "white-list")
}
