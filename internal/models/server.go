package models

import (
	"net"
	"strconv"
	"time"
)

// Target is one address+port pair to probe
type Target struct {
	Host string `json:"host" yaml:"host"`
	Port uint16 `json:"port" yaml:"port"`
}

// Addr returns the target in dialable "host:port" form
func (t Target) Addr() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(int(t.Port)))
}

// OutcomeKind classifies the result of a single probe attempt
type OutcomeKind string

const (
	OutcomeReachable     OutcomeKind = "reachable"
	OutcomeUnreachable   OutcomeKind = "unreachable"
	OutcomeTimedOut      OutcomeKind = "timed_out"
	OutcomeProtocolError OutcomeKind = "protocol_error"
)

// ProbeOutcome is the result of one attempt against one target.
// Status is set only for OutcomeReachable; Reason carries the
// connection or decode failure for the other kinds.
type ProbeOutcome struct {
	Target    Target        `json:"target"`
	Kind      OutcomeKind   `json:"kind"`
	Status    *ServerStatus `json:"status,omitempty"`
	Reason    string        `json:"reason,omitempty"`
	Elapsed   time.Duration `json:"elapsed"`
	Timestamp time.Time     `json:"timestamp"`
}

// ServerStatus is a parsed status response, validated and bounded
type ServerStatus struct {
	VersionName string         `json:"version_name"`
	Protocol    int32          `json:"protocol"`
	Description string         `json:"description"`
	Online      int32          `json:"online"`
	MaxPlayers  int32          `json:"max_players"`
	Sample      []PlayerSample `json:"sample,omitempty"`
	Favicon     string         `json:"favicon,omitempty"`
	Login       *LoginCheck    `json:"login,omitempty"`
}

// PlayerSample is one entry from the status response player sample
type PlayerSample struct {
	UUID string `json:"id"`
	Name string `json:"name"`
}

// LoginCheck holds what a follow-up login attempt revealed about the server.
// Licensed means the server requested encryption (online mode); Whitelisted
// means login was rejected with a whitelist message.
type LoginCheck struct {
	Licensed    bool `json:"licensed"`
	Whitelisted bool `json:"whitelisted"`
}
