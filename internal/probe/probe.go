// Package probe runs one discovery attempt per target: connect, status
// handshake, response decode, outcome classification. Every attempt is
// bounded by a single deadline and closes its connection on all paths.
// Retry policy lives with the caller; the prober never retries.
package probe

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/hashicorp/go-hclog"

	"mcscanner/internal/models"
	"mcscanner/internal/protocol"
)

const (
	DefaultTimeout = 5 * time.Second

	// DefaultProtocolVersion is advertised in the status handshake.
	// Servers answer status requests regardless of the version offered;
	// -1 is the conventional placeholder for a status-only client.
	DefaultProtocolVersion int32 = -1

	// DefaultUsername is sent in the deep probe's login start.
	DefaultUsername = "probe"
)

// Config controls a Prober.
type Config struct {
	// Timeout bounds one full attempt, including the optional deep probe.
	Timeout time.Duration

	// ProtocolVersion to advertise in the status handshake.
	ProtocolVersion int32

	// DeepProbe enables the follow-up login attempt that detects online
	// mode and whitelisting on reachable servers.
	DeepProbe bool

	// Username for the deep probe login start.
	Username string
}

func (c *Config) withDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.ProtocolVersion == 0 {
		c.ProtocolVersion = DefaultProtocolVersion
	}
	if c.Username == "" {
		c.Username = DefaultUsername
	}
}

// Prober executes probe attempts. Safe for concurrent use.
type Prober struct {
	cfg    Config
	dialer net.Dialer
	log    hclog.Logger
}

// New creates a Prober.
func New(cfg Config, logger hclog.Logger) *Prober {
	cfg.withDefaults()
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Prober{cfg: cfg, log: logger.Named("probe")}
}

// Probe runs one full attempt against target and classifies the result.
// It returns within the configured timeout plus scheduling overhead and
// never panics on hostile peer data.
func (p *Prober) Probe(ctx context.Context, target models.Target) models.ProbeOutcome {
	started := time.Now()
	out := models.ProbeOutcome{Target: target, Timestamp: started}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()
	deadline := started.Add(p.cfg.Timeout)

	status, err := p.status(ctx, deadline, target)
	if err != nil {
		out.Kind, out.Reason = classify(err)
		out.Elapsed = time.Since(started)
		switch out.Kind {
		case models.OutcomeProtocolError:
			p.log.Warn("protocol error", "target", target.Addr(), "reason", out.Reason)
		default:
			p.log.Debug("probe failed", "target", target.Addr(), "kind", out.Kind, "reason", out.Reason)
		}
		return out
	}

	if p.cfg.DeepProbe {
		// Deep probe failures degrade to "unknown", never to a failed
		// outcome: the status response already proved the server is up.
		if lc, err := p.loginCheck(ctx, deadline, target, status.Protocol); err == nil {
			status.Login = lc
		} else {
			p.log.Debug("deep probe inconclusive", "target", target.Addr(), "error", err)
		}
	}

	out.Kind = models.OutcomeReachable
	out.Status = status
	out.Elapsed = time.Since(started)
	p.log.Debug("server found", "target", target.Addr(),
		"version", status.VersionName, "online", status.Online, "max", status.MaxPlayers)
	return out
}

// status performs the status-state exchange over one connection.
func (p *Prober) status(ctx context.Context, deadline time.Time, target models.Target) (*models.ServerStatus, error) {
	conn, err := p.dialer.DialContext(ctx, "tcp", target.Addr())
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	_ = conn.SetDeadline(deadline)

	hs, err := protocol.EncodeHandshake(p.cfg.ProtocolVersion, target.Host, target.Port, protocol.StateStatus)
	if err != nil {
		return nil, err
	}
	if _, err := conn.Write(hs); err != nil {
		return nil, err
	}
	if _, err := conn.Write(protocol.EncodeStatusRequest()); err != nil {
		return nil, err
	}

	payload, err := protocol.ReadFrame(conn)
	if err != nil {
		return nil, err
	}
	return protocol.DecodeStatusPayload(payload)
}

// classify maps an attempt error onto the outcome taxonomy. Timeouts are
// checked first: a read deadline inside a partially delivered frame must
// count as a timeout, not as peer misbehavior.
func classify(err error) (models.OutcomeKind, string) {
	switch {
	case isTimeout(err):
		return models.OutcomeTimedOut, err.Error()
	case isProtocolError(err):
		return models.OutcomeProtocolError, err.Error()
	default:
		return models.OutcomeUnreachable, err.Error()
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func isProtocolError(err error) bool {
	return errors.Is(err, protocol.ErrDecode) ||
		errors.Is(err, protocol.ErrFrameTooLarge) ||
		errors.Is(err, protocol.ErrIncompleteFrame) ||
		errors.Is(err, protocol.ErrInvalidFrame) ||
		errors.Is(err, protocol.ErrVarIntTooLong) ||
		errors.Is(err, protocol.ErrStringTooLong)
}
