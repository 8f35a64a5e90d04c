package feed

import (
	"context"
	"fmt"
	"net/netip"
	"sync"

	"mcscanner/internal/models"
)

// CIDR is a finite feed sweeping every address in a list of prefixes, in
// order, on a fixed port.
type CIDR struct {
	mu       sync.Mutex
	prefixes []netip.Prefix
	idx      int
	cur      netip.Addr
	port     uint16
}

// NewCIDR creates a finite sweep feed over the given IPv4 CIDR blocks.
func NewCIDR(blocks []string, port uint16) (*CIDR, error) {
	if len(blocks) == 0 {
		return nil, fmt.Errorf("feed: no CIDR blocks given")
	}
	prefixes := make([]netip.Prefix, 0, len(blocks))
	for _, b := range blocks {
		p, err := netip.ParsePrefix(b)
		if err != nil {
			return nil, fmt.Errorf("feed: parse %q: %w", b, err)
		}
		if !p.Addr().Is4() {
			return nil, fmt.Errorf("feed: %q: only IPv4 blocks are supported", b)
		}
		prefixes = append(prefixes, p.Masked())
	}
	c := &CIDR{prefixes: prefixes, port: port}
	c.cur = prefixes[0].Addr()
	return c, nil
}

func (c *CIDR) Next(ctx context.Context) (models.Target, error) {
	if err := ctx.Err(); err != nil {
		return models.Target{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	for c.idx < len(c.prefixes) {
		if c.prefixes[c.idx].Contains(c.cur) {
			t := models.Target{Host: c.cur.String(), Port: c.port}
			c.cur = c.cur.Next()
			return t, nil
		}
		c.idx++
		if c.idx < len(c.prefixes) {
			c.cur = c.prefixes[c.idx].Addr()
		}
	}
	return models.Target{}, ErrExhausted
}
