package feed

import (
	"context"
	"math/rand"
	"net/netip"

	"mcscanner/internal/models"
)

// reservedV4 lists IPv4 ranges that are never probed: private, loopback,
// link-local, documentation, CGNAT, multicast, and the class E block.
var reservedV4 = []netip.Prefix{
	netip.MustParsePrefix("0.0.0.0/8"),
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("100.64.0.0/10"),
	netip.MustParsePrefix("127.0.0.0/8"),
	netip.MustParsePrefix("169.254.0.0/16"),
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.0.0.0/24"),
	netip.MustParsePrefix("192.0.2.0/24"),
	netip.MustParsePrefix("192.88.99.0/24"),
	netip.MustParsePrefix("192.168.0.0/16"),
	netip.MustParsePrefix("198.18.0.0/15"),
	netip.MustParsePrefix("198.51.100.0/24"),
	netip.MustParsePrefix("203.0.113.0/24"),
	netip.MustParsePrefix("224.0.0.0/3"),
}

// Random is an infinite feed of uniformly random public IPv4 addresses
// on a fixed port.
type Random struct {
	port uint16
}

// NewRandom creates an infinite random-sweep feed probing the given port.
func NewRandom(port uint16) *Random {
	return &Random{port: port}
}

func (r *Random) Next(ctx context.Context) (models.Target, error) {
	for {
		if err := ctx.Err(); err != nil {
			return models.Target{}, err
		}
		addr := randomV4()
		if isPublicV4(addr) {
			return models.Target{Host: addr.String(), Port: r.port}, nil
		}
	}
}

func randomV4() netip.Addr {
	v := rand.Uint32()
	return netip.AddrFrom4([4]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)})
}

func isPublicV4(addr netip.Addr) bool {
	for _, p := range reservedV4 {
		if p.Contains(addr) {
			return false
		}
	}
	return true
}
