// Package discovery advertises and finds recordings servers on the
// local network via multicast DNS, under "_<service>._tcp" in the
// local. domain. Discovery only yields candidates; callers confirm a
// server's identity by probing GET /uuid before trusting it.
package discovery

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/grandcat/zeroconf"
)

func serviceType(serviceName string) string {
	return fmt.Sprintf("_%s._tcp", serviceName)
}

type publication struct {
	srv *zeroconf.Server
}

func (p *publication) Close() error {
	p.srv.Shutdown()
	return nil
}

// Publish registers a discovery record carrying the bound port. The
// returned Closer unpublishes it.
func Publish(serviceName string, port int) (io.Closer, error) {
	instance, err := os.Hostname()
	if err != nil || instance == "" {
		instance = serviceName
	}
	srv, err := zeroconf.Register(instance, serviceType(serviceName), "local.", port, []string{"txtvers=1"}, nil)
	if err != nil {
		return nil, fmt.Errorf("register service: %w", err)
	}
	return &publication{srv: srv}, nil
}

// Candidate is one advertised server instance.
type Candidate struct {
	Instance string
	Host     string
	Port     int
	Addrs    []net.IP
}

// URL returns a base URL for probing the candidate, preferring an IPv4
// address over the advertised hostname.
func (c Candidate) URL() string {
	host := c.Host
	for _, addr := range c.Addrs {
		if v4 := addr.To4(); v4 != nil {
			host = v4.String()
			break
		}
	}
	return fmt.Sprintf("http://%s:%d", host, c.Port)
}

// Browse collects advertised instances for up to wait.
func Browse(ctx context.Context, serviceName string, wait time.Duration) ([]Candidate, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("create resolver: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	if err := resolver.Browse(ctx, serviceType(serviceName), "local.", entries); err != nil {
		return nil, fmt.Errorf("browse: %w", err)
	}

	var found []Candidate
	for entry := range entries {
		addrs := make([]net.IP, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
		addrs = append(addrs, entry.AddrIPv4...)
		addrs = append(addrs, entry.AddrIPv6...)
		found = append(found, Candidate{
			Instance: entry.Instance,
			Host:     entry.HostName,
			Port:     entry.Port,
			Addrs:    addrs,
		})
	}
	return found, nil
}
