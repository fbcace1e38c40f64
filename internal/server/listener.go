package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"syscall"

	"recordings/internal/config"
	"recordings/internal/discovery"
)

// socketListener is the true "server": it owns the IPv4 and IPv6
// listening sockets, publishes the discovery record for the bound port
// and spawns one conn per accepted socket.
type socketListener struct {
	cfg    *config.Config
	env    *Env
	types  []HandlerType
	logger *slog.Logger

	ip4, ip6 net.Listener
	port     int
	advert   io.Closer

	mu     sync.Mutex
	conns  map[*Conn]struct{}
	closed bool
}

func newSocketListener(cfg *config.Config, env *Env, types []HandlerType, logger *slog.Logger) (*socketListener, error) {
	lc := net.ListenConfig{Control: reuseAddr}

	ip4, err := lc.Listen(context.Background(), "tcp4", fmt.Sprintf(":%d", cfg.BindPort))
	if err != nil {
		return nil, fmt.Errorf("bind ipv4 socket: %w", err)
	}
	port := ip4.Addr().(*net.TCPAddr).Port

	// The IPv6 socket reuses the port the OS picked for IPv4 so one
	// discovery record covers both.
	ip6, err := lc.Listen(context.Background(), "tcp6", fmt.Sprintf(":%d", port))
	if err != nil {
		ip4.Close()
		return nil, fmt.Errorf("bind ipv6 socket: %w", err)
	}

	l := &socketListener{
		cfg:    cfg,
		env:    env,
		types:  types,
		logger: logger,
		ip4:    ip4,
		ip6:    ip6,
		port:   port,
		conns:  make(map[*Conn]struct{}),
	}

	// Discovery is best-effort: a LAN without multicast DNS still gets
	// a working server on a known port.
	adv, err := discovery.Publish(cfg.ServiceName, port)
	if err != nil {
		logger.Warn("service discovery unavailable", "error", err)
	} else {
		l.advert = adv
	}

	go l.acceptLoop(ip4)
	go l.acceptLoop(ip6)
	return l, nil
}

func (l *socketListener) acceptLoop(lst net.Listener) {
	for {
		sock, err := lst.Accept()
		if err != nil {
			// Listener closed; accepting stops.
			return
		}
		c := newConn(l.env, l.types, l, sock, l.cfg.IdleTimeout, l.cfg.MaxConnectionDuration)
		if !l.add(c) {
			c.close()
		}
	}
}

func (l *socketListener) add(c *Conn) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return false
	}
	l.conns[c] = struct{}{}
	return true
}

func (l *socketListener) remove(c *Conn) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.conns, c)
}

// close is idempotent: it unpublishes discovery, stops accepting and
// cancels every open connection.
func (l *socketListener) close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	open := make([]*Conn, 0, len(l.conns))
	for c := range l.conns {
		open = append(open, c)
	}
	l.mu.Unlock()

	if l.advert != nil {
		l.advert.Close()
	}
	l.ip4.Close()
	l.ip6.Close()
	for _, c := range open {
		c.close()
	}
}

func reuseAddr(network, address string, c syscall.RawConn) error {
	var serr error
	if err := c.Control(func(fd uintptr) {
		serr = syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, syscall.SO_REUSEADDR, 1)
	}); err != nil {
		return err
	}
	return serr
}
