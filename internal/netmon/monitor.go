// Package netmon tracks whether the delivery endpoint is reachable.
// Flush cycles consult it so the agent never burns retry attempts while the
// network is down, and an offline→online transition triggers an immediate
// flush instead of waiting for the next timer tick.
package netmon

import (
	"context"
	"net"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultProbeInterval = 15 * time.Second
	DefaultProbeTimeout  = 2 * time.Second
)

// Monitor probes a TCP address periodically and keeps an online flag.
type Monitor struct {
	log      *zap.Logger
	addr     string
	interval time.Duration
	timeout  time.Duration

	mu       sync.Mutex
	online   bool
	onOnline []func()

	cancel context.CancelFunc
	done   chan struct{}
}

func New(addr string, interval, timeout time.Duration, log *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = DefaultProbeInterval
	}
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	return &Monitor{
		log:      log,
		addr:     addr,
		interval: interval,
		timeout:  timeout,
		// Optimistic until the first probe says otherwise; the delivery
		// path treats its own failures as the ground truth anyway.
		online: true,
	}
}

// ProbeAddr derives a host:port to probe from the delivery endpoint URL.
func ProbeAddr(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	if u.Port() != "" {
		return u.Host
	}
	if u.Scheme == "http" {
		return u.Host + ":80"
	}
	return u.Host + ":443"
}

// Start begins periodic probing. Monitors without a probe address stay in
// whatever state SetOnline puts them.
func (m *Monitor) Start() {
	if m.addr == "" || m.done != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})

	go func() {
		defer close(m.done)
		m.probe()
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.probe()
			}
		}
	}()
}

func (m *Monitor) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	<-m.done
	m.cancel = nil
	m.done = nil
}

func (m *Monitor) probe() {
	conn, err := net.DialTimeout("tcp", m.addr, m.timeout)
	if err == nil {
		_ = conn.Close()
	}
	m.SetOnline(err == nil)
}

func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// OnOnline registers fn to run on every offline→online transition.
func (m *Monitor) OnOnline(fn func()) {
	m.mu.Lock()
	m.onOnline = append(m.onOnline, fn)
	m.mu.Unlock()
}

// SetOnline records a connectivity state. Hosts with their own connectivity
// signal can push transitions here directly instead of relying on probes.
func (m *Monitor) SetOnline(v bool) {
	m.mu.Lock()
	wasOnline := m.online
	m.online = v
	var fns []func()
	if v && !wasOnline {
		fns = append(fns, m.onOnline...)
	}
	m.mu.Unlock()

	if v == wasOnline {
		return
	}
	if m.log != nil {
		if v {
			m.log.Info("network is back online", zap.String("probe_addr", m.addr))
		} else {
			m.log.Warn("network went offline", zap.String("probe_addr", m.addr))
		}
	}
	for _, fn := range fns {
		fn()
	}
}
