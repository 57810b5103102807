// Package connectivity watches whether the remote store is reachable and
// reports changes to subscribers.
package connectivity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/matthieukhl/pocketpos/internal/logger"
)

// PingFunc reports whether the remote can be reached
type PingFunc func(ctx context.Context) error

// Prober polls a PingFunc on a schedule. Subscribers receive the first
// observation and then every change between online and offline.
type Prober struct {
	ping     PingFunc
	interval time.Duration
	timeout  time.Duration
	log      *zap.Logger

	mu        sync.Mutex
	known     bool
	online    bool
	stopped   bool
	subs      []chan bool
	scheduler *gocron.Scheduler
}

func NewProber(ping PingFunc, interval, timeout time.Duration, log *zap.Logger) *Prober {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Prober{
		ping:     ping,
		interval: interval,
		timeout:  timeout,
		log:      logger.OrNop(log).Named("connectivity"),
	}
}

// Subscribe returns a channel of connectivity states. Only the latest
// undelivered state is kept, so a slow reader never blocks probing.
// The channel is closed by Stop.
func (p *Prober) Subscribe() <-chan bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch := make(chan bool, 1)
	if p.stopped {
		close(ch)
		return ch
	}
	p.subs = append(p.subs, ch)
	return ch
}

// Online returns the last observed state, false before the first probe
func (p *Prober) Online() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.online
}

// Check probes once and publishes the result if it is a change
func (p *Prober) Check(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	err := p.ping(ctx)
	cancel()
	online := err == nil

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped || (p.known && p.online == online) {
		return online
	}
	p.known = true
	p.online = online

	if online {
		p.log.Info("remote reachable")
	} else {
		p.log.Warn("remote unreachable", zap.Error(err))
	}

	for _, ch := range p.subs {
		publish(ch, online)
	}
	return online
}

func publish(ch chan bool, v bool) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		// drop the stale state
		select {
		case <-ch:
		default:
		}
	}
}

// Start begins probing every interval, the first probe right away
func (p *Prober) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.scheduler != nil {
		return fmt.Errorf("prober already started")
	}

	s := gocron.NewScheduler(time.UTC)
	_, err := s.Every(p.interval).SingletonMode().Do(func() {
		p.Check(context.Background())
	})
	if err != nil {
		return fmt.Errorf("failed to schedule connectivity probe: %w", err)
	}
	s.StartAsync()
	p.scheduler = s

	p.log.Info("connectivity probe started", zap.Duration("interval", p.interval))
	return nil
}

// Stop halts probing and closes subscriber channels
func (p *Prober) Stop() {
	p.mu.Lock()
	s := p.scheduler
	p.mu.Unlock()

	if s != nil {
		s.Stop()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}
	p.stopped = true
	for _, ch := range p.subs {
		close(ch)
	}
	p.subs = nil
}
