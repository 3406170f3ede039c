package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"bus-eta-service/internal/domain"
	"bus-eta-service/internal/ports"
)

// DefaultPollInterval is used when a poller is created with a non-positive interval.
const DefaultPollInterval = time.Second

var ErrPollerNotIdle = errors.New("poller already started or stopped")

type PollerState int32

const (
	PollerIdle PollerState = iota
	PollerRunning
	PollerStopped
)

func (s PollerState) String() string {
	switch s {
	case PollerIdle:
		return "idle"
	case PollerRunning:
		return "running"
	case PollerStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// PositionUpdate is one successful poll. Tick increases monotonically per
// poller, starting at 1.
type PositionUpdate struct {
	SystemID  int
	Tick      uint64
	Vehicles  []domain.Vehicle
	FetchedAt time.Time
}

// PollerMetrics receives tick results ("ok", "error", "skipped") and
// lifecycle transitions.
type PollerMetrics interface {
	ObservePollTick(result string, dur time.Duration)
	PollerStarted()
	PollerStopped()
}

type nopPollerMetrics struct{}

func (nopPollerMetrics) ObservePollTick(string, time.Duration) {}
func (nopPollerMetrics) PollerStarted()                        {}
func (nopPollerMetrics) PollerStopped()                        {}

type PollerOption func(*PositionPoller)

// WithVehicleFilter delivers only the vehicles for which keep returns true.
func WithVehicleFilter(keep func(domain.Vehicle) bool) PollerOption {
	return func(p *PositionPoller) { p.filter = keep }
}

func WithPollerMetrics(m PollerMetrics) PollerOption {
	return func(p *PositionPoller) { p.metrics = m }
}

// WithPollerName tags the poller's log lines.
func WithPollerName(name string) PollerOption {
	return func(p *PositionPoller) { p.name = name }
}

// ByVehicleName keeps vehicles whose Name equals name.
func ByVehicleName(name string) func(domain.Vehicle) bool {
	return func(v domain.Vehicle) bool { return v.Name == name }
}

// PositionPoller repeatedly fetches the vehicles of one system and hands
// each snapshot to a callback.
//
// Lifecycle: Idle -> Running -> Stopped. Stopped is terminal. At most one
// fetch is in flight; ticks that fire while a fetch is running are skipped.
// A failed fetch is logged and the poller keeps going.
type PositionPoller struct {
	systemID int
	source   ports.VehicleSource
	onUpdate func(PositionUpdate)
	interval time.Duration
	filter   func(domain.Vehicle) bool
	metrics  PollerMetrics
	name     string

	mu     sync.Mutex
	state  PollerState
	cancel context.CancelFunc
	done   chan struct{}

	tick     atomic.Uint64
	skipped  atomic.Uint64
	inFlight atomic.Bool
}

func NewPositionPoller(
	systemID int,
	source ports.VehicleSource,
	onUpdate func(PositionUpdate),
	interval time.Duration,
	opts ...PollerOption,
) (*PositionPoller, error) {
	if systemID <= 0 {
		return nil, errors.New("new position poller: system id must be positive")
	}
	if source == nil {
		return nil, errors.New("new position poller: vehicle source is nil")
	}
	if onUpdate == nil {
		return nil, errors.New("new position poller: update callback is nil")
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	p := &PositionPoller{
		systemID: systemID,
		source:   source,
		onUpdate: onUpdate,
		interval: interval,
		metrics:  nopPollerMetrics{},
		name:     "poller",
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Start fetches immediately and then every interval until Stop is called or
// ctx is canceled.
func (p *PositionPoller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != PollerIdle {
		return ErrPollerNotIdle
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.state = PollerRunning
	p.metrics.PollerStarted()

	log.Debug().Str("poller", p.name).Int("system_id", p.systemID).Dur("interval", p.interval).Msg("poller started")

	go p.run(ctx)
	return nil
}

// Stop ends polling. It is safe to call from any state, any number of times,
// and from inside the update callback. It does not wait: a delivery that
// already passed its state check may still invoke the callback once. Callers
// that need no callbacks after stopping must wait on Done.
func (p *PositionPoller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state {
	case PollerStopped:
		return
	case PollerIdle:
		p.state = PollerStopped
		close(p.done)
		return
	}

	p.state = PollerStopped
	p.cancel()
	p.metrics.PollerStopped()

	log.Debug().Str("poller", p.name).Int("system_id", p.systemID).Uint64("ticks", p.tick.Load()).Msg("poller stopped")
}

// Done is closed once the poller has stopped and no callback is running.
func (p *PositionPoller) Done() <-chan struct{} {
	return p.done
}

func (p *PositionPoller) State() PollerState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Skipped reports how many ticks were dropped because a fetch was in flight.
func (p *PositionPoller) Skipped() uint64 {
	return p.skipped.Load()
}

func (p *PositionPoller) run(ctx context.Context) {
	var wg sync.WaitGroup
	defer close(p.done)
	defer wg.Wait()
	defer p.Stop()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.trigger(ctx, &wg)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.trigger(ctx, &wg)
		}
	}
}

func (p *PositionPoller) trigger(ctx context.Context, wg *sync.WaitGroup) {
	if !p.inFlight.CompareAndSwap(false, true) {
		p.skipped.Add(1)
		p.metrics.ObservePollTick("skipped", 0)
		log.Debug().Str("poller", p.name).Int("system_id", p.systemID).Msg("previous fetch still in flight, skipping tick")
		return
	}

	tick := p.tick.Add(1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer p.inFlight.Store(false)
		p.poll(ctx, tick)
	}()
}

func (p *PositionPoller) poll(ctx context.Context, tick uint64) {
	start := time.Now()

	vehicles, err := p.source.FetchVehicles(ctx, p.systemID)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		p.metrics.ObservePollTick("error", time.Since(start))
		log.Warn().
			Str("poller", p.name).
			Int("system_id", p.systemID).
			Uint64("tick", tick).
			Err(err).
			Msg("vehicle poll failed, skipping tick")
		return
	}
	p.metrics.ObservePollTick("ok", time.Since(start))

	if p.filter != nil {
		kept := vehicles[:0:0]
		for _, v := range vehicles {
			if p.filter(v) {
				kept = append(kept, v)
			}
		}
		vehicles = kept
	}

	if ctx.Err() != nil || p.State() != PollerRunning {
		return
	}

	p.onUpdate(PositionUpdate{
		SystemID:  p.systemID,
		Tick:      tick,
		Vehicles:  vehicles,
		FetchedAt: start,
	})
}
