package feed

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"layered/internal/geom"
	"layered/internal/metrics"
)

// Feed is an activated real-time layer. It lives for the rest of the process and is
// refreshed in place.
type Feed struct {
	Name            string
	Kind            Kind
	Snapshot        *geom.Layer
	RefreshInterval time.Duration
	LastRefreshed   time.Time
}

// Update carries a fresh snapshot to subscribers.
type Update struct {
	Name     string
	Kind     Kind
	Snapshot *geom.Layer
	At       time.Time
}

// Snapshotter produces feed snapshots. *Source implements it.
type Snapshotter interface {
	Snapshot(ctx context.Context, kind Kind) *geom.Layer
}

// PollerOptions configures a Poller.
type PollerOptions struct {
	// Tick is how often feeds are checked for staleness.
	Tick time.Duration
	// Refresh maps each kind to its refresh interval.
	Refresh map[Kind]time.Duration
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Poller refreshes activated feeds in one background goroutine and fans updates out
// to subscribers over buffered channels.
type Poller struct {
	src     Snapshotter
	tick    time.Duration
	refresh map[Kind]time.Duration
	log     *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	mu     sync.Mutex
	feeds  map[Kind]*Feed
	order  []Kind
	subs   map[chan Update]struct{}
	closed bool
}

// NewPoller creates a poller over src. Feeds are added by Activate.
func NewPoller(src Snapshotter, o PollerOptions) *Poller {
	if o.Tick <= 0 {
		o.Tick = 30 * time.Second
	}
	refresh := map[Kind]time.Duration{
		KindEarthquake: 60 * time.Second,
		KindWeather:    300 * time.Second,
	}
	for k, d := range o.Refresh {
		if d > 0 {
			refresh[k] = d
		}
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return &Poller{
		src:     src,
		tick:    o.Tick,
		refresh: refresh,
		log:     o.Logger.With("component", "poller"),
		metrics: o.Metrics,
		now:     time.Now,
		feeds:   make(map[Kind]*Feed),
		subs:    make(map[chan Update]struct{}),
	}
}

// Activate fetches kind right away and registers it for periodic refresh. Activating
// an already active feed re-fetches it. The update is returned, not published.
func (p *Poller) Activate(ctx context.Context, kind Kind) Update {
	snap := p.src.Snapshot(ctx, kind)
	now := p.now()

	p.mu.Lock()
	f, ok := p.feeds[kind]
	if !ok {
		f = &Feed{Name: kind.LayerName(), Kind: kind, RefreshInterval: p.refresh[kind]}
		p.feeds[kind] = f
		p.order = append(p.order, kind)
	}
	f.Snapshot = snap
	f.LastRefreshed = now
	p.mu.Unlock()

	p.log.Info("feed activated", "feed", kind, "features", snap.Len())
	return Update{Name: f.Name, Kind: kind, Snapshot: snap, At: now}
}

// Feeds returns a copy of the active feeds in activation order.
func (p *Poller) Feeds() []Feed {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Feed, 0, len(p.order))
	for _, k := range p.order {
		out = append(out, *p.feeds[k])
	}
	return out
}

// Subscribe returns a buffered channel that receives updates. It is closed when Run
// returns.
func (p *Poller) Subscribe() <-chan Update {
	ch := make(chan Update, 16)
	p.mu.Lock()
	if p.closed {
		close(ch)
	} else {
		p.subs[ch] = struct{}{}
	}
	p.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (p *Poller) Unsubscribe(ch <-chan Update) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for c := range p.subs {
		if c == ch {
			delete(p.subs, c)
			close(c)
			return
		}
	}
}

// Run checks the feeds every tick until ctx is done, then closes every subscriber
// channel. It always returns nil; the error is for errgroup.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()
	defer p.shutdown()

	p.log.Info("polling", "tick", p.tick)
	for {
		select {
		case <-ticker.C:
			p.poll(ctx)
		case <-ctx.Done():
			p.log.Info("poller stopped")
			return nil
		}
	}
}

// poll refreshes every feed whose interval has elapsed.
func (p *Poller) poll(ctx context.Context) {
	p.mu.Lock()
	var due []Kind
	now := p.now()
	for _, k := range p.order {
		f := p.feeds[k]
		if now.Sub(f.LastRefreshed) > f.RefreshInterval {
			due = append(due, k)
		}
	}
	p.mu.Unlock()

	for _, k := range due {
		if ctx.Err() != nil {
			return
		}
		snap := p.src.Snapshot(ctx, k)
		at := p.now()

		p.mu.Lock()
		f := p.feeds[k]
		f.Snapshot = snap
		f.LastRefreshed = at
		u := Update{Name: f.Name, Kind: k, Snapshot: snap, At: at}
		p.mu.Unlock()

		p.metrics.Refresh(string(k))
		p.publish(u)
	}
}

// publish sends u to all subscribers (non-blocking).
func (p *Poller) publish(u Update) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for ch := range p.subs {
		select {
		case ch <- u:
		default:
			p.log.Warn("subscriber too slow, update dropped", "feed", u.Kind)
		}
	}
}

func (p *Poller) shutdown() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for ch := range p.subs {
		close(ch)
		delete(p.subs, ch)
	}
	p.closed = true
}
