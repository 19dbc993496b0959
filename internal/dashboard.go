package internal

import (
	"context"
	"math/rand"
	"time"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/tickboard/config"
	"github.com/vadiminshakov/tickboard/internal/domain"
	"github.com/vadiminshakov/tickboard/internal/events"
	"github.com/vadiminshakov/tickboard/internal/metrics"
	"github.com/vadiminshakov/tickboard/internal/services/clock"
	"github.com/vadiminshakov/tickboard/internal/services/market"
	"github.com/vadiminshakov/tickboard/internal/services/pricer"
	"github.com/vadiminshakov/tickboard/internal/services/threatlog"
	"github.com/vadiminshakov/tickboard/internal/services/ticker"
	"github.com/vadiminshakov/tickboard/internal/view"
	"go.uber.org/zap"
)

// runner is the type-erased part of ticker.Scheduler the dashboard drives.
type runner interface {
	Name() string
	Start(interval time.Duration) error
	Stop()
	Running() bool
}

type widget struct {
	cfg     config.Widget
	sched   runner
	initial func()
	close   func()
}

// Dashboard owns one scheduler per configured widget.
type Dashboard struct {
	logger  *zap.Logger
	widgets []widget
	binders map[string]*view.Binder
}

// NewDashboard builds every widget of cfg. Rendered boards go to sink,
// tick and render measurements to reg, which may be nil.
func NewDashboard(cfg config.Config, logger *zap.Logger, reg *metrics.Registry, sink view.Sink) (*Dashboard, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	seed := cfg.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	d := &Dashboard{
		logger:  logger,
		binders: make(map[string]*view.Binder),
	}

	now := time.Now()
	for i, wc := range cfg.Widgets {
		src := rand.New(rand.NewSource(seed + int64(i)))
		schedOpts := []ticker.Option{
			ticker.WithLogger(logger),
			ticker.WithObserver(reg),
		}

		var (
			w   widget
			err error
		)
		switch wc.Kind {
		case events.KindMarket:
			w, err = d.marketWidget(wc, cfg.FlashDuration, src, now, reg, sink, schedOpts)
		case events.KindClock:
			w = clockWidget(wc, now, sink, schedOpts)
		case events.KindThreatLog:
			w, err = threatLogWidget(wc, src, now, sink, schedOpts)
		default:
			err = errors.Errorf("unknown widget kind %q", wc.Kind)
		}
		if err != nil {
			d.Close()
			return nil, errors.Wrapf(err, "failed to create widget %s", wc.Name)
		}

		d.widgets = append(d.widgets, w)
	}

	return d, nil
}

func (d *Dashboard) marketWidget(wc config.Widget, flash time.Duration, src pricer.Source, now time.Time,
	reg *metrics.Registry, sink view.Sink, schedOpts []ticker.Option) (widget, error) {
	opts := []pricer.Option{pricer.WithPrecision(wc.Precision)}
	if wc.Bounded {
		opts = append(opts, pricer.WithBounds(wc.Min, wc.Max))
	}
	walk, err := pricer.NewRandomWalk(wc.Volatility, src, opts...)
	if err != nil {
		return widget{}, err
	}

	seeded, err := market.Seed(now, wc.Holdings, wc.SeriesLength, wc.Precision)
	if err != nil {
		return widget{}, err
	}

	feed := market.NewFeed(walk, seeded)
	sched := ticker.NewScheduler(wc.Name, seeded, feed.Step, schedOpts...)

	binder := view.NewBinder(wc.Name, view.Format{Currency: wc.Currency, Precision: wc.Precision}, sink, flash,
		view.WithObserver(reg), view.WithLogger(d.logger))
	sched.Subscribe(binder.OnFrame)
	d.binders[wc.Name] = binder

	return widget{
		cfg:     wc,
		sched:   sched,
		initial: func() { binder.OnFrame(sched.Current()) },
		close:   binder.Close,
	}, nil
}

func clockWidget(wc config.Widget, now time.Time, sink view.Sink, schedOpts []ticker.Option) widget {
	step := clock.Step(wc.Location)
	start, _ := step(time.Time{}, now)

	sched := ticker.NewScheduler(wc.Name, start, step, schedOpts...)
	listener := view.ClockListener(wc.Name, sink)
	sched.Subscribe(listener)

	return widget{
		cfg:     wc,
		sched:   sched,
		initial: func() { listener(sched.Current()) },
	}
}

func threatLogWidget(wc config.Widget, src pricer.Source, now time.Time, sink view.Sink,
	schedOpts []ticker.Option) (widget, error) {
	gen, err := threatlog.NewGenerator(src, wc.Threats)
	if err != nil {
		return widget{}, err
	}
	seeded, err := gen.Seed(now, wc.SeriesLength)
	if err != nil {
		return widget{}, err
	}

	sched := ticker.NewScheduler[domain.ThreatLog](wc.Name, seeded, gen.Step, schedOpts...)
	listener := view.ThreatLogListener(wc.Name, sink)
	sched.Subscribe(listener)

	return widget{
		cfg:     wc,
		sched:   sched,
		initial: func() { listener(sched.Current()) },
	}, nil
}

// Binder returns the binder of a market widget.
func (d *Dashboard) Binder(name string) (*view.Binder, bool) {
	b, ok := d.binders[name]
	return b, ok
}

// Start publishes the seeded state of every widget and starts all schedulers.
// On failure the already started schedulers are stopped.
func (d *Dashboard) Start() error {
	for _, w := range d.widgets {
		w.initial()
	}

	for i, w := range d.widgets {
		if err := w.sched.Start(w.cfg.Interval); err != nil {
			for _, started := range d.widgets[:i] {
				started.sched.Stop()
			}
			return errors.Wrapf(err, "failed to start widget %s", w.cfg.Name)
		}
	}

	d.logger.Info("dashboard started", zap.Int("widgets", len(d.widgets)))
	return nil
}

// Stop stops every scheduler. After Stop returns no widget starts a tick or
// calls another listener; a listener already running may finish.
func (d *Dashboard) Stop() {
	for _, w := range d.widgets {
		w.sched.Stop()
	}
}

// Close stops all schedulers and pending flash timers.
func (d *Dashboard) Close() {
	d.Stop()
	for _, w := range d.widgets {
		if w.close != nil {
			w.close()
		}
	}
}

// Run starts the dashboard and blocks until ctx is done.
func (d *Dashboard) Run(ctx context.Context) error {
	if err := d.Start(); err != nil {
		return err
	}
	defer d.Close()

	<-ctx.Done()
	d.logger.Info("context done, stopping dashboard")
	return ctx.Err()
}
