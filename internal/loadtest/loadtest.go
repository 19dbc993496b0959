// Package loadtest opens many concurrent SSE clients against /stream and
// reports how many boards they received and how many they missed.
package loadtest

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/tickboard/internal/events"
	"go.uber.org/zap"
)

// Options load run parameters.
type Options struct {
	URL         string
	Connections int
	// Duration 0 runs until ctx is done.
	Duration time.Duration
	// RampUp spreads connection starts across this window.
	RampUp time.Duration
	// StatusInterval period of progress logs, 0 disables them.
	StatusInterval time.Duration
}

// Report totals of one run.
type Report struct {
	Connected   int64
	ConnectErrs int64
	StreamErrs  int64
	Events      int64
	// Gaps boards skipped between two consecutive events of one widget,
	// summed over all clients. Nonzero when the server dropped boards for
	// slow clients.
	Gaps    int64
	ByKind  map[events.Kind]int64
	Elapsed time.Duration
}

// PerSecond returns the event rate.
func (r Report) PerSecond() float64 {
	elapsed := r.Elapsed
	if elapsed <= 0 {
		elapsed = time.Millisecond
	}
	return float64(r.Events) / elapsed.Seconds()
}

type counters struct {
	connected   atomic.Int64
	connectErrs atomic.Int64
	streamErrs  atomic.Int64
	events      atomic.Int64
	gaps        atomic.Int64

	mu     sync.Mutex
	byKind map[events.Kind]int64
}

func (c *counters) kind(k events.Kind) {
	c.mu.Lock()
	c.byKind[k]++
	c.mu.Unlock()
}

// Run opens the connections and blocks until the duration elapses or ctx is done.
func Run(ctx context.Context, logger *zap.Logger, opts Options) (Report, error) {
	if opts.Connections <= 0 {
		return Report{}, errors.Errorf("invalid connections: %d", opts.Connections)
	}
	if opts.URL == "" {
		return Report{}, errors.New("url is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if opts.Duration > 0 {
		ctx, cancel = context.WithTimeout(ctx, opts.Duration)
		defer cancel()
	}

	transport := &http.Transport{
		MaxConnsPerHost:     opts.Connections + 100,
		MaxIdleConns:        opts.Connections + 100,
		MaxIdleConnsPerHost: opts.Connections + 100,
		DisableCompression:  true,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}
	defer transport.CloseIdleConnections()
	client := &http.Client{Transport: transport}

	logger.Info("starting SSE load",
		zap.String("url", opts.URL), zap.Int("conns", opts.Connections),
		zap.Duration("duration", opts.Duration), zap.Duration("ramp", opts.RampUp))

	c := &counters{byKind: make(map[events.Kind]int64)}
	start := time.Now()

	if opts.StatusInterval > 0 {
		go status(ctx, logger, c, opts.StatusInterval, start)
	}

	var interval time.Duration
	if opts.RampUp > 0 {
		interval = opts.RampUp / time.Duration(opts.Connections)
	}

	var wg sync.WaitGroup
	for i := 0; i < opts.Connections; i++ {
		if i > 0 && interval > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(interval):
			}
		}
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			stream(ctx, client, opts.URL, c)
		}()
	}
	wg.Wait()

	c.mu.Lock()
	byKind := make(map[events.Kind]int64, len(c.byKind))
	for k, v := range c.byKind {
		byKind[k] = v
	}
	c.mu.Unlock()

	return Report{
		Connected:   c.connected.Load(),
		ConnectErrs: c.connectErrs.Load(),
		StreamErrs:  c.streamErrs.Load(),
		Events:      c.events.Load(),
		Gaps:        c.gaps.Load(),
		ByKind:      byKind,
		Elapsed:     time.Since(start),
	}, nil
}

func stream(ctx context.Context, client *http.Client, url string, c *counters) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.connectErrs.Add(1)
		return
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := client.Do(req)
	if err != nil {
		c.connectErrs.Add(1)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.connectErrs.Add(1)
		return
	}
	c.connected.Add(1)

	lastSeq := make(map[string]uint64)
	reader := bufio.NewReader(resp.Body)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if ctx.Err() == nil {
				c.streamErrs.Add(1)
			}
			return
		}

		// heartbeats and event/id lines carry nothing to count
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		var msg events.Message
		if err := json.Unmarshal([]byte(strings.TrimSpace(strings.TrimPrefix(line, "data: "))), &msg); err != nil {
			c.streamErrs.Add(1)
			continue
		}
		c.events.Add(1)
		c.kind(msg.Kind)

		if prev, ok := lastSeq[msg.Widget]; ok && msg.Seq > prev+1 {
			c.gaps.Add(int64(msg.Seq - prev - 1))
		}
		if prev, ok := lastSeq[msg.Widget]; !ok || msg.Seq > prev {
			lastSeq[msg.Widget] = msg.Seq
		}
	}
}

func status(ctx context.Context, logger *zap.Logger, c *counters, every time.Duration, start time.Time) {
	t := time.NewTicker(every)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			logger.Info("load status",
				zap.Int64("connected", c.connected.Load()),
				zap.Int64("connect_errs", c.connectErrs.Load()),
				zap.Int64("stream_errs", c.streamErrs.Load()),
				zap.Int64("events", c.events.Load()),
				zap.Int64("gaps", c.gaps.Load()),
				zap.Duration("elapsed", time.Since(start).Truncate(time.Second)),
			)
		}
	}
}
