package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"golang.org/x/sync/errgroup"

	"payments_ledger/internal/config"
	"payments_ledger/internal/domain"
)

var _ Engine = (*Concurrent)(nil)

// laneBuffer is the number of records a lane may have queued before the
// sources feeding it block.
const laneBuffer = 256

// Source yields records in stream order. Next returns io.EOF once the
// stream is exhausted; any other error aborts the run.
type Source interface {
	Next() (domain.Record, error)
}

// Outcome is the result of one record applied by a lane.
type Outcome struct {
	Lane   int
	Source int
	Record domain.Record
	Err    error
}

// Concurrent shares one bounded Ledger between all callers. Every Apply
// takes the same lock, so records are applied one at a time; concurrency
// only changes how records of different clients interleave.
type Concurrent struct {
	mu       sync.Mutex
	ledger   *Ledger
	lanes    int
	recorder Recorder
}

func NewConcurrent(limits config.Limits, lanes int, opts ...Option) (*Concurrent, error) {
	if lanes <= 0 {
		return nil, fmt.Errorf("lane count must be positive, got %d", lanes)
	}

	inner, err := NewBounded(limits, opts...)
	if err != nil {
		return nil, err
	}

	return &Concurrent{
		ledger:   inner,
		lanes:    lanes,
		recorder: buildOptions(opts).recorder,
	}, nil
}

func (c *Concurrent) Apply(rec domain.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger.Apply(rec)
}

func (c *Concurrent) Snapshot() []domain.Account {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger.Snapshot()
}

func (c *Concurrent) Info() Info {
	c.mu.Lock()
	defer c.mu.Unlock()

	info := c.ledger.Info()
	info.Kind = config.KindConcurrent
	info.Concurrent = true
	info.Lanes = c.lanes
	return info
}

func (c *Concurrent) Lanes() int {
	return c.lanes
}

// LaneFor returns the lane that handles every record of client.
func (c *Concurrent) LaneFor(client domain.ClientID) int {
	return int(client) % c.lanes
}

type routed struct {
	source int
	rec    domain.Record
}

// Run reads all sources concurrently and routes each record to the lane of
// its client. Records of one client coming from one source are applied in
// source order. report, when not nil, is called from the lane goroutines and
// must be safe for concurrent use.
//
// The first source error stops the other sources; records already queued are
// still applied before Run returns that error.
func (c *Concurrent) Run(ctx context.Context, sources []Source, report func(Outcome)) error {
	queues := make([]chan routed, c.lanes)
	for i := range queues {
		queues[i] = make(chan routed, laneBuffer)
	}

	var lanes sync.WaitGroup
	for lane, queue := range queues {
		lane, queue := lane, queue
		lanes.Add(1)
		go func() {
			defer lanes.Done()
			for item := range queue {
				err := c.Apply(item.rec)
				c.recorder.ObserveLane(lane)
				if report != nil {
					report(Outcome{Lane: lane, Source: item.source, Record: item.rec, Err: err})
				}
			}
		}()
	}

	readers, readCtx := errgroup.WithContext(ctx)
	for i, src := range sources {
		i, src := i, src
		readers.Go(func() error {
			return c.feed(readCtx, i, src, queues)
		})
	}

	err := readers.Wait()
	for _, queue := range queues {
		close(queue)
	}
	lanes.Wait()
	return err
}

func (c *Concurrent) feed(ctx context.Context, source int, src Source, queues []chan routed) error {
	for {
		rec, err := src.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("source %d: %w", source, err)
		}

		select {
		case queues[c.LaneFor(rec.Client)] <- routed{source: source, rec: rec}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
