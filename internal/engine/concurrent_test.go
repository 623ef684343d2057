package engine

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payments_ledger/internal/config"
	"payments_ledger/internal/domain"
)

var roomy = config.Limits{MaxAccounts: 1_000, MaxTransactions: 10_000, MaxTxIDs: 10_000}

func TestNewConcurrent_RejectsBadLaneCount(t *testing.T) {
	_, err := NewConcurrent(roomy, 0)
	assert.Error(t, err)

	_, err = NewConcurrent(config.Limits{}, 2)
	assert.Error(t, err)
}

func TestConcurrent_LaneForIsStable(t *testing.T) {
	c, err := NewConcurrent(roomy, 4)
	require.NoError(t, err)

	for client := domain.ClientID(0); client < 100; client++ {
		lane := c.LaneFor(client)
		assert.Equal(t, int(client)%4, lane)
		assert.Equal(t, lane, c.LaneFor(client))
	}
}

func TestConcurrent_ApplyFromManyGoroutines(t *testing.T) {
	c, err := NewConcurrent(roomy, 4)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		g := g
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				tx := domain.TxID(g*1000 + i + 1)
				assert.NoError(t, c.Apply(domain.Deposit(domain.ClientID(g), tx, dec("1"))))
			}
		}()
	}
	wg.Wait()

	snapshot := c.Snapshot()
	require.Len(t, snapshot, 8)
	for _, account := range snapshot {
		assert.True(t, account.Available.Equal(dec("100")), "client %d", account.Client)
	}
}

func TestConcurrent_RunPreservesPerClientOrder(t *testing.T) {
	c, err := NewConcurrent(roomy, 3)
	require.NoError(t, err)

	recs := workload(15, 30)
	parts := splitByClient(recs, 4)
	sources := make([]Source, len(parts))
	expected := map[domain.ClientID][]domain.TxID{}
	for i, part := range parts {
		sources[i] = &sliceSource{recs: part}
		for _, rec := range part {
			expected[rec.Client] = append(expected[rec.Client], rec.Tx)
		}
	}

	var mu sync.Mutex
	got := map[domain.ClientID][]domain.TxID{}
	lanes := map[domain.ClientID]int{}
	err = c.Run(context.Background(), sources, func(o Outcome) {
		mu.Lock()
		defer mu.Unlock()
		got[o.Record.Client] = append(got[o.Record.Client], o.Record.Tx)
		if lane, ok := lanes[o.Record.Client]; ok {
			assert.Equal(t, lane, o.Lane, "client %d changed lane", o.Record.Client)
		}
		lanes[o.Record.Client] = o.Lane
	})

	require.NoError(t, err)
	assert.Equal(t, expected, got)
}

func TestConcurrent_MatchesUnboundedAndBounded(t *testing.T) {
	recs := workload(20, 25)

	unbounded := NewUnbounded()
	applyAll(t, unbounded, recs)

	bounded := newBounded(t, roomy.MaxAccounts, roomy.MaxTransactions, roomy.MaxTxIDs)
	applyAll(t, bounded, recs)

	rec := newCountingRecorder()
	concurrent, err := NewConcurrent(roomy, 4, WithRecorder(rec))
	require.NoError(t, err)
	var sources []Source
	for _, part := range splitByClient(recs, 3) {
		sources = append(sources, &sliceSource{recs: part})
	}
	require.NoError(t, concurrent.Run(context.Background(), sources, nil))

	want := canonical(unbounded.Snapshot())
	assert.Equal(t, want, canonical(bounded.Snapshot()))
	assert.Equal(t, want, canonical(concurrent.Snapshot()))
	assert.Empty(t, rec.evictions)

	total := 0
	for _, n := range rec.lanes {
		total += n
	}
	assert.Equal(t, len(recs), total)
}

func TestConcurrent_RunReportsRejections(t *testing.T) {
	c, err := NewConcurrent(roomy, 2)
	require.NoError(t, err)

	source := &sliceSource{recs: []domain.Record{
		domain.Deposit(1, 1, dec("5")),
		domain.Withdrawal(1, 2, dec("50")),
	}}

	var mu sync.Mutex
	var outcomes []Outcome
	err = c.Run(context.Background(), []Source{source}, func(o Outcome) {
		mu.Lock()
		defer mu.Unlock()
		outcomes = append(outcomes, o)
	})

	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	assert.NoError(t, outcomes[0].Err)
	assert.ErrorIs(t, outcomes[1].Err, domain.ErrInsufficientFunds)
	assert.Equal(t, 1, outcomes[1].Lane)
}

func TestConcurrent_RunStopsOnSourceError(t *testing.T) {
	c, err := NewConcurrent(roomy, 2)
	require.NoError(t, err)

	broken := errors.New("disk on fire")
	sources := []Source{
		&sliceSource{recs: []domain.Record{domain.Deposit(1, 1, dec("1"))}, err: broken},
		&sliceSource{recs: []domain.Record{domain.Deposit(2, 2, dec("1"))}},
	}

	err = c.Run(context.Background(), sources, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, broken)
}

func TestConcurrent_Info(t *testing.T) {
	c, err := NewConcurrent(roomy, 5)
	require.NoError(t, err)
	require.NoError(t, c.Apply(domain.Deposit(1, 1, dec("1"))))

	info := c.Info()

	assert.Equal(t, config.KindConcurrent, info.Kind)
	assert.True(t, info.Concurrent)
	assert.True(t, info.MemoryBounded)
	assert.Equal(t, 5, info.Lanes)
	assert.Equal(t, 1, info.Accounts)
	assert.Equal(t, 5, c.Lanes())
}
