package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/stake-predict-platform/internal/domain"
)

func TestAtomicDiscardsOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	boom := errors.New("boom")

	err := s.Atomic(ctx, func(tx domain.Tx) error {
		require.NoError(t, tx.InsertPrediction(ctx, domain.Prediction{ID: 1}))
		_, err := tx.NextID(ctx, domain.SeqPrediction)
		require.NoError(t, err)
		require.NoError(t, tx.PutTreasury(ctx, domain.NewAmount(10)))

		// a própria transação enxerga as escritas pendentes
		_, err = tx.Prediction(ctx, 1)
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = s.View(ctx, func(tx domain.Tx) error {
		_, err := tx.Prediction(ctx, 1)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		treasury, err := tx.Treasury(ctx)
		require.NoError(t, err)
		assert.True(t, treasury.IsZero())
		return nil
	})
	require.NoError(t, err)

	err = s.Atomic(ctx, func(tx domain.Tx) error {
		id, err := tx.NextID(ctx, domain.SeqPrediction)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), id, "sequence starts at 1 and rolled back")
		return nil
	})
	require.NoError(t, err)
}

func TestViewIsReadOnly(t *testing.T) {
	ctx := context.Background()
	s := New()
	err := s.View(ctx, func(tx domain.Tx) error {
		return tx.PutPlatform(ctx, domain.PlatformState{Initialized: true})
	})
	assert.Error(t, err)
}

func TestStoredPredictionIsIsolated(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Atomic(ctx, func(tx domain.Tx) error {
		return tx.InsertPrediction(ctx, domain.Prediction{ID: 1, Resolution: &domain.Resolution{Outcome: true}})
	}))

	require.NoError(t, s.View(ctx, func(tx domain.Tx) error {
		p, err := tx.Prediction(ctx, 1)
		require.NoError(t, err)
		p.Resolution.Outcome = false
		return nil
	}))

	require.NoError(t, s.View(ctx, func(tx domain.Tx) error {
		p, err := tx.Prediction(ctx, 1)
		require.NoError(t, err)
		outcome, _ := p.Outcome()
		assert.True(t, outcome)
		return nil
	}))
}

func TestUniqueness(t *testing.T) {
	ctx := context.Background()
	s := New()
	err := s.Atomic(ctx, func(tx domain.Tx) error {
		require.NoError(t, tx.InsertCertification(ctx, domain.Certification{ID: 1, PredictionID: 1, Creator: "alice"}))
		assert.ErrorIs(t, tx.InsertCertification(ctx, domain.Certification{ID: 2, PredictionID: 1, Creator: "alice"}), domain.ErrAlreadyExists)
		assert.ErrorIs(t, tx.InsertCertification(ctx, domain.Certification{ID: 1, PredictionID: 2, Creator: "bob"}), domain.ErrAlreadyExists)

		c, err := tx.CertificationFor(ctx, "alice", 1)
		require.NoError(t, err)
		assert.Equal(t, domain.CertificationID(1), c.ID)

		require.NoError(t, tx.InsertReview(ctx, domain.QualityReview{Curator: "carol", PredictionID: 1, Score: 10}))
		assert.ErrorIs(t, tx.InsertReview(ctx, domain.QualityReview{Curator: "carol", PredictionID: 1, Score: 20}), domain.ErrAlreadyExists)

		assert.ErrorIs(t, tx.UpdatePrediction(ctx, domain.Prediction{ID: 5}), domain.ErrNotFound)
		return nil
	})
	require.NoError(t, err)
}

func TestConcurrentSequence(t *testing.T) {
	ctx := context.Background()
	s := New()

	const n = 64
	ids := make(chan uint64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Atomic(ctx, func(tx domain.Tx) error {
				id, err := tx.NextID(ctx, domain.SeqCertification)
				if err == nil {
					ids <- id
				}
				return err
			})
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[uint64]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := New().Atomic(ctx, func(domain.Tx) error { called = true; return nil })
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
