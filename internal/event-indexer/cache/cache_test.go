package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/stake-predict-platform/pkg/contracts/events"
)

func env(t *testing.T, typ events.Type, height uint64, payload any) events.Envelope {
	t.Helper()
	e, err := events.New(typ, 1, height, payload)
	require.NoError(t, err)
	return e
}

func TestApplySequence(t *testing.T) {
	var s Snapshot
	var err error
	steps := []events.Envelope{
		env(t, events.TypePredictionCreated, 0, events.PredictionCreated{PredictionID: 1, Creator: "c", Title: "rain", Domain: "weather", EndHeight: 10}),
		env(t, events.TypeStakePlaced, 2, events.StakePlaced{PredictionID: 1, StakeYesTotal: "1000000", StakeNoTotal: "0"}),
		env(t, events.TypeStakePlaced, 3, events.StakePlaced{PredictionID: 1, StakeYesTotal: "1000000", StakeNoTotal: "3000000"}),
		env(t, events.TypePredictionResolved, 10, events.PredictionResolved{PredictionID: 1, Outcome: true, ResolvedHeight: 10}),
		env(t, events.TypeRewardsClaimed, 11, events.RewardsClaimed{PredictionID: 1, TransferStatus: events.TransferSettled}),
		env(t, events.TypeRewardsClaimed, 12, events.RewardsClaimed{PredictionID: 1, TransferStatus: events.TransferFailed}),
	}
	for _, e := range steps {
		s, err = Apply(s, e)
		require.NoError(t, err)
	}

	assert.Equal(t, "rain", s.Title)
	assert.Equal(t, "3000000", s.StakeNoTotal)
	assert.Equal(t, uint64(2), s.Stakes)
	require.NotNil(t, s.Outcome)
	assert.True(t, *s.Outcome)
	assert.Equal(t, uint64(2), s.Claims)
	assert.Equal(t, uint64(1), s.ClaimFailures)
	assert.Equal(t, uint64(12), s.LastHeight)
	assert.Equal(t, steps[len(steps)-1].EventID, s.LastEventID)
}

func TestApplyRejectsUnknownType(t *testing.T) {
	_, err := Apply(Snapshot{}, events.Envelope{Type: "odds-updated", PredictionID: 1})
	assert.Error(t, err)
}

// fakeKV guarda os valores num map usando os construtores de resultado do go-redis
type fakeKV struct {
	data map[string]string
	ttl  time.Duration
}

func (f *fakeKV) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeKV) Set(_ context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	f.data[key] = string(value.([]byte))
	f.ttl = ttl
	return redis.NewStatusResult("OK", nil)
}

func TestRedisCacheApply(t *testing.T) {
	kv := &fakeKV{data: map[string]string{}}
	c := NewRedisCache(kv, time.Minute)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = c.Apply(ctx, env(t, events.TypePredictionCreated, 0, events.PredictionCreated{PredictionID: 1, Title: "rain"}))
	require.NoError(t, err)
	_, err = c.Apply(ctx, env(t, events.TypeCertificationIssued, 5, events.CertificationIssued{PredictionID: 1}))
	require.NoError(t, err)

	s, ok, err := c.Get(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "rain", s.Title)
	assert.Equal(t, uint64(1), s.Certifications)
	assert.Equal(t, time.Minute, kv.ttl)
	assert.Contains(t, kv.data, "prediction:snapshot:1")
}
