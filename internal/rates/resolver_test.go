package rates

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muniwatch/debt-service/internal/models"
)

type fakeProvider struct {
	name  string
	value float64
	err   error
	slow  bool
	calls int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Fetch(ctx context.Context) (models.Observation, error) {
	f.calls++
	if f.slow {
		select {
		case <-ctx.Done():
			return models.Observation{}, ctx.Err()
		case <-time.After(time.Second):
		}
	}
	if f.err != nil {
		return models.Observation{}, f.err
	}
	return models.Observation{Value: f.value, ObservedAt: time.Now()}, nil
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestResolveStopsAtFirstWinner(t *testing.T) {
	timeoutSrc := &fakeProvider{name: "one", slow: true}
	malformedSrc := &fakeProvider{name: "two", err: errors.New("failed to decode response")}
	goodSrc := &fakeProvider{name: "three", value: 3.9}
	untouched := &fakeProvider{name: "four", value: 5.0}

	r := NewResolver([]Provider{timeoutSrc, malformedSrc, goodSrc, untouched},
		3.45, models.ResolveAvailabilityFirst, 30*time.Millisecond, testLogger())

	obs, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3.9, obs.Value)
	assert.Equal(t, "three", obs.Source)
	assert.Equal(t, 0, untouched.calls, "resolution must stop at the first winner")
	assert.Equal(t, 1, timeoutSrc.calls)
	assert.Equal(t, 1, malformedSrc.calls)
}

func TestResolveSkipsNonPositiveValues(t *testing.T) {
	zero := &fakeProvider{name: "zero", value: 0}
	negative := &fakeProvider{name: "negative", value: -2.1}
	good := &fakeProvider{name: "good", value: 4.2}

	r := NewResolver([]Provider{zero, negative, good},
		3.45, models.ResolveAvailabilityFirst, 30*time.Millisecond, testLogger())

	obs, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "good", obs.Source)
	assert.Equal(t, 4.2, obs.Value)
}

func TestResolveExhaustionAvailabilityFirst(t *testing.T) {
	r := NewResolver([]Provider{
		&fakeProvider{name: "one", err: errors.New("connection refused")},
		&fakeProvider{name: "two", err: errors.New("unexpected status code: 503")},
	}, 3.45, models.ResolveAvailabilityFirst, 30*time.Millisecond, testLogger())

	obs, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3.45, obs.Value)
	assert.Equal(t, "fallback", obs.Source)
	assert.False(t, obs.ObservedAt.IsZero())
}

func TestResolveExhaustionStrict(t *testing.T) {
	r := NewResolver([]Provider{
		&fakeProvider{name: "one", err: errors.New("connection refused")},
	}, 3.45, models.ResolveStrict, 30*time.Millisecond, testLogger())

	_, err := r.Resolve(context.Background())
	assert.ErrorIs(t, err, ErrExhausted)
}

func TestResolveManualOverrideComposes(t *testing.T) {
	override := NewStaticProvider("manual_override", 3.861)
	live := &fakeProvider{name: "live", value: 4.5}

	r := NewResolver([]Provider{override, live},
		3.45, models.ResolveAvailabilityFirst, 30*time.Millisecond, testLogger())

	obs, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3.861, obs.Value)
	assert.Equal(t, "manual_override", obs.Source)
	assert.Equal(t, 0, live.calls)
}
