package rates

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/muniwatch/debt-service/internal/models"
)

// ErrExhausted is returned under the strict policy when every candidate
// source has failed and no fallback applies.
var ErrExhausted = errors.New("rate resolution exhausted all sources")

// Resolver walks an ordered list of providers and returns the first usable
// observation. Any error, timeout, or non-positive value from a candidate is
// a soft failure: it is logged and the walk advances to the next candidate.
type Resolver struct {
	candidates []Provider
	fallback   float64
	policy     models.ResolvePolicy
	timeout    time.Duration
	log        *logrus.Logger
}

// NewResolver builds a resolver over candidates in priority order. timeout
// bounds each individual fetch; fallback is the last-known-good value used
// on exhaustion under the availability-first policy.
func NewResolver(candidates []Provider, fallback float64, policy models.ResolvePolicy, timeout time.Duration, log *logrus.Logger) *Resolver {
	return &Resolver{
		candidates: candidates,
		fallback:   fallback,
		policy:     policy,
		timeout:    timeout,
		log:        log,
	}
}

// Resolve produces one observation. Under availability-first it cannot fail:
// exhaustion yields the fallback value tagged source="fallback". Under strict
// it returns ErrExhausted instead.
func (r *Resolver) Resolve(ctx context.Context) (models.Observation, error) {
	for _, candidate := range r.candidates {
		obs, err := r.try(ctx, candidate)
		if err != nil {
			r.log.Warnf("Rate source %s failed, trying next: %v", candidate.Name(), err)
			continue
		}
		r.log.Infof("Resolved bond yield %.3f%% from %s", obs.Value, candidate.Name())
		return obs, nil
	}

	if r.policy == models.ResolveStrict {
		return models.Observation{}, ErrExhausted
	}

	r.log.Warnf("All rate sources exhausted, using fallback %.3f%%", r.fallback)
	return models.Observation{
		Value:      r.fallback,
		Source:     "fallback",
		ObservedAt: time.Now(),
	}, nil
}

func (r *Resolver) try(ctx context.Context, candidate Provider) (models.Observation, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	obs, err := candidate.Fetch(fetchCtx)
	if err != nil {
		return models.Observation{}, err
	}
	if math.IsNaN(obs.Value) || math.IsInf(obs.Value, 0) || obs.Value <= 0 {
		return models.Observation{}, fmt.Errorf("unusable yield value %v", obs.Value)
	}

	obs.Source = candidate.Name()
	if obs.ObservedAt.IsZero() {
		obs.ObservedAt = time.Now()
	}
	return obs, nil
}
