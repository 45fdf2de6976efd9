package rates

import (
	"context"
	"time"

	"github.com/muniwatch/debt-service/internal/models"
)

// StaticProvider returns a fixed yield. A non-zero manual override is placed
// at the head of the candidate list as one of these, so override behavior
// composes with the normal chain walk instead of short-circuiting it.
type StaticProvider struct {
	name  string
	value float64
}

// NewStaticProvider creates a constant-yield provider with the given identifier.
func NewStaticProvider(name string, value float64) *StaticProvider {
	return &StaticProvider{name: name, value: value}
}

func (p *StaticProvider) Name() string { return p.name }

func (p *StaticProvider) Fetch(_ context.Context) (models.Observation, error) {
	return models.Observation{
		Value:      p.value,
		Source:     p.name,
		ObservedAt: time.Now(),
	}, nil
}
