package rates

import (
	"context"

	"github.com/muniwatch/debt-service/internal/models"
)

// Provider fetches one benchmark bond yield observation from an external
// source. Implementations make a single attempt and honor ctx cancellation.
type Provider interface {
	Name() string
	Fetch(ctx context.Context) (models.Observation, error)
}
