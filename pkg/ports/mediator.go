package ports

import (
	"context"

	"github.com/aretw0/auticonnect/pkg/domain"
)

// Mediator is the AI mediation gateway for free-form messages.
// Callers must treat an error as "no reply" and fall back to a fixed text.
type Mediator interface {
	Mediate(ctx context.Context, req domain.MediationRequest) (domain.Mediation, error)
}

// MediatorFunc adapts a function to the Mediator interface.
type MediatorFunc func(ctx context.Context, req domain.MediationRequest) (domain.Mediation, error)

// Mediate calls f.
func (f MediatorFunc) Mediate(ctx context.Context, req domain.MediationRequest) (domain.Mediation, error) {
	return f(ctx, req)
}
