package service

import (
	"context"

	"AstroCarto/internal/domain/models"
)

// PositionProvider supplies celestial body positions for an instant.
//
// Implementations must return a fully populated BodyPosition or an error;
// NaN fields are treated as a collaborator failure by the engine. The
// engine wraps providers so that each (body, instant) is queried at most
// once per request.
type PositionProvider interface {
	GetPosition(ctx context.Context, body models.Body, jd float64) (models.BodyPosition, error)
}
