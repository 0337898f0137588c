package orders

import (
	"context"
	"crypto/subtle"

	"github.com/angelmondragon/pickupz-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/pickupz-backend/pkg/errors"
	"github.com/google/uuid"
)

// VerifyPickup completes a ready order when code matches its pickup code.
// A mismatch leaves the order ready and counts the failed attempt.
func (s *service) VerifyPickup(ctx context.Context, id uuid.UUID, code string) (Order, error) {
	e, ok := s.registry.get(id)
	if !ok {
		return Order{}, orderNotFound(id)
	}
	if !ValidPickupCode(code) {
		return Order{}, pkgerrors.New(pkgerrors.CodeValidation, "pickup code must be 4 digits")
	}

	e.mu.Lock()
	current := e.order
	if current.Status != enums.OrderStatusReady {
		e.mu.Unlock()
		return Order{}, pkgerrors.New(pkgerrors.CodeInvalidState, "order is not ready for pickup").
			WithDetails(map[string]any{"status": current.Status})
	}

	limit := s.settings.MaxPickupAttempts
	if limit > 0 && current.FailedPickupAttempts >= limit {
		e.mu.Unlock()
		s.metrics.PickupVerified(verifyResultLocked)
		return Order{}, pkgerrors.New(pkgerrors.CodeRateLimit, "too many failed pickup attempts").
			WithDetails(map[string]any{"attempts": current.FailedPickupAttempts})
	}

	if subtle.ConstantTimeCompare([]byte(code), []byte(current.PickupCode)) != 1 {
		next := current
		next.FailedPickupAttempts++
		next.UpdatedAt = s.clock.Now().UTC()
		// counted in memory even if the save fails
		e.order = next
		saveErr := s.repo.Save(ctx, next)
		e.mu.Unlock()

		if saveErr != nil {
			s.logg.Error(s.logg.WithOrderID(ctx, id.String()), "persist failed pickup attempt", saveErr)
		}
		s.metrics.PickupVerified(verifyResultMismatch)
		details := map[string]any{"reason": "pickup_code_mismatch", "attempts": next.FailedPickupAttempts}
		if limit > 0 {
			details["attempts_remaining"] = max(limit-next.FailedPickupAttempts, 0)
		}
		return Order{}, pkgerrors.New(pkgerrors.CodeValidation, "pickup code does not match").WithDetails(details)
	}

	order, changed, err := s.applyLocked(ctx, e, enums.OrderStatusCompleted, "", triggerPickup)
	e.mu.Unlock()
	if err != nil {
		return Order{}, err
	}
	s.metrics.PickupVerified(verifyResultMatch)
	if changed {
		s.emit(ctx, order)
	}
	return order, nil
}
