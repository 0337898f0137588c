package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/pickupz-backend/api/responses"
	pkgerrors "github.com/angelmondragon/pickupz-backend/pkg/errors"
	"github.com/angelmondragon/pickupz-backend/pkg/logger"
)

// StoreContext requires the token to name the store the merchant is acting on.
func StoreContext(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			storeID := StoreIDFromContext(r.Context())
			if storeID == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "store context missing"))
				return
			}
			if _, err := uuid.Parse(storeID); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeForbidden, err, "store context invalid"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
