package analytics

import (
	"net/http"

	"github.com/angelmondragon/pickupz-backend/api/middleware"
	"github.com/angelmondragon/pickupz-backend/api/responses"
	"github.com/angelmondragon/pickupz-backend/api/validators"
	"github.com/angelmondragon/pickupz-backend/internal/analytics"
	pkgerrors "github.com/angelmondragon/pickupz-backend/pkg/errors"
	"github.com/angelmondragon/pickupz-backend/pkg/logger"
)

// StoreMetrics reports order counts and completed-order money totals for the active store.
func StoreMetrics(service analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if service == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "analytics service unavailable"))
			return
		}

		storeID, err := validators.ParseContextUUID(middleware.StoreIDFromContext(ctx), "store", pkgerrors.CodeForbidden)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := service.StoreMetrics(ctx, storeID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
