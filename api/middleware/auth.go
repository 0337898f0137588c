package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/pickupz-backend/api/responses"
	pkgAuth "github.com/angelmondragon/pickupz-backend/pkg/auth"
	"github.com/angelmondragon/pickupz-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/pickupz-backend/pkg/errors"
	"github.com/angelmondragon/pickupz-backend/pkg/logger"
)

// Auth verifies the access token and stores the caller as an Actor.
// Tokens are issued elsewhere; this service only checks them.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			actor := Actor{UserID: claims.UserID.String(), Role: claims.Role}
			if claims.ActiveStoreID != nil {
				actor.StoreID = claims.ActiveStoreID.String()
			}
			ctx := WithActor(r.Context(), actor)
			if logg != nil {
				ctx = logg.WithUserID(ctx, actor.UserID)
				ctx = logg.WithField(ctx, "actor_role", actor.Role.String())
				if actor.StoreID != "" {
					ctx = logg.WithStoreID(ctx, actor.StoreID)
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken accepts "Bearer <jwt>" or a bare token.
func bearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if scheme, rest, found := strings.Cut(header, " "); found && strings.EqualFold(scheme, "bearer") {
		header = strings.TrimSpace(rest)
	}
	if header == "" || strings.ContainsAny(header, " \t") {
		return "", false
	}
	return header, true
}
