package controllers

import (
	"net/http"

	"github.com/angelmondragon/pickupz-backend/api/middleware"
	"github.com/angelmondragon/pickupz-backend/api/responses"
)

type pingResponse struct {
	Status  string `json:"status"`
	UserID  string `json:"user_id,omitempty"`
	Role    string `json:"role,omitempty"`
	StoreID string `json:"store_id,omitempty"`
}

func PublicPing() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		responses.WriteSuccess(w, pingResponse{Status: "ok"})
	}
}

// PrivatePing echoes the authenticated actor, useful for checking a token end to end.
func PrivatePing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := middleware.ActorFromContext(r.Context())
		responses.WriteSuccess(w, pingResponse{
			Status:  "ok",
			UserID:  actor.UserID,
			Role:    actor.Role.String(),
			StoreID: actor.StoreID,
		})
	}
}
