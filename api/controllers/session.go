package controllers

import (
	"net/http"

	"github.com/ayamansour/souqsync/api/middleware"
	"github.com/ayamansour/souqsync/api/responses"
	"github.com/ayamansour/souqsync/api/validators"
	"github.com/ayamansour/souqsync/internal/session"
	pkgerrors "github.com/ayamansour/souqsync/pkg/errors"
	"github.com/ayamansour/souqsync/pkg/logger"
)

type sessionAdoptRequest struct {
	GuestSessionKey string `json:"guestSessionKey" validate:"required"`
}

// SessionAdopt merges a guest session's cart into the caller's
// authenticated session, typically right after login.
func SessionAdopt(manager *session.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sessionAdoptRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, ok := middleware.IdentityFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session identity missing from request"))
			return
		}

		if err := manager.Adopt(r.Context(), req.GuestSessionKey, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "adopted"})
	}
}
