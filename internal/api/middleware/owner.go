package middleware

import (
	"net/http"
	"regexp"

	"github.com/cmorris/wordforge/internal/api/shared"
)

// OwnerIDHeader identifies the calling owner for quota accounting and
// job scoping. Callers are identified, not authenticated; this service
// sits behind an ingress that has already verified the caller.
const OwnerIDHeader = "X-Owner-ID"

var ownerIDPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,128}$`)

// RequireOwner extracts and validates the owner ID header, storing it
// on the request context. Requests without a valid owner ID are
// rejected before reaching any handler.
func RequireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ownerID := r.Header.Get(OwnerIDHeader)
		if ownerID == "" {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Missing "+OwnerIDHeader+" header")
			return
		}
		if !ownerIDPattern.MatchString(ownerID) {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid "+OwnerIDHeader+" header")
			return
		}

		ctx := shared.SetOwnerID(r.Context(), ownerID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
