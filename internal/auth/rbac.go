package auth

import (
	"log/slog"
	"net/http"

	"github.com/civiclink/grievance-management/internal/transport"
)

// RBAC gates routes by coarse class. Assignment-level checks live in the
// complaint service because they need the record.
type RBAC struct {
	logger *slog.Logger
}

func NewRBAC(logger *slog.Logger) *RBAC {
	return &RBAC{logger: logger}
}

// RequireClass builds a middleware that rejects identities outside the
// allowed classes with 403. Requests without an identity get 401.
func (ra *RBAC) RequireClass(allowed ...Class) func(http.Handler) http.Handler {
	allowedSet := make(map[Class]bool, len(allowed))
	for _, c := range allowed {
		allowedSet[c] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok || identity == nil {
				transport.WriteErrorEnvelope(w, http.StatusUnauthorized, "Access token required", nil)
				return
			}

			if !allowedSet[identity.Class] {
				ra.logger.Warn("access denied: class not allowed",
					"user_id", identity.UserID,
					"class", identity.Class,
					"path", r.URL.Path)
				transport.WriteErrorEnvelope(w, http.StatusForbidden, "Access denied. Insufficient privileges.", nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (ra *RBAC) RequireAdmin() func(http.Handler) http.Handler {
	return ra.RequireClass(ClassAdmin)
}

func (ra *RBAC) RequireStaffOrAdmin() func(http.Handler) http.Handler {
	return ra.RequireClass(ClassStaff, ClassAdmin)
}
