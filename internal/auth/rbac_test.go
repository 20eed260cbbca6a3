package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

// stubTokenValidator lets middleware tests script the validation outcome
// without minting real tokens.
type stubTokenValidator struct {
	identity *Identity
	err      error
}

func (s *stubTokenValidator) Register(dto SignupDTO) (*Account, string, error) { return nil, "", nil }
func (s *stubTokenValidator) Login(dto LoginDTO) (*Account, string, error)     { return nil, "", nil }
func (s *stubTokenValidator) ValidateAccessToken(token string) (*Identity, error) {
	return s.identity, s.err
}

func decodeEnvelope(w *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	gomega.Expect(json.NewDecoder(w.Body).Decode(&body)).To(gomega.Succeed())
	return body
}

var _ = ginkgo.Describe("RBAC middleware", func() {
	var (
		rbac       *RBAC
		nextCalled bool
		next       http.Handler
	)

	ginkgo.BeforeEach(func() {
		rbac = NewRBAC(slog.Default())
		nextCalled = false
		next = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			nextCalled = true
			w.WriteHeader(http.StatusOK)
		})
	})

	serve := func(mw func(http.Handler) http.Handler, identity *Identity) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/admin/complaints", nil)
		if identity != nil {
			req = req.WithContext(ContextWithIdentity(req.Context(), identity))
		}
		w := httptest.NewRecorder()
		mw(next).ServeHTTP(w, req)
		return w
	}

	ginkgo.It("rejects requests without an identity with 401", func() {
		w := serve(rbac.RequireAdmin(), nil)

		gomega.Expect(w.Code).To(gomega.Equal(http.StatusUnauthorized))
		gomega.Expect(nextCalled).To(gomega.BeFalse())
		gomega.Expect(decodeEnvelope(w)["success"]).To(gomega.BeFalse())
	})

	ginkgo.It("rejects citizens on admin routes with 403", func() {
		w := serve(rbac.RequireAdmin(), &Identity{UserID: 42, Username: "citizen_ana", Class: ClassCitizen})

		gomega.Expect(w.Code).To(gomega.Equal(http.StatusForbidden))
		gomega.Expect(nextCalled).To(gomega.BeFalse())
	})

	ginkgo.It("rejects staff on admin-only routes with 403", func() {
		w := serve(rbac.RequireAdmin(), &Identity{UserID: 7, Username: "staff_jo", Class: ClassStaff})

		gomega.Expect(w.Code).To(gomega.Equal(http.StatusForbidden))
	})

	ginkgo.It("passes admins through to the handler", func() {
		w := serve(rbac.RequireAdmin(), &Identity{UserID: 1, Username: "admin", Class: ClassAdmin})

		gomega.Expect(w.Code).To(gomega.Equal(http.StatusOK))
		gomega.Expect(nextCalled).To(gomega.BeTrue())
	})

	ginkgo.It("lets both staff and admins through the staff gate", func() {
		gomega.Expect(serve(rbac.RequireStaffOrAdmin(), &Identity{UserID: 7, Class: ClassStaff}).Code).
			To(gomega.Equal(http.StatusOK))
		gomega.Expect(serve(rbac.RequireStaffOrAdmin(), &Identity{UserID: 1, Class: ClassAdmin}).Code).
			To(gomega.Equal(http.StatusOK))
	})
})

var _ = ginkgo.Describe("Auth middleware", func() {
	var (
		stub    *stubTokenValidator
		handler *Handler
		seen    *Identity
		next    http.Handler
	)

	ginkgo.BeforeEach(func() {
		stub = &stubTokenValidator{}
		handler = NewHandler(stub)
		seen = nil
		next = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen, _ = IdentityFromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		})
	})

	serve := func(authHeader string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/complaints", nil)
		if authHeader != "" {
			req.Header.Set("Authorization", authHeader)
		}
		w := httptest.NewRecorder()
		handler.AuthMiddleware(next).ServeHTTP(w, req)
		return w
	}

	ginkgo.It("rejects requests without a bearer token", func() {
		w := serve("")

		gomega.Expect(w.Code).To(gomega.Equal(http.StatusUnauthorized))
		gomega.Expect(decodeEnvelope(w)["message"]).To(gomega.Equal("Access token required"))
	})

	ginkgo.It("rejects malformed authorization headers", func() {
		w := serve("Basic dXNlcjpwYXNz")
		gomega.Expect(w.Code).To(gomega.Equal(http.StatusUnauthorized))
	})

	ginkgo.It("rejects invalid tokens with 401", func() {
		stub.err = ErrInvalidToken
		gomega.Expect(serve("Bearer garbage").Code).To(gomega.Equal(http.StatusUnauthorized))
	})

	ginkgo.It("rejects expired tokens with 401", func() {
		stub.err = ErrTokenExpired
		gomega.Expect(serve("Bearer stale").Code).To(gomega.Equal(http.StatusUnauthorized))
	})

	ginkgo.It("rejects deactivated accounts with 403", func() {
		stub.err = ErrUserInactive
		gomega.Expect(serve("Bearer token").Code).To(gomega.Equal(http.StatusForbidden))
	})

	ginkgo.It("places the identity in the request context on success", func() {
		stub.identity = &Identity{UserID: 7, Username: "staff_jo", Class: ClassStaff}

		w := serve("Bearer token")

		gomega.Expect(w.Code).To(gomega.Equal(http.StatusOK))
		gomega.Expect(seen).ToNot(gomega.BeNil())
		gomega.Expect(seen.UserID).To(gomega.Equal(int64(7)))
		gomega.Expect(seen.Class).To(gomega.Equal(ClassStaff))
	})
})
