package rest

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"

	"github.com/civiclink/grievance-management/internal"
	"github.com/civiclink/grievance-management/internal/attachment"
	"github.com/civiclink/grievance-management/internal/auth"
	"github.com/civiclink/grievance-management/internal/complaint"
	"github.com/civiclink/grievance-management/internal/metrics"
	"github.com/civiclink/grievance-management/internal/transport/middleware"
	"github.com/civiclink/grievance-management/internal/transport/swagger"
	"github.com/civiclink/grievance-management/internal/user"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

func RegisterAllRoutes(
	router *chi.Mux,
	db *sql.DB,
	cfg *internal.Config,
	authHandler *auth.Handler,
	rbac *auth.RBAC,
	userHandler *user.Handler,
	complaintHandler *complaint.Handler,
	attachmentHandler *attachment.Handler,
	logger *slog.Logger,
) {
	healthHandler := NewHealthHandler(db)

	corsConfig := middleware.DefaultCORSConfig()
	if cfg.Server.AllowedOrigins != "" {
		corsConfig.AllowedOrigins = splitOrigins(cfg.Server.AllowedOrigins)
	}

	// Apply global middleware
	router.Use(middleware.CORS(corsConfig))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(metrics.HTTPMiddleware)

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	// Swagger UI route at root
	router.Handle("/swagger/*", swagger.Handler())

	if cfg.Observability.Metrics.Enabled {
		router.Handle(cfg.Observability.Metrics.Path, metrics.Handler())
	}

	authLimiter := middleware.NewIPRateLimiter(
		float64(cfg.Server.AuthRateLimit),
		cfg.Server.AuthRateBurst,
	)

	router.Route("/api", func(r chi.Router) {
		// Health check routes
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Credential endpoints, rate limited per IP
		r.Group(func(ar chi.Router) {
			ar.Use(authLimiter.Middleware)
			ar.Post("/signup", authHandler.Signup)
			ar.Post("/login", authHandler.Login)
		})

		// Everything below requires a valid bearer token
		r.Group(func(pr chi.Router) {
			pr.Use(authHandler.AuthMiddleware)

			// Profile
			pr.Get("/profile", userHandler.GetProfile)
			pr.Put("/profile", userHandler.UpdateProfile)

			// Citizen complaint routes
			pr.Route("/complaints", func(cr chi.Router) {
				cr.Post("/", complaintHandler.Create)
				cr.Get("/", complaintHandler.ListMine)
				cr.Get("/{id}", complaintHandler.GetMine)
			})

			// Admin routes
			pr.Group(func(adm chi.Router) {
				adm.Use(rbac.RequireAdmin())

				adm.Get("/users", userHandler.ListUsers)
				adm.Get("/users/{id}", userHandler.GetUser)
				adm.Get("/admin/staff", userHandler.ListStaff)

				adm.Route("/admin/complaints", func(ac chi.Router) {
					ac.Get("/", complaintHandler.AdminList)
					ac.Get("/stats", complaintHandler.GetStats)
					ac.Put("/{id}/assign", complaintHandler.Assign)
					ac.Put("/{id}/escalate", complaintHandler.Escalate)
					ac.Put("/{id}/priority", complaintHandler.SetPriority)
					ac.Put("/{id}/status", complaintHandler.UpdateStatus)
				})
			})

			// Staff routes, admins included
			pr.Group(func(st chi.Router) {
				st.Use(rbac.RequireStaffOrAdmin())

				st.Route("/staff/complaints", func(sc chi.Router) {
					sc.Get("/", complaintHandler.StaffList)
					sc.Put("/{id}/status", complaintHandler.UpdateStatus)
					sc.Post("/{id}/comments", complaintHandler.AddComment)
					sc.Put("/{id}/lock", complaintHandler.Lock)
				})

				st.Get("/download/{filename}", attachmentHandler.Download)
			})
		})
	})
}

func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
