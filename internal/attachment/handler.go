package attachment

import (
	"log/slog"
	"net/http"

	"github.com/civiclink/grievance-management/internal"
	"github.com/civiclink/grievance-management/internal/transport"
	"github.com/civiclink/grievance-management/pkg/logger"
	"github.com/go-chi/chi"
)

type Handler struct {
	*transport.BaseHandler
	Service *Service
}

func NewHandler(svc *Service) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

// Download handles GET /download/{filename}. Staff and admin callers only;
// the name is validated before touching the filesystem.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")

	path, err := h.Service.Resolve(name)
	if err != nil {
		if appErr, ok := internal.IsAppError(err); ok {
			h.WriteAppError(w, appErr)
			return
		}
		h.WriteError(w, http.StatusNotFound, "File not found")
		return
	}

	w.Header().Set("Content-Type", MediaTypeFor(name))
	http.ServeFile(w, r, path)
}
