package attachment

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/go-chi/chi"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("Attachment Handler", func() {
	var (
		handler *Handler
		router  *chi.Mux
		dir     string
	)

	ginkgo.BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "uploads")
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		service, err := NewService(dir, 1<<20, 5, slog.Default())
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		handler = NewHandler(service)
		router = chi.NewRouter()
		router.Get("/download/{filename}", handler.Download)
	})

	ginkgo.AfterEach(func() {
		gomega.Expect(os.RemoveAll(dir)).To(gomega.Succeed())
	})

	ginkgo.Describe("Download", func() {
		ginkgo.It("serves a stored file with its media type", func() {
			stored, err := handler.Service.Store(buildUpload("notes.txt"))
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			req := httptest.NewRequest(http.MethodGet, "/download/"+stored[0].StoredName, nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			gomega.Expect(w.Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(w.Header().Get("Content-Type")).To(gomega.Equal("text/plain"))
			gomega.Expect(w.Body.String()).To(gomega.ContainSubstring("file contents for notes.txt"))
		})

		ginkgo.It("rejects dot-only names before touching the filesystem", func() {
			req := httptest.NewRequest(http.MethodGet, "/download/..", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			gomega.Expect(w.Code).To(gomega.Equal(http.StatusBadRequest))

			var body map[string]interface{}
			gomega.Expect(json.NewDecoder(w.Body).Decode(&body)).To(gomega.Succeed())
			gomega.Expect(body["success"]).To(gomega.BeFalse())
			gomega.Expect(body["message"]).To(gomega.Equal("Invalid filename"))
		})

		ginkgo.It("rejects names with disallowed characters", func() {
			req := httptest.NewRequest(http.MethodGet, "/download/%2e%2e%2fsecret.txt", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			gomega.Expect(w.Code).To(gomega.Equal(http.StatusBadRequest))
		})

		ginkgo.It("returns 404 for names that pass validation but do not exist", func() {
			req := httptest.NewRequest(http.MethodGet, "/download/missing.pdf", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			gomega.Expect(w.Code).To(gomega.Equal(http.StatusNotFound))
		})
	})
})
