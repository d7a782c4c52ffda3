// Package httpapi implements the versioned HTTP surface of spec.md §6:
// student registration/lookup, certificate submission/status/history,
// coordinator review, and health, grounded on
// original_source/routes/{student,certificate,coordinator,health}.py and
// the chi.Router + go-chi/cors wiring pattern shown in
// jordigilh-kubernaut/test/integration/gateway/cors_test.go.
package httpapi

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"

	"github.com/eduflow/certflow/internal/config"
	"github.com/eduflow/certflow/internal/intake"
	"github.com/eduflow/certflow/internal/llm"
	"github.com/eduflow/certflow/internal/objectstore"
	"github.com/eduflow/certflow/internal/repository"
	"github.com/eduflow/certflow/internal/review"
	"github.com/eduflow/certflow/internal/statusapi"
)

var validate = validator.New()

// Deps bundles the collaborators the HTTP surface depends on.
type Deps struct {
	Cfg         config.Config
	DB          *sql.DB
	Students    *repository.StudentRepository
	Submissions *repository.SubmissionRepository
	Categories  *repository.CategoryRepository
	Intake      *intake.Service
	Status      *statusapi.Service
	Review      *review.Service
	Store       objectstore.Store
	LLM         llm.Client
}

// NewRouter builds the full /api/v1 router with CORS, request logging, and
// a bounded request body size, matching spec.md §6's surface.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.Cfg.HTTP.CorsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	h := &handlers{d: d}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.health)

		r.Route("/student", func(r chi.Router) {
			r.Post("/register", h.registerStudent)
			r.Get("/{enrollmentNumber}", h.getStudent)
			r.Put("/{enrollmentNumber}", h.updateStudent)
		})

		r.Route("/certificate", func(r chi.Router) {
			r.With(middleware.RequestSize(d.Cfg.HTTP.MaxUploadBytes)).Post("/submit", h.submitCertificate)
			r.Get("/status/{submissionID}", h.submissionStatus)
			r.Get("/student/{enrollmentNumber}/submissions", h.studentSubmissions)
		})

		r.Route("/coordinator", func(r chi.Router) {
			r.Get("/pending", h.pendingSubmissions)
			r.Get("/submission/{submissionID}", h.submissionDetail)
			r.Post("/approve/{submissionID}", h.approveSubmission)
			r.Post("/reject/{submissionID}", h.rejectSubmission)
		})
	})

	return r
}

type handlers struct {
	d Deps
}
