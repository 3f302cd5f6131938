package http

import (
	"net/http"

	_ "github.com/DRSN-tech/respondr-media/docs" // Импорт описания API
	"github.com/DRSN-tech/respondr-media/internal/usecase"
	"github.com/DRSN-tech/respondr-media/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

type Router struct {
	router *chi.Mux
	logger logger.Logger
}

func NewRouter(router *chi.Mux, logger logger.Logger) *Router {
	return &Router{router: router, logger: logger}
}

// RouterDeps — зависимости, которые монтирует роутер.
type RouterDeps struct {
	AttachmentUC   usecase.AttachmentUC
	JWTSecret      string
	AllowedOrigins []string
	Metrics        http.Handler
}

func (r *Router) Init(deps RouterDeps) {
	r.router.Use(middleware.RequestID)
	r.router.Use(middleware.RealIP)
	r.router.Use(RequestLogger(r.logger))
	r.router.Use(middleware.Recoverer)
	r.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: deps.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		WriteSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if deps.Metrics != nil {
		r.router.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.router.Route("/api/v1", func(v1 chi.Router) {
		v1.Use(RequireAuth(deps.JWTSecret))

		handler := NewAttachmentHandler(deps.AttachmentUC, r.logger)
		registerAttachmentRoutes(v1, handler)
	})
}

func registerAttachmentRoutes(router chi.Router, h *AttachmentHandler) {
	router.Post("/incidents/{incidentID}/images", h.uploadIncidentImage)

	router.Route("/attachments", func(at chi.Router) {
		at.Get("/url", h.getDownloadURL)
		at.Post("/pending/{pendingID}/retry", h.retryPending)
		at.Delete("/pending/{pendingID}", h.discardPending)
	})
}
