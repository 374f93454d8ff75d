package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/camden-git/namerecall/monitoring"
	"github.com/camden-git/namerecall/realtime"
	"github.com/camden-git/namerecall/session"
	"github.com/camden-git/namerecall/web"
	"github.com/camden-git/namerecall/workers"
)

// RouterConfig carries everything the HTTP surface is built from. Hub, Cache,
// Metrics and ServiceWorker are optional.
type RouterConfig struct {
	Session        *session.Session
	AvatarReader   *workers.AvatarReader
	MaxUploadBytes int64
	Hub            *realtime.Hub
	Metrics        *monitoring.Metrics
	Cache          *web.Cache
	ServiceWorker  []byte
	AllowedOrigins []string
	RequestTimeout time.Duration
	Logger         *zap.Logger
}

// NewRouter builds the chi router: the JSON API under /api, the change feed,
// metrics and the shell, which is answered from the asset cache before
// routing.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}

	r := chi.NewRouter()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	})

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger.Named("http")))
	r.Use(middleware.Recoverer)
	r.Use(corsHandler.Handler)
	if cfg.Cache != nil {
		r.Use(cfg.Cache.Handler)
	}

	personHandler := &PersonHandler{Session: cfg.Session, Logger: logger}
	tagHandler := &TagHandler{Session: cfg.Session}
	avatarHandler := &AvatarHandler{Reader: cfg.AvatarReader, MaxUploadBytes: cfg.MaxUploadBytes, Logger: logger}

	r.Route("/api", func(r chi.Router) {
		// the websocket outlives any request timeout
		if cfg.Hub != nil {
			r.Get("/events", cfg.Hub.ServeWS)
		}

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(cfg.RequestTimeout))

			r.Route("/people", func(r chi.Router) {
				r.Get("/", personHandler.ListPeople)
				r.Post("/", personHandler.CreatePerson)
				r.Route("/{person_id}", func(r chi.Router) {
					r.Get("/", personHandler.GetPerson)
					r.Put("/", personHandler.UpdatePerson)
					r.Delete("/", personHandler.DeletePerson)
				})
			})

			r.Get("/tags", tagHandler.ListTags)
			r.Post("/tags/preview", tagHandler.PreviewTags)
			r.Put("/filter", tagHandler.SetFilter)
			r.Delete("/filter", tagHandler.ClearFilter)
			r.Put("/search", tagHandler.SetSearch)

			if cfg.AvatarReader != nil {
				r.Post("/avatars/{slot}", avatarHandler.UploadAvatar)
			}
		})
	})

	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics.Handler())
	}
	if cfg.ServiceWorker != nil {
		r.Get(web.ServiceWorkerPath, AssetServer("sw.js", cfg.ServiceWorker, 0))
	}

	return r
}
