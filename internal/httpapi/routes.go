package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/DoyleJ11/card-table-backend/internal/logging"
	"github.com/DoyleJ11/card-table-backend/internal/ws"
)

type Deps struct {
	Tables Tables
	Lobby  Lister
	Auth   *ws.Authenticator
	// Socket serves /ws; nil leaves the route out.
	Socket http.Handler
	Logger *zap.Logger
}

func SetupRoutes(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(d.Logger))
	r.Use(middleware.Recoverer)

	// Public routes
	r.Get("/healthz", Healthz)
	r.Get("/variants", ListVariants(d.Tables))
	r.Post("/auth/guest", GuestToken(d.Auth, d.Logger))
	r.Route("/tables", func(r chi.Router) {
		r.Get("/", ListTables(d.Lobby))
		r.Post("/", CreateTable(d.Tables, d.Logger))
		r.Get("/{id}", GetTable(d.Tables, d.Logger))
	})
	if d.Socket != nil {
		r.Method(http.MethodGet, "/ws", d.Socket)
	}
	return r
}
