package api

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"rbreg/internal/config"
	"rbreg/internal/http-server/handlers/account"
	"rbreg/internal/http-server/handlers/ci"
	"rbreg/internal/http-server/handlers/errors"
	"rbreg/internal/http-server/handlers/events"
	"rbreg/internal/http-server/handlers/qrgen"
	"rbreg/internal/http-server/handlers/regis"
	"rbreg/internal/http-server/middleware/authenticate"
	"rbreg/internal/http-server/middleware/running"
	"rbreg/internal/http-server/middleware/timeout"
	"rbreg/lib/sl"
)

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	log        *slog.Logger
}

type Handler interface {
	authenticate.Resolver
	running.EventLoader
	account.Core
	events.Core
	regis.Core
	ci.Core
	qrgen.Core
}

func New(conf *config.Config, log *slog.Logger, handler Handler) error {

	server := Server{
		conf: conf,
		log:  log.With(sl.Module("api.server")),
	}

	router := chi.NewRouter()
	router.Use(timeout.Timeout(5))
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(render.SetContentType(render.ContentTypeJSON))

	router.NotFound(errors.NotFound(log))
	router.MethodNotAllowed(errors.NotAllowed(log))

	gate := running.New(log, handler)

	router.Route("/v1", func(rootApi chi.Router) {
		rootApi.Use(authenticate.New(log, handler))

		rootApi.Get("/profile", account.Profile(log))
		rootApi.Post("/profile", account.Setup(log, handler))

		rootApi.Group(func(private chi.Router) {
			private.Use(authenticate.RequireProfile)

			private.Delete("/account", account.Delete(log, handler))

			private.Route("/events", func(ev chi.Router) {
				ev.Post("/", events.Create(log, handler))
				ev.Get("/my", events.My(log, handler))
				ev.Route("/{id}", func(one chi.Router) {
					one.Get("/", events.View(log, handler))
					one.Patch("/", events.Update(log, handler))
					one.Delete("/", events.Delete(log, handler))
					one.Get("/manage", events.Manage(log, handler))
					one.Get("/qr", qrgen.Image(log, handler))
					one.Post("/register", regis.Register(log, handler))
					one.Delete("/register", regis.Unregister(log, handler))
					one.Post("/register/manual", regis.Manual(log, handler))
					one.With(gate).Post("/checkin", ci.Manual(log, handler))
				})
			})
		})
	})

	// Channel A and B run without an account: the gate pass is the only
	// credential once the running middleware lets the event through.
	router.Route("/ci/{id}", func(pub chi.Router) {
		pub.Use(gate)
		pub.Post("/code", ci.Code(log, handler))
		pub.Get("/entities", ci.Pending(log, handler))
		pub.Post("/dynamic", ci.Dynamic(log, handler))
	})

	router.Get("/events/{id}/open", events.AutoOpen(log, handler))

	httpLog := slog.NewLogLogger(log.Handler(), slog.LevelError)
	server.httpServer = &http.Server{
		Handler:      router,
		ErrorLog:     httpLog,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverAddress := fmt.Sprintf("%s:%s", conf.Listen.BindIp, conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	server.log.Info("starting api server", slog.String("address", serverAddress))

	return server.httpServer.Serve(listener)
}
