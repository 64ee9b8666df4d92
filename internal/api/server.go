// Package api exposes the controller over HTTP: schedule CRUD, track
// uploads, manual amplifier control, and engine diagnostics.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"ampsched/internal/actuator"
	"ampsched/internal/engine"
	"ampsched/internal/history"
	"ampsched/internal/store"
	logx "ampsched/pkg/logx"
)

// Server wires the HTTP surface to the engine and the stores.
type Server struct {
	addr         string
	readTimeout  time.Duration
	writeTimeout time.Duration

	eng    *engine.Service
	tracks *store.TrackStore
	gw     actuator.Gateway
	hist   history.Store
	log    logx.Logger
}

// Options carries the collaborators the HTTP layer exposes.
type Options struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	Engine  *engine.Service
	Tracks  *store.TrackStore
	Gateway actuator.Gateway
	History history.Store // optional
}

func New(opts Options, log logx.Logger) *Server {
	if log.IsZero() {
		log = logx.Nop()
	}
	addr := opts.Addr
	if addr == "" {
		addr = ":5000"
	}
	rt := opts.ReadTimeout
	if rt <= 0 {
		rt = 15 * time.Second
	}
	wt := opts.WriteTimeout
	if wt <= 0 {
		// Uploads stream whole audio files; allow them time.
		wt = 60 * time.Second
	}
	return &Server{
		addr:         addr,
		readTimeout:  rt,
		writeTimeout: wt,
		eng:          opts.Engine,
		tracks:       opts.Tracks,
		gw:           opts.Gateway,
		hist:         opts.History,
		log:          log,
	}
}

// Handler builds the router. Exposed separately from Serve for tests.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/status", s.handleStatus)

	r.Route("/schedules", func(r chi.Router) {
		r.Get("/", s.handleListSchedules)
		r.Post("/", s.handleCreateSchedule)
		r.Put("/{id}", s.handleUpdateSchedule)
		r.Delete("/{id}", s.handleDeleteSchedule)
	})

	r.Get("/songs-list", s.handleListSongs)
	r.Post("/uploads", s.handleUpload)
	r.Route("/songs", func(r chi.Router) {
		r.Get("/{filename}", s.handleGetSong)
		r.Delete("/{filename}", s.handleDeleteSong)
	})

	r.Post("/manual-play", s.handleManualPlay)
	r.Get("/history", s.handleHistory)

	return r
}

// Serve blocks until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.readTimeout,
		WriteTimeout: s.writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http listening", logx.String("addr", s.addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shCtx); err != nil {
			return srv.Close()
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug("http",
			logx.String("method", r.Method),
			logx.String("path", r.URL.Path),
			logx.Int("status", ww.Status()),
			logx.Duration("took", time.Since(start)))
	})
}
