package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/roach88/stampbook/internal/session"
	"github.com/roach88/stampbook/internal/survey"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the stamp book over HTTP",
		Long: `Serve the stamp book as a JSON API for tour pages.

Every /v1 request names its visitor with "id". Browsers without a signed-in
user send their own per-device identifier; the server has no device of its
own to fall back to.

Endpoints:
  GET  /v1/status?set=<name>&id=<identifier>
  POST /v1/visits        {"spot": "spot7", "id": "u1"}
  POST /v1/survey        {"answers": {...}, "id": "u1", "return_to": "map.html"}
  POST /v1/survey/sync   {"id": "u1"}
  GET  /healthz
  GET  /metrics          Prometheus metrics

Example:
  stampbook serve --addr :8080 --config tour.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", ":8080", "listen address")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())
	a, err := openApp(opts.RootOptions, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	handler, err := newServer(a)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:         opts.Addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving", "addr", opts.Addr)
		errCh <- srv.ListenAndServe()
	}()
	fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s. Press Ctrl-C to stop.\n", opts.Addr)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return WrapExitError(ExitCommandError, "server error", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return WrapExitError(ExitFailure, "shutdown error", err)
	}
	logger.Info("server stopped gracefully")
	return nil
}

// server serves one app. Sessions are shared across requests so that the
// notifier's stale-pass bookkeeping spans overlapping page loads.
type server struct {
	app      *app
	sessions map[string]*session.Session
	logger   *slog.Logger
}

func newServer(a *app) (http.Handler, error) {
	s := &server{app: a, sessions: make(map[string]*session.Session), logger: a.logger}
	for _, name := range a.cfg.SetNames() {
		sess, err := a.session(name, "")
		if err != nil {
			return nil, err
		}
		s.sessions[name] = sess
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Route("/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Post("/visits", s.handleVisit)
		r.Post("/survey", s.handleSurvey)
		r.Post("/survey/sync", s.handleSurveySync)
	})
	return r, nil
}

func (s *server) handleStatus(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("set")
	if name == "" {
		name = s.app.cfg.DefaultSet
	}
	sess, ok := s.sessions[name]
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown target set %q", name))
		return
	}

	id, ok := requireID(w, r.URL.Query().Get("id"))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.RefreshFor(r.Context(), id))
}

type visitRequest struct {
	Spot string `json:"spot"`
	ID   string `json:"id"`
}

func (s *server) handleVisit(w http.ResponseWriter, r *http.Request) {
	var req visitRequest
	if !decodeBody(w, r, &req) {
		return
	}
	id, ok := requireID(w, req.ID)
	if !ok {
		return
	}
	out, err := s.app.visitor(id).Record(r.Context(), req.Spot)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type surveyRequest struct {
	ID       string            `json:"id"`
	Answers  map[string]any    `json:"answers"`
	Client   map[string]string `json:"client"`
	ReturnTo string            `json:"return_to"`
}

func (s *server) handleSurvey(w http.ResponseWriter, r *http.Request) {
	var req surveyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	id, ok := requireID(w, req.ID)
	if !ok {
		return
	}
	out, err := s.app.surveys(id).Submit(r.Context(), survey.Submission{
		Answers: req.Answers,
		Client:  req.Client,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	cfg := s.app.cfg.Survey
	writeJSON(w, http.StatusOK, SurveySubmitResult{
		Outcome:  out,
		ReturnTo: survey.ReturnTarget(req.ReturnTo, cfg.ReturnPages, cfg.FallbackPage),
	})
}

func (s *server) handleSurveySync(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	id, ok := requireID(w, req.ID)
	if !ok {
		return
	}
	sent := s.app.surveys(id).SyncPending(r.Context())
	writeJSON(w, http.StatusOK, map[string]bool{"sent": sent})
}

const maxRequestBody = 64 << 10

// requireID rejects requests that do not name their visitor.
func requireID(w http.ResponseWriter, raw string) (string, bool) {
	id := strings.TrimSpace(raw)
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return "", false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"message": message,
			"type":    http.StatusText(status),
			"code":    status,
		},
	})
}
