package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/levenlabs/go-lflag"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/qldtariffs/qldtariffs/pkg/billing"
	"github.com/qldtariffs/qldtariffs/pkg/common"
	"github.com/qldtariffs/qldtariffs/pkg/log"
	"github.com/qldtariffs/qldtariffs/pkg/publisher"
	"github.com/qldtariffs/qldtariffs/pkg/storage"
	"github.com/qldtariffs/qldtariffs/pkg/types"
)

// tokenVerifier is a function that validates an OIDC ID Token.
type tokenVerifier func(ctx context.Context, rawIDToken string) (*oidc.IDToken, error)

// TariffLister lists the tariffs that can be analyzed against.
type TariffLister interface {
	List() []types.TariffInfo
}

// Server handles the HTTP API. It analyzes readings with the calculator,
// persists reports to storage and publishes monthly summaries.
type Server struct {
	tariffs    TariffLister
	calculator *billing.Calculator
	storage    storage.Database
	publisher  *publisher.Publisher
	metrics    *metrics

	// tariffLabels bounds the tariff label to names in the rate table
	tariffLabels map[string]string

	listenAddr string
	httpServer *http.Server

	oidcVerifiers map[string]tokenVerifier
	serverName    string
}

// Rates is both a TariffLister and the rate lookup used by the calculator.
// *tariff.Table implements it.
type Rates interface {
	TariffLister
	billing.Rates
}

// New returns a Server without registering any flags.
func New(rates Rates, s storage.Database, p *publisher.Publisher) *Server {
	return &Server{
		tariffs:    rates,
		calculator: billing.NewCalculator(rates),
		storage:    s,
		publisher:  p,
		metrics:    newMetrics(),

		tariffLabels: newTariffLabels(rates.List()),
		serverName: common.UserAgent(),
	}
}

// Configured initializes the Server with dependencies.
// It uses lflag to register command-line flags for configuration.
func Configured(rates Rates, s storage.Database, p *publisher.Publisher) *Server {
	srv := New(rates, s, p)
	revision := os.Getenv("K_REVISION")
	if revision != "" {
		srv.serverName = revision
	}

	// get the port from PORT when running in cloud run
	port := os.Getenv("PORT")
	if port == "" {
		// otherwise default to 8080
		port = "8080"
	}

	listenAddr := lflag.String("http-listen", ":"+port, "HTTP server listen address")
	oidcIssuer := lflag.String("oidc-issuer", "https://accounts.google.com", "OIDC issuer used to validate bearer tokens")
	oidcAudience := lflag.String("oidc-audience", "", "audience to validate bearer tokens against (auth is disabled when empty)")

	lflag.Do(func() {
		srv.listenAddr = *listenAddr
		if *oidcAudience != "" {
			// discovery and key fetches identify themselves
			ctx := oidc.ClientContext(context.Background(), common.HTTPClient(10*time.Second))
			provider, err := oidc.NewProvider(ctx, *oidcIssuer)
			if err != nil {
				log.Ctx(context.Background()).Error("failed to initialize OIDC provider", slog.String("issuer", *oidcIssuer), slog.Any("error", err))
				os.Exit(1)
			}
			srv.oidcVerifiers = map[string]tokenVerifier{
				*oidcIssuer: provider.Verifier(&oidc.Config{ClientID: *oidcAudience}).Verify,
			}
		}
	})

	return srv
}

func (s *Server) setupHandler() http.Handler {
	apiMux := http.NewServeMux()
	apiMux.HandleFunc("POST /api/analyze", s.handleAnalyze)
	apiMux.HandleFunc("GET /api/summaries/monthly", s.handleMonthlySummaries)
	apiMux.HandleFunc("GET /api/summaries/monthly/{month}", s.handleMonthSummary)
	apiMux.HandleFunc("GET /api/summaries/daily", s.handleDailySummaries)
	apiMux.HandleFunc("GET /api/tariffs", s.handleListTariffs)

	mux := http.NewServeMux()
	mux.Handle("/api/", s.authMiddleware(apiMux))
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", s.handleHealthz)
	return s.revisionMiddleware(gziphandler.GzipHandler(s.securityHeadersMiddleware(s.requestMiddleware(mux))))
}

// Run starts the HTTP server and blocks until the context is canceled or an error occurs.
// It also handles graceful shutdown when the context is done.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.listenAddr,
		Handler:      s.setupHandler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	// use a channel to capturing server errors
	errChan := make(chan error, 1)
	go func() {
		defer close(errChan)
		log.Ctx(ctx).InfoContext(ctx, "starting server", slog.String("addr", s.listenAddr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		// Context canceled, shut down gracefully
		log.Ctx(ctx).InfoContext(ctx, "shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}
}

func writeJSONError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(struct {
		Error string `json:"error"`
	}{Error: msg}); err != nil {
		slog.Warn("failed to write error response", slog.Any("error", err))
		panic(http.ErrAbortHandler)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		panic(http.ErrAbortHandler)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ok")); err != nil {
		panic(http.ErrAbortHandler)
	}
}

func (s *Server) revisionMiddleware(next http.Handler) http.Handler {
	if s.serverName == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", s.serverName)
		next.ServeHTTP(w, r)
	})
}
