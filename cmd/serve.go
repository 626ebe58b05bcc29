package main

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lineupscout/festival-cli/internal/model"
	"github.com/lineupscout/festival-cli/internal/research"
	"github.com/lineupscout/festival-cli/internal/store"
	"github.com/lineupscout/festival-cli/internal/stream"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the research API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		gw, err := initGateway()
		if err != nil {
			return err
		}
		runner := research.NewRunner(cfg.Research, gw, st)

		api := &apiServer{store: st, runner: runner}
		r := newRouter(api, cfg.Server.APIKeys)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			if err := shutdownServer(srv, 15*time.Second); err != nil {
				zap.L().Warn("server shutdown", zap.Error(err))
			}
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// shutdownServer drains in-flight requests on its own clock; the signal
// context that triggered the shutdown is already cancelled.
func shutdownServer(srv *http.Server, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return srv.Shutdown(ctx)
}

type apiServer struct {
	store  store.Store
	runner *research.Runner
}

// newRouter wires the API routes. Health stays outside the key check so load
// balancers can probe without credentials.
func newRouter(api *apiServer, apiKeys []string) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(requireAPIKey(apiKeys))

		r.Post("/research", api.handleResearch)
		r.Get("/festivals", api.handleListFestivals)
		r.Route("/festivals/{id}", func(r chi.Router) {
			r.Get("/", api.handleGetFestival)
			r.Patch("/", api.handlePatchFestival)
			r.Get("/report", api.handleGetReport)
			r.Post("/report", api.handleMergeReport)
			r.Post("/research", api.handleFestivalResearch)
		})
	})

	return r
}

// requireAPIKey checks the X-API-Key header against the configured keys.
// An empty key list disables the check (local development).
func requireAPIKey(keys []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(keys) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			got := r.Header.Get("X-API-Key")
			for _, k := range keys {
				if subtle.ConstantTimeCompare([]byte(got), []byte(k)) == 1 {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid API key"})
		})
	}
}

type researchRequest struct {
	ID      string           `json:"id,omitempty"`
	Name    string           `json:"name"`
	URL     string           `json:"url,omitempty"`
	Options model.RunOptions `json:"options"`
}

// handleResearch runs the pipeline for an ad-hoc festival and streams
// progress as server-sent events. Client disconnect cancels the run; partial
// results gathered before the disconnect still persist.
func (s *apiServer) handleResearch(w http.ResponseWriter, r *http.Request) {
	var req researchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	f := model.Festival{ID: req.ID, Name: req.Name, URL: req.URL}
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	if err := s.store.UpsertFestival(r.Context(), f); err != nil {
		zap.L().Error("serve: upsert festival", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "storage failure"})
		return
	}

	s.streamRun(w, r, f, req.Options)
}

// handleFestivalResearch runs the pipeline for a stored festival.
func (s *apiServer) handleFestivalResearch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	listing, err := s.store.GetListing(r.Context(), id)
	if err != nil {
		zap.L().Error("serve: get listing", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "storage failure"})
		return
	}
	if listing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "festival not found"})
		return
	}

	var opts model.RunOptions
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
	}

	s.streamRun(w, r, listing.Festival, opts)
}

func (s *apiServer) streamRun(w http.ResponseWriter, r *http.Request, f model.Festival, opts model.RunOptions) {
	enc := stream.NewEncoder(w)
	s.runner.Run(r.Context(), f, opts, enc.Emit)
}

func (s *apiServer) handleListFestivals(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.ListFilter{Stage: q.Get("stage")}
	if v := q.Get("favorite"); v != "" {
		b := v == "true"
		filter.Favorite = &b
	}
	if v := q.Get("archived"); v != "" {
		b := v == "true"
		filter.Archived = &b
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}

	listings, err := s.store.ListListings(r.Context(), filter)
	if err != nil {
		zap.L().Error("serve: list festivals", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "storage failure"})
		return
	}
	if listings == nil {
		listings = []model.Listing{}
	}
	writeJSON(w, http.StatusOK, listings)
}

func (s *apiServer) handleGetFestival(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	listing, err := s.store.GetListing(r.Context(), id)
	if err != nil {
		zap.L().Error("serve: get listing", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "storage failure"})
		return
	}
	if listing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "festival not found"})
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (s *apiServer) handlePatchFestival(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	listing, err := s.store.GetListing(r.Context(), id)
	if err != nil {
		zap.L().Error("serve: get listing", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "storage failure"})
		return
	}
	if listing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "festival not found"})
		return
	}

	// Patch semantics: absent fields keep their stored values.
	patch := struct {
		Favorite *bool   `json:"favorite"`
		Archived *bool   `json:"archived"`
		Notes    *string `json:"notes"`
		Stage    *string `json:"stage"`
	}{}
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	a := listing.Annotation
	if patch.Favorite != nil {
		a.Favorite = *patch.Favorite
	}
	if patch.Archived != nil {
		a.Archived = *patch.Archived
	}
	if patch.Notes != nil {
		a.Notes = *patch.Notes
	}
	if patch.Stage != nil {
		a.Stage = *patch.Stage
	}

	if err := s.store.SetAnnotation(r.Context(), id, a); err != nil {
		zap.L().Error("serve: set annotation", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "storage failure"})
		return
	}
	listing.Annotation = a
	writeJSON(w, http.StatusOK, listing)
}

type mergeReportRequest struct {
	ResearchData      model.ResearchReport `json:"research_data"`
	OrganizingCompany string               `json:"organizing_company,omitempty"`
	HomepageURL       string               `json:"homepage_url,omitempty"`
	Merge             bool                 `json:"merge"`
}

// handleMergeReport persists externally supplied partial research data
// through the same field-wise merge the orchestrator uses. The shortcut
// fields assert the organizer or homepage without a full phase result; a
// manual organizer assertion carries full confidence so the merge guard
// does not discard it.
func (s *apiServer) handleMergeReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req mergeReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if !req.Merge {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "merge must be true"})
		return
	}

	partial := req.ResearchData
	if req.OrganizingCompany != "" {
		if partial.CompanyDiscovery == nil {
			partial.CompanyDiscovery = &model.CompanyDiscovery{Confidence: 1}
		}
		partial.CompanyDiscovery.CompanyName = req.OrganizingCompany
	}
	if req.HomepageURL != "" {
		if partial.WebsiteInfo == nil {
			partial.WebsiteInfo = &model.WebsiteInfo{}
		}
		partial.WebsiteInfo.HomepageURL = req.HomepageURL
	}
	if partial.Empty() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no fields to merge"})
		return
	}

	merged, err := s.store.MergeReport(r.Context(), id, partial)
	if err != nil {
		zap.L().Error("serve: merge report", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "storage failure"})
		return
	}
	writeJSON(w, http.StatusOK, merged)
}

func (s *apiServer) handleGetReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	report, err := s.store.GetReport(r.Context(), id)
	if err != nil {
		zap.L().Error("serve: get report", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "storage failure"})
		return
	}
	if report.Empty() {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no report for festival"})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
