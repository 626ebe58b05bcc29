package research

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lineupscout/festival-cli/internal/config"
	"github.com/lineupscout/festival-cli/internal/gateway"
	"github.com/lineupscout/festival-cli/internal/model"
	"github.com/lineupscout/festival-cli/internal/resilience"
)

// persistRetry retries the final report write exactly once, regardless of
// error shape: a single flake should not surface as completed-but-unsaved.
var persistRetry = resilience.RetryConfig{
	MaxAttempts: 2,
	BaseBackoff: 100 * time.Millisecond,
	ShouldRetry: func(error) bool { return true },
}

// ReportMerger is the slice of the store the orchestrator needs: persist a
// partial report with field-wise merge and get the merged result back.
type ReportMerger interface {
	MergeReport(ctx context.Context, festivalID string, partial model.ResearchReport) (model.ResearchReport, error)
}

// Outcome is the terminal state of one research run.
type Outcome struct {
	Phase             model.Phase          `json:"phase"`
	Report            model.ResearchReport `json:"report"`
	OverallConfidence float64              `json:"overall_confidence"`
	Warnings          int                  `json:"warnings"`
	Errors            int                  `json:"errors"`
	Saved             bool                 `json:"saved"`
	PhaseConfidences  map[string]float64   `json:"phase_confidences,omitempty"`
}

// Runner drives the research pipeline for one festival at a time. Runs for
// different festivals are independent; they share only the gateway budget
// and the store.
type Runner struct {
	cfg    config.ResearchConfig
	search gateway.Searcher
	store  ReportMerger
	now    func() time.Time
}

// NewRunner creates a Runner.
func NewRunner(cfg config.ResearchConfig, search gateway.Searcher, store ReportMerger) *Runner {
	return &Runner{cfg: cfg, search: search, store: store, now: time.Now}
}

// runState tracks the mutable run bookkeeping and event emission.
type runState struct {
	phase    model.Phase
	warnings int
	errors   int
	emit     func(model.Event)
	log      *zap.Logger
}

// transition moves the run to a phase and emits one progress event before
// any phase work continues. This is what makes the run observable.
func (s *runState) transition(phase model.Phase, confidence *float64, data map[string]any) {
	s.phase = phase
	s.log.Debug("run: phase transition", zap.String("phase", string(phase)))
	if s.emit != nil {
		s.emit(model.ProgressEvent(phase, confidence, data, s.warnings, s.errors))
	}
}

// Run executes the full pipeline. Phase-level failures are captured and
// counted, never returned; the returned error is reserved for invalid input.
// Cancellation is checked at phase boundaries and propagated into in-flight
// gateway calls through ctx.
func (r *Runner) Run(ctx context.Context, f model.Festival, opts model.RunOptions, emit func(model.Event)) *Outcome {
	log := zap.L().With(zap.String("festival", f.Name), zap.String("festival_id", f.ID))
	st := &runState{phase: model.PhaseNotStarted, emit: emit, log: log}

	search := r.search
	if opts.MaxRetries > 0 {
		if mr, ok := search.(gateway.MaxRetrier); ok {
			search = mr.WithMaxRetries(opts.MaxRetries)
		}
	}
	parallel := r.cfg.ParallelExecution
	if opts.ParallelExecution != nil {
		parallel = *opts.ParallelExecution
	}

	log.Info("run: starting research")
	st.transition(model.PhaseStarting, nil, nil)

	var report model.ResearchReport
	confidences := make(map[string]float64)

	// ===== Website existence gate =====
	if ctx.Err() != nil {
		return r.finish(ctx, f, st, report, confidences)
	}
	st.transition(model.PhaseDiscoveringWebsite, nil, nil)

	website, err := WebsitePhase(ctx, f, search)
	switch {
	case errors.Is(err, context.Canceled):
		return r.finish(ctx, f, st, report, confidences)
	case err != nil:
		// The very first gateway call failing means the search backend is
		// unreachable: fatal setup error, not an isolated phase error.
		st.errors++
		log.Error("run: website discovery failed, aborting setup", zap.Error(err))
		st.phase = model.PhaseFailed
		return r.finish(ctx, f, st, report, confidences)
	}
	report.WebsiteInfo = website
	confidences["website"] = website.ExistenceConfidence
	if website.ExistenceConfidence < r.cfg.MinClaimScore {
		st.warnings++
	}
	st.transition(model.PhaseDiscoveringWebsite, &website.ExistenceConfidence, map[string]any{
		"homepage_url":    website.HomepageURL,
		"sources_checked": website.SourcesChecked,
	})

	// ===== Company discovery (seeds the dependent phases) =====
	if ctx.Err() != nil {
		return r.finish(ctx, f, st, report, confidences)
	}
	st.transition(model.PhaseExtractingCompany, nil, nil)

	companyName := ""
	company, err := CompanyPhase(ctx, f, search, r.cfg.MaxCandidates)
	switch {
	case errors.Is(err, context.Canceled):
		return r.finish(ctx, f, st, report, confidences)
	case err != nil:
		st.errors++
		log.Warn("run: company discovery failed", zap.Error(err))
		st.transition(model.PhaseExtractingCompany, nil, map[string]any{"error": err.Error()})
	default:
		report.CompanyDiscovery = company
		confidences["company"] = company.Confidence
		companyName = company.CompanyName
		if companyName == "" {
			// Found evidence but no assertable claim: expected, frequent.
			st.warnings++
		}
		st.transition(model.PhaseExtractingCompany, &company.Confidence, map[string]any{
			"company_name": company.CompanyName,
			"candidates":   len(company.Candidates),
		})
	}

	// ===== Dependent phases: linkedin / news / calendar =====
	if ctx.Err() != nil {
		return r.finish(ctx, f, st, report, confidences)
	}

	type phaseRun struct {
		phase model.Phase
		key   string
		run   func(ctx context.Context) (confidence float64, data map[string]any, attach func(), err error)
	}

	phases := []phaseRun{
		{
			phase: model.PhaseSearchingLinkedIn,
			key:   "linkedin",
			run: func(ctx context.Context) (float64, map[string]any, func(), error) {
				res, err := LinkedInPhase(ctx, f, companyName, search)
				if err != nil {
					return 0, nil, nil, err
				}
				data := map[string]any{
					"people":       len(res.People),
					"rejected":     res.Rejected,
					"company_page": res.CompanyPage != nil,
				}
				return res.Confidence, data, func() { report.LinkedIn = res }, nil
			},
		},
		{
			phase: model.PhaseFetchingNews,
			key:   "news",
			run: func(ctx context.Context) (float64, map[string]any, func(), error) {
				res, err := NewsPhase(ctx, f, companyName, search)
				if err != nil {
					return 0, nil, nil, err
				}
				data := map[string]any{"articles": len(res.Articles)}
				return res.Confidence, data, func() { report.News = res }, nil
			},
		},
		{
			phase: model.PhaseVerifyingCalendars,
			key:   "calendar",
			run: func(ctx context.Context) (float64, map[string]any, func(), error) {
				res, err := CalendarPhase(ctx, f, search, r.now())
				if err != nil {
					return 0, nil, nil, err
				}
				data := map[string]any{
					"found":   res.FoundCount,
					"checked": res.TotalChecked,
					"active":  res.CurrentlyActive,
				}
				return res.Confidence, data, func() { report.CalendarVerification = res }, nil
			},
		},
	}

	type phaseDone struct {
		idx        int
		confidence float64
		data       map[string]any
		attach     func()
		err        error
	}
	done := make([]phaseDone, len(phases))

	g, gCtx := errgroup.WithContext(ctx)
	if !parallel {
		g.SetLimit(1)
	}
	for i, p := range phases {
		st.transition(p.phase, nil, nil)
		g.Go(func() error {
			conf, data, attach, err := p.run(gCtx)
			done[i] = phaseDone{idx: i, confidence: conf, data: data, attach: attach, err: err}
			// Settle all: a phase failure never cancels its siblings.
			return nil
		})
	}
	_ = g.Wait()

	for i, p := range phases {
		d := done[i]
		if d.err != nil {
			if errors.Is(d.err, context.Canceled) {
				// Cancellation is not a phase malfunction.
				continue
			}
			st.errors++
			log.Warn("run: phase failed",
				zap.String("phase", string(p.phase)),
				zap.Bool("timeout", gateway.IsTimeout(d.err)),
				zap.Error(d.err),
			)
			st.transition(p.phase, nil, map[string]any{"error": d.err.Error()})
			continue
		}
		d.attach()
		confidences[p.key] = d.confidence
		st.transition(p.phase, &d.confidence, d.data)
	}

	// ===== Validation =====
	if ctx.Err() != nil {
		return r.finish(ctx, f, st, report, confidences)
	}
	st.transition(model.PhaseValidatingResults, nil, nil)

	if opts.EnableValidation && report.CompanyDiscovery != nil {
		dropped := pruneWeakCandidates(report.CompanyDiscovery, r.cfg.MinClaimScore)
		if dropped > 0 {
			st.warnings++
			confidences["company"] = report.CompanyDiscovery.Confidence
		}
	}

	overall := OverallConfidence(confidences, r.cfg.Weights)
	st.transition(model.PhaseValidatingResults, &overall, nil)

	st.phase = model.PhaseCompleted
	return r.finish(ctx, f, st, report, confidences)
}

// finish persists whatever was produced, emits the final events, and builds
// the outcome. Called for completed, failed, and aborted runs alike:
// cancellation is not rollback.
func (r *Runner) finish(ctx context.Context, f model.Festival, st *runState, report model.ResearchReport, confidences map[string]float64) *Outcome {
	if !st.phase.Terminal() {
		if ctx.Err() != nil {
			st.phase = model.PhaseAborted
		} else {
			st.phase = model.PhaseFailed
		}
	}

	overall := OverallConfidence(confidences, r.cfg.Weights)
	merged := report
	saved := false
	if !report.Empty() && r.store != nil {
		// Persistence gets its own context: an aborted stream should not
		// also lose the partial results gathered before the abort. A single
		// write flake is retried once before the run reports unsaved.
		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		m, err := resilience.DoVal(saveCtx, persistRetry, func(ctx context.Context) (model.ResearchReport, error) {
			return r.store.MergeReport(ctx, f.ID, report)
		})
		if err != nil {
			st.log.Error("run: failed to persist report", zap.Error(err))
		} else {
			merged = m
			saved = true
		}
	}

	success := st.phase == model.PhaseCompleted
	st.transition(st.phase, &overall, nil)
	if st.emit != nil {
		st.emit(model.CompleteEvent(success, saved, &merged))
	}

	st.log.Info("run: finished",
		zap.String("phase", string(st.phase)),
		zap.Float64("overall_confidence", overall),
		zap.Int("warnings", st.warnings),
		zap.Int("errors", st.errors),
		zap.Bool("saved", saved),
	)

	return &Outcome{
		Phase:             st.phase,
		Report:            merged,
		OverallConfidence: overall,
		Warnings:          st.warnings,
		Errors:            st.errors,
		Saved:             saved,
		PhaseConfidences:  confidences,
	}
}

// pruneWeakCandidates removes company candidates below the threshold and
// re-derives the headline fields. Returns how many were dropped.
func pruneWeakCandidates(cd *model.CompanyDiscovery, threshold float64) int {
	kept := cd.Candidates[:0]
	dropped := 0
	for _, c := range cd.Candidates {
		if c.Confidence < threshold {
			dropped++
			continue
		}
		kept = append(kept, c)
	}
	cd.Candidates = kept
	if len(kept) == 0 {
		cd.CompanyName = ""
		cd.Confidence = 0
	} else {
		cd.CompanyName = kept[0].Name
		cd.Confidence = kept[0].Confidence
	}
	return dropped
}

// OverallConfidence combines per-phase confidences with configured weights,
// normalized over ALL phase weights, not just completed ones — a run where
// one of four phases succeeded cannot report high overall confidence.
func OverallConfidence(confidences map[string]float64, w config.WeightsConfig) float64 {
	weights := map[string]float64{
		"website":  w.Website,
		"company":  w.Company,
		"linkedin": w.LinkedIn,
		"news":     w.News,
		"calendar": w.Calendar,
	}

	total := 0.0
	sum := 0.0
	for key, weight := range weights {
		total += weight
		if c, ok := confidences[key]; ok {
			sum += weight * c
		}
	}
	if total == 0 {
		return 0
	}
	return sum / total
}
