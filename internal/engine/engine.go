// Package engine implements the weekly class-scheduling core: requirement
// expansion, slot/resource search, room allocation, constraint validation and
// iterative conflict repair. It is a pure, synchronous computation — no I/O —
// bounded by its retry and iteration budgets, and reproducible for a given
// seed.
package engine

import (
	"math"
	"math/rand"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-timetable-api/internal/models"
	appErrors "github.com/noah-isme/campus-timetable-api/pkg/errors"
)

// Engine generates and validates weekly schedules.
type Engine struct {
	logger *zap.Logger
}

// New constructs an engine. A nil logger defaults to a no-op.
func New(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger}
}

// Stats summarises the work a generation run performed.
type Stats struct {
	Requirements      int `json:"requirements"`
	SessionsPlaced    int `json:"sessions_placed"`
	PlacementAttempts int `json:"placement_attempts"`
}

// Result is the outcome of one generation run. Callers always receive a
// result — possibly with violations and unplaced requirements — unless the
// input itself is inconsistent.
type Result struct {
	Sessions []models.Session          `json:"sessions"`
	Unplaced []models.PlacementFailure `json:"unplaced,omitempty"`
	Report   models.ViolationReport    `json:"report"`
	Score    float64                   `json:"score"`
	Stats    Stats                     `json:"stats"`
}

// Generate runs the full pipeline: expand requirements, place them against a
// ledger seeded with previously committed sessions, validate, and repair.
// Only inconsistent input produces an error; everything else is reported in
// the result.
func (e *Engine) Generate(cfg models.PlanningConfig, ref models.ReferenceData, existing []models.Session) (*Result, error) {
	if err := validateConfig(cfg, ref); err != nil {
		return nil, err
	}

	requirements, err := ExpandRequirements(ref)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	ledger := NewLedger(existing)

	p := newPlacer(cfg, ref, existing, ledger, rng, e.logger)
	sessions, unplaced := p.placeAll(requirements)

	validator := NewValidator(cfg, ref, existing)
	r := newResolver(cfg, ref, existing, ledger, validator, e.logger)
	sessions, report := r.resolve(sessions)

	result := &Result{
		Sessions: sessions,
		Unplaced: unplaced,
		Report:   report,
		Score:    score(report, unplaced),
		Stats: Stats{
			Requirements:      len(requirements),
			SessionsPlaced:    len(sessions),
			PlacementAttempts: p.attempts,
		},
	}

	e.logger.Info("schedule generated",
		zap.Int("requirements", len(requirements)),
		zap.Int("sessions", len(sessions)),
		zap.Int("unplaced", len(unplaced)),
		zap.Int("violations", len(report.Violations)),
		zap.Float64("score", result.Score),
	)
	return result, nil
}

// Validate re-checks an arbitrary session set against the constraint
// catalogue, usable standalone after external manual edits.
func (e *Engine) Validate(cfg models.PlanningConfig, ref models.ReferenceData, sessions, existing []models.Session) models.ViolationReport {
	violations := NewValidator(cfg, ref, existing).Validate(sessions)
	return models.ViolationReport{
		Violations:         violations,
		ResolutionComplete: len(violations) == 0,
	}
}

func validateConfig(cfg models.PlanningConfig, ref models.ReferenceData) error {
	if len(cfg.Days) == 0 {
		return appErrors.Clone(appErrors.ErrConfig, "planning config needs at least one day")
	}
	if cfg.PeriodsPerDay < 1 {
		return appErrors.Clone(appErrors.ErrConfig, "planning config needs at least one period per day")
	}
	if cfg.ThesisDay != "" && !cfg.HasDay(cfg.ThesisDay) {
		return appErrors.Clone(appErrors.ErrConfig, "thesis day is not part of the planning week")
	}
	if len(ref.Cohorts) == 0 {
		return appErrors.Clone(appErrors.ErrConfig, "no cohorts selected for planning")
	}

	subjects := ref.SubjectByCode()
	for _, cohort := range ref.Cohorts {
		for _, code := range cohort.SubjectCodes {
			if s, ok := subjects[code]; ok && s.IsPractical && cfg.PeriodsPerDay < models.PracticalBlockSpan {
				return appErrors.Clone(appErrors.ErrConfig, "practical subjects need at least 3 periods per day")
			}
		}
	}
	return nil
}

func score(report models.ViolationReport, unplaced []models.PlacementFailure) float64 {
	penalty := float64(len(report.Violations))*10 + float64(len(unplaced))*15
	return math.Max(0, 100-penalty)
}
