package service

import (
	"context"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/campusfix/backend/internal/models"
)

type EligibilityResult struct {
	Eligible   []models.Worker
	ReasonCode string
	ReasonText string
	Stages     []EligibilityStage
	Degraded   bool
}

type EligibilityStage struct {
	Name       string
	Candidates []models.Worker
}

// FilterEligibleWorkers narrows the pool for one ticket: available workers
// with a matching skill, falling back to any available worker when no skill
// match exists, then preferring workers covering the ticket's area.
func FilterEligibleWorkers(workers []models.Worker, category, area string) EligibilityResult {
	result := EligibilityResult{}

	available := filterWorkers(workers, func(w models.Worker) bool {
		return w.Available && w.Active
	})
	result.Stages = append(result.Stages, EligibilityStage{
		Name:       "available_pool",
		Candidates: available,
	})
	if len(available) == 0 {
		result.ReasonCode = "NO_WORKER_AVAILABLE"
		result.ReasonText = "No available workers in pool"
		return result
	}

	skilled := filterWorkers(available, func(w models.Worker) bool {
		return strings.EqualFold(strings.TrimSpace(w.Skill), strings.TrimSpace(category))
	})
	result.Stages = append(result.Stages, EligibilityStage{
		Name:       "skill_rule",
		Candidates: skilled,
	})

	candidates := skilled
	if len(candidates) == 0 {
		// Degraded mode: any available worker regardless of skill.
		result.Degraded = true
		candidates = available
		result.Stages = append(result.Stages, EligibilityStage{
			Name:       "fallback_any",
			Candidates: candidates,
		})
	}

	wantArea := NormalizeLocator(area, AreaGeneral)
	local := filterWorkers(candidates, func(w models.Worker) bool {
		return NormalizeLocator(w.Area, AreaGeneral) == wantArea
	})
	result.Stages = append(result.Stages, EligibilityStage{
		Name:       "area_rule",
		Candidates: local,
	})
	if len(local) > 0 {
		candidates = local
	}

	result.Eligible = candidates
	return result
}

// PickWorker returns the least-loaded eligible worker, ties broken by id so
// repeated calls over the same snapshot are deterministic.
func PickWorker(eligible []models.Worker) (models.Worker, bool) {
	if len(eligible) == 0 {
		return models.Worker{}, false
	}
	sorted := make([]models.Worker, len(eligible))
	copy(sorted, eligible)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].CurrentLoad == sorted[j].CurrentLoad {
			return sorted[i].ID < sorted[j].ID
		}
		return sorted[i].CurrentLoad < sorted[j].CurrentLoad
	})
	return sorted[0], true
}

// Resolver picks one worker for one ticket. Stateless: every call re-reads
// the directory, so re-assignment after a bounce sees fresh availability.
type Resolver struct {
	Directory WorkerDirectory
	Logger    zerolog.Logger
}

func (r *Resolver) Resolve(ctx context.Context, t models.Ticket) (models.Worker, EligibilityResult, error) {
	workers, err := r.Directory.ListEligibleWorkers(ctx, "", "")
	if err != nil {
		return models.Worker{}, EligibilityResult{}, err
	}

	elig := FilterEligibleWorkers(workers, t.Category, t.Area)
	picked, ok := PickWorker(elig.Eligible)
	if !ok {
		r.Logger.Info().
			Str("ticket_id", t.ID).
			Str("category", t.Category).
			Str("reason_code", elig.ReasonCode).
			Msg("no worker available")
		return models.Worker{}, elig, ErrNoWorkerAvailable
	}

	if elig.Degraded {
		r.Logger.Info().
			Str("ticket_id", t.ID).
			Str("worker_id", picked.ID).
			Msg("assigned outside skill match")
	}
	return picked, elig, nil
}

func filterWorkers(workers []models.Worker, keep func(models.Worker) bool) []models.Worker {
	out := make([]models.Worker, 0, len(workers))
	for _, w := range workers {
		if keep(w) {
			out = append(out, w)
		}
	}
	return out
}
