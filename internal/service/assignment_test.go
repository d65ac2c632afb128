package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/campusfix/backend/internal/models"
)

func TestFilterEligibleWorkersPrefersMatchingArea(t *testing.T) {
	workers := []models.Worker{
		{ID: "w1", Skill: "electrical", Area: "Block B", Available: true, Active: true},
		{ID: "w2", Skill: "electrical", Area: "Block A", Available: true, Active: true},
	}
	res := FilterEligibleWorkers(workers, "electrical", "Block A")
	if len(res.Eligible) != 1 || res.Eligible[0].ID != "w2" {
		t.Fatalf("expected only w2 eligible, got %+v", res.Eligible)
	}
	if res.Degraded {
		t.Fatalf("expected skill-matched result, got degraded")
	}
}

func TestFilterEligibleWorkersFallsBackToAnyAvailable(t *testing.T) {
	workers := []models.Worker{
		{ID: "w1", Skill: "plumbing", Area: "Block C", Available: true, Active: true},
		{ID: "w2", Skill: "electrical", Area: "Block A", Available: false, Active: true},
	}
	res := FilterEligibleWorkers(workers, "electrical", "Block A")
	if !res.Degraded {
		t.Fatalf("expected degraded fallback")
	}
	if len(res.Eligible) != 1 || res.Eligible[0].ID != "w1" {
		t.Fatalf("expected w1 via fallback, got %+v", res.Eligible)
	}
}

func TestFilterEligibleWorkersIgnoresUnavailable(t *testing.T) {
	workers := []models.Worker{
		{ID: "w1", Skill: "electrical", Area: "Block A", Available: false, Active: true},
		{ID: "w2", Skill: "electrical", Area: "Block A", Available: true, Active: false},
	}
	res := FilterEligibleWorkers(workers, "electrical", "Block A")
	if len(res.Eligible) != 0 {
		t.Fatalf("expected no eligible workers, got %+v", res.Eligible)
	}
	if res.ReasonCode != "NO_WORKER_AVAILABLE" {
		t.Fatalf("expected NO_WORKER_AVAILABLE, got %s", res.ReasonCode)
	}
}

func TestFilterEligibleWorkersAreaMatchIsCaseInsensitive(t *testing.T) {
	workers := []models.Worker{
		{ID: "w1", Skill: "cleaning", Area: "  block a ", Available: true, Active: true},
		{ID: "w2", Skill: "cleaning", Area: "Block B", Available: true, Active: true},
	}
	res := FilterEligibleWorkers(workers, "cleaning", "BLOCK A")
	if len(res.Eligible) != 1 || res.Eligible[0].ID != "w1" {
		t.Fatalf("expected w1 on normalized area match, got %+v", res.Eligible)
	}
}

func TestPickWorkerLeastLoadedThenID(t *testing.T) {
	eligible := []models.Worker{
		{ID: "w3", CurrentLoad: 2},
		{ID: "w2", CurrentLoad: 1},
		{ID: "w1", CurrentLoad: 1},
	}
	picked, ok := PickWorker(eligible)
	if !ok {
		t.Fatalf("expected a pick")
	}
	if picked.ID != "w1" {
		t.Fatalf("expected w1 (lowest load, lowest id), got %s", picked.ID)
	}

	again, _ := PickWorker(eligible)
	if again.ID != picked.ID {
		t.Fatalf("expected deterministic pick")
	}
}

func TestResolverNoWorkerAvailable(t *testing.T) {
	r := &Resolver{Directory: &memWorkerDir{}, Logger: zerolog.Nop()}
	_, _, err := r.Resolve(context.Background(), models.Ticket{ID: "t1", Category: "electrical"})
	if !errors.Is(err, ErrNoWorkerAvailable) {
		t.Fatalf("expected ErrNoWorkerAvailable, got %v", err)
	}
}

func TestResolverGenericFallback(t *testing.T) {
	dir := &memWorkerDir{workers: []models.Worker{
		{ID: "w3", Skill: "plumbing", Area: "Block C", Available: true, Active: true},
	}}
	r := &Resolver{Directory: dir, Logger: zerolog.Nop()}
	w, elig, err := r.Resolve(context.Background(), models.Ticket{ID: "t1", Category: "electrical", Area: "Block A"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if w.ID != "w3" {
		t.Fatalf("expected w3 via degraded mode, got %s", w.ID)
	}
	if !elig.Degraded {
		t.Fatalf("expected degraded result")
	}
}
