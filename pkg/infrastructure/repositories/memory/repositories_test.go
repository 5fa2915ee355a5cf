package memory

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/prepcommittee/pkg/domain/entities"
)

func TestInventoryRepository_LatestCountWins(t *testing.T) {
	repo := NewInventoryRepository(2)
	earlier := time.Date(2026, 4, 1, 6, 0, 0, 0, time.UTC)
	later := earlier.Add(12 * time.Hour)

	err := repo.LoadSnapshots([]entities.InventorySnapshotItem{
		{ItemID: "carrots", OnHandQty: decimal.NewFromInt(12), LastCountedAt: later},
		{ItemID: "carrots", OnHandQty: decimal.NewFromInt(30), LastCountedAt: earlier},
	})
	if err != nil {
		t.Fatalf("Failed to load snapshots: %v", err)
	}

	snap, ok := repo.GetSnapshot("carrots")
	if !ok {
		t.Fatal("Expected carrots snapshot")
	}
	if !snap.OnHandQty.Equal(decimal.NewFromInt(12)) {
		t.Errorf("Expected latest count 12, got %s", snap.OnHandQty)
	}

	if _, ok := repo.GetSnapshot("leeks"); ok {
		t.Error("Expected no snapshot for uncounted item")
	}
}

func TestCatalogRepository_EligibleOptions(t *testing.T) {
	repo := NewCatalogRepository(3)
	err := repo.LoadOptions([]entities.SupplierOption{
		{ID: "opt-b", VendorID: "v2", ItemID: "carrots", UnitCost: decimal.NewFromInt(2)},
		{ID: "opt-a", VendorID: "v1", ItemID: "carrots", UnitCost: decimal.NewFromInt(3)},
		{ID: "opt-free", VendorID: "v3", ItemID: "carrots", UnitCost: decimal.Zero},
		{ID: "opt-c", VendorID: "v1", ItemID: "onions", UnitCost: decimal.NewFromInt(1)},
	})
	if err != nil {
		t.Fatalf("Failed to load options: %v", err)
	}

	eligible, err := repo.GetEligibleOptions("carrots")
	if err != nil {
		t.Fatalf("GetEligibleOptions failed: %v", err)
	}
	if len(eligible) != 2 {
		t.Fatalf("Expected 2 eligible options, got %d", len(eligible))
	}
	if eligible[0].ID != "opt-a" || eligible[1].ID != "opt-b" {
		t.Errorf("Expected options sorted by id, got %s, %s", eligible[0].ID, eligible[1].ID)
	}

	groups, _ := repo.GetOptionGroups()
	if len(groups["carrots"]) != 3 || len(groups["onions"]) != 1 {
		t.Errorf("Unexpected grouping: %d carrots, %d onions", len(groups["carrots"]), len(groups["onions"]))
	}
}

func TestHistoryRepository_SortsOldestFirst(t *testing.T) {
	repo := NewHistoryRepository()
	if repo.HasSamples() {
		t.Fatal("Expected empty repository")
	}
	day := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_ = repo.LoadSamples([]entities.HistoricalDemandSample{
		{ItemID: "carrots", ServiceDate: day.AddDate(0, 0, 7), FulfilledQty: decimal.NewFromInt(40)},
		{ItemID: "carrots", ServiceDate: day, FulfilledQty: decimal.NewFromInt(48)},
	})

	samples, _ := repo.GetSamples("carrots")
	if len(samples) != 2 {
		t.Fatalf("Expected 2 samples, got %d", len(samples))
	}
	if !samples[0].ServiceDate.Equal(day) {
		t.Errorf("Expected oldest sample first, got %v", samples[0].ServiceDate)
	}
	if !repo.HasSamples() {
		t.Error("Expected HasSamples after load")
	}
}
