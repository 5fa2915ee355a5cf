package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/prepcommittee/pkg/application/dto"
	"github.com/vsinha/prepcommittee/pkg/application/services/orchestration"
	"github.com/vsinha/prepcommittee/pkg/domain/entities"
	"github.com/vsinha/prepcommittee/pkg/domain/services"
	"github.com/vsinha/prepcommittee/pkg/infrastructure/events"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	serviceDate := time.Date(2025, 12, 6, 19, 0, 0, 0, time.UTC)
	inputs := gala(serviceDate)

	cctx := entities.CommitteeContext{
		Mode:          entities.ModeTriple,
		HorizonDays:   2,
		ServiceDate:   serviceDate,
		GeneratedAt:   serviceDate.Add(-36 * time.Hour),
		AutoRemediate: true,
		Policy:        services.DefaultPolicy(),
	}

	store := events.NewInMemoryEventStore(logger)
	_ = store.Subscribe([]string{events.DecisionReachedEvent}, &events.HandlerFunc{
		Types: []string{events.DecisionReachedEvent},
		Fn: func(e events.Event) error {
			fmt.Printf("event %s on stream %s\n", e.Type(), e.StreamID())
			return nil
		},
	})

	orchestrator := orchestration.NewOrchestrator(logger, orchestration.WithEventStore(store))

	fmt.Printf("Planning the gala dinner for %s...\n\n", serviceDate.Format("Mon Jan 2 15:04"))
	result, err := orchestrator.RunCommittee(ctx, inputs, cctx)
	if err != nil {
		fmt.Printf("committee failed: %v\n", err)
		return
	}

	d := result.Decision
	fmt.Printf("Decision: %s\n", d.Status)
	fmt.Printf("  Spend:    %s\n", d.Metrics.TotalSpend.StringFixed(2))
	fmt.Printf("  Stockout: %.2f\n", d.Metrics.StockoutProbability)
	fmt.Printf("  Waste:    %s\n", d.Metrics.ProjectedWasteCost.StringFixed(2))
	fmt.Printf("  Votes:    %d/%d\n", len(d.Tally.Approvals), len(d.Tally.Voters))
	for _, reason := range d.Reasons {
		fmt.Printf("  - %s\n", reason)
	}
	fmt.Println()

	for _, po := range d.FinalProposal.PurchaseOrders {
		fmt.Printf("PO %s to %s: %s\n", po.ID, po.VendorName, po.Total.StringFixed(2))
		for _, line := range po.Lines {
			fmt.Printf("  %-10s %6s %s\n", line.ItemID, line.Qty, line.Unit)
		}
	}
	for _, c := range d.Critiques {
		for _, issue := range c.Issues {
			fmt.Printf("[%s] %s: %s\n", c.Agent, issue.Severity, issue.Message)
		}
	}
}

func gala(serviceDate time.Time) *dto.CommitteeInputs {
	shelf := func(h float64) *float64 { return &h }
	return &dto.CommitteeInputs{
		Demand: []entities.DemandItem{
			{
				ID:                 "beef",
				Name:               "Beef tenderloin",
				RequiredQty:        decimal.NewFromInt(24),
				Unit:               "kg",
				NeededBy:           serviceDate,
				PrepMinutesPerUnit: 6,
				WasteCostPerUnit:   decimal.NewNullDecimal(decimal.NewFromInt(45)),
				Category:           "protein",
				Outlet:             "ballroom",
			},
			{
				ID:                 "asparagus",
				Name:               "Asparagus",
				RequiredQty:        decimal.NewFromInt(12),
				Unit:               "kg",
				NeededBy:           serviceDate,
				PrepMinutesPerUnit: 4,
				Category:           "produce",
				Outlet:             "ballroom",
			},
		},
		Inventory: []entities.InventorySnapshotItem{
			{ItemID: "asparagus", OnHandQty: decimal.NewFromInt(3), Unit: "kg", UnitCost: decimal.NewFromInt(9)},
		},
		Catalog: []entities.SupplierOption{
			{
				ID: "opt-beef", VendorID: "prime-meats", VendorName: "Prime Meats", ItemID: "beef",
				OrderUnit: "kg", PackSize: decimal.NewFromInt(2), UnitCost: decimal.NewFromInt(38),
				LeadTimeDays: 1, ShelfLifeHours: shelf(96), Currency: "USD",
			},
			{
				ID: "opt-asparagus", VendorID: "valley-produce", VendorName: "Valley Produce", ItemID: "asparagus",
				OrderUnit: "kg", PackSize: decimal.NewFromInt(1), UnitCost: decimal.NewFromInt(9),
				LeadTimeDays: 1, ShelfLifeHours: shelf(72), Currency: "USD",
			},
		},
		History: []entities.HistoricalDemandSample{
			{ItemID: "beef", ServiceDate: serviceDate.AddDate(0, 0, -7), FulfilledQty: decimal.NewFromInt(22), WasteQty: decimal.NewFromInt(1)},
		},
		CartTemplates: []entities.CartTemplate{{ID: "cart-ballroom", Name: "Ballroom", Outlet: "ballroom", Capacity: 6}},
		PrepStations: []entities.PrepStation{
			{ID: "butchery", Name: "Butchery", Categories: []string{"protein"}},
			{ID: "veg", Name: "Veg prep", Categories: []string{"produce"}},
		},
	}
}
