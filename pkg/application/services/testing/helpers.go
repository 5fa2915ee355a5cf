package testing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/prepcommittee/pkg/application/dto"
	"github.com/vsinha/prepcommittee/pkg/domain/entities"
	"github.com/vsinha/prepcommittee/pkg/domain/services"
)

// ServiceDate is the banquet service time every scenario plans for.
var ServiceDate = time.Date(2025, 6, 14, 18, 0, 0, 0, time.UTC)

// GeneratedAt is when scenario runs are generated: two days before service.
var GeneratedAt = ServiceDate.Add(-48 * time.Hour)

// Qty parses a decimal literal and panics on a malformed one.
func Qty(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// OptQty wraps a decimal literal as an optional value.
func OptQty(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(Qty(s))
}

// Float returns a pointer to f for optional float fields.
func Float(f float64) *float64 {
	return &f
}

// Context builds a run context on the default policy with the given mode.
func Context(mode entities.CommitteeMode) entities.CommitteeContext {
	return entities.CommitteeContext{
		Mode:          mode,
		HorizonDays:   3,
		ServiceDate:   ServiceDate,
		GeneratedAt:   GeneratedAt,
		AutoRemediate: true,
		Policy:        services.DefaultPolicy(),
	}
}

// BuildCarrotScenario is the single-item scenario: 50 kg of carrots, 10 on
// hand, one supplier selling 5 kg packs at 2.00 with a 10 kg minimum.
func BuildCarrotScenario() *dto.CommitteeInputs {
	return &dto.CommitteeInputs{
		Demand: []entities.DemandItem{
			{
				ID:          "carrots",
				Name:        "Carrots",
				RequiredQty: Qty("50"),
				Unit:        "kg",
				NeededBy:    ServiceDate,
				OnHandQty:   OptQty("10"),
				Category:    "produce",
				Outlet:      "ballroom",
			},
		},
		Catalog: []entities.SupplierOption{
			{
				ID:              "opt-carrots-fresh",
				VendorID:        "fresh-farms",
				VendorName:      "Fresh Farms",
				ItemID:          "carrots",
				OrderUnit:       "kg",
				PackSize:        Qty("5"),
				UnitCost:        Qty("2"),
				LeadTimeDays:    2,
				MinimumOrderQty: Qty("10"),
				Currency:        "USD",
			},
		},
	}
}

// BuildBanquetScenario is a multi-item banquet with inventory counts, two
// vendors, history, carts and stations.
func BuildBanquetScenario() *dto.CommitteeInputs {
	return &dto.CommitteeInputs{
		Demand: []entities.DemandItem{
			{
				ID: "salmon", Name: "Salmon fillet", RequiredQty: Qty("40"), Unit: "kg",
				NeededBy: ServiceDate, ShelfLifeHours: Float(72), PrepMinutesPerUnit: 3,
				Allergens: []string{"fish"}, Category: "protein", Outlet: "ballroom",
				WasteCostPerUnit: OptQty("18"),
			},
			{
				ID: "romaine", Name: "Romaine hearts", RequiredQty: Qty("30"), Unit: "kg",
				NeededBy: ServiceDate, PrepMinutesPerUnit: 2, Category: "produce", Outlet: "terrace",
			},
			{
				ID: "lemons", Name: "Lemons", RequiredQty: Qty("12"), Unit: "kg",
				NeededBy: ServiceDate, Category: "produce", Outlet: "ballroom",
			},
		},
		Inventory: []entities.InventorySnapshotItem{
			{ItemID: "salmon", Name: "Salmon fillet", OnHandQty: Qty("4"), Unit: "kg", UnitCost: Qty("21"), LastCountedAt: GeneratedAt},
			{ItemID: "romaine", Name: "Romaine hearts", OnHandQty: Qty("6"), Unit: "kg", UnitCost: Qty("3"), ShelfLifeHours: Float(96), LastCountedAt: GeneratedAt},
			{ItemID: "lemons", Name: "Lemons", OnHandQty: Qty("15"), Unit: "kg", UnitCost: Qty("2.5"), LastCountedAt: GeneratedAt},
		},
		Catalog: []entities.SupplierOption{
			{ID: "opt-salmon-sea", VendorID: "north-sea", VendorName: "North Sea Seafood", ItemID: "salmon", OrderUnit: "kg", PackSize: Qty("5"), UnitCost: Qty("20"), LeadTimeDays: 1, ShelfLifeHours: Float(72), Currency: "USD"},
			{ID: "opt-salmon-dock", VendorID: "dockside", VendorName: "Dockside Fish", ItemID: "salmon", OrderUnit: "kg", PackSize: Qty("1"), UnitCost: Qty("23"), LeadTimeDays: 1, Currency: "USD"},
			{ID: "opt-romaine-fresh", VendorID: "fresh-farms", VendorName: "Fresh Farms", ItemID: "romaine", OrderUnit: "kg", PackSize: Qty("2"), UnitCost: Qty("3"), LeadTimeDays: 1, ShelfLifeHours: Float(96), Currency: "USD"},
		},
		History: []entities.HistoricalDemandSample{
			{ItemID: "salmon", ServiceDate: ServiceDate.AddDate(0, 0, -7), FulfilledQty: Qty("38"), WasteQty: Qty("2")},
			{ItemID: "salmon", ServiceDate: ServiceDate.AddDate(0, 0, -14), FulfilledQty: Qty("42"), WasteQty: Qty("1")},
			{ItemID: "romaine", ServiceDate: ServiceDate.AddDate(0, 0, -7), FulfilledQty: Qty("29"), WasteQty: Qty("3")},
		},
		CartTemplates: []entities.CartTemplate{
			{ID: "cart-ballroom", Name: "Ballroom hot line", Outlet: "ballroom", Capacity: 4},
			{ID: "cart-terrace", Name: "Terrace cold line", Outlet: "terrace", Capacity: 4},
		},
		PrepStations: []entities.PrepStation{
			{ID: "hot-kitchen", Name: "Hot kitchen", Categories: []string{"protein"}},
			{ID: "garde-manger", Name: "Garde manger", Categories: []string{"produce"}},
		},
	}
}
