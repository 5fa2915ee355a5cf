package shared

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vsinha/prepcommittee/pkg/domain/entities"
)

func option(id, vendor string, cost int64, lead int) entities.SupplierOption {
	return entities.SupplierOption{
		ID: id, VendorID: vendor, ItemID: "carrots",
		UnitCost: decimal.NewFromInt(cost), LeadTimeDays: lead, PackSize: decimal.NewFromInt(1),
	}
}

func TestSelectSupplier(t *testing.T) {
	testCases := []struct {
		name     string
		options  []entities.SupplierOption
		expected string
	}{
		{"lowest cost wins", []entities.SupplierOption{option("a", "v1", 3, 1), option("b", "v2", 2, 5)}, "b"},
		{"lead time breaks cost ties", []entities.SupplierOption{option("a", "v1", 2, 4), option("b", "v2", 2, 1)}, "b"},
		{"id breaks full ties", []entities.SupplierOption{option("z", "v1", 2, 1), option("m", "v2", 2, 1)}, "m"},
		{"ineligible skipped", []entities.SupplierOption{option("free", "v1", 0, 1), option("b", "v2", 5, 1)}, "b"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := SelectSupplier(tc.options)
			if got == nil {
				t.Fatal("Expected a supplier")
			}
			if got.ID != tc.expected {
				t.Errorf("Expected %s, got %s", tc.expected, got.ID)
			}
		})
	}

	if SelectSupplier(nil) != nil {
		t.Error("Expected nil for empty catalog")
	}
}

func TestSelectStationAndCart(t *testing.T) {
	stations := []entities.PrepStation{
		{ID: "garde-manger", Categories: []string{"produce"}},
		{ID: "butchery", Categories: []string{"protein"}},
	}
	if s, _ := SelectStation(stations, "protein"); s.ID != "butchery" {
		t.Errorf("Expected butchery, got %s", s.ID)
	}
	if s, _ := SelectStation(stations, "bakery"); s.ID != "garde-manger" {
		t.Errorf("Expected fallback to first station, got %s", s.ID)
	}
	if _, ok := SelectStation(nil, "produce"); ok {
		t.Error("Expected no station")
	}

	templates := []entities.CartTemplate{{ID: "c1", Outlet: "ballroom"}, {ID: "c2", Outlet: "terrace"}}
	if SelectCartTemplate(templates, "terrace") != 1 {
		t.Error("Expected terrace cart")
	}
	if SelectCartTemplate(templates, "lobby") != 0 {
		t.Error("Expected fallback to first cart")
	}
	if SelectCartTemplate(nil, "lobby") != -1 {
		t.Error("Expected -1 with no templates")
	}
}
