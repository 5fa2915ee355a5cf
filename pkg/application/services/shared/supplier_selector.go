package shared

import (
	"sort"

	"github.com/vsinha/prepcommittee/pkg/domain/entities"
)

// SelectSupplier picks the option to buy from: lowest unit cost, then the
// shorter lead time, then option id so equal offers resolve the same way
// every run. Ineligible options are ignored. Returns nil if nothing qualifies.
func SelectSupplier(options []entities.SupplierOption) *entities.SupplierOption {
	candidates := make([]entities.SupplierOption, 0, len(options))
	for _, opt := range options {
		if opt.Eligible() {
			candidates = append(candidates, opt)
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if !a.UnitCost.Equal(b.UnitCost) {
			return a.UnitCost.LessThan(b.UnitCost)
		}
		if a.LeadTimeDays != b.LeadTimeDays {
			return a.LeadTimeDays < b.LeadTimeDays
		}
		return a.ID < b.ID
	})

	best := candidates[0]
	return &best
}

// SelectStation picks the prep station for an item category: the first
// station that handles the category, else the first station. ok is false
// when no stations were supplied.
func SelectStation(stations []entities.PrepStation, category string) (entities.PrepStation, bool) {
	if len(stations) == 0 {
		return entities.PrepStation{}, false
	}
	for _, s := range stations {
		if s.Handles(category) {
			return s, true
		}
	}
	return stations[0], true
}

// SelectCartTemplate returns the index of the template serving outlet, falling
// back to the first template. It returns -1 when there are no templates.
func SelectCartTemplate(templates []entities.CartTemplate, outlet string) int {
	if len(templates) == 0 {
		return -1
	}
	for i, t := range templates {
		if t.Outlet == outlet {
			return i
		}
	}
	return 0
}
