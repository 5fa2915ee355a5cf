package memory

import (
	"sort"

	"github.com/vsinha/prepcommittee/pkg/domain/entities"
	"github.com/vsinha/prepcommittee/pkg/domain/repositories"
)

// CatalogRepository provides in-memory supplier catalog storage, indexed by item
type CatalogRepository struct {
	options []entities.SupplierOption
	byItem  map[string][]int
}

// NewCatalogRepository creates a new in-memory catalog repository
func NewCatalogRepository(expectedOptions int) *CatalogRepository {
	return &CatalogRepository{
		options: make([]entities.SupplierOption, 0, expectedOptions),
		byItem:  make(map[string][]int),
	}
}

// Verify interface compliance
var _ repositories.CatalogRepository = (*CatalogRepository)(nil)

// LoadOptions loads supplier options into the repository
func (r *CatalogRepository) LoadOptions(options []entities.SupplierOption) error {
	for _, opt := range options {
		r.AddOption(opt)
	}
	return nil
}

// AddOption adds one supplier option
func (r *CatalogRepository) AddOption(opt entities.SupplierOption) {
	r.byItem[opt.ItemID] = append(r.byItem[opt.ItemID], len(r.options))
	r.options = append(r.options, opt)
}

// GetAllOptions returns every option in load order
func (r *CatalogRepository) GetAllOptions() ([]entities.SupplierOption, error) {
	return append([]entities.SupplierOption(nil), r.options...), nil
}

// GetOptionGroups returns options grouped by item id
func (r *CatalogRepository) GetOptionGroups() (map[string][]entities.SupplierOption, error) {
	groups := make(map[string][]entities.SupplierOption, len(r.byItem))
	for itemID, indexes := range r.byItem {
		for _, idx := range indexes {
			groups[itemID] = append(groups[itemID], r.options[idx])
		}
	}
	return groups, nil
}

// GetEligibleOptions returns orderable options for an item, sorted by option id
// so that callers see a stable order regardless of load order.
func (r *CatalogRepository) GetEligibleOptions(itemID string) ([]entities.SupplierOption, error) {
	var eligible []entities.SupplierOption
	for _, idx := range r.byItem[itemID] {
		if opt := r.options[idx]; opt.Eligible() {
			eligible = append(eligible, opt)
		}
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].ID < eligible[j].ID
	})
	return eligible, nil
}
