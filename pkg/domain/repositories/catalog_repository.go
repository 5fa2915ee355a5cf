package repositories

import "github.com/vsinha/prepcommittee/pkg/domain/entities"

// CatalogRepository provides access to supplier catalog rows
type CatalogRepository interface {
	GetAllOptions() ([]entities.SupplierOption, error)
	LoadOptions(options []entities.SupplierOption) error

	// GetOptionGroups returns every item's options keyed by item id.
	GetOptionGroups() (map[string][]entities.SupplierOption, error)

	// GetEligibleOptions returns the options for one item that can actually be ordered.
	GetEligibleOptions(itemID string) ([]entities.SupplierOption, error)
}
