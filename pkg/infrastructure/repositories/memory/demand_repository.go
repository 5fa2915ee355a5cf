package memory

import (
	"github.com/vsinha/prepcommittee/pkg/domain/entities"
	"github.com/vsinha/prepcommittee/pkg/domain/repositories"
)

// DemandRepository provides in-memory demand storage
type DemandRepository struct {
	demands []entities.DemandItem
}

// NewDemandRepository creates a new in-memory demand repository
func NewDemandRepository() *DemandRepository {
	return &DemandRepository{
		demands: []entities.DemandItem{},
	}
}

// Verify interface compliance
var _ repositories.DemandRepository = (*DemandRepository)(nil)

// LoadDemands loads demands into the repository
func (r *DemandRepository) LoadDemands(demands []entities.DemandItem) error {
	r.demands = append(r.demands, demands...)
	return nil
}

// GetDemands returns a copy of all demand items in load order
func (r *DemandRepository) GetDemands() ([]entities.DemandItem, error) {
	return append([]entities.DemandItem(nil), r.demands...), nil
}
