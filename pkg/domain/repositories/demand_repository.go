package repositories

import "github.com/vsinha/prepcommittee/pkg/domain/entities"

// DemandRepository provides access to the demand forecast snapshot
type DemandRepository interface {
	GetDemands() ([]entities.DemandItem, error)
	LoadDemands(demands []entities.DemandItem) error
}
