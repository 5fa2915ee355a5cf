package repositories

import "github.com/vsinha/prepcommittee/pkg/domain/entities"

// HistoryRepository provides access to historical fulfilment samples
type HistoryRepository interface {
	GetSamples(itemID string) ([]entities.HistoricalDemandSample, error)
	HasSamples() bool
	LoadSamples(samples []entities.HistoricalDemandSample) error
}
