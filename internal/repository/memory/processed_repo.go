package memory

import (
	"payments_ledger/internal/domain"
)

type ProcessedRepository struct {
	ids map[domain.TxID]struct{}
}

func NewProcessedRepository() *ProcessedRepository {
	return &ProcessedRepository{
		ids: make(map[domain.TxID]struct{}),
	}
}

func (r *ProcessedRepository) Seen(tx domain.TxID) bool {
	_, exists := r.ids[tx]
	return exists
}

func (r *ProcessedRepository) Mark(tx domain.TxID) {
	r.ids[tx] = struct{}{}
}

func (r *ProcessedRepository) Len() int {
	return len(r.ids)
}
