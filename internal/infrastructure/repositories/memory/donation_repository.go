package memory

import (
	"context"
	"sync"

	"github.com/Shockvaluemedia/directfanz-project-sub008/internal/core/domain"
	"github.com/Shockvaluemedia/directfanz-project-sub008/internal/core/ports"
)

type MemoryDonationRepository struct {
	donations map[domain.DonationID]*domain.Donation
	bySession map[domain.SessionID][]domain.DonationID
	mu        sync.RWMutex
}

func NewMemoryDonationRepository() ports.DonationRepository {
	return &MemoryDonationRepository{
		donations: make(map[domain.DonationID]*domain.Donation),
		bySession: make(map[domain.SessionID][]domain.DonationID),
	}
}

func (r *MemoryDonationRepository) Save(ctx context.Context, donation *domain.Donation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.donations[donation.ID]; !exists {
		r.bySession[donation.SessionID] = append(r.bySession[donation.SessionID], donation.ID)
	}

	copied := *donation
	r.donations[donation.ID] = &copied
	return nil
}

func (r *MemoryDonationRepository) GetByID(ctx context.Context, id domain.DonationID) (*domain.Donation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	donation, exists := r.donations[id]
	if !exists {
		return nil, domain.ErrDonationNotFound
	}

	copied := *donation
	return &copied, nil
}

func (r *MemoryDonationRepository) ListBySession(ctx context.Context, sessionID domain.SessionID) ([]*domain.Donation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.bySession[sessionID]
	out := make([]*domain.Donation, 0, len(ids))
	for _, id := range ids {
		if donation, exists := r.donations[id]; exists {
			copied := *donation
			out = append(out, &copied)
		}
	}
	return out, nil
}
