package memstore

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/scpnet/scp-backend/internal/models"
	"github.com/scpnet/scp-backend/internal/repository"
)

type linkRepo struct {
	db *DB
	j  *journal
}

func (r *linkRepo) Create(ctx context.Context, link *models.Link) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, l := range r.db.t.links {
		if l.ConsumerID == link.ConsumerID && l.SupplierID == link.SupplierID {
			return repository.ErrDuplicate
		}
	}
	r.db.stamp(&link.BaseModel)
	stored := *link
	stored.Consumer = nil
	stored.Supplier = nil
	remember(r.j, r.db.t.links, link.ID)
	r.db.t.links[link.ID] = stored
	return nil
}

func (r *linkRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Link, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if l, ok := r.db.t.links[id]; ok {
		return &l, nil
	}
	return nil, nil
}

func (r *linkRepo) GetByPair(ctx context.Context, consumerID, supplierID uuid.UUID) (*models.Link, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, l := range r.db.t.links {
		if l.ConsumerID == consumerID && l.SupplierID == supplierID {
			return &l, nil
		}
	}
	return nil, nil
}

func (r *linkRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from []models.LinkStatus, to models.LinkStatus) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	l, ok := r.db.t.links[id]
	if !ok {
		return false, nil
	}
	if len(from) > 0 && !containsStatus(from, l.Status) {
		return false, nil
	}
	remember(r.j, r.db.t.links, id)
	l.Status = to
	r.db.touch(&l.BaseModel)
	r.db.t.links[id] = l
	return true, nil
}

func containsStatus(set []models.LinkStatus, s models.LinkStatus) bool {
	for _, candidate := range set {
		if candidate == s {
			return true
		}
	}
	return false
}

func (r *linkRepo) List(ctx context.Context, filter repository.LinkFilter) ([]models.Link, int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var rows []models.Link
	for _, l := range r.db.t.links {
		if filter.ConsumerID != nil && l.ConsumerID != *filter.ConsumerID {
			continue
		}
		if filter.SupplierID != nil && l.SupplierID != *filter.SupplierID {
			continue
		}
		if filter.Status != "" && l.Status != filter.Status {
			continue
		}
		rows = append(rows, l)
	}
	newestFirst(rows, func(l models.Link) time.Time { return l.CreatedAt })
	return paginate(rows, filter.Page), int64(len(rows)), nil
}
