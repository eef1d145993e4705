package memstore

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/scpnet/scp-backend/internal/models"
	"github.com/scpnet/scp-backend/internal/repository"
)

// productRepo hides deleted products the way gorm's soft delete does.
type productRepo struct {
	db *DB
	j  *journal
}

func (r *productRepo) Create(ctx context.Context, product *models.Product) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.stamp(&product.BaseModel)
	remember(r.j, r.db.t.products, product.ID)
	r.db.t.products[product.ID] = copyProduct(*product)
	return nil
}

func (r *productRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if p, ok := r.db.t.products[id]; ok && !p.DeletedAt.Valid {
		p = copyProduct(p)
		return &p, nil
	}
	return nil, nil
}

func (r *productRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	return r.byIDs(ids, false), nil
}

func (r *productRepo) GetByIDsWithDeleted(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	return r.byIDs(ids, true), nil
}

func (r *productRepo) byIDs(ids []uuid.UUID, withDeleted bool) []models.Product {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var rows []models.Product
	seen := map[uuid.UUID]bool{}
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if p, ok := r.db.t.products[id]; ok && (withDeleted || !p.DeletedAt.Valid) {
			rows = append(rows, copyProduct(p))
		}
	}
	return rows
}

func (r *productRepo) Update(ctx context.Context, product *models.Product) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.t.products[product.ID]; !ok {
		return nil
	}
	remember(r.j, r.db.t.products, product.ID)
	r.db.touch(&product.BaseModel)
	r.db.t.products[product.ID] = copyProduct(*product)
	return nil
}

func (r *productRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if p, ok := r.db.t.products[id]; ok {
		remember(r.j, r.db.t.products, id)
		p.DeletedAt.Time = time.Now().UTC()
		p.DeletedAt.Valid = true
		r.db.t.products[id] = p
	}
	return nil
}

func (r *productRepo) List(ctx context.Context, filter repository.ProductFilter) ([]models.Product, int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var rows []models.Product
	for _, p := range r.db.t.products {
		if p.DeletedAt.Valid || p.SupplierID != filter.SupplierID {
			continue
		}
		if filter.OnlyActive && !p.IsActive {
			continue
		}
		rows = append(rows, copyProduct(p))
	}
	newestFirst(rows, func(p models.Product) time.Time { return p.CreatedAt })
	return paginate(rows, filter.Page), int64(len(rows)), nil
}
