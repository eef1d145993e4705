package memstore

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/scpnet/scp-backend/internal/models"
	"github.com/scpnet/scp-backend/internal/repository"
)

type userRepo struct {
	db *DB
	j  *journal
}

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, u := range r.db.t.users {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	r.db.stamp(&user.BaseModel)
	remember(r.j, r.db.t.users, user.ID)
	r.db.t.users[user.ID] = *user
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if u, ok := r.db.t.users[id]; ok {
		return &u, nil
	}
	return nil, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, u := range r.db.t.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *userRepo) UpdateRole(ctx context.Context, id uuid.UUID, role models.Role) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if u, ok := r.db.t.users[id]; ok {
		remember(r.j, r.db.t.users, id)
		u.Role = role
		r.db.touch(&u.BaseModel)
		r.db.t.users[id] = u
	}
	return nil
}

func (r *userRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	remember(r.j, r.db.t.users, id)
	delete(r.db.t.users, id)
	for sid, s := range r.db.t.staff {
		if s.UserID == id {
			remember(r.j, r.db.t.staff, sid)
			delete(r.db.t.staff, sid)
		}
	}
	return nil
}

type supplierRepo struct {
	db *DB
	j  *journal
}

func (r *supplierRepo) Create(ctx context.Context, supplier *models.Supplier) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, s := range r.db.t.suppliers {
		if s.Name == supplier.Name || s.OwnerID == supplier.OwnerID {
			return repository.ErrDuplicate
		}
	}
	r.db.stamp(&supplier.BaseModel)
	stored := *supplier
	stored.Owner = nil
	remember(r.j, r.db.t.suppliers, supplier.ID)
	r.db.t.suppliers[supplier.ID] = stored
	return nil
}

func (r *supplierRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Supplier, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if s, ok := r.db.t.suppliers[id]; ok {
		return &s, nil
	}
	return nil, nil
}

func (r *supplierRepo) GetByOwnerID(ctx context.Context, ownerID uuid.UUID) (*models.Supplier, error) {
	return r.find(func(s models.Supplier) bool { return s.OwnerID == ownerID })
}

func (r *supplierRepo) GetByName(ctx context.Context, name string) (*models.Supplier, error) {
	return r.find(func(s models.Supplier) bool { return s.Name == name })
}

func (r *supplierRepo) find(match func(models.Supplier) bool) (*models.Supplier, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, s := range r.db.t.suppliers {
		if match(s) {
			return &s, nil
		}
	}
	return nil, nil
}

func (r *supplierRepo) List(ctx context.Context, filter repository.SupplierFilter) ([]models.Supplier, int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	var rows []models.Supplier
	for _, s := range r.db.t.suppliers {
		if search == "" || strings.Contains(strings.ToLower(s.Name), search) {
			rows = append(rows, s)
		}
	}
	newestFirst(rows, func(s models.Supplier) time.Time { return s.CreatedAt })
	return paginate(rows, filter.Page), int64(len(rows)), nil
}

type staffRepo struct {
	db *DB
	j  *journal
}

func (r *staffRepo) Create(ctx context.Context, staff *models.SupplierStaff) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, s := range r.db.t.staff {
		if s.UserID == staff.UserID {
			return repository.ErrDuplicate
		}
	}
	r.db.stamp(&staff.BaseModel)
	stored := *staff
	stored.User = nil
	stored.Supplier = nil
	remember(r.j, r.db.t.staff, staff.ID)
	r.db.t.staff[staff.ID] = stored
	return nil
}

// withUser attaches the account row the way a gorm Preload would.
func (r *staffRepo) withUser(s models.SupplierStaff) models.SupplierStaff {
	if u, ok := r.db.t.users[s.UserID]; ok {
		s.User = &u
	}
	return s
}

func (r *staffRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.SupplierStaff, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if s, ok := r.db.t.staff[id]; ok {
		s = r.withUser(s)
		return &s, nil
	}
	return nil, nil
}

func (r *staffRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.SupplierStaff, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, s := range r.db.t.staff {
		if s.UserID == userID {
			return &s, nil
		}
	}
	return nil, nil
}

func (r *staffRepo) ListBySupplier(ctx context.Context, supplierID uuid.UUID) ([]models.SupplierStaff, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var rows []models.SupplierStaff
	for _, s := range r.db.t.staff {
		if s.SupplierID == supplierID {
			rows = append(rows, r.withUser(s))
		}
	}
	newestFirst(rows, func(s models.SupplierStaff) time.Time { return s.CreatedAt })
	return rows, nil
}

func (r *staffRepo) UpdateRole(ctx context.Context, id uuid.UUID, role models.StaffRole) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if s, ok := r.db.t.staff[id]; ok {
		remember(r.j, r.db.t.staff, id)
		s.Role = role
		r.db.touch(&s.BaseModel)
		r.db.t.staff[id] = s
	}
	return nil
}

func (r *staffRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	remember(r.j, r.db.t.staff, id)
	delete(r.db.t.staff, id)
	return nil
}

type auditLogRepo struct {
	db *DB
	j  *journal
}

func (r *auditLogRepo) Create(ctx context.Context, entry *models.AuditLog) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.stamp(&entry.BaseModel)
	r.db.t.audit = append(r.db.t.audit, *entry)
	id := entry.ID
	r.j.add(func() {
		for i := range r.db.t.audit {
			if r.db.t.audit[i].ID == id {
				r.db.t.audit = append(r.db.t.audit[:i], r.db.t.audit[i+1:]...)
				return
			}
		}
	})
	return nil
}

// AuditLogs returns a copy of the recorded audit rows.
func AuditLogs(store *repository.Store) []models.AuditLog {
	repo, ok := store.AuditLogs.(*auditLogRepo)
	if !ok {
		return nil
	}
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return append([]models.AuditLog(nil), repo.db.t.audit...)
}
