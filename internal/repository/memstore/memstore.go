// Package memstore is a single-process implementation of the repository
// contracts. It backs DB_DRIVER=memory and the service and handler tests.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/scpnet/scp-backend/internal/models"
	"github.com/scpnet/scp-backend/internal/repository"
)

type tables struct {
	users      map[uuid.UUID]models.User
	suppliers  map[uuid.UUID]models.Supplier
	staff      map[uuid.UUID]models.SupplierStaff
	links      map[uuid.UUID]models.Link
	products   map[uuid.UUID]models.Product
	orders     map[uuid.UUID]models.Order
	complaints map[uuid.UUID]models.Complaint
	messages   map[uuid.UUID]models.Message
	audit      []models.AuditLog
}

func newTables() *tables {
	return &tables{
		users:      map[uuid.UUID]models.User{},
		suppliers:  map[uuid.UUID]models.Supplier{},
		staff:      map[uuid.UUID]models.SupplierStaff{},
		links:      map[uuid.UUID]models.Link{},
		products:   map[uuid.UUID]models.Product{},
		orders:     map[uuid.UUID]models.Order{},
		complaints: map[uuid.UUID]models.Complaint{},
		messages:   map[uuid.UUID]models.Message{},
	}
}

func copyProduct(p models.Product) models.Product {
	p.Tags = append(p.Tags[:0:0], p.Tags...)
	return p
}

func copyOrder(o models.Order) models.Order {
	o.Items = append(o.Items[:0:0], o.Items...)
	return o
}

// journal holds the undo steps of one transaction. Only rows written through
// the transaction's repositories are recorded, so a rollback never touches
// writes committed by other callers in the meantime. Caller holds db.mu.
type journal struct {
	undo []func()
}

// remember records how to put table[id] back to its current state.
func remember[V any](j *journal, table map[uuid.UUID]V, id uuid.UUID) {
	if j == nil {
		return
	}
	prev, existed := table[id]
	j.undo = append(j.undo, func() {
		if existed {
			table[id] = prev
		} else {
			delete(table, id)
		}
	})
}

func (j *journal) add(step func()) {
	if j != nil {
		j.undo = append(j.undo, step)
	}
}

func (j *journal) rollback() {
	for i := len(j.undo) - 1; i >= 0; i-- {
		j.undo[i]()
	}
	j.undo = nil
}

// DB holds the tables and serializes writers.
type DB struct {
	mu   sync.RWMutex
	txMu sync.Mutex
	t    *tables
	last time.Time

	store *repository.Store
}

// New returns an empty Store. Transactions are serialized and undo their
// own writes when the callback fails.
func New() *repository.Store {
	db := &DB{t: newTables()}
	db.store = repository.NewStore(db.repos(nil), db)
	return db.store
}

func (db *DB) repos(j *journal) repository.Store {
	return repository.Store{
		Users:      &userRepo{db: db, j: j},
		Suppliers:  &supplierRepo{db: db, j: j},
		Staff:      &staffRepo{db: db, j: j},
		Links:      &linkRepo{db: db, j: j},
		Products:   &productRepo{db: db, j: j},
		Orders:     &orderRepo{db: db, j: j},
		Complaints: &complaintRepo{db: db, j: j},
		Messages:   &messageRepo{db: db, j: j},
		AuditLogs:  &auditLogRepo{db: db, j: j},
	}
}

func (db *DB) Transaction(ctx context.Context, fn func(tx *repository.Store) error) error {
	db.txMu.Lock()
	defer db.txMu.Unlock()

	j := &journal{}
	// nested Transaction calls on tx run inline
	tx := repository.NewStore(db.repos(j), nil)

	committed := false
	defer func() {
		if !committed {
			db.mu.Lock()
			j.rollback()
			db.mu.Unlock()
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	committed = true
	return nil
}

func (db *DB) Ping(ctx context.Context) error {
	return ctx.Err()
}

// stamp fills identity and timestamps. Creation times strictly increase so
// newest-first ordering is deterministic. Caller holds db.mu.
func (db *DB) stamp(b *models.BaseModel) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	now := time.Now().UTC()
	if !now.After(db.last) {
		now = db.last.Add(time.Microsecond)
	}
	db.last = now
	b.CreatedAt = now
	b.UpdatedAt = now
}

func (db *DB) touch(b *models.BaseModel) {
	b.UpdatedAt = time.Now().UTC()
}

func newestFirst[T any](rows []T, createdAt func(T) time.Time) {
	sort.SliceStable(rows, func(i, j int) bool {
		return createdAt(rows[i]).After(createdAt(rows[j]))
	})
}

func paginate[T any](rows []T, p repository.Page) []T {
	if p.Offset >= len(rows) {
		return []T{}
	}
	if p.Offset > 0 {
		rows = rows[p.Offset:]
	}
	if p.Limit > 0 && p.Limit < len(rows) {
		rows = rows[:p.Limit]
	}
	return rows
}
