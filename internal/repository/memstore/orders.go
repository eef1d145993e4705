package memstore

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/scpnet/scp-backend/internal/models"
	"github.com/scpnet/scp-backend/internal/repository"
)

type orderRepo struct {
	db *DB
	j  *journal
}

func (r *orderRepo) Create(ctx context.Context, order *models.Order) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.stamp(&order.BaseModel)
	for i := range order.Items {
		r.db.stamp(&order.Items[i].BaseModel)
		order.Items[i].OrderID = order.ID
	}
	remember(r.j, r.db.t.orders, order.ID)
	r.db.t.orders[order.ID] = copyOrder(*order)
	return nil
}

func (r *orderRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if o, ok := r.db.t.orders[id]; ok {
		o = copyOrder(o)
		return &o, nil
	}
	return nil, nil
}

func (r *orderRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from, to models.OrderStatus) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	o, ok := r.db.t.orders[id]
	if !ok || o.Status != from {
		return false, nil
	}
	remember(r.j, r.db.t.orders, id)
	o.Status = to
	r.db.touch(&o.BaseModel)
	r.db.t.orders[id] = o
	return true, nil
}

func (r *orderRepo) SetPaymentIntent(ctx context.Context, id uuid.UUID, paymentIntentID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if o, ok := r.db.t.orders[id]; ok {
		remember(r.j, r.db.t.orders, id)
		o.PaymentIntentID = paymentIntentID
		r.db.t.orders[id] = o
	}
	return nil
}

func (r *orderRepo) List(ctx context.Context, filter repository.OrderFilter) ([]models.Order, int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var rows []models.Order
	for _, o := range r.db.t.orders {
		if filter.ConsumerID != nil && o.ConsumerID != *filter.ConsumerID {
			continue
		}
		if filter.SupplierID != nil && o.SupplierID != *filter.SupplierID {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		rows = append(rows, copyOrder(o))
	}
	newestFirst(rows, func(o models.Order) time.Time { return o.CreatedAt })
	return paginate(rows, filter.Page), int64(len(rows)), nil
}

type complaintRepo struct {
	db *DB
	j  *journal
}

func (r *complaintRepo) Create(ctx context.Context, complaint *models.Complaint) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.stamp(&complaint.BaseModel)
	remember(r.j, r.db.t.complaints, complaint.ID)
	r.db.t.complaints[complaint.ID] = *complaint
	return nil
}

func (r *complaintRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Complaint, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if c, ok := r.db.t.complaints[id]; ok {
		return &c, nil
	}
	return nil, nil
}

func (r *complaintRepo) Transition(ctx context.Context, id uuid.UUID, from models.ComplaintStatus, change repository.ComplaintChange) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	c, ok := r.db.t.complaints[id]
	if !ok || c.Status != from {
		return false, nil
	}
	remember(r.j, r.db.t.complaints, id)
	c.Status = change.Status
	if change.AssignedToID != nil {
		c.AssignedToID = change.AssignedToID
	}
	if change.EscalatedAt != nil {
		c.EscalatedAt = change.EscalatedAt
	}
	if change.ResolvedAt != nil {
		c.ResolvedAt = change.ResolvedAt
	}
	r.db.touch(&c.BaseModel)
	r.db.t.complaints[id] = c
	return true, nil
}

func (r *complaintRepo) List(ctx context.Context, filter repository.ComplaintFilter) ([]models.Complaint, int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var rows []models.Complaint
	for _, c := range r.db.t.complaints {
		if filter.SupplierID != nil {
			if c.LinkID == nil {
				continue
			}
			link, ok := r.db.t.links[*c.LinkID]
			if !ok || link.SupplierID != *filter.SupplierID {
				continue
			}
		}
		if filter.CreatedByID != nil && c.CreatedByID != *filter.CreatedByID {
			continue
		}
		if filter.AssignedToID != nil && (c.AssignedToID == nil || *c.AssignedToID != *filter.AssignedToID) {
			continue
		}
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		rows = append(rows, c)
	}
	newestFirst(rows, func(c models.Complaint) time.Time { return c.CreatedAt })
	return paginate(rows, filter.Page), int64(len(rows)), nil
}

type messageRepo struct {
	db *DB
	j  *journal
}

func (r *messageRepo) Create(ctx context.Context, message *models.Message) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.stamp(&message.BaseModel)
	remember(r.j, r.db.t.messages, message.ID)
	r.db.t.messages[message.ID] = *message
	return nil
}

func (r *messageRepo) ListByLink(ctx context.Context, linkID uuid.UUID, p repository.Page) ([]models.Message, int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var rows []models.Message
	for _, m := range r.db.t.messages {
		if m.LinkID == linkID {
			rows = append(rows, m)
		}
	}
	newestFirst(rows, func(m models.Message) time.Time { return m.CreatedAt })
	return paginate(rows, p), int64(len(rows)), nil
}
