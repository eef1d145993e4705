package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/scpnet/scp-backend/internal/access"
	"github.com/scpnet/scp-backend/internal/i18n"
	"github.com/scpnet/scp-backend/internal/models"
	"github.com/scpnet/scp-backend/internal/repository"
	"github.com/scpnet/scp-backend/internal/utils"
)

type OrderService struct {
	store    *repository.Store
	events   EventPublisher
	notifier Notifier
}

type OrderItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"min=1"`
}

type CreateOrderRequest struct {
	SupplierID uuid.UUID          `json:"supplier_id" validate:"required"`
	Items      []OrderItemRequest `json:"items" validate:"dive"`
}

type OrderListParams struct {
	Status models.OrderStatus
	utils.PaginationParams
}

func NewOrderService(store *repository.Store, events EventPublisher, notifier Notifier) *OrderService {
	return &OrderService{
		store:    store,
		events:   events,
		notifier: notifier,
	}
}

// Create places an order. Checks run in a fixed order: role, link, items,
// repeated products, product lookup, then each line against the product it
// names. Prices are
// copied from the catalog at this moment and never re-read.
func (s *OrderService) Create(ctx context.Context, p access.Principal, req *CreateOrderRequest) (*models.Order, error) {
	if !access.IsConsumer(p) {
		return nil, roleForbidden(p)
	}

	order := &models.Order{
		SupplierID: req.SupplierID,
		ConsumerID: p.UserID(),
		Status:     models.OrderStatusCreated,
	}

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		link, err := tx.Links.GetByPair(ctx, p.UserID(), req.SupplierID)
		if err != nil {
			return fmt.Errorf("failed to load link: %w", err)
		}
		if link == nil {
			return ErrBadRequest(i18n.KeyOrderNoLink)
		}
		if link.Status != models.LinkStatusAccepted {
			return ErrBadRequest(i18n.KeyOrderLinkNotAccepted, link.Status).with("status", link.Status)
		}

		if len(req.Items) == 0 {
			return ErrBadRequest(i18n.KeyOrderEmpty)
		}
		if err := utils.ValidateStruct(req); err != nil {
			return validationError(err)
		}

		// one line per product, so stock and MOQ hold for the whole order
		ids := make([]uuid.UUID, 0, len(req.Items))
		seen := make(map[uuid.UUID]bool, len(req.Items))
		for _, item := range req.Items {
			if seen[item.ProductID] {
				return ErrBadRequest(i18n.KeyOrderDuplicateProduct, item.ProductID).with("product_id", item.ProductID)
			}
			seen[item.ProductID] = true
			ids = append(ids, item.ProductID)
		}
		products, err := tx.Products.GetByIDs(ctx, ids)
		if err != nil {
			return fmt.Errorf("failed to load products: %w", err)
		}
		byID := make(map[uuid.UUID]models.Product, len(products))
		for _, product := range products {
			byID[product.ID] = product
		}
		for _, id := range ids {
			if _, ok := byID[id]; !ok {
				return ErrNotFound(i18n.KeyOrderProductMissing, id).with("product_id", id)
			}
		}

		items := make([]models.OrderItem, 0, len(req.Items))
		for _, line := range req.Items {
			product := byID[line.ProductID]
			if err := checkLine(product, line, req.SupplierID); err != nil {
				return err
			}
			items = append(items, models.OrderItem{
				ProductID: product.ID,
				Quantity:  line.Quantity,
				UnitPrice: product.Price,
			})
		}

		order.Items = items
		order.TotalAmount = models.OrderTotal(items)
		if err := tx.Orders.Create(ctx, order); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"order_id":    order.ID,
		"supplier_id": order.SupplierID,
		"total":       order.TotalAmount.StringFixed(2),
	}).Info("Order created")
	publish(ctx, s.events, Event{
		Type:       EventOrderCreated,
		ActorID:    p.UserID(),
		SupplierID: order.SupplierID,
		EntityID:   order.ID,
		Data:       map[string]interface{}{"total_amount": order.TotalAmount.StringFixed(2)},
	})
	if s.notifier != nil {
		s.notifier.OrderPlaced(order)
	}
	return order, nil
}

func checkLine(product models.Product, line OrderItemRequest, supplierID uuid.UUID) error {
	switch {
	case product.SupplierID != supplierID:
		return ErrBadRequest(i18n.KeyOrderWrongSupplier, product.ID).with("product_id", product.ID)
	case !product.IsActive:
		return ErrBadRequest(i18n.KeyOrderProductInactive, product.ID).with("product_id", product.ID)
	case line.Quantity < product.MOQ:
		return ErrBadRequest(i18n.KeyOrderBelowMOQ, product.ID, product.MOQ).
			with("product_id", product.ID).with("moq", product.MOQ)
	case line.Quantity > product.Stock:
		return ErrBadRequest(i18n.KeyOrderInsufficient, product.ID, product.Stock).
			with("product_id", product.ID).with("stock", product.Stock)
	}
	return nil
}

func (s *OrderService) Accept(ctx context.Context, p access.Principal, orderID uuid.UUID) (*models.Order, error) {
	return s.decide(ctx, p, orderID, models.OrderStatusAccepted)
}

func (s *OrderService) Reject(ctx context.Context, p access.Principal, orderID uuid.UUID) (*models.Order, error) {
	return s.decide(ctx, p, orderID, models.OrderStatusRejected)
}

// decide moves a CREATED order to a terminal state. The update is
// conditional on the status read, so of two concurrent decisions only one
// succeeds and the other sees InvalidTransition.
func (s *OrderService) decide(ctx context.Context, p access.Principal, orderID uuid.UUID, to models.OrderStatus) (*models.Order, error) {
	if !access.CanDecideOrders(p) {
		return nil, roleForbidden(p)
	}
	supplierID, err := supplierOf(ctx, s.store, p)
	if err != nil {
		return nil, err
	}

	var order *models.Order
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		current, err := loadOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if current.SupplierID != supplierID {
			return ErrForbidden(i18n.KeyOrderNotFound)
		}
		if !current.Status.CanTransitionTo(to) {
			return ErrInvalidTransition(string(current.Status), string(to))
		}

		moved, err := tx.Orders.TransitionStatus(ctx, current.ID, current.Status, to)
		if err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}
		if !moved {
			latest, err := loadOrder(ctx, tx, orderID)
			if err != nil {
				return err
			}
			return ErrInvalidTransition(string(latest.Status), string(to))
		}

		current.Status = to
		order = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{"order_id": order.ID, "status": order.Status}).Info("Order status changed")
	publish(ctx, s.events, Event{
		Type:       EventOrderStatusChanged,
		ActorID:    p.UserID(),
		SupplierID: order.SupplierID,
		EntityID:   order.ID,
		Data:       map[string]interface{}{"status": order.Status},
	})
	return order, nil
}

// List returns a consumer's own orders or the orders addressed to the
// caller's resolved supplier.
func (s *OrderService) List(ctx context.Context, p access.Principal, params OrderListParams) ([]models.Order, int64, error) {
	if params.Status != "" && !params.Status.Valid() {
		return nil, 0, ErrBadRequest(i18n.KeyValidationInvalid, "status")
	}

	filter := repository.OrderFilter{
		Status: params.Status,
		Page:   pageOf(params.Limit, params.Offset),
	}
	if access.IsConsumer(p) {
		id := p.UserID()
		filter.ConsumerID = &id
	} else {
		supplierID, err := supplierOf(ctx, s.store, p)
		if err != nil {
			return nil, 0, err
		}
		filter.SupplierID = &supplierID
	}

	orders, total, err := s.store.Orders.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, total, nil
}

// Get returns an order with its lines when the caller is on either side
// of it.
func (s *OrderService) Get(ctx context.Context, p access.Principal, orderID uuid.UUID) (*models.Order, error) {
	order, err := loadOrder(ctx, s.store, orderID)
	if err != nil {
		return nil, err
	}

	if access.IsConsumer(p) {
		if order.ConsumerID != p.UserID() {
			return nil, ErrForbidden(i18n.KeyOrderNotFound)
		}
		return order, nil
	}

	supplierID, err := supplierOf(ctx, s.store, p)
	if err != nil {
		return nil, err
	}
	if order.SupplierID != supplierID {
		return nil, ErrForbidden(i18n.KeyOrderNotFound)
	}
	return order, nil
}

// Invoice renders the order the caller may see as a PDF document.
func (s *OrderService) Invoice(ctx context.Context, p access.Principal, orderID uuid.UUID) ([]byte, error) {
	order, err := s.Get(ctx, p, orderID)
	if err != nil {
		return nil, err
	}
	data, err := s.invoiceData(ctx, order)
	if err != nil {
		return nil, err
	}
	return RenderInvoice(*data)
}

func (s *OrderService) invoiceData(ctx context.Context, order *models.Order) (*InvoiceData, error) {
	supplier, err := s.store.Suppliers.GetByID(ctx, order.SupplierID)
	if err != nil {
		return nil, fmt.Errorf("failed to load supplier: %w", err)
	}
	consumer, err := s.store.Users.GetByID(ctx, order.ConsumerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load consumer: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(order.Items))
	for _, item := range order.Items {
		ids = append(ids, item.ProductID)
	}
	// deleted products still name the lines they were ordered on
	products, err := s.store.Products.GetByIDsWithDeleted(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	names := make(map[uuid.UUID]string, len(products))
	for _, product := range products {
		names[product.ID] = product.Name
	}

	return &InvoiceData{
		Order:        order,
		Supplier:     supplier,
		Consumer:     consumer,
		ProductNames: names,
	}, nil
}

func loadOrder(ctx context.Context, store *repository.Store, id uuid.UUID) (*models.Order, error) {
	order, err := store.Orders.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if order == nil {
		return nil, ErrNotFound(i18n.KeyOrderNotFound)
	}
	return order, nil
}
