package services

import (
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scpnet/scp-backend/internal/access"
	"github.com/scpnet/scp-backend/internal/models"
)

type orderFixture struct {
	*fixture
	buyer    access.Principal
	owner    access.Principal
	supplier *models.Supplier
}

func newOrderFixture(t *testing.T) *orderFixture {
	f := newFixture(t)
	buyer := f.consumer()
	owner, supplier := f.company()
	f.acceptedLink(buyer, owner, supplier)
	return &orderFixture{fixture: f, buyer: buyer, owner: owner, supplier: supplier}
}

func (f *orderFixture) place(lines ...OrderItemRequest) (*models.Order, error) {
	return f.orders.Create(f.ctx, f.buyer, &CreateOrderRequest{SupplierID: f.supplier.ID, Items: lines})
}

func TestCreateOrderSnapshotsPricesAndTotals(t *testing.T) {
	f := newOrderFixture(t)
	bolts := f.product(f.owner, "2.50", 100, 10)
	nuts := f.product(f.owner, "0.35", 1000, 1)

	order, err := f.place(
		OrderItemRequest{ProductID: bolts.ID, Quantity: 10},
		OrderItemRequest{ProductID: nuts.ID, Quantity: 3},
	)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCreated, order.Status)
	assert.True(t, decimal.RequireFromString("26.05").Equal(order.TotalAmount), order.TotalAmount.String())
	require.Len(t, order.Items, 2)

	newPrice := decimal.RequireFromString("9.99")
	_, err = f.products.Update(f.ctx, f.owner, bolts.ID, &UpdateProductRequest{Price: &newPrice})
	require.NoError(t, err)

	stored, err := f.orders.Get(f.ctx, f.buyer, order.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("26.05").Equal(stored.TotalAmount))
	for _, item := range stored.Items {
		if item.ProductID == bolts.ID {
			assert.True(t, decimal.RequireFromString("2.50").Equal(item.UnitPrice))
		}
	}

	assert.Contains(t, f.events.types(), EventOrderCreated)
	assert.Len(t, f.notifier.orders, 1)
}

func TestCreateOrderQuantityBoundaries(t *testing.T) {
	f := newOrderFixture(t)
	product := f.product(f.owner, "1.00", 20, 5)

	_, err := f.place(OrderItemRequest{ProductID: product.ID, Quantity: 4})
	se := requireKind(t, err, KindBadRequest)
	assert.Equal(t, 5, se.Details["moq"])

	_, err = f.place(OrderItemRequest{ProductID: product.ID, Quantity: 5})
	require.NoError(t, err)

	_, err = f.place(OrderItemRequest{ProductID: product.ID, Quantity: 20})
	require.NoError(t, err)

	_, err = f.place(OrderItemRequest{ProductID: product.ID, Quantity: 21})
	se = requireKind(t, err, KindBadRequest)
	assert.Equal(t, 20, se.Details["stock"])
}

func TestCreateOrderChecks(t *testing.T) {
	f := newOrderFixture(t)
	product := f.product(f.owner, "1.00", 20, 1)

	otherOwner, other := f.company()
	foreign := f.product(otherOwner, "1.00", 20, 1)

	inactive := f.product(f.owner, "1.00", 20, 1)
	off := false
	_, err := f.products.Update(f.ctx, f.owner, inactive.ID, &UpdateProductRequest{IsActive: &off})
	require.NoError(t, err)

	t.Run("supplier role", func(t *testing.T) {
		_, err := f.orders.Create(f.ctx, f.owner, &CreateOrderRequest{
			SupplierID: f.supplier.ID,
			Items:      []OrderItemRequest{{ProductID: product.ID, Quantity: 1}},
		})
		requireKind(t, err, KindForbidden)
	})

	t.Run("no link", func(t *testing.T) {
		_, err := f.orders.Create(f.ctx, f.buyer, &CreateOrderRequest{
			SupplierID: other.ID,
			Items:      []OrderItemRequest{{ProductID: foreign.ID, Quantity: 1}},
		})
		se := requireKind(t, err, KindBadRequest)
		assert.Equal(t, "order.no_link", se.Key)
	})

	t.Run("link checked before items", func(t *testing.T) {
		_, err := f.orders.Create(f.ctx, f.buyer, &CreateOrderRequest{SupplierID: other.ID})
		se := requireKind(t, err, KindBadRequest)
		assert.Equal(t, "order.no_link", se.Key)
	})

	t.Run("empty items", func(t *testing.T) {
		_, err := f.place()
		se := requireKind(t, err, KindBadRequest)
		assert.Equal(t, "order.empty", se.Key)
	})

	t.Run("zero quantity", func(t *testing.T) {
		_, err := f.place(OrderItemRequest{ProductID: product.ID, Quantity: 0})
		requireKind(t, err, KindBadRequest)
	})

	t.Run("unknown product", func(t *testing.T) {
		_, err := f.place(OrderItemRequest{ProductID: uuid.New(), Quantity: 1})
		requireKind(t, err, KindNotFound)
	})

	t.Run("repeated product cannot exceed stock", func(t *testing.T) {
		_, err := f.place(
			OrderItemRequest{ProductID: product.ID, Quantity: 20},
			OrderItemRequest{ProductID: product.ID, Quantity: 20},
		)
		se := requireKind(t, err, KindBadRequest)
		assert.Equal(t, "order.duplicate_product", se.Key)
		assert.Equal(t, product.ID, se.Details["product_id"])

		orders, total, err := f.orders.List(f.ctx, f.buyer, OrderListParams{})
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, orders)
	})

	t.Run("product of another supplier", func(t *testing.T) {
		_, err := f.place(OrderItemRequest{ProductID: foreign.ID, Quantity: 1})
		se := requireKind(t, err, KindBadRequest)
		assert.Equal(t, "order.wrong_supplier", se.Key)
	})

	t.Run("inactive product", func(t *testing.T) {
		_, err := f.place(OrderItemRequest{ProductID: inactive.ID, Quantity: 1})
		se := requireKind(t, err, KindBadRequest)
		assert.Equal(t, "order.product_inactive", se.Key)
	})
}

func TestCreateOrderNeedsAcceptedLink(t *testing.T) {
	f := newFixture(t)
	buyer := f.consumer()
	owner, supplier := f.company()
	product := f.product(owner, "1.00", 10, 1)

	link, err := f.links.Request(f.ctx, buyer, supplier.ID)
	require.NoError(t, err)

	req := &CreateOrderRequest{
		SupplierID: supplier.ID,
		Items:      []OrderItemRequest{{ProductID: product.ID, Quantity: 1}},
	}
	_, err = f.orders.Create(f.ctx, buyer, req)
	se := requireKind(t, err, KindBadRequest)
	assert.Equal(t, models.LinkStatusPending, se.Details["status"])

	_, err = f.links.Accept(f.ctx, owner, link.ID)
	require.NoError(t, err)
	_, err = f.orders.Create(f.ctx, buyer, req)
	require.NoError(t, err)

	_, err = f.links.Block(f.ctx, owner, link.ID)
	require.NoError(t, err)
	_, err = f.orders.Create(f.ctx, buyer, req)
	se = requireKind(t, err, KindBadRequest)
	assert.Equal(t, models.LinkStatusBlocked, se.Details["status"])
}

func TestOrderDecisions(t *testing.T) {
	f := newOrderFixture(t)
	product := f.product(f.owner, "3.00", 10, 1)
	sales, _ := f.hire(f.owner, models.StaffRoleSales)
	manager, _ := f.hire(f.owner, models.StaffRoleManager)

	order, err := f.place(OrderItemRequest{ProductID: product.ID, Quantity: 2})
	require.NoError(t, err)

	_, err = f.orders.Accept(f.ctx, sales, order.ID)
	requireKind(t, err, KindForbidden)
	_, err = f.orders.Accept(f.ctx, f.buyer, order.ID)
	requireKind(t, err, KindForbidden)

	accepted, err := f.orders.Accept(f.ctx, manager, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusAccepted, accepted.Status)

	_, err = f.orders.Accept(f.ctx, f.owner, order.ID)
	se := requireKind(t, err, KindInvalidTransition)
	assert.Equal(t, "ACCEPTED", se.Details["from"])

	_, err = f.orders.Reject(f.ctx, f.owner, order.ID)
	requireKind(t, err, KindInvalidTransition)

	second, err := f.place(OrderItemRequest{ProductID: product.ID, Quantity: 1})
	require.NoError(t, err)
	rejected, err := f.orders.Reject(f.ctx, f.owner, second.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusRejected, rejected.Status)

	stranger, _ := f.company()
	_, err = f.orders.Reject(f.ctx, stranger, second.ID)
	requireKind(t, err, KindForbidden)
}

func TestConcurrentOrderDecisionsHaveOneWinner(t *testing.T) {
	f := newOrderFixture(t)
	product := f.product(f.owner, "3.00", 10, 1)
	manager, _ := f.hire(f.owner, models.StaffRoleManager)

	order, err := f.place(OrderItemRequest{ProductID: product.ID, Quantity: 1})
	require.NoError(t, err)

	deciders := []func() error{
		func() error { _, err := f.orders.Accept(f.ctx, f.owner, order.ID); return err },
		func() error { _, err := f.orders.Reject(f.ctx, manager, order.ID); return err },
		func() error { _, err := f.orders.Accept(f.ctx, manager, order.ID); return err },
	}

	var wg sync.WaitGroup
	errs := make([]error, len(deciders))
	for i, decide := range deciders {
		wg.Add(1)
		go func(i int, decide func() error) {
			defer wg.Done()
			errs[i] = decide()
		}(i, decide)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.Equal(t, KindInvalidTransition, KindOf(err))
	}
	assert.Equal(t, 1, wins)
}

func TestOrderVisibility(t *testing.T) {
	f := newOrderFixture(t)
	product := f.product(f.owner, "1.00", 10, 1)
	sales, _ := f.hire(f.owner, models.StaffRoleSales)

	order, err := f.place(OrderItemRequest{ProductID: product.ID, Quantity: 1})
	require.NoError(t, err)

	_, err = f.orders.Get(f.ctx, sales, order.ID)
	require.NoError(t, err)

	_, err = f.orders.Get(f.ctx, f.consumer(), order.ID)
	requireKind(t, err, KindForbidden)

	stranger, _ := f.company()
	_, err = f.orders.Get(f.ctx, stranger, order.ID)
	requireKind(t, err, KindForbidden)

	_, err = f.orders.Get(f.ctx, f.buyer, uuid.New())
	requireKind(t, err, KindNotFound)

	mine, total, err := f.orders.List(f.ctx, f.buyer, OrderListParams{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, mine, 1)

	incoming, total, err := f.orders.List(f.ctx, sales, OrderListParams{Status: models.OrderStatusCreated})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, incoming, 1)

	none, total, err := f.orders.List(f.ctx, sales, OrderListParams{Status: models.OrderStatusAccepted})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, none)
}

func TestOrderInvoiceIsPDF(t *testing.T) {
	f := newOrderFixture(t)
	product := f.product(f.owner, "12.00", 10, 1)

	order, err := f.place(OrderItemRequest{ProductID: product.ID, Quantity: 3})
	require.NoError(t, err)

	pdf, err := f.orders.Invoice(f.ctx, f.buyer, order.ID)
	require.NoError(t, err)
	require.Greater(t, len(pdf), 4)
	assert.Equal(t, "%PDF", string(pdf[:4]))

	_, err = f.orders.Invoice(f.ctx, f.consumer(), order.ID)
	requireKind(t, err, KindForbidden)
}

func TestInvoiceNamesDeletedProducts(t *testing.T) {
	f := newOrderFixture(t)
	product := f.product(f.owner, "3.00", 10, 1)

	order, err := f.place(OrderItemRequest{ProductID: product.ID, Quantity: 2})
	require.NoError(t, err)
	require.NoError(t, f.products.Delete(f.ctx, f.owner, product.ID))

	data, err := f.orders.invoiceData(f.ctx, order)
	require.NoError(t, err)
	assert.Equal(t, product.Name, data.ProductNames[product.ID])

	pdf, err := f.orders.Invoice(f.ctx, f.buyer, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(pdf[:4]))
}

func TestShortenKeepsRunesWhole(t *testing.T) {
	long := strings.Repeat("Мука пшеничная ", 5)

	short := shorten(long, 48)
	assert.True(t, utf8.ValidString(short))
	assert.Equal(t, 48+2, utf8.RuneCountInString(short))
	assert.True(t, strings.HasSuffix(short, "..."))

	assert.Equal(t, "Сахар", shorten("Сахар", 48))

	_, err := RenderInvoice(InvoiceData{
		Order: &models.Order{
			Status:      models.OrderStatusCreated,
			TotalAmount: decimal.NewFromInt(1),
			Items:       []models.OrderItem{{ProductID: uuid.New(), Quantity: 1, UnitPrice: decimal.NewFromInt(1)}},
		},
		Supplier: &models.Supplier{Name: "Поставщик"},
	})
	assert.NoError(t, err)
}
