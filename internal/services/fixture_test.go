package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/scpnet/scp-backend/internal/access"
	"github.com/scpnet/scp-backend/internal/config"
	"github.com/scpnet/scp-backend/internal/models"
	"github.com/scpnet/scp-backend/internal/repository"
	"github.com/scpnet/scp-backend/internal/repository/memstore"
)

const testPassword = "secret123"

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *recordingPublisher) Publish(ctx context.Context, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type recordingNotifier struct {
	mu        sync.Mutex
	links     []uuid.UUID
	orders    []uuid.UUID
	escalated []uuid.UUID
}

func (n *recordingNotifier) LinkRequested(link *models.Link) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.links = append(n.links, link.ID)
}

func (n *recordingNotifier) OrderPlaced(order *models.Order) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.orders = append(n.orders, order.ID)
}

func (n *recordingNotifier) ComplaintEscalated(complaint *models.Complaint) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.escalated = append(n.escalated, complaint.ID)
}

type memoryRevoker struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
}

func (r *memoryRevoker) Revoke(ctx context.Context, jti string, ttl time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.revoked == nil {
		r.revoked = map[string]time.Duration{}
	}
	if _, ok := r.revoked[jti]; ok {
		return false, nil
	}
	r.revoked[jti] = ttl
	return true, nil
}

func (r *memoryRevoker) IsRevoked(ctx context.Context, jti string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.revoked[jti]
	return ok, nil
}

type memoryObjects struct {
	mu   sync.Mutex
	keys []string
}

func (o *memoryObjects) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.keys = append(o.keys, key)
	return "https://cdn.test/" + key, nil
}

type fakeGateway struct {
	amounts []int64
	fail    bool
}

func (g *fakeGateway) CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (*PaymentIntentResponse, error) {
	if g.fail {
		return nil, errors.New("gateway down")
	}
	g.amounts = append(g.amounts, amountMinor)
	return &PaymentIntentResponse{
		ClientSecret: "pi_secret",
		PaymentID:    fmt.Sprintf("pi_%d", len(g.amounts)),
		Status:       "requires_payment_method",
	}, nil
}

type fixture struct {
	t   *testing.T
	ctx context.Context
	cfg *config.Config

	store    *repository.Store
	events   *recordingPublisher
	notifier *recordingNotifier
	revoker  *memoryRevoker
	objects  *memoryObjects
	gateway  *fakeGateway

	auth       *AuthService
	suppliers  *SupplierService
	staff      *StaffService
	links      *LinkService
	products   *ProductService
	orders     *OrderService
	payments   *PaymentService
	complaints *ComplaintService
	chat       *ChatService

	seq int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := &config.Config{
		Environment: "test",
		JWT: config.JWTConfig{
			SecretKey:       "test-secret",
			AccessTokenTTL:  1,
			RefreshTokenTTL: 24,
		},
		Payment: config.PaymentConfig{Currency: "usd"},
	}

	f := &fixture{
		t:        t,
		ctx:      context.Background(),
		cfg:      cfg,
		store:    memstore.New(),
		events:   &recordingPublisher{},
		notifier: &recordingNotifier{},
		revoker:  &memoryRevoker{},
		objects:  &memoryObjects{},
		gateway:  &fakeGateway{},
	}

	f.auth = NewAuthService(f.store, cfg, f.revoker)
	f.suppliers = NewSupplierService(f.store)
	f.staff = NewStaffService(f.store)
	f.links = NewLinkService(f.store, f.events, f.notifier)
	f.products = NewProductService(f.store)
	f.orders = NewOrderService(f.store, f.events, f.notifier)
	f.payments = NewPaymentService(f.store, cfg, f.gateway)
	f.complaints = NewComplaintService(f.store, f.events, f.notifier)
	f.chat = NewChatService(f.store, f.objects, f.events)
	return f
}

func (f *fixture) email(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s%d@test.local", prefix, f.seq)
}

// account stores a user with the given role and returns its principal.
func (f *fixture) account(role models.Role) access.Principal {
	f.t.Helper()

	user := &models.User{Email: f.email("user"), Role: role}
	require.NoError(f.t, user.SetPassword(testPassword))
	require.NoError(f.t, f.store.Users.Create(f.ctx, user))

	p, err := access.FromUser(user)
	require.NoError(f.t, err)
	return p
}

func (f *fixture) consumer() access.Principal {
	return f.account(models.RoleConsumer)
}

// company creates an owner together with its supplier.
func (f *fixture) company() (access.Principal, *models.Supplier) {
	f.t.Helper()

	owner := f.account(models.RoleSupplierOwner)
	f.seq++
	supplier, err := f.suppliers.Create(f.ctx, owner, &CreateSupplierRequest{Name: fmt.Sprintf("Supplier %d", f.seq)})
	require.NoError(f.t, err)
	return owner, supplier
}

func (f *fixture) hire(owner access.Principal, role models.StaffRole) (access.Principal, *models.SupplierStaff) {
	f.t.Helper()

	seat, err := f.staff.Create(f.ctx, owner, &CreateStaffRequest{
		Email:    f.email("staff"),
		Password: testPassword,
		Role:     role,
	})
	require.NoError(f.t, err)

	p, err := access.FromUser(seat.User)
	require.NoError(f.t, err)
	return p, seat
}

func (f *fixture) acceptedLink(consumer, owner access.Principal, supplier *models.Supplier) *models.Link {
	f.t.Helper()

	link, err := f.links.Request(f.ctx, consumer, supplier.ID)
	require.NoError(f.t, err)
	link, err = f.links.Accept(f.ctx, owner, link.ID)
	require.NoError(f.t, err)
	return link
}

func (f *fixture) product(owner access.Principal, price string, stock, moq int) *models.Product {
	f.t.Helper()

	product, err := f.products.Create(f.ctx, owner, &CreateProductRequest{
		Name:  "Item " + price,
		Unit:  "pcs",
		Price: decimal.RequireFromString(price),
		Stock: stock,
		MOQ:   moq,
	})
	require.NoError(f.t, err)
	return product
}

// requireKind asserts err is a service error of the given kind.
func requireKind(t *testing.T, err error, kind ErrorKind) *Error {
	t.Helper()

	require.Error(t, err)
	var se *Error
	require.True(t, errors.As(err, &se), "expected *services.Error, got %T: %v", err, err)
	require.Equal(t, kind, se.Kind, se.Error())
	return se
}
