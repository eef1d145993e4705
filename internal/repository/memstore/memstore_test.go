package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scpnet/scp-backend/internal/models"
	"github.com/scpnet/scp-backend/internal/repository"
)

func TestTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	store := New()
	boom := errors.New("boom")

	err := store.Transaction(ctx, func(tx *repository.Store) error {
		require.NoError(t, tx.Users.Create(ctx, &models.User{Email: "gone@example.com", Role: models.RoleConsumer}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	user, err := store.Users.GetByEmail(ctx, "gone@example.com")
	require.NoError(t, err)
	assert.Nil(t, user)

	err = store.Transaction(ctx, func(tx *repository.Store) error {
		return tx.Users.Create(ctx, &models.User{Email: "kept@example.com", Role: models.RoleConsumer})
	})
	require.NoError(t, err)

	user, err = store.Users.GetByEmail(ctx, "kept@example.com")
	require.NoError(t, err)
	assert.NotNil(t, user)
}

func TestRollbackKeepsConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	store := New()
	boom := errors.New("boom")
	linkID := uuid.New()

	link := &models.Link{ConsumerID: uuid.New(), SupplierID: uuid.New(), Status: models.LinkStatusPending}
	require.NoError(t, store.Links.Create(ctx, link))

	inside := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- store.Transaction(ctx, func(tx *repository.Store) error {
			if _, err := tx.Links.TransitionStatus(ctx, link.ID, nil, models.LinkStatusAccepted); err != nil {
				return err
			}
			close(inside)
			<-release
			return boom
		})
	}()

	<-inside
	require.NoError(t, store.Messages.Create(ctx, &models.Message{LinkID: linkID, SenderID: uuid.New(), Text: "hello"}))
	require.NoError(t, store.AuditLogs.Create(ctx, &models.AuditLog{Action: "POST /v1/chat/:link_id/messages"}))
	close(release)
	assert.ErrorIs(t, <-done, boom)

	_, total, err := store.Messages.ListByLink(ctx, linkID, repository.Page{Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total, "message written outside the transaction must survive its rollback")
	assert.Len(t, AuditLogs(store), 1)

	stored, err := store.Links.GetByID(ctx, link.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LinkStatusPending, stored.Status)
}

func TestRollbackRestoresUpdatesAndDeletes(t *testing.T) {
	ctx := context.Background()
	store := New()

	user := &models.User{Email: "staff@example.com", Role: models.RoleSupplierSales}
	require.NoError(t, store.Users.Create(ctx, user))
	seat := &models.SupplierStaff{UserID: user.ID, SupplierID: uuid.New(), Role: models.StaffRoleSales}
	require.NoError(t, store.Staff.Create(ctx, seat))

	err := store.Transaction(ctx, func(tx *repository.Store) error {
		require.NoError(t, tx.Users.UpdateRole(ctx, user.ID, models.RoleSupplierManager))
		require.NoError(t, tx.Users.Delete(ctx, user.ID))
		return errors.New("abort")
	})
	require.Error(t, err)

	got, err := store.Users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.RoleSupplierSales, got.Role)

	staff, err := store.Staff.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.NotNil(t, staff)
}

func TestUniqueConstraints(t *testing.T) {
	ctx := context.Background()
	store := New()

	require.NoError(t, store.Users.Create(ctx, &models.User{Email: "a@example.com", Role: models.RoleConsumer}))
	err := store.Users.Create(ctx, &models.User{Email: "a@example.com", Role: models.RoleConsumer})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	consumer, supplier := uuid.New(), uuid.New()
	require.NoError(t, store.Links.Create(ctx, &models.Link{ConsumerID: consumer, SupplierID: supplier, Status: models.LinkStatusPending}))
	err = store.Links.Create(ctx, &models.Link{ConsumerID: consumer, SupplierID: supplier, Status: models.LinkStatusPending})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestLinkTransitionIsConditional(t *testing.T) {
	ctx := context.Background()
	store := New()

	link := &models.Link{ConsumerID: uuid.New(), SupplierID: uuid.New(), Status: models.LinkStatusPending}
	require.NoError(t, store.Links.Create(ctx, link))

	moved, err := store.Links.TransitionStatus(ctx, link.ID, []models.LinkStatus{models.LinkStatusPending}, models.LinkStatusAccepted)
	require.NoError(t, err)
	assert.True(t, moved)

	moved, err = store.Links.TransitionStatus(ctx, link.ID, []models.LinkStatus{models.LinkStatusPending}, models.LinkStatusAccepted)
	require.NoError(t, err)
	assert.False(t, moved)

	moved, err = store.Links.TransitionStatus(ctx, link.ID, nil, models.LinkStatusRemoved)
	require.NoError(t, err)
	assert.True(t, moved)

	stored, err := store.Links.GetByID(ctx, link.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LinkStatusRemoved, stored.Status)
}

func TestReturnedRowsAreCopies(t *testing.T) {
	ctx := context.Background()
	store := New()

	order := &models.Order{
		SupplierID: uuid.New(),
		ConsumerID: uuid.New(),
		Status:     models.OrderStatusCreated,
		Items:      []models.OrderItem{{ProductID: uuid.New(), Quantity: 2}},
	}
	require.NoError(t, store.Orders.Create(ctx, order))

	loaded, err := store.Orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	loaded.Items[0].Quantity = 99
	loaded.Status = models.OrderStatusRejected

	again, err := store.Orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, again.Items[0].Quantity)
	assert.Equal(t, models.OrderStatusCreated, again.Status)
}

func TestListsAreNewestFirstAndPaged(t *testing.T) {
	ctx := context.Background()
	store := New()
	supplierID := uuid.New()

	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		link := &models.Link{ConsumerID: uuid.New(), SupplierID: supplierID, Status: models.LinkStatusPending}
		require.NoError(t, store.Links.Create(ctx, link))
		ids = append(ids, link.ID)
	}

	links, total, err := store.Links.List(ctx, repository.LinkFilter{
		SupplierID: &supplierID,
		Page:       repository.Page{Limit: 2, Offset: 1},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	require.Len(t, links, 2)
	assert.Equal(t, ids[3], links[0].ID)
	assert.Equal(t, ids[2], links[1].ID)

	links, _, err = store.Links.List(ctx, repository.LinkFilter{
		SupplierID: &supplierID,
		Page:       repository.Page{Limit: 2, Offset: 10},
	})
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestPingHonoursContext(t *testing.T) {
	store := New()
	require.NoError(t, store.Ping(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, store.Ping(ctx), context.Canceled)
}
