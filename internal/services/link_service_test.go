package services

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scpnet/scp-backend/internal/models"
)

func TestLinkRequestCreatesPending(t *testing.T) {
	f := newFixture(t)
	consumer := f.consumer()
	_, supplier := f.company()

	link, err := f.links.Request(f.ctx, consumer, supplier.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LinkStatusPending, link.Status)
	assert.Equal(t, consumer.UserID(), link.ConsumerID)
	assert.Equal(t, supplier.ID, link.SupplierID)

	assert.Contains(t, f.events.types(), EventLinkRequested)
	assert.Len(t, f.notifier.links, 1)
}

func TestLinkRequestTwiceConflictsWithStatus(t *testing.T) {
	f := newFixture(t)
	consumer := f.consumer()
	owner, supplier := f.company()

	link := f.acceptedLink(consumer, owner, supplier)

	_, err := f.links.Request(f.ctx, consumer, supplier.ID)
	se := requireKind(t, err, KindConflict)
	assert.Equal(t, link.Status, se.Details["status"])
}

func TestLinkRequestRejectsSupplierRolesAndUnknownSupplier(t *testing.T) {
	f := newFixture(t)
	owner, supplier := f.company()

	_, err := f.links.Request(f.ctx, owner, supplier.ID)
	requireKind(t, err, KindForbidden)

	_, err = f.links.Request(f.ctx, f.consumer(), uuid.New())
	requireKind(t, err, KindNotFound)
}

func TestConcurrentLinkRequestsCreateOneLink(t *testing.T) {
	f := newFixture(t)
	consumer := f.consumer()
	_, supplier := f.company()

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.links.Request(f.ctx, consumer, supplier.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case KindOf(err) == KindConflict:
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, conflicts)
}

func TestLinkTransitions(t *testing.T) {
	f := newFixture(t)
	consumer := f.consumer()
	owner, supplier := f.company()

	link, err := f.links.Request(f.ctx, consumer, supplier.ID)
	require.NoError(t, err)

	accepted, err := f.links.Accept(f.ctx, owner, link.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LinkStatusAccepted, accepted.Status)

	// accept is only valid from PENDING
	_, err = f.links.Accept(f.ctx, owner, link.ID)
	se := requireKind(t, err, KindInvalidTransition)
	assert.Equal(t, "ACCEPTED", se.Details["from"])
	assert.Equal(t, "ACCEPTED", se.Details["to"])

	blocked, err := f.links.Block(f.ctx, owner, link.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LinkStatusBlocked, blocked.Status)

	_, err = f.links.Accept(f.ctx, owner, link.ID)
	requireKind(t, err, KindInvalidTransition)

	removed, err := f.links.Remove(f.ctx, owner, link.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LinkStatusRemoved, removed.Status)

	// remove is idempotent, block is not allowed once removed
	_, err = f.links.Remove(f.ctx, owner, link.ID)
	require.NoError(t, err)
	_, err = f.links.Block(f.ctx, owner, link.ID)
	requireKind(t, err, KindInvalidTransition)
}

func TestLinkDecisionsByRole(t *testing.T) {
	f := newFixture(t)
	consumer := f.consumer()
	owner, supplier := f.company()
	manager, _ := f.hire(owner, models.StaffRoleManager)
	sales, _ := f.hire(owner, models.StaffRoleSales)

	link, err := f.links.Request(f.ctx, consumer, supplier.ID)
	require.NoError(t, err)

	_, err = f.links.Accept(f.ctx, sales, link.ID)
	requireKind(t, err, KindForbidden)
	_, err = f.links.Accept(f.ctx, consumer, link.ID)
	requireKind(t, err, KindForbidden)

	accepted, err := f.links.Accept(f.ctx, manager, link.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LinkStatusAccepted, accepted.Status)
}

func TestLinkDecisionOnOtherSupplierForbidden(t *testing.T) {
	f := newFixture(t)
	consumer := f.consumer()
	_, supplier := f.company()
	stranger, _ := f.company()

	link, err := f.links.Request(f.ctx, consumer, supplier.ID)
	require.NoError(t, err)

	_, err = f.links.Accept(f.ctx, stranger, link.ID)
	requireKind(t, err, KindForbidden)

	_, err = f.links.Accept(f.ctx, stranger, uuid.New())
	requireKind(t, err, KindNotFound)
}

func TestLinkListIsScopedToCaller(t *testing.T) {
	f := newFixture(t)
	alice := f.consumer()
	bob := f.consumer()
	owner, supplier := f.company()
	sales, _ := f.hire(owner, models.StaffRoleSales)

	f.acceptedLink(alice, owner, supplier)
	_, err := f.links.Request(f.ctx, bob, supplier.ID)
	require.NoError(t, err)

	links, total, err := f.links.List(f.ctx, alice, LinkListParams{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, links, 1)
	assert.Equal(t, alice.UserID(), links[0].ConsumerID)

	links, total, err = f.links.List(f.ctx, sales, LinkListParams{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, links, 2)

	pending, total, err := f.links.List(f.ctx, owner, LinkListParams{Status: models.LinkStatusPending})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, pending, 1)
	assert.Equal(t, bob.UserID(), pending[0].ConsumerID)

	_, _, err = f.links.List(f.ctx, owner, LinkListParams{Status: "FROZEN"})
	requireKind(t, err, KindBadRequest)
}
