package database

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/scpnet/scp-backend/internal/models"
	"github.com/scpnet/scp-backend/internal/repository"
)

const (
	DemoOwnerEmail    = "owner@demo.scp.local"
	DemoConsumerEmail = "buyer@demo.scp.local"
	DemoPassword      = "demo12345"
)

// SeedDemoData creates a demo supplier with a small catalog and a consumer
// already linked to it. It is a no-op when the demo owner exists.
func SeedDemoData(ctx context.Context, store *repository.Store) error {
	existing, err := store.Users.GetByEmail(ctx, DemoOwnerEmail)
	if err != nil {
		return fmt.Errorf("failed to check demo data: %w", err)
	}
	if existing != nil {
		return nil
	}

	logrus.Info("Seeding demo data...")

	return store.Transaction(ctx, func(tx *repository.Store) error {
		owner := &models.User{Email: DemoOwnerEmail, Role: models.RoleSupplierOwner}
		consumer := &models.User{Email: DemoConsumerEmail, Role: models.RoleConsumer}
		for _, u := range []*models.User{owner, consumer} {
			if err := u.SetPassword(DemoPassword); err != nil {
				return fmt.Errorf("failed to set demo password: %w", err)
			}
			if err := tx.Users.Create(ctx, u); err != nil {
				return fmt.Errorf("failed to create demo user %s: %w", u.Email, err)
			}
		}

		supplier := &models.Supplier{
			Name:        "Demo Wholesale",
			Description: "Demo supplier created by the seed command",
			OwnerID:     owner.ID,
		}
		if err := tx.Suppliers.Create(ctx, supplier); err != nil {
			return fmt.Errorf("failed to create demo supplier: %w", err)
		}

		products := []models.Product{
			{Name: "Flour 25kg", Unit: "bag", Price: decimal.RequireFromString("18.50"), Stock: 400, MOQ: 10, Tags: []string{"bakery"}},
			{Name: "Sugar 50kg", Unit: "bag", Price: decimal.RequireFromString("42.00"), Stock: 120, MOQ: 5, Tags: []string{"bakery"}},
			{Name: "Sunflower oil 5l", Unit: "bottle", Price: decimal.RequireFromString("9.90"), Stock: 600, MOQ: 24, Tags: []string{"oil"}},
		}
		for i := range products {
			products[i].SupplierID = supplier.ID
			products[i].IsActive = true
			if err := tx.Products.Create(ctx, &products[i]); err != nil {
				return fmt.Errorf("failed to create demo product: %w", err)
			}
		}

		link := &models.Link{
			ConsumerID: consumer.ID,
			SupplierID: supplier.ID,
			Status:     models.LinkStatusAccepted,
		}
		if err := tx.Links.Create(ctx, link); err != nil {
			return fmt.Errorf("failed to create demo link: %w", err)
		}

		logrus.WithField("supplier_id", supplier.ID).Info("Demo data seeded")
		return nil
	})
}
