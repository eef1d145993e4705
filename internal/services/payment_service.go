// internal/services/payment_service.go
package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"

	"github.com/scpnet/scp-backend/internal/access"
	"github.com/scpnet/scp-backend/internal/config"
	"github.com/scpnet/scp-backend/internal/i18n"
	"github.com/scpnet/scp-backend/internal/models"
	"github.com/scpnet/scp-backend/internal/repository"
)

// PaymentGateway creates a charge intent for an amount in minor units.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (*PaymentIntentResponse, error)
}

type PaymentIntentResponse struct {
	OrderID      uuid.UUID `json:"order_id"`
	ClientSecret string    `json:"client_secret"`
	PaymentID    string    `json:"payment_id"`
	Status       string    `json:"status"`
	Amount       string    `json:"amount"`
	Currency     string    `json:"currency"`
}

type StripeGateway struct{}

func NewStripeGateway(secretKey string) *StripeGateway {
	// Initialize Stripe
	stripe.Key = secretKey
	return &StripeGateway{}
}

func (g *StripeGateway) CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (*PaymentIntentResponse, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountMinor),
		Currency: stripe.String(currency),
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	return &PaymentIntentResponse{
		ClientSecret: pi.ClientSecret,
		PaymentID:    pi.ID,
		Status:       string(pi.Status),
	}, nil
}

type PaymentService struct {
	store    *repository.Store
	gateway  PaymentGateway
	currency string
}

// NewPaymentService returns a service whose gateway is nil when no Stripe
// key is configured; paying then fails with BadRequest.
func NewPaymentService(store *repository.Store, cfg *config.Config, gateway PaymentGateway) *PaymentService {
	return &PaymentService{
		store:    store,
		gateway:  gateway,
		currency: cfg.Payment.Currency,
	}
}

// PayOrder opens a payment intent for the full total of an accepted order
// the caller placed.
func (s *PaymentService) PayOrder(ctx context.Context, p access.Principal, orderID uuid.UUID) (*PaymentIntentResponse, error) {
	if !access.IsConsumer(p) {
		return nil, roleForbidden(p)
	}

	order, err := s.store.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if order == nil {
		return nil, ErrNotFound(i18n.KeyOrderNotFound)
	}
	if order.ConsumerID != p.UserID() {
		return nil, ErrForbidden(i18n.KeyOrderNotFound)
	}
	if order.Status != models.OrderStatusAccepted {
		return nil, ErrBadRequest(i18n.KeyOrderNotPayable, order.Status).with("status", order.Status)
	}
	if s.gateway == nil {
		return nil, ErrBadRequest(i18n.KeyOrderPaymentsDisabled)
	}

	amountMinor := order.TotalAmount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	intent, err := s.gateway.CreateIntent(ctx, amountMinor, s.currency, map[string]string{
		"order_id":    order.ID.String(),
		"supplier_id": order.SupplierID.String(),
		"consumer_id": order.ConsumerID.String(),
	})
	if err != nil {
		return nil, err
	}

	if err := s.store.Orders.SetPaymentIntent(ctx, order.ID, intent.PaymentID); err != nil {
		return nil, fmt.Errorf("failed to record payment intent: %w", err)
	}

	intent.OrderID = order.ID
	intent.Amount = order.TotalAmount.StringFixed(2)
	intent.Currency = s.currency
	return intent, nil
}
