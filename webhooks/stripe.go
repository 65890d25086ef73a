package webhooks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"github.com/zefparis/pub/models"
	"gorm.io/datatypes"
)

const maxBodyBytes = int64(65536)

// RevenueWriter stores revenue events idempotently.
type RevenueWriter interface {
	CreateRevenueEvent(ctx context.Context, r *models.RevenueEvent) (bool, error)
}

type Handler struct {
	Store  RevenueWriter
	Secret string
	Log    *logrus.Logger
}

func NewHandler(store RevenueWriter, secret string, log *logrus.Logger) *Handler {
	return &Handler{Store: store, Secret: secret, Log: log}
}

// HandleStripeWebhook processes incoming Stripe webhook events
func (h *Handler) HandleStripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	// Verify webhook signature
	event, err := webhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), h.Secret)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid webhook signature"})
		return
	}

	var rev *models.RevenueEvent
	switch event.Type {
	case "checkout.session.completed":
		rev, err = revenueFromCheckout(event)
	case "charge.succeeded":
		rev, err = revenueFromCharge(event)
	default:
		h.Log.WithField("type", event.Type).Debug("Unhandled stripe event type")
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}
	if err != nil {
		h.Log.WithError(err).WithField("event_id", event.ID).Error("Error parsing stripe event")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event payload"})
		return
	}

	inserted, err := h.Store.CreateRevenueEvent(c.Request.Context(), rev)
	if err != nil {
		h.Log.WithError(err).WithField("event_id", event.ID).Error("Failed to record revenue")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record revenue"})
		return
	}

	h.Log.WithFields(logrus.Fields{
		"event_id":     event.ID,
		"type":         event.Type,
		"amount_cents": rev.AmountCents,
		"duplicate":    !inserted,
	}).Info("Recorded revenue event")

	// Return 200 OK to acknowledge receipt
	c.JSON(http.StatusOK, gin.H{"received": true})
}

type revenueMetadata struct {
	EventID       string            `json:"event_id"`
	EventType     string            `json:"event_type"`
	ObjectID      string            `json:"object_id"`
	PaymentIntent string            `json:"payment_intent,omitempty"`
	Extra         map[string]string `json:"metadata,omitempty"`
}

func revenueFromCheckout(event stripe.Event) (*models.RevenueEvent, error) {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, fmt.Errorf("parse checkout session: %w", err)
	}
	return newRevenue(event, session.ID, paymentIntentID(session.PaymentIntent), session.AmountTotal, string(session.Currency), session.Metadata)
}

func revenueFromCharge(event stripe.Event) (*models.RevenueEvent, error) {
	var charge stripe.Charge
	if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
		return nil, fmt.Errorf("parse charge: %w", err)
	}
	return newRevenue(event, charge.ID, paymentIntentID(charge.PaymentIntent), charge.Amount, string(charge.Currency), charge.Metadata)
}

func paymentIntentID(pi *stripe.PaymentIntent) string {
	if pi == nil {
		return ""
	}
	return pi.ID
}

// newRevenue keys the event on its PaymentIntent when it has one. A Checkout
// payment emits both checkout.session.completed and charge.succeeded for the
// same PaymentIntent, and only the first may be counted.
func newRevenue(event stripe.Event, objectID, paymentIntent string, amount int64, currency string, extra map[string]string) (*models.RevenueEvent, error) {
	meta, err := json.Marshal(revenueMetadata{
		EventID:       event.ID,
		EventType:     string(event.Type),
		ObjectID:      objectID,
		PaymentIntent: paymentIntent,
		Extra:         extra,
	})
	if err != nil {
		return nil, err
	}
	if currency == "" {
		currency = "usd"
	}
	key := event.ID
	if paymentIntent != "" {
		key = paymentIntent
	}
	return &models.RevenueEvent{
		ExternalID:  &key,
		Source:      "stripe",
		AmountCents: amount,
		Currency:    strings.ToUpper(currency),
		Metadata:    datatypes.JSON(meta),
	}, nil
}
