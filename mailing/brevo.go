// Package mailing syncs captured emails to the Brevo contact list.
package mailing

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

const contactsEndpoint = "https://api.brevo.com/v3/contacts"

// BrevoClient creates Brevo contacts.
type BrevoClient struct {
	httpClient *resty.Client
	apiKey     string
	listID     int64
	endpoint   string
	log        *logrus.Logger
}

// NewBrevoClient creates a client. An empty apiKey turns AddContact into a logged no-op.
func NewBrevoClient(apiKey string, listID int64, log *logrus.Logger) *BrevoClient {
	client := resty.New().
		SetHeader("User-Agent", "pub-autopilot/1.0").
		SetTimeout(10 * time.Second)

	return &BrevoClient{
		httpClient: client,
		apiKey:     apiKey,
		listID:     listID,
		endpoint:   contactsEndpoint,
		log:        log,
	}
}

type contactRequest struct {
	Email         string  `json:"email"`
	ListIDs       []int64 `json:"listIds,omitempty"`
	UpdateEnabled bool    `json:"updateEnabled"`
}

// AddContact creates or updates the contact for email.
func (c *BrevoClient) AddContact(ctx context.Context, email string) error {
	if c.apiKey == "" {
		c.log.WithField("email", email).Warn("BREVO_API_KEY missing; skipping sync")
		return nil
	}

	body := contactRequest{Email: email, UpdateEnabled: true}
	if c.listID > 0 {
		body.ListIDs = []int64{c.listID}
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("api-key", c.apiKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetBody(body).
		Post(c.endpoint)
	if err != nil {
		return fmt.Errorf("brevo contacts request: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("brevo contacts error (status %d): %s", resp.StatusCode(), resp.String())
	}

	c.log.WithFields(logrus.Fields{"email": email, "status": resp.StatusCode()}).Info("Brevo sync response")
	return nil
}
