// Package mailer sends templated transactional email through an
// external mail API. Providers are swappable behind the Messenger
// interface: SendGrid over HTTP in production, plain SMTP locally.
package mailer

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// OutboundMessage is one fully rendered email ready for a provider.
type OutboundMessage struct {
	To      string
	ToName  string
	Subject string
	HTML    string
}

// Messenger sends a rendered message to its recipient.
type Messenger interface {
	Send(ctx context.Context, msg OutboundMessage) error
}

const (
	sendRetryInitial    = 500 * time.Millisecond
	sendRetryMaxElapsed = 15 * time.Second
)

// RetryingMessenger decorates a Messenger with bounded exponential
// backoff. The drain loop sees only the final outcome.
type RetryingMessenger struct {
	inner Messenger
}

func WithRetry(inner Messenger) *RetryingMessenger {
	return &RetryingMessenger{inner: inner}
}

func (m *RetryingMessenger) Send(ctx context.Context, msg OutboundMessage) error {
	operation := func() error {
		return m.inner.Send(ctx, msg)
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = sendRetryInitial
	b.MaxElapsedTime = sendRetryMaxElapsed
	return backoff.Retry(operation, backoff.WithContext(b, ctx))
}
