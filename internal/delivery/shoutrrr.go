package delivery

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/containrrr/shoutrrr"
	"github.com/containrrr/shoutrrr/pkg/types"

	"cloudronwatch/internal/services"
)

// Sender is the part of shoutrrr's router used for delivery.
type Sender interface {
	Send(message string, params *types.Params) []error
}

// ShoutrrrDeliverer sends messages to a shoutrrr service URL such as
// telegram://, discord://, or generic+https://.
type ShoutrrrDeliverer struct {
	sender Sender
}

// NewShoutrrr parses url and builds a deliverer for it.
func NewShoutrrr(url string) (*ShoutrrrDeliverer, error) {
	sender, err := shoutrrr.CreateSender(strings.TrimSpace(url))
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "delivery", "shoutrrr", "invalid notification.url", err)
	}
	return &ShoutrrrDeliverer{sender: sender}, nil
}

// NewShoutrrrWithSender wraps an existing sender.
func NewShoutrrrWithSender(sender Sender) *ShoutrrrDeliverer {
	return &ShoutrrrDeliverer{sender: sender}
}

// Deliver sends the message body with the subject as the title parameter.
func (d *ShoutrrrDeliverer) Deliver(ctx context.Context, msg Message) Result {
	started := time.Now()
	if err := ctx.Err(); err != nil {
		return Result{Err: services.Wrap(services.ErrDelivery, "delivery", "shoutrrr", "context done", err)}
	}
	params := types.Params{}
	if subject := strings.TrimSpace(msg.Subject); subject != "" {
		params["title"] = subject
	}
	var failures []error
	for _, err := range d.sender.Send(msg.Body, &params) {
		if err != nil {
			failures = append(failures, err)
		}
	}
	result := Result{Duration: time.Since(started)}
	if len(failures) > 0 {
		result.Err = services.Wrap(services.ErrDelivery, "delivery", "shoutrrr", "send failed", errors.Join(failures...))
		return result
	}
	result.Delivered = true
	return result
}
