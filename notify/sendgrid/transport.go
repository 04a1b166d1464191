// Package sendgrid delivers notify messages through the SendGrid v3 API.
package sendgrid

import (
	"context"
	"fmt"

	"github.com/jrsteele09/go-account-service/notify"
	"github.com/sendgrid/rest"
	sg "github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// sendgridAPI is the subset of *sendgrid.Client used here
type sendgridAPI interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

var _ notify.Transport = (*Transport)(nil)

type Transport struct {
	client sendgridAPI
}

// New builds a transport for apiKey. The key comes from configuration.
func New(apiKey string) (*Transport, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("sendgrid: api key is required")
	}
	return &Transport{client: sg.NewSendClient(apiKey)}, nil
}

func newWithClient(client sendgridAPI) *Transport {
	return &Transport{client: client}
}

func (t *Transport) Send(ctx context.Context, msg notify.Message) error {
	from := mail.NewEmail(msg.FromName, msg.From)
	to := mail.NewEmail(msg.ToName, msg.To)
	email := mail.NewSingleEmailPlainText(from, msg.Subject, to, msg.Body)

	resp, err := t.client.SendWithContext(ctx, email)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("sendgrid send: unexpected status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
