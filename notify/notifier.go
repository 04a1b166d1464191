// Package notify sends the lifecycle emails: a welcome on signup and a
// goodbye after an account is deleted. Sending is fire-and-forget and
// at-most-once; a failed send is logged and dropped.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	apperrors "github.com/jrsteele09/go-account-service/internal/errors"
	"github.com/rs/zerolog"
)

const (
	DefaultTimeout = 10 * time.Second

	WelcomeSubject = "Welcome"
	GoodbyeSubject = "Goodbye"
)

// Message is one outgoing plain-text email
type Message struct {
	From     string
	FromName string
	To       string
	ToName   string
	Subject  string
	Body     string
}

// Transport delivers a single message
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

type Notifier struct {
	transport Transport
	from      string
	fromName  string
	timeout   time.Duration
	logger    zerolog.Logger
	wg        sync.WaitGroup
}

type Option func(*Notifier)

func WithSender(address, name string) Option {
	return func(n *Notifier) {
		n.from = address
		n.fromName = name
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(n *Notifier) {
		if timeout > 0 {
			n.timeout = timeout
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(n *Notifier) {
		n.logger = logger
	}
}

func New(transport Transport, options ...Option) *Notifier {
	n := &Notifier{
		transport: transport,
		timeout:   DefaultTimeout,
		logger:    zerolog.Nop(),
	}
	for _, opt := range options {
		opt(n)
	}
	return n
}

func WelcomeBody(name string) string {
	return fmt.Sprintf("Welcome to the app, %s. Let me know how you get along with the app.", name)
}

func GoodbyeBody(name string) string {
	return fmt.Sprintf("Goodbye, %s. We will miss you...", name)
}

// SendWelcome dispatches the signup email in the background
func (n *Notifier) SendWelcome(address, name string) {
	n.dispatch(address, name, WelcomeSubject, WelcomeBody(name))
}

// SendGoodbye dispatches the account deletion email in the background
func (n *Notifier) SendGoodbye(address, name string) {
	n.dispatch(address, name, GoodbyeSubject, GoodbyeBody(name))
}

// Wait blocks until every dispatch started so far has finished
func (n *Notifier) Wait() {
	n.wg.Wait()
}

func (n *Notifier) dispatch(address, name, subject, body string) {
	if address == "" {
		n.logger.Warn().Str("subject", subject).Msg("notification dropped: no recipient address")
		return
	}

	msg := Message{
		From:     n.from,
		FromName: n.fromName,
		To:       address,
		ToName:   name,
		Subject:  subject,
		Body:     body,
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()

		// detached from any request so a finished response never cancels the send
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()

		if err := n.transport.Send(ctx, msg); err != nil {
			err = apperrors.Wrapf(fmt.Errorf("%w: %v", apperrors.ErrTransport, err), "send %s email", subject)
			n.logger.Error().Err(err).Str("to", address).Msg("notification failed")
			return
		}
		n.logger.Debug().Str("to", address).Str("subject", subject).Msg("notification sent")
	}()
}
