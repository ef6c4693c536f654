package events

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"pos-service/internal/model"
)

// MailPublisher hands email work to the mail worker. Dispatch is
// fire-and-forget: delivery is not this service's contract.
type MailPublisher interface {
	PublishActivationEmail(user *model.User, token string) error
	PublishPasswordResetEmail(user *model.User, token string) error
}

type NatsPublisher struct {
	conn *nats.Conn
}

func NewNatsPublisher(natsURL string) (MailPublisher, error) {
	nc, err := nats.Connect(natsURL)
	if err != nil {
		return nil, err
	}

	return &NatsPublisher{conn: nc}, nil
}

type ActivationEmailEvent struct {
	EventType string    `json:"event_type"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	IssuedAt  time.Time `json:"issued_at"`
}

type PasswordResetEmailEvent struct {
	EventType string    `json:"event_type"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	IssuedAt  time.Time `json:"issued_at"`
}

func (p *NatsPublisher) PublishActivationEmail(user *model.User, token string) error {
	event := ActivationEmailEvent{
		EventType: "mail.account_activation",
		UserID:    user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Token:     token,
		IssuedAt:  time.Now(),
	}

	return p.publish("mail.account_activation", event)
}

func (p *NatsPublisher) PublishPasswordResetEmail(user *model.User, token string) error {
	event := PasswordResetEmailEvent{
		EventType: "mail.password_reset",
		UserID:    user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Token:     token,
		IssuedAt:  time.Now(),
	}

	return p.publish("mail.password_reset", event)
}

func (p *NatsPublisher) publish(subject string, event interface{}) error {
	eventJSON, err := json.Marshal(event)
	if err != nil {
		slog.Error("Error marshalling event JSON", "subject", subject, "error", err)
		return err
	}

	if err := p.conn.Publish(subject, eventJSON); err != nil {
		slog.Error("Error publishing to NATS", "subject", subject, "error", err)
		return err
	}

	slog.Info("Published event to NATS", "subject", subject)

	return nil
}
