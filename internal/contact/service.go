package contact

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Message is one inquiry from the public contact form. Unauthenticated
// visitors can file these, so inputs are kept short and opaque.
type Message struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"not null;size:255" json:"name"`
	Email     string       `gorm:"not null;size:255" json:"email"`
	Subject   string       `gorm:"not null;size:255" json:"subject"`
	Body      string       `gorm:"not null;type:text" json:"body"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Message) TableName() string {
	return "contact_messages"
}

type CreateMessageRequest struct {
	Name    string
	Email   string
	Subject string
	Body    string
}

type Service interface {
	Create(ctx context.Context, req CreateMessageRequest) (Message, error)
	List(ctx context.Context, limit int) ([]Message, error)
}

var (
	ErrInvalidEmail = errors.New("invalid_email")
	ErrEmptyBody    = errors.New("empty_body")
	ErrBodyTooLong  = errors.New("body_too_long")
)

const maxBodyLength = 8000

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
}

func NewService(p Params) Service {
	return &service{db: p.DB, log: p.Log.Named("contact.service"), genID: p.GenID}
}

func (s *service) Create(ctx context.Context, req CreateMessageRequest) (Message, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return Message{}, ErrInvalidEmail
	}
	body := strings.TrimSpace(req.Body)
	if body == "" {
		return Message{}, ErrEmptyBody
	}
	if len(body) > maxBodyLength {
		return Message{}, ErrBodyTooLong
	}

	message := Message{
		ID:        s.genID.Generate(),
		Name:      strings.TrimSpace(req.Name),
		Email:     email,
		Subject:   strings.TrimSpace(req.Subject),
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	err := s.db.WithContext(ctx).Exec(
		`INSERT INTO contact_messages (id, name, email, subject, body, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		message.ID, message.Name, message.Email, message.Subject, message.Body, message.CreatedAt,
	).Error
	if err != nil {
		return Message{}, err
	}
	return message, nil
}

func (s *service) List(ctx context.Context, limit int) ([]Message, error) {
	if limit <= 0 || limit > 250 {
		limit = 50
	}
	var messages []Message
	err := s.db.WithContext(ctx).
		Model(&Message{}).
		Order("created_at desc, id desc").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

var Module = fx.Module("contact.service", fx.Provide(NewService))
