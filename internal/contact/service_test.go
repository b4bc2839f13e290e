package contact

import (
	"context"
	"strings"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) Service {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := conn.AutoMigrate(&Message{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}

	return NewService(Params{DB: conn, Log: zap.NewNop(), GenID: node})
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Create(context.Background(), CreateMessageRequest{
		Email: "not-an-email",
		Body:  "hello",
	})
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = svc.Create(context.Background(), CreateMessageRequest{
		Email: "visitor@example.com",
		Body:  "   ",
	})
	assert.ErrorIs(t, err, ErrEmptyBody)

	// An oversized body is rejected, never truncated.
	_, err = svc.Create(context.Background(), CreateMessageRequest{
		Email: "visitor@example.com",
		Body:  strings.Repeat("a", maxBodyLength+1),
	})
	assert.ErrorIs(t, err, ErrBodyTooLong)
}

func TestCreateAndList(t *testing.T) {
	svc := newTestService(t)

	created, err := svc.Create(context.Background(), CreateMessageRequest{
		Name:    "  Visitor ",
		Email:   " Visitor@Example.COM ",
		Subject: "Membership question",
		Body:    strings.Repeat("a", maxBodyLength),
	})
	assert.NoError(t, err)
	assert.Equal(t, "visitor@example.com", created.Email)
	assert.Equal(t, "Visitor", created.Name)
	assert.Len(t, created.Body, maxBodyLength)

	messages, err := svc.List(context.Background(), 0)
	assert.NoError(t, err)
	if assert.Len(t, messages, 1) {
		assert.Equal(t, created.ID, messages[0].ID)
	}
}
