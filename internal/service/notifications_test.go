package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"podfetch/internal/events"
	"podfetch/internal/test"
)

type recordingPublisher struct {
	messages []events.Message
	err      error
}

func (p *recordingPublisher) Publish(_ context.Context, msg events.Message) error {
	p.messages = append(p.messages, msg)
	return p.err
}

func TestNotificationService(t *testing.T) {
	store := test.NewSQLiteStore(t)
	pub := &recordingPublisher{}
	svc := NewNotificationService(store, pub)
	ctx := context.Background()

	require.NoError(t, svc.Notify(ctx, "Download", "Episode downloaded"))
	require.Len(t, pub.messages, 1)
	assert.Equal(t, events.TypeNotification, pub.messages[0].Type)

	unread, err := svc.Unread(ctx)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, "Episode downloaded", unread[0].Message)

	require.NoError(t, svc.Dismiss(ctx, unread[0].ID))
	unread, err = svc.Unread(ctx)
	require.NoError(t, err)
	assert.Empty(t, unread)
}

func TestNotifyKeepsNotificationWhenPublishFails(t *testing.T) {
	store := test.NewSQLiteStore(t)
	svc := NewNotificationService(store, &recordingPublisher{err: errors.New("redis down")})
	ctx := context.Background()

	require.NoError(t, svc.Notify(ctx, "Download", "stored anyway"))
	unread, err := svc.Unread(ctx)
	require.NoError(t, err)
	assert.Len(t, unread, 1)
}
