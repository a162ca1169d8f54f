package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"podfetch/internal/models"
	"podfetch/internal/test"
)

func TestSettingsService(t *testing.T) {
	svc := NewSettingsService(test.NewSQLiteStore(t))
	ctx := context.Background()

	set, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSetting(), *set)

	set.AutoCleanupDays = -1
	_, err = svc.Update(ctx, *set)
	assert.Error(t, err)

	set.AutoCleanupDays = 14
	set.PodcastFormat = "{title}"
	updated, err := svc.Update(ctx, *set)
	require.NoError(t, err)
	assert.Equal(t, 14, updated.AutoCleanupDays)

	again, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "{title}", again.PodcastFormat)
}
