package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HanTheDev/personality-gateway/internal/models"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	database, err := NewDB(ctx, url)
	require.NoError(t, err)
	t.Cleanup(database.Close)

	require.NoError(t, database.Migrate(ctx))
	return database
}

func TestNewDB_BadURL(t *testing.T) {
	_, err := NewDB(context.Background(), "::not-a-url::")
	assert.Error(t, err)
}

func TestAccessLogs(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()
	route := "test-" + uuid.NewString()

	entries := []*models.AccessLog{
		{RequestID: uuid.NewString(), Route: route, Method: "POST", Path: "/api/register", StatusCode: 200,
			UpstreamStatus: 200, Outcome: models.OutcomeOK, ResponseTimeMs: 10},
		{RequestID: uuid.NewString(), Route: route, Method: "POST", Path: "/api/register", StatusCode: 409,
			UpstreamStatus: 409, Outcome: models.OutcomeUpstream, ResponseTimeMs: 30},
	}
	for _, e := range entries {
		require.NoError(t, database.LogAccess(ctx, e))
	}

	t.Run("recent logs", func(t *testing.T) {
		logs, err := database.RecentAccessLogs(ctx, 50)
		require.NoError(t, err)

		found := 0
		for _, l := range logs {
			if l.Route == route {
				found++
			}
		}
		assert.Equal(t, 2, found)
	})

	t.Run("route stats", func(t *testing.T) {
		stats, err := database.RouteStats(ctx, time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
		require.NoError(t, err)

		var got *models.RouteStats
		for i := range stats {
			if stats[i].Route == route {
				got = &stats[i]
			}
		}
		require.NotNil(t, got)
		assert.Equal(t, int64(2), got.Requests)
		assert.Equal(t, int64(1), got.Errors)
		assert.Equal(t, 20.0, got.AvgResponseMs)
		assert.Equal(t, 30, got.MaxResponseMs)
	})
}
