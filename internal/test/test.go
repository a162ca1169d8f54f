package test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/hibiken/asynq"
	"github.com/jmoiron/sqlx"
	"podfetch/internal/db"
)

// MockTaskEnqueuer is a mock implementation of tasks.TaskEnqueuer for testing.
type MockTaskEnqueuer struct {
	EnqueuedTasks []*asynq.Task
}

func (m *MockTaskEnqueuer) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	m.EnqueuedTasks = append(m.EnqueuedTasks, task)
	return &asynq.TaskInfo{ID: "test-task-id", Queue: "default"}, nil
}

// NewMockStore returns a store over sqlmock. Queries keep their ? placeholders.
func NewMockStore(t *testing.T, backend db.Backend) (*db.Store, sqlmock.Sqlmock) {
	mockDb, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	t.Cleanup(func() { mockDb.Close() })

	return db.NewStore(sqlx.NewDb(mockDb, "sqlmock"), backend), mock
}

// NewSQLiteStore opens a migrated SQLite database in a temporary directory.
func NewSQLiteStore(t *testing.T) *db.Store {
	t.Helper()
	url := "sqlite://" + filepath.Join(t.TempDir(), "podcast.db")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := db.Open(ctx, url, db.ConnectionOptions{
		EnableWAL:         true,
		EnableForeignKeys: true,
		BusyTimeout:       5 * time.Second,
	})
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}
