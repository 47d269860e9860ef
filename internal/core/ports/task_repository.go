package ports

import (
	"context"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/task"
)

// TaskRepository defines the persistence contract for task aggregates.
type TaskRepository interface {
	// Add persists a new task aggregate to storage.
	Add(ctx context.Context, aggregate *task.Task) error

	// Update persists changes to an existing task aggregate.
	Update(ctx context.Context, aggregate *task.Task) error

	// Get retrieves a task aggregate by its unique identifier.
	Get(ctx context.Context, id kernel.UUID) (*task.Task, error)

	// GetByShortID retrieves the task a webhook event references.
	GetByShortID(ctx context.Context, shortID string) (*task.Task, error)
}
