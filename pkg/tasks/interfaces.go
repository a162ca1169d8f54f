package tasks

import "github.com/hibiken/asynq"

// TaskEnqueuer is the part of *asynq.Client used to schedule work. Tests
// substitute a recording fake.
type TaskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}
