package taskgraph

import "context"

// Action is the body of a task. It is invoked at most once per Run and only
// after every prerequisite finished successfully.
type Action func(ctx context.Context) error

// Task is a named unit of work with an ordered list of prerequisites.
type Task struct {
	Name          string
	Prerequisites []string
	Action        Action
	Description   string
}
