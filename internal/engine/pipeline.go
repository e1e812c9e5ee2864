package engine

import (
	"context"
	"fmt"
	"time"
)

// Task is a single archive to build.
type Task struct {
	ID      string
	Archive string
	Target  string
}

type Pipeline struct {
	name     string
	date     time.Time
	registry *Registry
	tasks    []Task
}

func NewPipeline(name string, registry *Registry) *Pipeline {
	return &Pipeline{
		name:     name,
		date:     time.Now().UTC(),
		registry: registry,
		tasks:    nil,
	}
}

func (p *Pipeline) AddTask(task Task) error {
	for _, existing := range p.tasks {
		if existing.ID == task.ID {
			return fmt.Errorf("archive %s already exists", task.ID)
		}
	}

	p.tasks = append(p.tasks, task)
	return nil
}

func (p *Pipeline) Name() string {
	return p.name
}

func (p *Pipeline) Date() time.Time {
	return p.date
}

func (p *Pipeline) Tasks() []Task {
	return p.tasks
}

// Run builds every archive in order. A builder reporting false is recorded in the
// result and does not stop the run; registry and filesystem errors do.
func (p *Pipeline) Run(ctx context.Context) (map[string]Result, error) {
	results := make(map[string]Result)

	for _, task := range p.tasks {
		// Check context cancellation before each archive
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled while running pipeline at archive '%s': %w", task.ID, err)
		}

		format, err := p.registry.Resolve(task.Archive)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve archive '%s': %w", task.ID, err)
		}

		ok, err := p.registry.MakeArchive(ctx, task.Archive, task.Target)
		if err != nil {
			return nil, fmt.Errorf("failed to make archive '%s': %w", task.ID, err)
		}

		results[task.ID] = Result{
			ID:      task.ID,
			Archive: task.Archive,
			Target:  task.Target,
			Format:  format.Name,
			OK:      ok,
		}
	}

	return results, nil
}
