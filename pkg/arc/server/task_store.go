// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"sort"
	"sync"

	"github.com/arcprotocol/arc-go/pkg/arc"
	"github.com/arcprotocol/arc-go/pkg/errors"
)

// TaskFilter defines filtering options for listing task records.
type TaskFilter struct {
	Agent  string
	Status string
	Limit  int
}

// TaskStore records the tasks handlers create so task.get can serve them
// later. Implementations must be safe for concurrent use.
type TaskStore interface {
	Save(ctx context.Context, agentID string, task *arc.Task) error
	Get(ctx context.Context, taskID string) (*arc.Task, error)
	List(ctx context.Context, filter TaskFilter) ([]*arc.Task, error)
}

// MemoryTaskStore keeps task records in memory.
type MemoryTaskStore struct {
	mu    sync.RWMutex
	tasks map[string]*taskRecord
}

type taskRecord struct {
	agentID string
	task    arc.Task
}

// NewMemoryTaskStore creates a new in-memory task store.
func NewMemoryTaskStore() *MemoryTaskStore {
	return &MemoryTaskStore{tasks: make(map[string]*taskRecord)}
}

// Save stores a copy of the task under its id. Saving an existing id
// replaces the record; tasks are owned by the handler that produced them.
func (s *MemoryTaskStore) Save(ctx context.Context, agentID string, task *arc.Task) error {
	if task == nil || task.TaskID == "" {
		return errors.Newf(errors.CodeInternal, "task with empty id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[task.TaskID] = &taskRecord{agentID: agentID, task: cloneTask(task)}
	return nil
}

// Get returns the task for taskID or TaskNotFound.
func (s *MemoryTaskStore) Get(ctx context.Context, taskID string) (*arc.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.tasks[taskID]
	if !ok {
		return nil, errors.Newf(errors.CodeTaskNotFound, "task not found: %s", taskID).
			WithContext("task_id", taskID)
	}
	task := cloneTask(&record.task)
	return &task, nil
}

// List returns tasks matching the filter, newest first.
func (s *MemoryTaskStore) List(ctx context.Context, filter TaskFilter) ([]*arc.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*arc.Task
	for _, record := range s.tasks {
		if filter.Agent != "" && record.agentID != filter.Agent {
			continue
		}
		if filter.Status != "" && record.task.Status != filter.Status {
			continue
		}
		task := cloneTask(&record.task)
		out = append(out, &task)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func cloneTask(task *arc.Task) arc.Task {
	out := *task
	if task.CompletedAt != nil {
		completedAt := *task.CompletedAt
		out.CompletedAt = &completedAt
	}
	if task.Artifacts != nil {
		out.Artifacts = make([]arc.Artifact, len(task.Artifacts))
		copy(out.Artifacts, task.Artifacts)
		for i := range out.Artifacts {
			parts := make([]arc.Part, len(task.Artifacts[i].Parts))
			copy(parts, task.Artifacts[i].Parts)
			out.Artifacts[i].Parts = parts
		}
	}
	if task.Metadata != nil {
		out.Metadata = make(map[string]interface{}, len(task.Metadata))
		for k, v := range task.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}
