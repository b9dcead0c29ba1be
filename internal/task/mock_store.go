package task

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockTaskStore implements the TaskStore interface for testing. Beyond the
// interface it records the full status history per task so tests can assert
// on transitions, and lets tests backdate a task's last status change to
// simulate stuck tasks.
type MockTaskStore struct {
	mutex           sync.RWMutex
	tasks           map[uuid.UUID]Task
	statuses        map[uuid.UUID]TaskStatus
	statusHistory   map[uuid.UUID][]TaskStatus
	taskStatusTimes map[uuid.UUID]time.Time
	SaveFn          func(ctx context.Context, task Task) error
	UpdateStatusFn  func(ctx context.Context, taskID uuid.UUID, status TaskStatus, errorMsg string) error
}

// NewMockTaskStore creates a new MockTaskStore with default implementations
func NewMockTaskStore() *MockTaskStore {
	store := &MockTaskStore{
		tasks:           make(map[uuid.UUID]Task),
		statuses:        make(map[uuid.UUID]TaskStatus),
		statusHistory:   make(map[uuid.UUID][]TaskStatus),
		taskStatusTimes: make(map[uuid.UUID]time.Time),
	}

	store.SaveFn = func(ctx context.Context, task Task) error {
		store.mutex.Lock()
		defer store.mutex.Unlock()

		store.tasks[task.ID()] = task
		store.statuses[task.ID()] = task.Status()
		store.statusHistory[task.ID()] = append(store.statusHistory[task.ID()], task.Status())
		store.taskStatusTimes[task.ID()] = time.Now()
		return nil
	}

	store.UpdateStatusFn = func(ctx context.Context, taskID uuid.UUID, status TaskStatus, errorMsg string) error {
		store.mutex.Lock()
		defer store.mutex.Unlock()

		if _, exists := store.tasks[taskID]; !exists {
			// Updating an unknown task is a no-op, matching the real store
			return nil
		}

		store.statuses[taskID] = status
		store.statusHistory[taskID] = append(store.statusHistory[taskID], status)
		store.taskStatusTimes[taskID] = time.Now()
		return nil
	}

	return store
}

// SaveTask persists a task to the mock store
func (s *MockTaskStore) SaveTask(ctx context.Context, task Task) error {
	return s.SaveFn(ctx, task)
}

// UpdateTaskStatus updates the status of a task in the mock store
func (s *MockTaskStore) UpdateTaskStatus(
	ctx context.Context,
	taskID uuid.UUID,
	status TaskStatus,
	errorMsg string,
) error {
	return s.UpdateStatusFn(ctx, taskID, status, errorMsg)
}

// GetPendingTasks retrieves all tasks with "pending" status
func (s *MockTaskStore) GetPendingTasks(ctx context.Context) ([]Task, error) {
	return s.tasksWithStatus(TaskStatusPending, 0), nil
}

// GetProcessingTasks retrieves tasks with "processing" status, optionally
// filtered to those whose status is older than olderThan
func (s *MockTaskStore) GetProcessingTasks(ctx context.Context, olderThan time.Duration) ([]Task, error) {
	return s.tasksWithStatus(TaskStatusProcessing, olderThan), nil
}

// WithTx implements TaskStore.WithTx for the mock store. It returns the same
// store instance.
func (s *MockTaskStore) WithTx(tx *sql.Tx) TaskStore {
	return s
}

// TaskStatus returns the tracked status of a task
func (s *MockTaskStore) TaskStatus(taskID uuid.UUID) TaskStatus {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.statuses[taskID]
}

// StatusHistory returns every status the task has moved through, in order
func (s *MockTaskStore) StatusHistory(taskID uuid.UUID) []TaskStatus {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	history := make([]TaskStatus, len(s.statusHistory[taskID]))
	copy(history, s.statusHistory[taskID])
	return history
}

// SetStatusTime backdates the last status change of a task, used to simulate
// tasks stuck in processing
func (s *MockTaskStore) SetStatusTime(taskID uuid.UUID, at time.Time) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.taskStatusTimes[taskID] = at
}

func (s *MockTaskStore) tasksWithStatus(status TaskStatus, olderThan time.Duration) []Task {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	now := time.Now()
	var matched []Task
	for id, task := range s.tasks {
		if s.statuses[id] != status {
			continue
		}
		if olderThan > 0 {
			statusTime, exists := s.taskStatusTimes[id]
			if !exists || now.Sub(statusTime) <= olderThan {
				continue
			}
		}
		matched = append(matched, task)
	}

	return matched
}
