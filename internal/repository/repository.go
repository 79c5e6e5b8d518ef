// Package repository owns the in-memory task collection and keeps the
// Store in step with it.
package repository

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fentz26/duebell/internal/models"
	"github.com/fentz26/duebell/internal/store"
)

// Validation and lookup errors.
var (
	ErrPastDue          = errors.New("cannot schedule a task in the past")
	ErrEmptyDescription = errors.New("task description is empty")
	ErrNotFound         = errors.New("task not found")
)

// Persister is the slice of the Store the repository needs.
type Persister interface {
	LoadTasks() ([]models.Task, error)
	SaveTasks([]models.Task) error
}

var _ Persister = (*store.Store)(nil)

// Repository is the ordered task collection. Order is insertion order and
// is never re-sorted.
type Repository struct {
	persister Persister
	logger    *log.Logger

	mu    sync.Mutex
	tasks []models.Task
}

// New creates an empty repository backed by p.
func New(p Persister, logger *log.Logger) *Repository {
	return &Repository{
		persister: p,
		logger:    logger,
		tasks:     []models.Task{},
	}
}

// Load replaces the collection with the Store's content. Absent or
// malformed content leaves an empty collection; the failure is only logged.
func (r *Repository) Load() []models.Task {
	tasks, err := r.persister.LoadTasks()
	if err != nil {
		var malformed *store.MalformedStoreError
		if errors.As(err, &malformed) {
			r.logger.Warn("stored tasks unreadable, starting empty", "err", malformed.Err)
		} else {
			r.logger.Error("load tasks", "err", err)
		}
		tasks = []models.Task{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks = tasks
	return r.snapshot()
}

// All returns a copy of the collection in insertion order.
func (r *Repository) All() []models.Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot()
}

// Len returns the collection size.
func (r *Repository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}

// Get returns the task with the given id.
func (r *Repository) Get(id string) (models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(id)
	if i < 0 {
		return models.Task{}, ErrNotFound
	}
	return r.tasks[i], nil
}

// IndexOf returns the position of the task with the given id, or -1.
func (r *Repository) IndexOf(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.indexOf(id)
}

// Add validates and appends a new task, then persists the collection.
func (r *Repository) Add(description string, timestamp, now time.Time) (models.Task, error) {
	if timestamp.Before(now) {
		return models.Task{}, ErrPastDue
	}
	if strings.TrimSpace(description) == "" {
		return models.Task{}, ErrEmptyDescription
	}

	task := models.Task{
		ID:          models.NewID(),
		TimeStamp:   timestamp,
		Description: description,
		Completed:   false,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks = append(r.tasks, task)
	r.persist()
	return task, nil
}

// Update replaces both fields of the task with the given id. The past-due
// rule is not re-applied.
func (r *Repository) Update(id, description string, timestamp time.Time) (models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updateAt(r.indexOf(id), description, timestamp)
}

// UpdateAt is Update addressed by position.
func (r *Repository) UpdateAt(index int, description string, timestamp time.Time) (models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updateAt(index, description, timestamp)
}

// Remove deletes the task with the given id and persists the collection.
func (r *Repository) Remove(id string) (models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeAt(r.indexOf(id))
}

// RemoveAt is Remove addressed by position.
func (r *Repository) RemoveAt(index int) (models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeAt(index)
}

func (r *Repository) updateAt(i int, description string, timestamp time.Time) (models.Task, error) {
	if i < 0 || i >= len(r.tasks) {
		return models.Task{}, ErrNotFound
	}
	r.tasks[i].Description = description
	r.tasks[i].TimeStamp = timestamp
	r.persist()
	return r.tasks[i], nil
}

func (r *Repository) removeAt(i int) (models.Task, error) {
	if i < 0 || i >= len(r.tasks) {
		return models.Task{}, ErrNotFound
	}
	removed := r.tasks[i]
	r.tasks = append(r.tasks[:i], r.tasks[i+1:]...)
	r.persist()
	return removed, nil
}

func (r *Repository) indexOf(id string) int {
	for i, t := range r.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (r *Repository) snapshot() []models.Task {
	out := make([]models.Task, len(r.tasks))
	copy(out, r.tasks)
	return out
}

// persist writes the full collection. Failures are logged and swallowed;
// the in-memory collection stays authoritative for the session.
func (r *Repository) persist() {
	if err := r.persister.SaveTasks(r.snapshot()); err != nil {
		r.logger.Error("save tasks", "err", err, "count", len(r.tasks))
	}
}
