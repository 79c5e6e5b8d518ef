package tasklist

import (
	"errors"

	"github.com/fentz26/duebell/internal/repository"
)

// Sentinel errors for task list operations.
var (
	ErrPastDue          = repository.ErrPastDue
	ErrEmptyDescription = repository.ErrEmptyDescription
	ErrNotFound         = repository.ErrNotFound
	ErrAmbiguousRef     = errors.New("task reference matches more than one task")
	ErrEmptyRef         = errors.New("task reference is empty")
)
