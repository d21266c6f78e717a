package quiz

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNoSession         = errors.New("no active session")
	ErrGroupNotFound     = errors.New("group not found")
	ErrEmptyCatalog      = errors.New("question catalog is empty")
	ErrOptionOutOfRange  = errors.New("answer option out of range")
	ErrIncompleteAnswers = errors.New("incomplete answers")
)

// IncompleteAnswersError is returned by FinishTest while questions remain
// unanswered. It matches ErrIncompleteAnswers.
type IncompleteAnswersError struct {
	Remaining int
}

func (e *IncompleteAnswersError) Error() string {
	return fmt.Sprintf("please answer all questions: %d remaining", e.Remaining)
}

func (e *IncompleteAnswersError) Is(target error) bool {
	return target == ErrIncompleteAnswers
}

// KV is the opaque string store that statistics are persisted to.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}
