package models

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrPollNotFound    = errors.New("poll not created yet")
	ErrMissingFields   = errors.New("name and tabId are required")
	ErrDuplicateTab    = errors.New("this tab is already connected to the poll")
	ErrInvalidQuestion = errors.New("invalid question payload")
	ErrQuestionOpen    = errors.New("cannot add new question until current question is answered by all students")
	ErrNotTeacher      = errors.New("teacher capability does not match this poll")
)

// BannedError rejects a join from a banned tab and carries the expiry so the
// boundary can report bannedUntil to the client.
type BannedError struct {
	Until time.Time
}

func (e *BannedError) Error() string {
	return fmt.Sprintf("this tab is banned until %s", e.Until.Format(time.RFC3339))
}
