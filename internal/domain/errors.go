package domain

import "fmt"

// NotFoundError is returned when a referenced row is absent.
type NotFoundError struct {
	Entity EntityClass
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.Key)
}

// ValidationError is returned when a field is malformed or out of range.
// The caller (shell or API client) decides whether to re-prompt.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// AmbiguousMatchError is returned when intake resolves a selector to more
// than one candidate and no explicit choice was supplied.
type AmbiguousMatchError struct {
	Entity     EntityClass
	Selector   string
	Candidates int
}

func (e *AmbiguousMatchError) Error() string {
	return fmt.Sprintf("%s selector %q matches %d candidates, choose one", e.Entity, e.Selector, e.Candidates)
}

// TransitionError is returned when a lifecycle transition is not allowed.
type TransitionError struct {
	Event   Event
	Current Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("event %q is not valid from state %q", e.Event, e.Current)
}
