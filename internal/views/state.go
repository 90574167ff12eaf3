// Package views holds one state machine per screen of the client. Screens
// call the API client, keep their results in local state and render it as
// text. All methods are safe for concurrent use; network calls run without
// holding the screen's lock.
package views

import "errors"

var (
	ErrBusy         = errors.New("a submission is already in progress")
	ErrInvalidForm  = errors.New("form has invalid fields")
	ErrNotSignedIn  = errors.New("sign in first")
	ErrNotLoaded    = errors.New("nothing loaded yet")
	ErrNotEditing   = errors.New("profile is not in edit mode")
	ErrNotImage     = errors.New("file is not an image")
	ErrEmptyComment = errors.New("comment is empty")
	ErrUnknownType  = errors.New("unknown post type")
)

type Phase int

const (
	Idle Phase = iota
	Loading
	Loaded
	Failed
)

func (p Phase) String() string {
	switch p {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	}
	return "idle"
}

// State is the fetch status of a screen. Only Loaded carries data and only
// Failed carries an error, so the two are never set together.
type State[T any] struct {
	phase   Phase
	data    T
	err     error
	message string
}

func IdleState[T any]() State[T] { return State[T]{} }

func LoadingState[T any]() State[T] { return State[T]{phase: Loading} }

func LoadedState[T any](data T) State[T] { return State[T]{phase: Loaded, data: data} }

// FailedState records err and the message shown in its place.
func FailedState[T any](err error, message string) State[T] {
	return State[T]{phase: Failed, err: err, message: message}
}

func (s State[T]) Phase() Phase { return s.phase }

// Data returns the loaded value; ok is false outside the Loaded phase.
func (s State[T]) Data() (data T, ok bool) {
	return s.data, s.phase == Loaded
}

func (s State[T]) Err() error { return s.err }

func (s State[T]) Message() string { return s.message }
