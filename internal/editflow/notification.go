package editflow

import "time"

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Notification is either none (zero value) or a visible message.
type Notification struct {
	Visible bool
	Kind    Kind
	Title   string
	Message string
}

func (n Notification) None() bool { return !n.Visible }

func visible(kind Kind, title, message string) Notification {
	return Notification{Visible: true, Kind: kind, Title: title, Message: message}
}

// Timer is a cancellable deferred action.
type Timer interface {
	Stop() bool
}

type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }
