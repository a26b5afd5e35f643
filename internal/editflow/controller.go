// Package editflow drives one edit session for a single reservation: load,
// edit, validate, submit, then navigate back to the detail view.
package editflow

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ariefcatur/go-realtime-reservations.git/internal/reservations"
)

const DefaultDelay = 3 * time.Second

const (
	MsgLoadFailed    = "Failed to load reservation. Please try again."
	MsgUpdated       = "Your reservation has been successfully updated."
	MsgUpdateFailed  = "Failed to update reservation"
	MsgUpdateProblem = "There was a problem updating your reservation."

	TitleUpdated = "Reservation updated"
	TitleError   = "Error"
)

var (
	ErrNotReady         = errors.New("editflow: reservation is not ready for editing")
	ErrSubmitInProgress = errors.New("editflow: a submission is already in flight")
	ErrLoadFailed       = errors.New("editflow: reservation could not be loaded")
	ErrIDMismatch       = errors.New("editflow: form id does not match the session")
	ErrClosed           = errors.New("editflow: session closed")
)

// RecordStore reads one reservation by id.
type RecordStore interface {
	Fetch(ctx context.Context, id int64) (reservations.Record, error)
}

// Updater persists a validated edit. A transport failure is reported as err;
// a rejected edit as Result{Success: false}.
type Updater interface {
	Update(ctx context.Context, u reservations.Update) (reservations.Result, error)
}

// SubmitFailure is returned by Submit when the update was not accepted.
type SubmitFailure struct {
	Message string
	Err     error
}

func (e *SubmitFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("submit: %s: %v", e.Message, e.Err)
	}
	return "submit: " + e.Message
}

func (e *SubmitFailure) Unwrap() error { return e.Err }

type Option func(*Controller)

// WithDelay sets how long notifications stay visible.
func WithDelay(d time.Duration) Option { return func(c *Controller) { c.delay = d } }

func WithScheduler(s Scheduler) Option { return func(c *Controller) { c.sched = s } }

// Controller owns the state of one workflow instance. It is safe for
// concurrent use.
type Controller struct {
	id      int64
	store   RecordStore
	updater Updater
	delay   time.Duration
	sched   Scheduler

	ctx    context.Context // session lifetime
	cancel context.CancelFunc

	loadOnce sync.Once
	done     chan struct{}

	mu         sync.Mutex
	state      State
	form       reservations.Input
	loadErr    string
	note       Notification
	timer      Timer
	timerGen   int
	redirect   string
	submitting bool
	closed     bool
}

func New(id int64, store RecordStore, updater Updater, opts ...Option) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		id:      id,
		store:   store,
		updater: updater,
		delay:   DefaultDelay,
		sched:   realScheduler{},
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
		state:   StateLoading,
		form:    reservations.Input{ID: reservations.NumericInt(id), PartySize: "1"},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Controller) ID() int64 { return c.id }

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Form returns the current editable values.
func (c *Controller) Form() reservations.Input {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.form
}

// Error returns the user-facing load error, empty unless in LoadError.
func (c *Controller) Error() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadErr
}

func (c *Controller) Notification() Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.note
}

// IsSubmitting is true while an update request is in flight.
func (c *Controller) IsSubmitting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitting
}

// Redirect is the detail view to show once Navigated.
func (c *Controller) Redirect() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.redirect
}

// DetailPath is the detail view for this reservation, also the escape path
// out of LoadError.
func (c *Controller) DetailPath() string {
	return fmt.Sprintf("/reservation/%d", c.id)
}

// Done is closed once the session reaches a terminal state or is closed.
func (c *Controller) Done() <-chan struct{} { return c.done }

// Dismiss hides the notification. A pending navigation still happens.
func (c *Controller) Dismiss() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.note = Notification{}
}

// Load fetches the reservation once per session; later calls return the
// outcome of the first.
func (c *Controller) Load(ctx context.Context) error {
	c.loadOnce.Do(func() { c.load(ctx) })

	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.state == StateLoadError:
		return ErrLoadFailed
	case c.state == StateLoading && c.closed:
		return ErrClosed
	}
	return nil
}

func (c *Controller) load(ctx context.Context) {
	ctx, cancel := c.bind(ctx)
	defer cancel()

	rec, err := c.store.Fetch(ctx, c.id)
	var form reservations.Input
	if err == nil {
		form, err = c.seed(rec)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if err != nil {
		log.Printf("error fetching reservation %d: %v", c.id, err)
		c.loadErr = MsgLoadFailed
		c.setState(StateLoadError)
		return
	}
	c.form = form
	c.loadErr = ""
	c.setState(StateReady)
}

func (c *Controller) seed(rec reservations.Record) (reservations.Input, error) {
	if rec.ID != c.id {
		return reservations.Input{}, fmt.Errorf("store returned reservation %d", rec.ID)
	}
	date, ok := reservations.ParseDate(rec.ReservationDate)
	if !ok {
		return reservations.Input{}, fmt.Errorf("invalid reservation date %q", rec.ReservationDate)
	}
	requests := ""
	if rec.SpecialRequests != nil {
		requests = *rec.SpecialRequests
	}
	return reservations.Input{
		ID:              reservations.NumericInt(rec.ID),
		CustomerName:    rec.CustomerName,
		Phone:           rec.Phone,
		ReservationDate: date.UTC().Format(reservations.DateLayout),
		ReservationTime: rec.ReservationTime,
		PartySize:       reservations.NumericInt(int64(rec.PartySize)),
		SpecialRequests: &requests,
	}, nil
}

// Submit validates form and sends it to the updater. A form that fails
// validation returns *reservations.ValidationError and never reaches the
// updater. A rejected or failed update returns *SubmitFailure and leaves the
// session Ready with the edits retained.
func (c *Controller) Submit(ctx context.Context, form reservations.Input) error {
	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		return ErrClosed
	case c.submitting:
		c.mu.Unlock()
		return ErrSubmitInProgress
	case c.state != StateReady:
		c.mu.Unlock()
		return ErrNotReady
	}
	c.form = form
	u, err := reservations.Validate(form)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	if u.ID != c.id {
		c.mu.Unlock()
		return ErrIDMismatch
	}
	c.submitting = true
	c.setState(StateSubmitting)
	c.mu.Unlock()

	ctx, cancel := c.bind(ctx)
	defer cancel()
	res, err := c.updater.Update(ctx, u)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitting = false
	if c.closed {
		return ErrClosed
	}

	if err == nil && res.Success {
		c.notify(visible(KindSuccess, TitleUpdated, MsgUpdated), c.navigate)
		return nil
	}

	fail := &SubmitFailure{Message: MsgUpdateFailed, Err: err}
	switch {
	case err != nil:
		fail.Message = MsgUpdateProblem
	case res.Error != "":
		fail.Message = res.Error
	}
	c.setState(StateReady)
	c.notify(visible(KindError, TitleError, fail.Message), nil)
	return fail
}

// Close tears the session down: in-flight requests are cancelled, their
// results discarded, and pending notification timers stopped.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.stopTimer()
	c.cancel()
	c.finish()
}

// bind ties a caller context to the session lifetime.
func (c *Controller) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(c.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// notify shows n and schedules its removal; then runs after removal. Must be
// called with mu held.
func (c *Controller) notify(n Notification, then func()) {
	c.stopTimer()
	c.note = n
	c.timerGen++
	gen := c.timerGen
	c.timer = c.sched.AfterFunc(c.delay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed || gen != c.timerGen {
			return
		}
		c.timer = nil
		c.note = Notification{}
		if then != nil {
			then()
		}
	})
}

func (c *Controller) stopTimer() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.timerGen++
}

func (c *Controller) navigate() {
	c.redirect = c.DetailPath()
	c.setState(StateNavigated)
}

func (c *Controller) setState(s State) {
	if !CanTransition(c.state, s) {
		panic(fmt.Sprintf("editflow: invalid transition %s -> %s", c.state, s))
	}
	c.state = s
	if s.Terminal() {
		c.finish()
	}
}

func (c *Controller) finish() {
	select {
	case <-c.done:
	default:
		close(c.done)
	}
}
