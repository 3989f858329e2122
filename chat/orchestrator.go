package chat

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/linanwx/askchat/logger"
)

// Asker sends one question to the remote endpoint and returns its answer.
type Asker interface {
	Ask(ctx context.Context, question string) (string, error)
}

// AskerFunc adapts a function to the Asker interface.
type AskerFunc func(ctx context.Context, question string) (string, error)

// Ask calls f.
func (f AskerFunc) Ask(ctx context.Context, question string) (string, error) {
	return f(ctx, question)
}

// State is a snapshot of what a front-end renders.
type State struct {
	Messages []Message
	Busy     bool
}

// Exchange is an accepted submission waiting for its answer.
type Exchange struct {
	Question      string // raw, untrimmed user text
	UserMessageID string
}

// Result is the outcome of asking an Exchange.
type Result struct {
	Exchange Exchange
	Answer   string
	Err      error
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithIDs overrides the identifier generator.
func WithIDs(ids IDFunc) Option {
	return func(o *Orchestrator) {
		if ids != nil {
			o.newID = ids
		}
	}
}

// WithStore uses an existing store instead of a fresh one.
func WithStore(s *Store) Option {
	return func(o *Orchestrator) {
		if s != nil {
			o.store = s
		}
	}
}

// WithObserver registers fn to be called after every state change.
func WithObserver(fn func(State)) Option {
	return func(o *Orchestrator) { o.onChange = fn }
}

// Orchestrator runs the send cycle: append the user message, ask the
// endpoint, append the answer, and keep at most one request in flight.
type Orchestrator struct {
	store    *Store
	asker    Asker
	newID    IDFunc
	busy     atomic.Bool
	onChange func(State)
}

// NewOrchestrator creates an idle orchestrator with an empty store.
func NewOrchestrator(asker Asker, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store: NewStore(),
		asker: asker,
		newID: RandomIDs(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Busy reports whether a request is outstanding.
func (o *Orchestrator) Busy() bool {
	return o.busy.Load()
}

// Messages returns the current message list.
func (o *Orchestrator) Messages() []Message {
	return o.store.Messages()
}

// State returns a snapshot of messages and the busy flag. Busy is read
// first: Finish appends before clearing it, so an idle snapshot always
// includes the answer.
func (o *Orchestrator) State() State {
	busy := o.busy.Load()
	return State{Messages: o.store.Messages(), Busy: busy}
}

// Begin accepts text for sending. Blank text and submissions made while
// busy are ignored and leave no trace. On acceptance the user message is
// appended before Begin returns.
func (o *Orchestrator) Begin(text string) (Exchange, bool) {
	if strings.TrimSpace(text) == "" {
		return Exchange{}, false
	}
	if !o.busy.CompareAndSwap(false, true) {
		logger.Debug("submission rejected while busy")
		return Exchange{}, false
	}

	ex := Exchange{Question: text, UserMessageID: o.newID()}
	o.store.Append(Message{ID: ex.UserMessageID, Role: RoleUser, Content: text})
	o.notify()
	return ex, true
}

// Ask performs the network call for ex. It does not touch orchestrator
// state and may run on any goroutine.
func (o *Orchestrator) Ask(ctx context.Context, ex Exchange) (res Result) {
	res.Exchange = ex
	defer func() {
		if r := recover(); r != nil {
			res.Answer = ""
			res.Err = fmt.Errorf("ask panicked: %v", r)
		}
	}()
	if o.asker == nil {
		res.Err = fmt.Errorf("no asker configured")
		return res
	}
	res.Answer, res.Err = o.asker.Ask(ctx, ex.Question)
	return res
}

// Finish applies res: the answer is appended on success, a failure is only
// logged. The busy flag is cleared in every case.
func (o *Orchestrator) Finish(res Result) {
	if !o.busy.Load() {
		logger.Warn("finish called with no request in flight", "userMessageID", res.Exchange.UserMessageID)
		return
	}
	defer o.notify()
	defer o.busy.Store(false)

	if res.Err != nil {
		logger.Error("failed to get answer", "userMessageID", res.Exchange.UserMessageID, "err", res.Err)
		return
	}
	o.store.Append(Message{ID: o.newID(), Role: RoleAssistant, Content: res.Answer})
}

// Send runs a whole cycle and blocks until it completes. It returns false
// when text was not accepted.
func (o *Orchestrator) Send(ctx context.Context, text string) bool {
	ex, ok := o.Begin(text)
	if !ok {
		return false
	}
	o.Finish(o.Ask(ctx, ex))
	return true
}

func (o *Orchestrator) notify() {
	if o.onChange == nil {
		return
	}
	o.onChange(o.State())
}
