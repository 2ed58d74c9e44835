// Package assistant runs the ordering conversation: it owns the transcript and
// the order, calls the completion service and feeds replies to the extractor.
package assistant

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/dshills/baozi-order/internal/completion"
	"github.com/dshills/baozi-order/internal/dialogue"
	"github.com/dshills/baozi-order/internal/menu"
	"github.com/dshills/baozi-order/internal/order"
)

const (
	// Name is how the assistant introduces itself
	Name = "小陈同学"
	// Apology replaces the reply when the completion service fails
	Apology = "抱歉，我遇到了点问题，请稍后再试。"
	// GreetingPrompt opens every new conversation
	GreetingPrompt = "你好"
)

// Reply is the outcome of one submit
type Reply struct {
	Text     string
	Order    order.State
	Phase    Phase
	Fallback bool // Text is the apology, not model output
}

// Assistant is one customer's ordering session. It is not safe for
// concurrent use; callers serialize submits.
type Assistant struct {
	client     completion.Client
	params     completion.Params
	menu       *menu.Menu
	extractor  *order.Extractor
	transcript *dialogue.Context
	order      *order.State
	phase      Phase
	logger     *zap.Logger
}

// Option configures an Assistant
type Option func(*Assistant)

// WithParams overrides the sampling parameters
func WithParams(p completion.Params) Option {
	return func(a *Assistant) { a.params = p }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(a *Assistant) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithInstruction replaces the system instruction rendered from the menu
func WithInstruction(text string) Option {
	return func(a *Assistant) { a.transcript = dialogue.NewContext(text) }
}

// New creates an assistant in PhaseGreeting
func New(client completion.Client, m *menu.Menu, opts ...Option) *Assistant {
	a := &Assistant{
		client:     client,
		params:     completion.DefaultParams(),
		menu:       m,
		extractor:  order.NewExtractor(m),
		transcript: dialogue.NewContext(Instruction(m)),
		order:      order.NewState(),
		phase:      PhaseGreeting,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Greet performs the opening exchange
func (a *Assistant) Greet(ctx context.Context) Reply {
	return a.Submit(ctx, GreetingPrompt)
}

// Submit sends the customer's text and returns the assistant's reply. It
// blocks on the completion call. A failed call or an empty reply yields the
// Apology text, which is recorded in the transcript like any other reply.
// Any non-empty reply, whitespace included, is kept as the model wrote it.
func (a *Assistant) Submit(ctx context.Context, text string) Reply {
	a.appendTurn(dialogue.RoleUser, text)

	fallback := false
	reply, err := a.client.Complete(ctx, a.transcript.Turns(), a.params)
	switch {
	case err != nil:
		a.logger.Warn("completion failed, using apology",
			zap.String("provider", a.client.Provider()),
			zap.Error(err))
		reply, fallback = Apology, true
	case reply == "":
		a.logger.Warn("completion returned empty reply, using apology",
			zap.String("provider", a.client.Provider()))
		reply, fallback = Apology, true
	}

	a.appendTurn(dialogue.RoleAssistant, reply)

	res := a.extractor.Apply(a.order, reply)
	prev := a.phase
	a.phase = a.phase.afterExchange(a.order.Completed)

	a.logger.Debug("turn processed",
		zap.Int("lines_added", len(res.Lines)),
		zap.Int("transcript_len", a.transcript.Len()),
		zap.Stringer("phase", a.phase),
		zap.Stringer("previous_phase", prev),
		zap.String("total", a.order.Total.String()))

	return Reply{
		Text:     reply,
		Order:    a.order.Snapshot(),
		Phase:    a.phase,
		Fallback: fallback,
	}
}

// Summary renders the current order
func (a *Assistant) Summary() string {
	return a.order.Summary()
}

// Reset clears the order and the transcript after the system instruction.
// The assistant goes back to PhaseOrdering without a new greeting.
func (a *Assistant) Reset() {
	a.transcript.Reset()
	a.order.Reset()
	a.phase = PhaseOrdering
}

// Phase returns the current phase
func (a *Assistant) Phase() Phase {
	return a.phase
}

// Order returns a copy of the current order
func (a *Assistant) Order() order.State {
	return a.order.Snapshot()
}

// Transcript returns a copy of the dialogue so far
func (a *Assistant) Transcript() []dialogue.Turn {
	return a.transcript.Turns()
}

// Menu returns the menu the assistant sells from
func (a *Assistant) Menu() *menu.Menu {
	return a.menu
}

func (a *Assistant) appendTurn(role dialogue.Role, text string) {
	// Roles are package constants, so Append cannot fail here.
	if err := a.transcript.Append(role, text); err != nil {
		panic(fmt.Sprintf("assistant: %v", err))
	}
}
