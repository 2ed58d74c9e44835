// Package session hosts many independent ordering conversations at once.
// Every session owns its own assistant; nothing is shared between sessions.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/dshills/baozi-order/internal/assistant"
	"github.com/dshills/baozi-order/internal/completion"
	"github.com/dshills/baozi-order/internal/menu"
	"github.com/dshills/baozi-order/internal/storage"
)

// Common errors
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrEmptyMessage    = errors.New("message cannot be empty")
)

// DefaultLimit is the number of live sessions kept before the least recently
// used one is evicted
const DefaultLimit = 1000

// Archiver stores orders once they are completed
type Archiver interface {
	SaveOrder(ctx context.Context, order *storage.Order) error
}

// Session is one customer's conversation
type Session struct {
	ID        string
	CreatedAt time.Time

	mu        sync.Mutex
	assistant *assistant.Assistant
	archived  bool // current order already archived
}

// Menu returns the menu the session sells from. Menus are immutable.
func (s *Session) Menu() *menu.Menu {
	return s.assistant.Menu()
}

// Registry owns all live sessions
type Registry struct {
	client   completion.Client
	menu     *menu.Menu
	archiver Archiver
	opts     []assistant.Option
	logger   *zap.Logger
	sessions *lru.Cache[string, *Session]
}

// Config configures a Registry
type Config struct {
	Client   completion.Client
	Menu     *menu.Menu
	Archiver Archiver // optional
	Limit    int
	Logger   *zap.Logger
	Options  []assistant.Option
}

// NewRegistry creates a registry
func NewRegistry(cfg Config) (*Registry, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("session: completion client is required")
	}
	if cfg.Menu == nil {
		cfg.Menu = menu.Default()
	}
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	r := &Registry{
		client:   cfg.Client,
		menu:     cfg.Menu,
		archiver: cfg.Archiver,
		logger:   cfg.Logger,
	}
	r.opts = append([]assistant.Option{assistant.WithLogger(cfg.Logger)}, cfg.Options...)

	sessions, err := lru.NewWithEvict[string, *Session](cfg.Limit, func(id string, _ *Session) {
		r.logger.Info("session dropped", zap.String("session_id", id))
	})
	if err != nil {
		return nil, fmt.Errorf("session: create cache: %w", err)
	}
	r.sessions = sessions

	return r, nil
}

// Create starts a new session and performs the greeting exchange
func (r *Registry) Create(ctx context.Context) (*Session, assistant.Reply) {
	s := &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		assistant: assistant.New(r.client, r.menu, r.opts...),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r.sessions.Add(s.ID, s)
	r.logger.Info("session created", zap.String("session_id", s.ID))

	reply := s.assistant.Greet(ctx)
	r.afterSubmit(ctx, s, reply)
	return s, reply
}

// Get returns a live session
func (r *Registry) Get(id string) (*Session, error) {
	s, ok := r.sessions.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// Submit sends a customer message to a session. Submits to the same session
// are serialized; different sessions proceed independently.
func (r *Registry) Submit(ctx context.Context, id, text string) (assistant.Reply, error) {
	if text == "" {
		return assistant.Reply{}, ErrEmptyMessage
	}

	s, err := r.Get(id)
	if err != nil {
		return assistant.Reply{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	reply := s.assistant.Submit(ctx, text)
	r.afterSubmit(ctx, s, reply)
	return reply, nil
}

// Summary renders a session's current order
func (r *Registry) Summary(id string) (string, error) {
	s, err := r.Get(id)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.assistant.Summary(), nil
}

// Reset clears a session's order and conversation
func (r *Registry) Reset(id string) error {
	s, err := r.Get(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.assistant.Reset()
	s.archived = false
	r.logger.Info("session reset", zap.String("session_id", id))
	return nil
}

// Phase returns a session's current phase
func (r *Registry) Phase(id string) (assistant.Phase, error) {
	s, err := r.Get(id)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.assistant.Phase(), nil
}

// Close removes a session
func (r *Registry) Close(id string) bool {
	return r.sessions.Remove(id)
}

// Len returns the number of live sessions
func (r *Registry) Len() int {
	return r.sessions.Len()
}

// afterSubmit archives the order the first time a session reaches
// PhaseCompleted. Must be called with s.mu held.
func (r *Registry) afterSubmit(ctx context.Context, s *Session, reply assistant.Reply) {
	if reply.Phase != assistant.PhaseCompleted || s.archived || r.archiver == nil {
		return
	}

	rec := Record(s.ID, s.assistant)
	if err := r.archiver.SaveOrder(ctx, rec); err != nil {
		// Not surfaced to the customer; retried on the next submit.
		r.logger.Error("failed to archive order",
			zap.String("session_id", s.ID),
			zap.Error(err))
		return
	}

	s.archived = true
	r.logger.Info("order archived",
		zap.String("session_id", s.ID),
		zap.String("order_id", rec.ID),
		zap.Int("lines", len(rec.Lines)),
		zap.String("total", rec.Total.String()))
}

// Record converts an assistant's current order and transcript to an archive record
func Record(sessionID string, a *assistant.Assistant) *storage.Order {
	o := a.Order()
	rec := &storage.Order{
		SessionID: sessionID,
		Total:     o.Total,
		Completed: o.Completed,
		Lines:     make([]storage.OrderLine, len(o.Items)),
	}
	for i, l := range o.Items {
		rec.Lines[i] = storage.OrderLine{
			Seq:      i + 1,
			Item:     l.Item,
			Quantity: l.Quantity,
			Price:    l.Price,
		}
	}

	turns := a.Transcript()
	rec.Turns = make([]storage.Turn, len(turns))
	for i, t := range turns {
		rec.Turns[i] = storage.Turn{
			Seq:     i + 1,
			Role:    string(t.Role),
			Content: t.Text,
		}
	}
	return rec
}
