package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dshills/baozi-order/internal/assistant"
	"github.com/dshills/baozi-order/internal/menu"
	"github.com/dshills/baozi-order/internal/order"
	"github.com/dshills/baozi-order/internal/session"
	"github.com/dshills/baozi-order/internal/storage"
)

// OrderReader is the read side of the order archive
type OrderReader interface {
	GetOrder(ctx context.Context, id string) (*storage.Order, error)
	ListOrders(ctx context.Context, limit int) ([]*storage.Order, error)
}

// Handler serves session and archive requests.
type Handler struct {
	sessions *session.Registry
	orders   OrderReader // nil-safe: archive routes answer 503 if nil
	logger   *zap.Logger
}

// NewHandler creates a handler. orders may be nil.
func NewHandler(sessions *session.Registry, orders OrderReader, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		sessions: sessions,
		orders:   orders,
		logger:   logger,
	}
}

// CreateSession opens a session and returns the greeting.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	sess, reply := h.sessions.Create(r.Context())

	resp := mapReply(sess.ID, reply)
	for _, it := range sess.Menu().Items() {
		resp.Menu = append(resp.Menu, MenuItemJSON{Name: it.Name, Price: menu.FormatAmount(it.Price)})
	}
	writeJSON(w, http.StatusCreated, resp)
}

// SendMessage submits one customer message.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		writeError(w, http.StatusBadRequest, "empty_message", "message is required")
		return
	}

	reply, err := h.sessions.Submit(r.Context(), id, message)
	if err != nil {
		h.writeSessionError(w, id, err)
		return
	}

	writeJSON(w, http.StatusOK, mapReply(id, reply))
}

// GetSummary renders the session's current order.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	summary, err := h.sessions.Summary(id)
	if err != nil {
		h.writeSessionError(w, id, err)
		return
	}
	phase, err := h.sessions.Phase(id)
	if err != nil {
		h.writeSessionError(w, id, err)
		return
	}

	writeJSON(w, http.StatusOK, SummaryResponse{
		SessionID: id,
		Phase:     phase.String(),
		Summary:   summary,
	})
}

// ResetSession clears the session's order and conversation.
func (h *Handler) ResetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.sessions.Reset(id); err != nil {
		h.writeSessionError(w, id, err)
		return
	}

	writeJSON(w, http.StatusOK, SummaryResponse{
		SessionID: id,
		Phase:     assistant.PhaseOrdering.String(),
		Summary:   order.NoOrderSummary,
	})
}

// CloseSession drops a session.
func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.sessions.Close(id) {
		writeError(w, http.StatusNotFound, "session_not_found", id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListOrders returns archived orders, newest first.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	if h.orders == nil {
		writeError(w, http.StatusServiceUnavailable, "archive_unavailable", "")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = n
	}

	orders, err := h.orders.ListOrders(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list orders", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "archive_error", err.Error())
		return
	}

	resp := OrderListResponse{Orders: make([]ArchivedOrderResponse, len(orders))}
	for i, o := range orders {
		resp.Orders[i] = mapArchivedOrder(o)
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetOrderByID returns one archived order with its transcript.
func (h *Handler) GetOrderByID(w http.ResponseWriter, r *http.Request) {
	if h.orders == nil {
		writeError(w, http.StatusServiceUnavailable, "archive_unavailable", "")
		return
	}

	orderID := chi.URLParam(r, "id")
	o, err := h.orders.GetOrder(r.Context(), orderID)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "order_not_found", orderID)
		return
	}
	if err != nil {
		h.logger.Error("failed to get order", zap.String("order_id", orderID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "archive_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, mapArchivedOrder(o))
}

func (h *Handler) writeSessionError(w http.ResponseWriter, id string, err error) {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session_not_found", id)
	case errors.Is(err, session.ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, "empty_message", err.Error())
	default:
		h.logger.Error("session operation failed", zap.String("session_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "session_error", err.Error())
	}
}

func mapReply(id string, reply assistant.Reply) SessionResponse {
	return SessionResponse{
		SessionID: id,
		Reply:     reply.Text,
		Fallback:  reply.Fallback,
		Phase:     reply.Phase.String(),
		Order:     mapOrderState(reply.Order),
	}
}

func mapOrderState(o order.State) OrderState {
	lines := make([]OrderLineJSON, len(o.Items))
	for i, l := range o.Items {
		lines[i] = OrderLineJSON{Item: l.Item, Quantity: l.Quantity, Price: menu.FormatAmount(l.Price)}
	}
	return OrderState{
		Lines:     lines,
		Total:     menu.FormatAmount(o.Total),
		Completed: o.Completed,
	}
}

func mapArchivedOrder(o *storage.Order) ArchivedOrderResponse {
	resp := ArchivedOrderResponse{
		ID:        o.ID,
		SessionID: o.SessionID,
		Total:     menu.FormatAmount(o.Total),
		Completed: o.Completed,
		Lines:     make([]OrderLineJSON, len(o.Lines)),
		CreatedAt: o.CreatedAt.UTC().Format(time.RFC3339),
	}
	for i, l := range o.Lines {
		resp.Lines[i] = OrderLineJSON{Item: l.Item, Quantity: l.Quantity, Price: menu.FormatAmount(l.Price)}
	}
	for _, t := range o.Turns {
		resp.Turns = append(resp.Turns, TurnJSON{Role: t.Role, Content: t.Content})
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: msg,
	})
}
