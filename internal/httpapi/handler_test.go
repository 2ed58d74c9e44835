package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/baozi-order/internal/assistant"
	"github.com/dshills/baozi-order/internal/completion"
	"github.com/dshills/baozi-order/internal/dialogue"
	"github.com/dshills/baozi-order/internal/menu"
	"github.com/dshills/baozi-order/internal/order"
	"github.com/dshills/baozi-order/internal/session"
	"github.com/dshills/baozi-order/internal/storage"
)

// echoClient replies with the customer's own message after the greeting.
type echoClient struct{}

func (echoClient) Complete(ctx context.Context, turns []dialogue.Turn, params completion.Params) (string, error) {
	last := turns[len(turns)-1].Text
	if last == assistant.GreetingPrompt {
		return "欢迎光临！", nil
	}
	if last == "offline" {
		return "", completion.ErrProviderFailed
	}
	return last, nil
}

func (echoClient) Provider() string { return "echo" }
func (echoClient) Close() error     { return nil }

type fixture struct {
	server *httptest.Server
	store  *storage.SQLiteStorage
}

func newFixture(t *testing.T, withArchive bool) *fixture {
	t.Helper()

	f := &fixture{}
	cfg := session.Config{Client: echoClient{}, Menu: menu.Default()}
	var orders OrderReader
	if withArchive {
		store, err := storage.NewSQLiteStorage(":memory:")
		require.NoError(t, err)
		t.Cleanup(func() { _ = store.Close() })
		f.store = store
		cfg.Archiver = store
		orders = store
	}

	reg, err := session.NewRegistry(cfg)
	require.NoError(t, err)

	f.server = httptest.NewServer(NewRouter(NewHandler(reg, orders, nil)))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string, out interface{}) int {
	t.Helper()

	req, err := http.NewRequest(method, f.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := f.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (f *fixture) createSession(t *testing.T) SessionResponse {
	t.Helper()
	var resp SessionResponse
	status := f.do(t, http.MethodPost, "/sessions", "", &resp)
	require.Equal(t, http.StatusCreated, status)
	return resp
}

func TestCreateSession(t *testing.T) {
	f := newFixture(t, false)

	resp := f.createSession(t)
	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, "欢迎光临！", resp.Reply)
	assert.Equal(t, "ordering", resp.Phase)
	assert.Equal(t, "0.0", resp.Order.Total)
	require.Len(t, resp.Menu, 6)
	assert.Equal(t, MenuItemJSON{Name: "豆沙包", Price: "2.5"}, resp.Menu[1])
}

func TestSendMessage(t *testing.T) {
	f := newFixture(t, false)
	id := f.createSession(t).SessionID

	var resp SessionResponse
	status := f.do(t, http.MethodPost, "/sessions/"+id+"/messages",
		`{"message":"鲜肉包：2个\n豆沙包：3个"}`, &resp)
	require.Equal(t, http.StatusOK, status)

	assert.Equal(t, "13.5", resp.Order.Total)
	assert.False(t, resp.Order.Completed)
	assert.Equal(t, []OrderLineJSON{
		{Item: "鲜肉包", Quantity: 2, Price: "6.0"},
		{Item: "豆沙包", Quantity: 3, Price: "7.5"},
	}, resp.Order.Lines)

	status = f.do(t, http.MethodPost, "/sessions/"+id+"/messages", `{"message":"订单完成"}`, &resp)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, resp.Order.Completed)
	assert.Equal(t, "completed", resp.Phase)
}

func TestSendMessageFallback(t *testing.T) {
	f := newFixture(t, false)
	id := f.createSession(t).SessionID

	var resp SessionResponse
	status := f.do(t, http.MethodPost, "/sessions/"+id+"/messages", `{"message":"offline"}`, &resp)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, assistant.Apology, resp.Reply)
	assert.True(t, resp.Fallback)
}

func TestSendMessageErrors(t *testing.T) {
	f := newFixture(t, false)
	id := f.createSession(t).SessionID

	tests := []struct {
		name   string
		path   string
		body   string
		status int
		code   string
	}{
		{"bad json", "/sessions/" + id + "/messages", `{"message":`, http.StatusBadRequest, "invalid_json"},
		{"empty message", "/sessions/" + id + "/messages", `{"message":"   "}`, http.StatusBadRequest, "empty_message"},
		{"unknown session", "/sessions/nope/messages", `{"message":"hi"}`, http.StatusNotFound, "session_not_found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp ErrorResponse
			status := f.do(t, http.MethodPost, tt.path, tt.body, &resp)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, resp.Error)
		})
	}
}

func TestSummaryResetAndClose(t *testing.T) {
	f := newFixture(t, false)
	id := f.createSession(t).SessionID

	var summary SummaryResponse
	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/sessions/"+id+"/summary", "", &summary))
	assert.Equal(t, order.NoOrderSummary, summary.Summary)

	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/sessions/"+id+"/messages", `{"message":"三鲜包：1个"}`, nil))

	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/sessions/"+id+"/summary", "", &summary))
	assert.Equal(t, "【订单摘要】\n三鲜包: 1个, 4.0元\n\n总计: 4.0元", summary.Summary)
	assert.Equal(t, "ordering", summary.Phase)

	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/sessions/"+id+"/reset", "", &summary))
	assert.Equal(t, order.NoOrderSummary, summary.Summary)

	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/sessions/"+id+"/summary", "", &summary))
	assert.Equal(t, order.NoOrderSummary, summary.Summary)

	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, "/sessions/"+id, "", nil))
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/sessions/"+id+"/summary", "", nil))
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPost, "/sessions/"+id+"/reset", "", nil))
}

func TestArchiveRoutes(t *testing.T) {
	f := newFixture(t, true)
	id := f.createSession(t).SessionID

	require.Equal(t, http.StatusOK,
		f.do(t, http.MethodPost, "/sessions/"+id+"/messages", `{"message":"鲜肉包：2个\n订单完成"}`, nil))

	var list OrderListResponse
	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/orders?limit=5", "", &list))
	require.Len(t, list.Orders, 1)
	archived := list.Orders[0]
	assert.Equal(t, id, archived.SessionID)
	assert.Equal(t, "6.0", archived.Total)
	assert.True(t, archived.Completed)
	assert.Empty(t, archived.Turns)

	var got ArchivedOrderResponse
	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/orders/"+archived.ID, "", &got))
	assert.Equal(t, archived.ID, got.ID)
	require.Len(t, got.Turns, 5)
	assert.Equal(t, "system", got.Turns[0].Role)
	assert.Equal(t, "鲜肉包：2个\n订单完成", got.Turns[4].Content)

	var errResp ErrorResponse
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/orders/missing", "", &errResp))
	assert.Equal(t, "order_not_found", errResp.Error)

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/orders?limit=zero", "", &errResp))
}

func TestArchiveUnavailable(t *testing.T) {
	f := newFixture(t, false)

	var errResp ErrorResponse
	assert.Equal(t, http.StatusServiceUnavailable, f.do(t, http.MethodGet, "/orders", "", &errResp))
	assert.Equal(t, "archive_unavailable", errResp.Error)
	assert.Equal(t, http.StatusServiceUnavailable, f.do(t, http.MethodGet, "/orders/x", "", &errResp))
}
