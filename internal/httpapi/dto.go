package httpapi

type MessageRequest struct {
	Message string `json:"message"`
}

type SessionResponse struct {
	SessionID string         `json:"session_id"`
	Reply     string         `json:"reply"`
	Fallback  bool           `json:"fallback"`
	Phase     string         `json:"phase"`
	Order     OrderState     `json:"order"`
	Menu      []MenuItemJSON `json:"menu,omitempty"`
}

type OrderState struct {
	Lines     []OrderLineJSON `json:"lines"`
	Total     string          `json:"total"`
	Completed bool            `json:"completed"`
}

type OrderLineJSON struct {
	Item     string `json:"item"`
	Quantity int    `json:"quantity"`
	Price    string `json:"price"`
}

type MenuItemJSON struct {
	Name  string `json:"name"`
	Price string `json:"price"`
}

type SummaryResponse struct {
	SessionID string `json:"session_id"`
	Phase     string `json:"phase"`
	Summary   string `json:"summary"`
}

type ArchivedOrderResponse struct {
	ID        string          `json:"id"`
	SessionID string          `json:"session_id"`
	Total     string          `json:"total"`
	Completed bool            `json:"completed"`
	Lines     []OrderLineJSON `json:"lines"`
	Turns     []TurnJSON      `json:"turns,omitempty"`
	CreatedAt string          `json:"created_at"`
}

type TurnJSON struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type OrderListResponse struct {
	Orders []ArchivedOrderResponse `json:"orders"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
