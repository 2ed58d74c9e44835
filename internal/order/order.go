// Package order holds the order record built up during a conversation and the
// heuristic extractor that fills it from free-text replies.
package order

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dshills/baozi-order/internal/menu"
)

// NoOrderSummary is returned by Summary when nothing has been ordered yet
const NoOrderSummary = "暂无订单信息"

// Line is one extracted (item, quantity, price) assertion
type Line struct {
	Item     string
	Quantity int
	Price    decimal.Decimal
}

// State is the mutable order of one session. Items are append-only;
// corrections show up as additional lines, never edits.
type State struct {
	Items     []Line
	Total     decimal.Decimal
	Completed bool
}

// NewState returns an empty order
func NewState() *State {
	return &State{Total: decimal.Zero}
}

// Add appends a line and adds its price to the total
func (s *State) Add(l Line) {
	s.Items = append(s.Items, l)
	s.Total = s.Total.Add(l.Price)
}

// MarkCompleted sets the completion flag. There is no way to unset it
// short of Reset.
func (s *State) MarkCompleted() {
	s.Completed = true
}

// Reset empties the order
func (s *State) Reset() {
	s.Items = nil
	s.Total = decimal.Zero
	s.Completed = false
}

// Snapshot returns a deep copy safe to hand to other goroutines
func (s *State) Snapshot() State {
	items := make([]Line, len(s.Items))
	copy(items, s.Items)
	return State{
		Items:     items,
		Total:     s.Total,
		Completed: s.Completed,
	}
}

// Summary renders the order as a receipt, or NoOrderSummary when empty.
func (s *State) Summary() string {
	if len(s.Items) == 0 {
		return NoOrderSummary
	}

	var b strings.Builder
	b.WriteString("【订单摘要】\n")
	for _, l := range s.Items {
		b.WriteString(l.Item)
		b.WriteString(": ")
		b.WriteString(strconv.Itoa(l.Quantity))
		b.WriteString(UnitMarker)
		b.WriteString(", ")
		b.WriteString(menu.FormatAmount(l.Price))
		b.WriteString("元\n")
	}
	b.WriteString("\n总计: ")
	b.WriteString(menu.FormatAmount(s.Total))
	b.WriteString("元")
	return b.String()
}
