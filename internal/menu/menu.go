// Package menu holds the fixed price table the assistant sells from.
package menu

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Common errors
var (
	ErrEmptyName     = errors.New("item name cannot be empty")
	ErrNegativePrice = errors.New("unit price cannot be negative")
	ErrDuplicateItem = errors.New("duplicate menu item")
)

// Item is one row of the menu
type Item struct {
	Name  string
	Price decimal.Decimal
}

// Menu is an immutable, ordered mapping from item name to unit price.
// Order matters: extraction picks the first matching item in menu order.
type Menu struct {
	items []Item
	index map[string]int
}

// New builds a menu from the given rows, preserving their order.
func New(items ...Item) (*Menu, error) {
	m := &Menu{
		items: make([]Item, 0, len(items)),
		index: make(map[string]int, len(items)),
	}
	for _, it := range items {
		if strings.TrimSpace(it.Name) == "" {
			return nil, ErrEmptyName
		}
		if it.Price.IsNegative() {
			return nil, fmt.Errorf("%w: %s", ErrNegativePrice, it.Name)
		}
		if _, ok := m.index[it.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateItem, it.Name)
		}
		m.index[it.Name] = len(m.items)
		m.items = append(m.items, it)
	}
	return m, nil
}

// MustNew is like New but panics on invalid input. Intended for static tables.
func MustNew(items ...Item) *Menu {
	m, err := New(items...)
	if err != nil {
		panic(err)
	}
	return m
}

// Default returns the steamed bun shop menu.
func Default() *Menu {
	return MustNew(
		Item{Name: "鲜肉包", Price: decimal.RequireFromString("3.0")},
		Item{Name: "豆沙包", Price: decimal.RequireFromString("2.5")},
		Item{Name: "青菜包", Price: decimal.RequireFromString("2.0")},
		Item{Name: "奶黄包", Price: decimal.RequireFromString("3.5")},
		Item{Name: "三鲜包", Price: decimal.RequireFromString("4.0")},
		Item{Name: "牛肉包", Price: decimal.RequireFromString("5.0")},
	)
}

// Price returns the unit price for name.
func (m *Menu) Price(name string) (decimal.Decimal, bool) {
	i, ok := m.index[name]
	if !ok {
		return decimal.Zero, false
	}
	return m.items[i].Price, true
}

// Items returns a copy of the rows in menu order.
func (m *Menu) Items() []Item {
	out := make([]Item, len(m.items))
	copy(out, m.items)
	return out
}

// Len returns the number of items on the menu
func (m *Menu) Len() int {
	return len(m.items)
}

// Match returns the first menu item, in menu order, whose name is contained in phrase.
func (m *Menu) Match(phrase string) (Item, bool) {
	for _, it := range m.items {
		if strings.Contains(phrase, it.Name) {
			return it, true
		}
	}
	return Item{}, false
}

// FormatAmount renders a money amount the way receipts show it: at least one
// fractional digit ("6.0", "7.5", "13.25").
func FormatAmount(d decimal.Decimal) string {
	s := d.String()
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
