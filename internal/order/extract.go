package order

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/width"

	"github.com/dshills/baozi-order/internal/menu"
)

// Extraction vocabulary
const (
	// KeyValueDelimiter separates the item phrase from the quantity phrase
	KeyValueDelimiter = "："
	// UnitMarker terminates the quantity phrase
	UnitMarker = "个"
)

// CompletionTriggers mark a reply as closing the order. Substring match only.
var CompletionTriggers = []string{"订单完成", "感谢"}

// Result is what one reply contributed to the order
type Result struct {
	Lines     []Line
	Completed bool
}

// Extractor turns reply text into order updates using the menu as vocabulary
type Extractor struct {
	menu *menu.Menu
}

// NewExtractor creates an extractor bound to m
func NewExtractor(m *menu.Menu) *Extractor {
	return &Extractor{menu: m}
}

// Extract scans text for "item：N个" lines and completion triggers.
// It never fails: lines that do not fit the shape, name no menu item, or carry
// a non-numeric quantity are skipped.
func (e *Extractor) Extract(text string) Result {
	var res Result

	for _, trigger := range CompletionTriggers {
		if strings.Contains(text, trigger) {
			res.Completed = true
			break
		}
	}

	for _, line := range strings.Split(text, "\n") {
		if l, ok := e.parseLine(line); ok {
			res.Lines = append(res.Lines, l)
		}
	}

	return res
}

// Apply extracts text and merges the result into s. Each reply must be
// applied exactly once; applying it twice double-counts.
func (e *Extractor) Apply(s *State, text string) Result {
	res := e.Extract(text)
	for _, l := range res.Lines {
		s.Add(l)
	}
	if res.Completed {
		s.MarkCompleted()
	}
	return res
}

func (e *Extractor) parseLine(line string) (Line, bool) {
	if !strings.Contains(line, KeyValueDelimiter) || !strings.Contains(line, UnitMarker) {
		return Line{}, false
	}

	itemPhrase, rest, _ := strings.Cut(line, KeyValueDelimiter)
	rest, _, _ = strings.Cut(rest, KeyValueDelimiter)
	quantityPhrase, _, _ := strings.Cut(rest, UnitMarker)

	item, ok := e.menu.Match(strings.TrimSpace(itemPhrase))
	if !ok {
		return Line{}, false
	}

	qty, ok := parseQuantity(quantityPhrase)
	if !ok {
		return Line{}, false
	}

	return Line{
		Item:     item.Name,
		Quantity: qty,
		Price:    item.Price.Mul(decimal.NewFromInt(int64(qty))),
	}, true
}

// parseQuantity accepts a positive integer, including full-width digits.
func parseQuantity(phrase string) (int, bool) {
	phrase = strings.TrimSpace(width.Narrow.String(phrase))
	n, err := strconv.Atoi(phrase)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
