package token

import (
	"fmt"
	"regexp"

	"github.com/vk/optlang/internal/expr"
)

// Kind distinguishes the placeholder families a Manager hands out.
type Kind string

const (
	KindItem      Kind = "ITEM"
	KindTuple     Kind = "TUPLE"
	KindTupleIter Kind = "TUPLE_ITER"
	KindParam     Kind = "PARAM"
)

// placeholderPattern matches any placeholder the Manager has produced.
var placeholderPattern = regexp.MustCompile(`^__(?:ITEM|TUPLE|TUPLE_ITER|PARAM)(\d+)__$`)

// Manager owns the placeholder↔expression mapping for one tokenization
// session. Placeholders are numbered by a monotonically increasing counter
// that resets only on Clear, so they stay stable within a session.
type Manager struct {
	tokens map[string]expr.Expression
	next   int
}

// NewManager creates an empty token manager.
func NewManager() *Manager {
	return &Manager{tokens: make(map[string]expr.Expression)}
}

// Register stores e and returns its placeholder, e.g. "__ITEM0__".
func (m *Manager) Register(kind Kind, e expr.Expression) string {
	placeholder := fmt.Sprintf("__%s%d__", kind, m.next)
	m.next++
	m.tokens[placeholder] = e
	return placeholder
}

// Lookup returns the expression behind a placeholder.
func (m *Manager) Lookup(placeholder string) (expr.Expression, bool) {
	e, ok := m.tokens[placeholder]
	return e, ok
}

// IsPlaceholder reports whether s has the placeholder shape, whether or not
// it is registered.
func IsPlaceholder(s string) bool {
	return placeholderPattern.MatchString(s)
}

// Len returns the number of registered placeholders.
func (m *Manager) Len() int {
	return len(m.tokens)
}

// Clear discards all registrations and resets the counter.
func (m *Manager) Clear() {
	m.tokens = make(map[string]expr.Expression)
	m.next = 0
}
