package model

// EvaluationContext is a transient stack of iterator-name→value overlay
// frames created fresh per expansion call and discarded when it completes.
// Lookups check the newest frame first and fall through to older frames; the
// base symbol environment is consulted only after the context misses.
//
// Bindings never leak into the Model, so there is no scratch entry to revert
// when a branch body fails.
type EvaluationContext struct {
	frames []map[string]int
}

// NewContext creates an empty context.
func NewContext() *EvaluationContext {
	return &EvaluationContext{}
}

// Push opens a new overlay frame.
func (c *EvaluationContext) Push() {
	c.frames = append(c.frames, make(map[string]int, 1))
}

// Pop discards the newest frame. Popping an empty context panics, as that is
// always an unbalanced Push/Pop pairing in the engine.
func (c *EvaluationContext) Pop() {
	if len(c.frames) == 0 {
		panic("model: Pop on empty evaluation context")
	}
	c.frames = c.frames[:len(c.frames)-1]
}

// Bind associates an iterator name with a value in the newest frame.
func (c *EvaluationContext) Bind(name string, value int) {
	if len(c.frames) == 0 {
		c.Push()
	}
	c.frames[len(c.frames)-1][name] = value
}

// Lookup finds the innermost binding for name.
func (c *EvaluationContext) Lookup(name string) (int, bool) {
	if c == nil {
		return 0, false
	}
	for i := len(c.frames) - 1; i >= 0; i-- {
		if v, ok := c.frames[i][name]; ok {
			return v, true
		}
	}
	return 0, false
}

// Without returns a flattened copy of the context with the given names
// removed, used when inner iterator declarations shadow outer bindings.
func (c *EvaluationContext) Without(names []string) *EvaluationContext {
	out := NewContext()
	if c == nil || len(c.frames) == 0 {
		return out
	}
	shadowed := make(map[string]bool, len(names))
	for _, n := range names {
		shadowed[n] = true
	}
	out.Push()
	for _, frame := range c.frames {
		for name, v := range frame {
			if !shadowed[name] {
				out.Bind(name, v)
			}
		}
	}
	return out
}

// Depth returns the number of open frames.
func (c *EvaluationContext) Depth() int {
	if c == nil {
		return 0
	}
	return len(c.frames)
}
