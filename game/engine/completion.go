package engine

// Completion is a single-shot future resolved by a presenter when a visual
// effect has finished. It is not safe for concurrent use.
type Completion struct {
	done  bool
	waits []func()
}

// NewCompletion returns an unresolved completion
func NewCompletion() *Completion {
	return &Completion{}
}

// Resolved returns a completion that has already finished
func Resolved() *Completion {
	return &Completion{done: true}
}

// Resolve marks the effect finished and runs the registered continuations in
// registration order. Only the first call has any effect.
func (c *Completion) Resolve() {
	if c.done {
		return
	}
	c.done = true
	waits := c.waits
	c.waits = nil
	for _, fn := range waits {
		fn()
	}
}

// Then registers fn to run once the completion resolves. If it already has,
// fn runs immediately.
func (c *Completion) Then(fn func()) {
	if c.done {
		fn()
		return
	}
	c.waits = append(c.waits, fn)
}

// Done reports whether the completion has resolved
func (c *Completion) Done() bool {
	return c.done
}
