package engine

// Presenter performs the visual side effects the engine asks for.
// Reveal, Hide and Remove must return a completion that is resolved exactly
// once, after the effect has finished. SetInteractionEnabled is immediate.
type Presenter interface {
	// Reveal flips a card to show its value
	Reveal(pos Position, value int, cause Cause) *Completion
	// Hide flips a card back to the shared back face
	Hide(pos Position, cause Cause) *Completion
	// Remove fades a matched card out and takes it off the board
	Remove(pos Position) *Completion
	// SetInteractionEnabled toggles input on a card
	SetInteractionEnabled(pos Position, enabled bool)
}

// ImmediatePresenter finishes every effect synchronously
type ImmediatePresenter struct{}

func (ImmediatePresenter) Reveal(Position, int, Cause) *Completion { return Resolved() }
func (ImmediatePresenter) Hide(Position, Cause) *Completion        { return Resolved() }
func (ImmediatePresenter) Remove(Position) *Completion             { return Resolved() }
func (ImmediatePresenter) SetInteractionEnabled(Position, bool)    {}
