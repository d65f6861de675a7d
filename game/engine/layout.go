package engine

import "math"

// Layout holds the card geometry used to place cards in the view
type Layout struct {
	CardWidth  float64 `json:"card_width"`
	CardHeight float64 `json:"card_height"`
	Padding    float64 `json:"padding"`
}

// ViewSize returns the width and height of the whole board view
func (l Layout) ViewSize() (float64, float64) {
	return GridSize*l.CardWidth + (GridSize+1)*l.Padding,
		GridSize*l.CardHeight + (GridSize+1)*l.Padding
}

// CenterOf returns the center of the card at x,y. It panics when x or y is
// outside the board.
func (l Layout) CenterOf(x, y int) Point {
	mustInBounds(x, y)
	w, h := l.CardWidth+l.Padding, l.CardHeight+l.Padding
	return Point{
		X: float64(x)*w + w/2 + l.Padding/2,
		Y: float64(y)*h + h/2 + l.Padding/2,
	}
}

// CellAt returns the card under a view point. Points in the padding between
// cards, or outside the board, hit nothing.
func (l Layout) CellAt(p Point) (Position, bool) {
	x, okX := l.axisHit(p.X, l.CardWidth)
	y, okY := l.axisHit(p.Y, l.CardHeight)
	if !okX || !okY {
		return Position{}, false
	}
	return Position{X: x, Y: y}, true
}

func (l Layout) axisHit(v, size float64) (int, bool) {
	stride := size + l.Padding
	if v < l.Padding || stride <= 0 {
		return 0, false
	}
	i := int(math.Floor((v - l.Padding) / stride))
	if i < 0 || i >= GridSize {
		return 0, false
	}
	// Offset within the slot; the card starts at the slot origin.
	if v-l.Padding-float64(i)*stride > size {
		return 0, false
	}
	return i, true
}
