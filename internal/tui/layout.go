package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jmylchreest/toastd/internal/config"
)

const (
	// cardHeight is the rendered height of a toast: border, header,
	// message and progress line.
	cardHeight = 5
	// cardGap is the number of blank lines between toasts.
	cardGap = 1
)

// rect is a cell rectangle on screen.
type rect struct {
	X, Y, W, H int
}

func (r rect) contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// stackLayout positions the toast stack inside the drawing area.
type stackLayout struct {
	position   config.Position
	areaWidth  int
	areaHeight int
	cardWidth  int
}

func newStackLayout(cfg config.DisplayConfig, width, height int) stackLayout {
	return stackLayout{
		position:   config.Position(cfg.Position),
		areaWidth:  width,
		areaHeight: height,
		cardWidth:  cfg.Width,
	}
}

// isBottom returns true if the stack grows upwards from the bottom edge.
func (l stackLayout) isBottom() bool {
	switch l.position {
	case config.PositionBottomLeft, config.PositionBottomRight:
		return true
	default:
		return false
	}
}

func (l stackLayout) isRight() bool {
	switch l.position {
	case config.PositionTopRight, config.PositionBottomRight:
		return true
	default:
		return false
	}
}

// capacity returns how many toasts fit in the area.
func (l stackLayout) capacity() int {
	if l.areaHeight < cardHeight {
		return 0
	}
	return (l.areaHeight + cardGap) / (cardHeight + cardGap)
}

// stackHeight returns the height of a stack of n toasts.
func stackHeight(n int) int {
	if n <= 0 {
		return 0
	}
	return n*cardHeight + (n-1)*cardGap
}

// positions returns the rectangle of each of n toasts, in draw order.
func (l stackLayout) positions(n int) []rect {
	x := 0
	if l.isRight() && l.areaWidth > l.cardWidth {
		x = l.areaWidth - l.cardWidth
	}
	y := 0
	if l.isBottom() && l.areaHeight > stackHeight(n) {
		y = l.areaHeight - stackHeight(n)
	}

	out := make([]rect, n)
	for i := range out {
		out[i] = rect{X: x, Y: y + i*(cardHeight+cardGap), W: l.cardWidth, H: cardHeight}
	}
	return out
}

// hitTest returns the draw-order index of the toast under (x, y), or -1.
func (l stackLayout) hitTest(n, x, y int) int {
	for i, r := range l.positions(n) {
		if r.contains(x, y) {
			return i
		}
	}
	return -1
}

// place anchors a rendered stack inside the area the same way positions
// lays it out.
func (l stackLayout) place(stack string) string {
	h := lipgloss.Left
	if l.isRight() {
		h = lipgloss.Right
	}
	v := lipgloss.Top
	if l.isBottom() {
		v = lipgloss.Bottom
	}
	return lipgloss.Place(l.areaWidth, l.areaHeight, h, v, stack)
}
