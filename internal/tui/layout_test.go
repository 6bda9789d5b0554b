package tui

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jmylchreest/toastd/internal/config"
)

func testLayout(pos config.Position) stackLayout {
	return newStackLayout(config.DisplayConfig{Position: string(pos), Width: 40}, 100, 30)
}

func TestStackLayout_Capacity(t *testing.T) {
	l := testLayout(config.PositionTopLeft)
	assert.Equal(t, 5, l.capacity())

	l.areaHeight = 4
	assert.Zero(t, l.capacity())

	l.areaHeight = 5
	assert.Equal(t, 1, l.capacity())
}

func TestStackLayout_Positions(t *testing.T) {
	tests := []struct {
		pos  config.Position
		want []rect
	}{
		{config.PositionTopLeft, []rect{{0, 0, 40, 5}, {0, 6, 40, 5}}},
		{config.PositionTopRight, []rect{{60, 0, 40, 5}, {60, 6, 40, 5}}},
		{config.PositionBottomLeft, []rect{{0, 19, 40, 5}, {0, 25, 40, 5}}},
		{config.PositionBottomRight, []rect{{60, 19, 40, 5}, {60, 25, 40, 5}}},
	}

	for _, tt := range tests {
		t.Run(string(tt.pos), func(t *testing.T) {
			assert.Equal(t, tt.want, testLayout(tt.pos).positions(2))
		})
	}
}

func TestStackLayout_HitTest(t *testing.T) {
	l := testLayout(config.PositionBottomRight)

	assert.Equal(t, 0, l.hitTest(2, 60, 19))
	assert.Equal(t, 1, l.hitTest(2, 99, 29))
	assert.Equal(t, -1, l.hitTest(2, 59, 20), "left of the stack")
	assert.Equal(t, -1, l.hitTest(2, 70, 24), "gap between cards")
	assert.Equal(t, -1, l.hitTest(0, 70, 25))
}

func TestStackLayout_PlaceMatchesPositions(t *testing.T) {
	l := testLayout(config.PositionBottomRight)
	card := strings.TrimSuffix(strings.Repeat(strings.Repeat("#", 40)+"\n", cardHeight), "\n")

	lines := strings.Split(l.place(card), "\n")
	assert.Len(t, lines, 30)

	r := l.positions(1)[0]
	assert.Equal(t, strings.Repeat(" ", 100), lines[r.Y-1])
	assert.Equal(t, strings.Repeat(" ", r.X)+strings.Repeat("#", 40), lines[r.Y])
}

func TestDetectClipboardCommand(t *testing.T) {
	only := func(bins ...string) func(string) (string, error) {
		return func(name string) (string, error) {
			for _, b := range bins {
				if b == name {
					return "/usr/bin/" + name, nil
				}
			}
			return "", errors.New("not found")
		}
	}

	assert.Equal(t, "pbcopy", detectClipboardCommand("pbcopy", only()))
	assert.Equal(t, "wl-copy", detectClipboardCommand("", only("wl-copy", "xclip")))
	assert.Equal(t, "xclip -selection clipboard", detectClipboardCommand("", only("xclip", "xsel")))
	assert.Equal(t, "xsel --clipboard --input", detectClipboardCommand("", only("xsel")))
	assert.Empty(t, detectClipboardCommand("", only()))
}
