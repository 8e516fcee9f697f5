package report

import (
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
)

// Width bounds for terminal output.
const (
	DefaultWidth = 80
	MinWidth     = 60
	MaxWidth     = 160
)

// Box drawing characters for section headers.
const (
	boxHeavyHorizontal  = "━"
	boxHeavyVertical    = "┃"
	boxHeavyTopLeft     = "┏"
	boxHeavyTopRight    = "┓"
	boxHeavyBottomLeft  = "┗"
	boxHeavyBottomRight = "┛"
	boxHorizontal       = "─"

	headerPadding = 1
)

// Terminal holds terminal rendering configuration.
type Terminal struct {
	Width   int
	NoColor bool
}

// DetectTerminal reads the width from COLUMNS and honours NO_COLOR.
func DetectTerminal() Terminal {
	return Terminal{
		Width:   DetectWidth(),
		NoColor: os.Getenv("NO_COLOR") != "",
	}
}

// DetectWidth returns the terminal width from the COLUMNS environment
// variable clamped to [MinWidth, MaxWidth], or DefaultWidth.
func DetectWidth() int {
	width, err := strconv.Atoi(os.Getenv("COLUMNS"))
	if err != nil || width <= 0 {
		return DefaultWidth
	}

	return min(max(width, MinWidth), MaxWidth)
}

func (t Terminal) paint(text string, attrs ...color.Attribute) string {
	if t.NoColor {
		return text
	}

	c := color.New(attrs...)
	c.EnableColor()

	return c.Sprint(text)
}

func (t Terminal) good(text string) string { return t.paint(text, color.FgGreen) }
func (t Terminal) warn(text string) string { return t.paint(text, color.FgYellow) }
func (t Terminal) bad(text string) string  { return t.paint(text, color.FgRed, color.Bold) }
func (t Terminal) dim(text string) string  { return t.paint(text, color.FgHiBlack) }

func (t Terminal) separator() string {
	return strings.Repeat(boxHorizontal, max(t.Width, 0))
}

// header draws a heavy-bordered section header:
//
//	┏━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━┓
//	┃ TITLE                 rightText ┃
//	┗━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━┛
func (t Terminal) header(title, rightText string) string {
	width := max(t.Width, len(title)+len(rightText)+4+headerPadding*2)
	inner := width - 2
	contentWidth := inner - headerPadding*2

	gap := max(contentWidth-len(title)-len(rightText), 1)
	content := title + strings.Repeat(" ", gap) + rightText
	pad := strings.Repeat(" ", headerPadding)

	return boxHeavyTopLeft + strings.Repeat(boxHeavyHorizontal, inner) + boxHeavyTopRight + "\n" +
		boxHeavyVertical + pad + content + pad + boxHeavyVertical + "\n" +
		boxHeavyBottomLeft + strings.Repeat(boxHeavyHorizontal, inner) + boxHeavyBottomRight
}
