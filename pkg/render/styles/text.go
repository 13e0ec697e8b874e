package styles

import "unicode/utf8"

const (
	fontCharWidth = 0.55
	// FontSize is the label font size in pixels.
	FontSize = 13.0
	// labelPadding is the horizontal space kept free inside a node box.
	labelPadding = 20.0
)

// TruncateLabel shortens label so it fits in a box of width w at FontSize,
// replacing the tail with "..". Truncation is rune-aware.
func TruncateLabel(label string, w float64) string {
	maxChars := int((w - labelPadding) / (FontSize * fontCharWidth))
	if maxChars < 3 {
		maxChars = 3
	}
	if utf8.RuneCountInString(label) <= maxChars {
		return label
	}
	runes := []rune(label)
	return string(runes[:maxChars-2]) + ".."
}
