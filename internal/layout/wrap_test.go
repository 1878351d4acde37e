package layout

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandTabs(t *testing.T) {
	assert.Equal(t, "    ", expandTabs("\t"))
	assert.Equal(t, "    Cheese", expandTabs("\tCheese"))
	// A tab mid-line pads to the next 4-column stop.
	assert.Equal(t, "ab  cd", expandTabs("ab\tcd"))
	assert.Equal(t, "abcd    ef", expandTabs("abcd\tef"))
}

func TestSplitLinesShortLineIsUntouched(t *testing.T) {
	assert.Equal(t, []string{"hello world"}, SplitLines("hello world", 32))
}

func TestSplitLinesPreservesBlankLines(t *testing.T) {
	lines := SplitLines("a\n\nb", 32)
	assert.Equal(t, []string{"a", "", "b"}, lines)

	// Whitespace-only lines become blank lines too.
	lines = SplitLines("a\n   \nb", 32)
	assert.Equal(t, []string{"a", "", "b"}, lines)
}

func TestSplitLinesGreedyWrap(t *testing.T) {
	assert.Equal(t, []string{"aa bb", "cc"}, SplitLines("aa bb cc", 5))
}

func TestSplitLinesHardBreaksLongWords(t *testing.T) {
	assert.Equal(t, []string{"abcde", "fghij"}, SplitLines("abcdefghij", 5))
	assert.Equal(t, []string{"x", "abcde", "fghij", "y"}, SplitLines("x abcdefghij y", 5))
}

func TestSplitLinesReceiptScenario(t *testing.T) {
	text := "Order #1\nSmashburger\n\nToppings:\n\tCheese\n\tBacon"
	lines := SplitLines(text, 32)

	assert.GreaterOrEqual(t, len(lines), 5)
	assert.Contains(t, lines, "")
	assert.Contains(t, lines, "    Cheese")
	assert.Contains(t, lines, "    Bacon")
	assert.Equal(t, "Order #1", lines[0])
}

func TestSplitLinesIndentCountsTowardColumns(t *testing.T) {
	// 4 columns of indent leave only one column for text at width 5.
	lines := SplitLines("\tabc", 5)
	assert.Equal(t, "    a", lines[0])
	assert.Equal(t, []string{"    a", "bc"}, lines)
}

func TestSplitLinesMinimumOneColumn(t *testing.T) {
	lines := SplitLines("ab", 0)
	for _, line := range lines {
		assert.LessOrEqual(t, len([]rune(line)), 1)
	}
	assert.Equal(t, "ab", strings.Join(lines, ""))
}
