package layout

import "strings"

const tabStop = 4

// SplitLines turns raw display text into print-ready lines: split on
// newlines, expand tabs, keep blank lines, greedy-wrap the rest to the
// column budget.
func SplitLines(text string, columns int) []string {
	if columns < 1 {
		columns = 1
	}
	var lines []string
	for _, raw := range strings.Split(text, "\n") {
		expanded := expandTabs(raw)
		if strings.TrimSpace(expanded) == "" {
			lines = append(lines, "")
			continue
		}
		lines = append(lines, wrapLine(expanded, columns)...)
	}
	return lines
}

// expandTabs replaces tabs with spaces up to the next 4-column stop.
func expandTabs(line string) string {
	var b strings.Builder
	col := 0
	for _, r := range line {
		if r == '\t' {
			n := tabStop - col%tabStop
			b.WriteString(strings.Repeat(" ", n))
			col += n
			continue
		}
		b.WriteRune(r)
		col++
	}
	return b.String()
}

// wrapLine word-wraps one non-blank line to the column count. Leading
// indentation survives on the first output line; a word longer than a
// whole line is hard-broken.
func wrapLine(line string, columns int) []string {
	runes := []rune(line)
	indent := 0
	for indent < len(runes) && runes[indent] == ' ' {
		indent++
	}
	words := strings.Fields(string(runes[indent:]))

	var out []string
	cur := string(runes[:indent])
	hasWord := false
	for _, word := range words {
		for {
			avail := columns - len([]rune(cur))
			if hasWord {
				avail-- // separating space
			}
			if len([]rune(word)) <= avail {
				if hasWord {
					cur += " "
				}
				cur += word
				hasWord = true
				break
			}
			if !hasWord && avail >= 1 {
				w := []rune(word)
				cur += string(w[:avail])
				word = string(w[avail:])
			}
			out = append(out, cur)
			cur, hasWord = "", false
		}
	}
	out = append(out, cur)
	return out
}
