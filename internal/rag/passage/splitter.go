package passage

import (
	"strings"
	"unicode/utf8"
)

// Separators ordered from "best" to "worst" for semantic meaning.
var separators = []string{"\n\n", "\n", ". ", "? ", "! ", "; ", ", ", " "}

// Split segments text into passages of at most limit bytes. Pieces are cut on
// the best separator present, recursing into oversized pieces with the next
// one, then packed greedily. Each new passage re-opens with trailing pieces of
// the previous one, up to overlap bytes, when they still fit under limit.
func Split(text string, limit int, overlap int) []string {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
	if text == "" {
		return nil
	}
	if limit < 1 {
		limit = 1
	}

	pieces := splitPieces(text, limit, separators)

	var passages []string
	var current []string
	size := 0

	flush := func() {
		if p := strings.TrimSpace(strings.Join(current, "")); p != "" {
			passages = append(passages, p)
		}
	}

	for _, piece := range pieces {
		if size+len(piece) > limit && size > 0 {
			flush()
			current = carryOver(current, overlap, limit-len(piece))
			size = totalLen(current)
		}
		current = append(current, piece)
		size += len(piece)
	}
	flush()
	return passages
}

// carryOver keeps the longest suffix of prev whose length fits both budgets.
func carryOver(prev []string, overlap int, room int) []string {
	budget := min(overlap, room)
	if budget <= 0 {
		return nil
	}
	used := 0
	start := len(prev)
	for i := len(prev) - 1; i >= 0; i-- {
		if used+len(prev[i]) > budget {
			break
		}
		used += len(prev[i])
		start = i
	}
	if start == len(prev) {
		return nil
	}
	carried := make([]string, len(prev)-start)
	copy(carried, prev[start:])
	return carried
}

func splitPieces(text string, limit int, seps []string) []string {
	if len(text) <= limit {
		return []string{text}
	}

	for i, sep := range seps {
		if !strings.Contains(text, sep) {
			continue
		}
		var out []string
		for _, part := range strings.SplitAfter(text, sep) {
			if part == "" {
				continue
			}
			if len(part) > limit {
				out = append(out, splitPieces(part, limit, seps[i+1:])...)
				continue
			}
			out = append(out, part)
		}
		return out
	}

	// Hard cut if no separator found (rare)
	return hardCut(text, limit)
}

func hardCut(text string, limit int) []string {
	var out []string
	for len(text) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		if cut == 0 {
			_, cut = utf8.DecodeRuneInString(text)
		}
		out = append(out, text[:cut])
		text = text[cut:]
	}
	if text != "" {
		out = append(out, text)
	}
	return out
}

func totalLen(parts []string) int {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	return n
}
