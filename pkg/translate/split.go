package translate

import (
	"regexp"
	"strings"
)

const DefaultChunkChars = 900

var sentenceBoundary = regexp.MustCompile(`[.!?]\s+`)

// SplitText breaks text into chunks of at most maxChars, cutting at line
// breaks first and at sentence ends inside overlong paragraphs. A single
// sentence longer than maxChars is kept whole.
func SplitText(text string, maxChars int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if maxChars <= 0 || len(text) <= maxChars {
		return []string{text}
	}

	var (
		chunks  []string
		current []string
		size    int
	)
	flush := func() {
		if joined := strings.TrimSpace(strings.Join(current, "\n")); joined != "" {
			chunks = append(chunks, joined)
		}
		current = current[:0]
		size = 0
	}
	add := func(piece string) {
		if size > 0 && size+len(piece)+1 > maxChars {
			flush()
		}
		current = append(current, piece)
		size += len(piece) + 1
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) <= maxChars {
			add(line)
			continue
		}

		var buf []string
		bufLen := 0
		for _, s := range splitSentences(line) {
			if bufLen > 0 && bufLen+len(s)+1 > maxChars {
				add(strings.Join(buf, " "))
				buf, bufLen = nil, 0
			}
			buf = append(buf, s)
			bufLen += len(s) + 1
		}
		if len(buf) > 0 {
			add(strings.Join(buf, " "))
		}
	}
	flush()
	return chunks
}

func splitSentences(p string) []string {
	var out []string
	last := 0
	for _, loc := range sentenceBoundary.FindAllStringIndex(p, -1) {
		// keep the punctuation with its sentence
		out = append(out, strings.TrimSpace(p[last:loc[0]+1]))
		last = loc[1]
	}
	if rest := strings.TrimSpace(p[last:]); rest != "" {
		out = append(out, rest)
	}
	return out
}
