// Package parse incrementally extracts structured dialogue turns from
// a growing model-output buffer.
package parse

// Span marks one syntactically complete top-level object in a buffer.
type Span struct {
	// Start is the byte offset of the opening brace.
	Start int
	// End is the byte offset one past the closing brace.
	End int
}

// ScanObjects finds every syntactically complete brace-delimited object
// in buf. It counts brace depth and skips string-literal contents,
// including escaped quotes, since a message field may itself contain
// braces or quote characters. Objects nested inside another object are
// not reported separately; array brackets around objects are ignored.
func ScanObjects(buf string) []Span {
	var spans []Span

	depth := 0
	start := -1
	inString := false
	escaped := false

	for i := 0; i < len(buf); i++ {
		ch := buf[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			// Quotes outside any object are stray text from the model;
			// only track strings while inside an object so an unpaired
			// quote in prose cannot swallow the rest of the buffer.
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue // stray closer, ignore
			}
			depth--
			if depth == 0 {
				spans = append(spans, Span{Start: start, End: i + 1})
				start = -1
			}
		}
	}

	return spans
}
