package conversation

import "strings"

// Segment is one slice of a message: either prose or the body of a
// fenced code block.
type Segment struct {
	// Code reports whether the segment came from inside a ``` fence.
	Code bool
	// Text is the segment content. For code segments the fence's leading
	// language tag line has already been stripped.
	Text string
}

// ParseMessage splits a message on triple-backtick fences into
// alternating prose and code segments. Fence-delimited content sits at
// odd split positions; a leading language tag line on a multi-line code
// block is discarded.
func ParseMessage(message string) []Segment {
	parts := strings.Split(message, "```")
	segments := make([]Segment, 0, len(parts))

	for i, part := range parts {
		isCode := i%2 != 0
		if !isCode {
			segments = append(segments, Segment{Text: part})
			continue
		}

		if _, code, found := strings.Cut(part, "\n"); found {
			segments = append(segments, Segment{Code: true, Text: strings.Trim(code, "\n")})
		} else {
			segments = append(segments, Segment{Code: true, Text: strings.Trim(part, "\n")})
		}
	}

	return segments
}
