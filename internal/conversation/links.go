package conversation

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	// urlPattern matches bare URLs. Markup brackets terminate the token so
	// a URL adjacent to an existing tag is not swallowed into it.
	urlPattern = regexp.MustCompile(`https?://[^\s<>"]+`)

	// citationMarkerPattern matches inline citation markers: [label]([N]).
	citationMarkerPattern = regexp.MustCompile(`\[([^\]]+)\]\(\s*\[(\d+)\]\s*\)`)

	// citationDefPattern matches citation definition lines: [N] filename.
	// Anchored to whole lines so a marker's own ([N]) tail never reads as
	// a definition.
	citationDefPattern = regexp.MustCompile(`(?m)^\s*\[(\d+)\]\s+(.+?)\s*$`)

	// pngDefPattern matches the raw definition lines removed after their
	// markers have been resolved.
	pngDefPattern = regexp.MustCompile(`\[\d+\]\s*[^ ]+\.png`)
)

// FormatURLs wraps bare http(s) URLs in anchor tags. Text already inside
// an anchor is passed through untouched, so the transformation is
// idempotent across repeated renders.
func (r *Renderer) FormatURLs(text string) string {
	var b strings.Builder
	for len(text) > 0 {
		anchor := strings.Index(text, "<a ")
		loc := urlPattern.FindStringIndex(text)

		if loc == nil && anchor < 0 {
			b.WriteString(text)
			break
		}

		// An anchor opening before the next bare URL means that URL is
		// already linkified; copy the whole anchor through verbatim.
		if anchor >= 0 && (loc == nil || anchor < loc[0]) {
			close := strings.Index(text[anchor:], "</a>")
			if close < 0 {
				b.WriteString(text)
				break
			}
			end := anchor + close + len("</a>")
			b.WriteString(text[:end])
			text = text[end:]
			continue
		}

		url := text[loc[0]:loc[1]]
		b.WriteString(text[:loc[0]])
		fmt.Fprintf(&b, `<a href="%s" style="color:blue;">%s</a>`, url, url)
		text = text[loc[1]:]
	}
	return b.String()
}

// FormatFileLinks resolves inline citation markers of the form
// [label]([N]) against definition lines of the form [N] filename found in
// the same text. Each resolved marker becomes a clickable link to the
// file in the output directory plus a visible path, and raw .png
// definition lines are removed afterwards. Markers whose index has no
// definition are left as-is.
func (r *Renderer) FormatFileLinks(text string) string {
	definitions := make(map[string]string)
	for _, m := range citationDefPattern.FindAllStringSubmatch(text, -1) {
		definitions[m[1]] = m[2]
	}

	updated := citationMarkerPattern.ReplaceAllStringFunc(text, func(marker string) string {
		m := citationMarkerPattern.FindStringSubmatch(marker)
		label, index := m[1], m[2]

		filename, ok := definitions[index]
		if !ok {
			return marker
		}
		localPath := filepath.Join(r.outputDir, filename)

		if _, taken := r.citations[label]; taken {
			label = fmt.Sprintf("%s %d", label, len(r.citations)+1)
		}
		r.citations[label] = localPath

		return fmt.Sprintf(`<div style="display: inline-block;"><a href="%s" style="color:green; text-decoration: underline;" download="%s">%s</a></div>`+
			`<div style="display: inline-block; color:gray;">%s</div>`,
			localPath, filename, label, localPath)
	})

	return pngDefPattern.ReplaceAllString(updated, "")
}

// Citations returns the label-to-path map built since the last full
// render. Labels repeated across distinct indices carry a numeric suffix.
func (r *Renderer) Citations() map[string]string {
	out := make(map[string]string, len(r.citations))
	for label, path := range r.citations {
		out[label] = path
	}
	return out
}
