package conversation

import (
	"path/filepath"
	"strings"
	"testing"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	return NewRenderer("output", func() bool { return false })
}

func TestFormatURLsWrapsBareURLs(t *testing.T) {
	r := newTestRenderer(t)

	got := r.FormatURLs("see https://example.com/docs for details")
	want := `see <a href="https://example.com/docs" style="color:blue;">https://example.com/docs</a> for details`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFormatURLsIdempotent(t *testing.T) {
	r := newTestRenderer(t)

	once := r.FormatURLs("visit https://example.com and http://other.net today")
	twice := r.FormatURLs(once)
	if once != twice {
		t.Errorf("second pass changed linkified text:\nonce:  %q\ntwice: %q", once, twice)
	}
	if strings.Count(twice, "<a href=") != 2 {
		t.Errorf("expected 2 anchors, got %d in %q", strings.Count(twice, "<a href="), twice)
	}
}

func TestFormatURLsLeavesPlainTextAlone(t *testing.T) {
	r := newTestRenderer(t)

	text := "no links here, just prose with a / slash"
	if got := r.FormatURLs(text); got != text {
		t.Errorf("non-URL text altered: %q", got)
	}
}

func TestFormatFileLinksResolvesMarker(t *testing.T) {
	r := newTestRenderer(t)

	text := "Here is the result [See chart]([0])\n[0] chart.png"
	got := r.FormatFileLinks(text)

	wantPath := filepath.Join("output", "chart.png")
	if !strings.Contains(got, `href="`+wantPath+`"`) {
		t.Errorf("expected link to %s, got %q", wantPath, got)
	}
	if strings.Contains(got, "[0] chart.png") {
		t.Errorf("raw definition line should be removed, got %q", got)
	}
	if !strings.Contains(got, ">See chart</a>") {
		t.Errorf("expected visible label, got %q", got)
	}

	citations := r.Citations()
	if citations["See chart"] != wantPath {
		t.Errorf("citation map = %v, want See chart -> %s", citations, wantPath)
	}
}

func TestFormatFileLinksUnresolvedMarkerLeftIntact(t *testing.T) {
	r := newTestRenderer(t)

	text := "Result: [See chart]([7]) with no definition"
	got := r.FormatFileLinks(text)
	if got != text {
		t.Errorf("unresolved marker should pass through unchanged, got %q", got)
	}
	if len(r.Citations()) != 0 {
		t.Errorf("no citations expected, got %v", r.Citations())
	}
}

func TestFormatFileLinksDuplicateLabelSuffixed(t *testing.T) {
	r := newTestRenderer(t)

	text := "[Download]([0]) and [Download]([1])\n[0] first.png\n[1] second.png"
	r.FormatFileLinks(text)

	citations := r.Citations()
	if len(citations) != 2 {
		t.Fatalf("expected 2 distinct citation keys, got %v", citations)
	}
	if citations["Download"] != filepath.Join("output", "first.png") {
		t.Errorf("first label = %v", citations)
	}
	if citations["Download 2"] != filepath.Join("output", "second.png") {
		t.Errorf("expected suffixed second label, got %v", citations)
	}
}
