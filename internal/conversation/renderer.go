package conversation

import (
	"encoding/base64"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"

	"github.com/parleyhq/parley/pkg/models"
)

// Renderer builds a styled HTML transcript from conversation messages.
// It is not safe for concurrent use; callers serialize render calls.
type Renderer struct {
	outputDir string
	darkMode  func() bool

	buf       strings.Builder
	citations map[string]string
}

// NewRenderer creates a Renderer that materializes file and image
// artifacts under outputDir. darkMode is sampled once per full render to
// pick the assistant text color; pass DetectDarkMode for the host
// terminal's background, or a constant for tests.
func NewRenderer(outputDir string, darkMode func() bool) *Renderer {
	if darkMode == nil {
		darkMode = func() bool { return false }
	}
	return &Renderer{
		outputDir: outputDir,
		darkMode:  darkMode,
		citations: make(map[string]string),
	}
}

// HTML returns the transcript rendered so far.
func (r *Renderer) HTML() string {
	return r.buf.String()
}

// Reset clears the transcript and the citation map.
func (r *Renderer) Reset() {
	r.buf.Reset()
	r.citations = make(map[string]string)
}

// AppendMessages renders a full message list. Callers pass messages
// newest-first; the transcript reads top to bottom oldest-first. The
// citation map is rebuilt from scratch on every call. File messages are
// written to the output directory without being displayed; image
// messages are written and embedded inline.
func (r *Renderer) AppendMessages(messages []models.Message) error {
	r.citations = make(map[string]string)
	dark := r.darkMode()

	for i := len(messages) - 1; i >= 0; i-- {
		msg := messages[i]
		switch msg.Type {
		case models.MessageTypeText:
			r.AppendMessage(msg.Sender, msg.Content, textColor(msg.Role, dark))
		case models.MessageTypeFile:
			if _, err := r.materialize(msg.Filename, msg.Data); err != nil {
				return err
			}
		case models.MessageTypeImage:
			path, err := r.materialize(msg.Filename, msg.Data)
			if err != nil {
				return err
			}
			if err := r.AppendImage(path); err != nil {
				return err
			}
		}
	}
	return nil
}

// TextColor samples the theme and returns the display color for a message
// from role. Incremental callers use it to match what a full render would
// pick at the same moment.
func (r *Renderer) TextColor(role models.Role) string {
	return textColor(role, r.darkMode())
}

// textColor picks the display color for a message. User-authored text is
// always blue; assistant text depends on the theme.
func textColor(role models.Role, dark bool) string {
	if role != models.RoleAssistant {
		return "blue"
	}
	if dark {
		return "#D3D3D3"
	}
	return "black"
}

// AppendMessage renders one text message: the sender label in bold, then
// each fence-split segment as a styled block. Code segments are escaped
// verbatim; prose segments get citation and URL linkification.
func (r *Renderer) AppendMessage(sender, message, color string) {
	fmt.Fprintf(&r.buf, "<b style='color:%s;'>%s:</b> ", color, html.EscapeString(sender))

	for _, seg := range ParseMessage(message) {
		if seg.Code {
			escaped := strings.ReplaceAll(html.EscapeString(seg.Text), "\n", "<br>")
			fmt.Fprintf(&r.buf, "<pre class='code-block'>%s</pre>", escaped)
		} else {
			text := r.FormatFileLinks(seg.Text)
			text = r.FormatURLs(text)
			fmt.Fprintf(&r.buf, "<span class='text-block' style='white-space: pre-wrap;'>%s</span>", text)
		}
		r.buf.WriteString("\n")
	}
	r.buf.WriteString("\n")
}

// AppendMessageChunk renders one streamed chunk. The sender label is
// written only for the first chunk of a message; chunks are escaped as
// plain text with no fence detection and no separators between them.
func (r *Renderer) AppendMessageChunk(sender, chunk string, isStart bool) {
	if isStart {
		fmt.Fprintf(&r.buf, "<b style='color:black;'>%s:</b> ", html.EscapeString(sender))
	}
	fmt.Fprintf(&r.buf, "<span class='text-block' style='white-space: pre-wrap;'>%s</span>", html.EscapeString(chunk))
}

// AppendImage embeds the image at path as base64-encoded inline markup.
// Raw bytes are encoded whole; only the display width is constrained.
func (r *Renderer) AppendImage(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read image %s: %w", path, err)
	}
	encoded := base64.StdEncoding.EncodeToString(data)
	fmt.Fprintf(&r.buf, "<img src='data:image/png;base64,%s' alt='Image' style='width:100px; height:auto;'>\n\n", encoded)
	return nil
}

// materialize writes a received artifact into the output directory,
// creating it if absent, and returns the artifact's local path.
func (r *Renderer) materialize(filename string, data []byte) (string, error) {
	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(r.outputDir, filepath.Base(filename))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write artifact %s: %w", filename, err)
	}
	return path, nil
}
