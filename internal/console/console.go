// Package console renders booker status lines for a terminal.
package console

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/fatih/color"

	"github.com/example/room-booker/internal/booking"
	"github.com/example/room-booker/internal/scheduler"
)

// SummaryLimit is the longest summary Summarize returns.
const SummaryLimit = 300

var (
	okColor    = color.New(color.FgGreen, color.Bold)
	retryColor = color.New(color.FgYellow)
	fatalColor = color.New(color.FgRed, color.Bold)
	infoColor  = color.New(color.FgCyan)
	timeColor  = color.New(color.Faint)
)

// Sink writes one line per status. It is safe for concurrent use.
type Sink struct {
	mu sync.Mutex
	w  io.Writer
}

func NewSink(w io.Writer) *Sink { return &Sink{w: w} }

// Handle has the signature scheduler.Booker.OnStatus expects.
func (s *Sink) Handle(st scheduler.Status) {
	line := Line(st)
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "%s %s\n", timeColor.Sprint(st.At.Format("15:04:05")), colorFor(st).Sprint(line))
}

// Line is the uncolored text for a status, without the timestamp.
func Line(st scheduler.Status) string {
	if st.Outcome == nil {
		return st.Message
	}
	msg := st.Message
	if st.Outcome.Kind == booking.KindUnrecognized {
		msg = "Unrecognized response: " + Summarize(st.Outcome.Reason)
	}
	return fmt.Sprintf("[#%d] %s", st.Attempt, msg)
}

func colorFor(st scheduler.Status) *color.Color {
	if st.Outcome == nil {
		if st.State == scheduler.StateSucceeded {
			return okColor
		}
		return infoColor
	}
	switch st.Outcome.Class() {
	case booking.ClassSuccess:
		return okColor
	case booking.ClassRetryable:
		return retryColor
	default:
		return fatalColor
	}
}

// Summarize reduces an HTML response body to its visible text, collapsed
// and cut to SummaryLimit runes.
func Summarize(body string) string {
	text := body
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(body)); err == nil {
		doc.Find("script,style,noscript").Remove()
		text = doc.Text()
	}
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return "(empty response)"
	}
	r := []rune(text)
	if len(r) > SummaryLimit {
		return string(r[:SummaryLimit]) + "..."
	}
	return text
}
