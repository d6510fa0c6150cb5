package booking

import "strings"

// Class groups outcome kinds by what the loop does next.
type Class int

const (
	ClassSuccess Class = iota
	ClassRetryable
	ClassFatal
)

func (c Class) String() string {
	switch c {
	case ClassSuccess:
		return "success"
	case ClassRetryable:
		return "retryable"
	default:
		return "fatal"
	}
}

type Kind int

const (
	KindSuccess Kind = iota
	KindConnection
	KindTooFarInAdvance
	KindAuthFailed
	KindDailyCap
	KindSlotTaken
	KindUnrecognized
)

var kindNames = map[Kind]string{
	KindSuccess:         "success",
	KindConnection:      "connection",
	KindTooFarInAdvance: "too_far_in_advance",
	KindAuthFailed:      "auth_failed",
	KindDailyCap:        "daily_cap",
	KindSlotTaken:       "slot_taken",
	KindUnrecognized:    "unrecognized",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

func (k Kind) Class() Class {
	switch k {
	case KindSuccess:
		return ClassSuccess
	case KindConnection, KindTooFarInAdvance:
		return ClassRetryable
	default:
		return ClassFatal
	}
}

// Outcome is the classified result of one attempt.
type Outcome struct {
	Kind Kind
	// Reason is a short fixed string for known kinds and the raw response
	// body for KindUnrecognized.
	Reason string
	// Err is the transport error behind a KindConnection outcome.
	Err error
}

func (o Outcome) Class() Class { return o.Kind.Class() }
func (o Outcome) Success() bool { return o.Kind == KindSuccess }
func (o Outcome) Retryable() bool { return o.Class() == ClassRetryable }
func (o Outcome) Fatal() bool { return o.Class() == ClassFatal }
func (o Outcome) Terminal() bool { return !o.Retryable() }
func (o Outcome) String() string { return o.Kind.String() + ": " + o.Reason }

// Message is the user-facing log line for the outcome.
func (o Outcome) Message() string {
	switch o.Kind {
	case KindSuccess:
		return "Room booked successfully!"
	case KindConnection:
		return "Login request failed (connection problem)"
	case KindTooFarInAdvance:
		return "Can't make reservation more than 2 weeks in advance."
	case KindAuthFailed:
		return "Authentication failed."
	case KindDailyCap:
		return "You already booked 120 mins for that day."
	case KindSlotTaken:
		return "Room is already reserved for this time."
	default:
		return o.Reason
	}
}

func Succeeded() Outcome { return Outcome{Kind: KindSuccess, Reason: "reservation made"} }

func ConnectionFailed(err error) Outcome {
	return Outcome{Kind: KindConnection, Reason: "connection", Err: err}
}

const (
	authenticatedMarker = "<authenticated>true</authenticated>"

	tooFarMarker   = "<strong>Error</strong><br/>You may not make reservations more than 2 weeks in advance.<br/>"
	dailyCapMarker = "<strong>Error</strong><br/>Another room has been reserved during this time.<br/>You may only make 120 minutes worth of reservations per day.<br/>"
	takenMarker    = "<strong>Error</strong><br/>Another room has been reserved during this time.<br/>"
	madeMarker     = "Your reservation has been made!"
)

// Authenticated reports whether an authenticate response body signals a
// logged-in session.
func Authenticated(body string) bool {
	return strings.Contains(body, authenticatedMarker)
}

// reserveRules are evaluated in order; dailyCapMarker contains takenMarker
// so it has to be checked first.
var reserveRules = []struct {
	marker string
	out    Outcome
}{
	{tooFarMarker, Outcome{Kind: KindTooFarInAdvance, Reason: "too far in advance"}},
	{dailyCapMarker, Outcome{Kind: KindDailyCap, Reason: "daily 120-minute cap reached"}},
	{takenMarker, Outcome{Kind: KindSlotTaken, Reason: "slot already taken"}},
	{madeMarker, Succeeded()},
}

// ClassifyLogin maps an authenticate response body to an outcome. ok is true
// when the attempt should proceed to the reserve call.
func ClassifyLogin(body string) (Outcome, bool) {
	if Authenticated(body) {
		return Outcome{}, true
	}
	return Outcome{Kind: KindAuthFailed, Reason: "authentication failed"}, false
}

// ClassifyReserve maps a reserve response body to an outcome.
func ClassifyReserve(body string) Outcome {
	for _, r := range reserveRules {
		if strings.Contains(body, r.marker) {
			return r.out
		}
	}
	return Outcome{Kind: KindUnrecognized, Reason: body}
}
