package booking

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Request is everything one booking run needs. It is built once by the
// caller and never mutated afterwards.
type Request struct {
	Username      string
	Password      string
	RoomID        int
	DurationMin   int
	StartTime     string // e.g. "14:00"
	PreferredName string

	// RawFields, when set, replaces the structured room/duration/start/name
	// fields of the reserve body. It is appended verbatim after the fixed
	// prefix, e.g. "roomid=29&duration=60&starttime=14:00&preferredname=A.B.".
	RawFields string
}

func (r Request) Validate() error {
	if r.Username == "" {
		return fmt.Errorf("username required")
	}
	if r.Password == "" {
		return fmt.Errorf("password required")
	}
	if r.RawFields != "" {
		return nil
	}
	if r.RoomID < 1 {
		return fmt.Errorf("room id required")
	}
	if r.DurationMin < 1 {
		return fmt.Errorf("duration must be >= 1 minute")
	}
	if strings.TrimSpace(r.StartTime) == "" {
		return fmt.Errorf("start time required")
	}
	if strings.TrimSpace(r.PreferredName) == "" {
		return fmt.Errorf("preferred name required")
	}
	return nil
}

// String omits the password so requests can be logged.
func (r Request) String() string {
	if r.RawFields != "" {
		return fmt.Sprintf("user=%s fields=%q", r.Username, r.RawFields)
	}
	return fmt.Sprintf("user=%s room=%d duration=%dm start=%s name=%q",
		r.Username, r.RoomID, r.DurationMin, r.StartTime, r.PreferredName)
}

// reservePrefix is sent on every reserve call regardless of the request.
const reservePrefix = "altusername=&emailconfirmation=&capacity=4&fullcapacity=8"

// LoginBody returns the authenticate form body.
func (r Request) LoginBody() string {
	return encodeOrdered([][2]string{
		{"username", r.Username},
		{"password", r.Password},
		{"ajax_indicator", "TRUE"},
	})
}

// ReserveBody returns the reserve form body.
func (r Request) ReserveBody() string {
	if r.RawFields != "" {
		return reservePrefix + "&" + strings.TrimPrefix(r.RawFields, "&")
	}
	return reservePrefix + "&" + encodeOrdered([][2]string{
		{"roomid", strconv.Itoa(r.RoomID)},
		{"duration", strconv.Itoa(r.DurationMin)},
		{"starttime", r.StartTime},
		{"preferredname", r.PreferredName},
	})
}

// encodeOrdered is url.Values.Encode without the key sort; the service sees
// fields in the order the booking form posts them.
func encodeOrdered(fields [][2]string) string {
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(f[0]))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(f[1]))
	}
	return b.String()
}
