package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyLogin(t *testing.T) {
	tests := []struct {
		name string
		body string
		ok   bool
	}{
		{"authenticated", "<response><authenticated>true</authenticated></response>", true},
		{"marker only", "<authenticated>true</authenticated>", true},
		{"false", "<response><authenticated>false</authenticated></response>", false},
		{"empty", "", false},
		{"success text without marker", "Your reservation has been made!", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, ok := ClassifyLogin(tt.body)
			assert.Equal(t, tt.ok, ok)
			if !ok {
				assert.Equal(t, KindAuthFailed, out.Kind)
				assert.True(t, out.Fatal())
			}
		})
	}
}

func TestClassifyReserve(t *testing.T) {
	tests := []struct {
		name string
		body string
		want Kind
	}{
		{"too far", "<div>" + tooFarMarker + "</div>", KindTooFarInAdvance},
		{"daily cap", "<div>" + dailyCapMarker + "</div>", KindDailyCap},
		{"taken", "<div>" + takenMarker + "</div>", KindSlotTaken},
		{"made", "<p>Your reservation has been made!</p>", KindSuccess},
		{"unknown", "<p>Server maintenance</p>", KindUnrecognized},
		{"empty", "", KindUnrecognized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyReserve(tt.body).Kind)
		})
	}
}

func TestClassifyReservePriority(t *testing.T) {
	// dailyCapMarker already contains takenMarker; add a standalone copy too.
	body := takenMarker + "\n" + dailyCapMarker
	assert.Equal(t, KindDailyCap, ClassifyReserve(body).Kind)

	body = tooFarMarker + dailyCapMarker + madeMarker
	assert.Equal(t, KindTooFarInAdvance, ClassifyReserve(body).Kind)

	body = takenMarker + madeMarker
	assert.Equal(t, KindSlotTaken, ClassifyReserve(body).Kind)
}

func TestClassifyReserveUnrecognizedKeepsBody(t *testing.T) {
	body := "<html><body>Session expired, please log in again</body></html>"
	out := ClassifyReserve(body)
	assert.Equal(t, body, out.Reason)
	assert.Equal(t, body, out.Message())
	assert.True(t, out.Fatal())
}

func TestOutcomeClasses(t *testing.T) {
	assert.Equal(t, ClassSuccess, KindSuccess.Class())
	assert.Equal(t, ClassRetryable, KindConnection.Class())
	assert.Equal(t, ClassRetryable, KindTooFarInAdvance.Class())
	for _, k := range []Kind{KindAuthFailed, KindDailyCap, KindSlotTaken, KindUnrecognized} {
		assert.Equal(t, ClassFatal, k.Class(), k.String())
	}
	assert.Equal(t, "unknown", Kind(99).String())
}

func TestOutcomeMessages(t *testing.T) {
	assert.Equal(t, "Login request failed (connection problem)", ConnectionFailed(nil).Message())
	assert.Equal(t, "Room is already reserved for this time.", ClassifyReserve(takenMarker).Message())
	assert.Equal(t, "You already booked 120 mins for that day.", ClassifyReserve(dailyCapMarker).Message())
	assert.Equal(t, "daily 120-minute cap reached", ClassifyReserve(dailyCapMarker).Reason)
}
