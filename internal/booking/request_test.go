package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRequest() Request {
	return Request{
		Username:      "alice",
		Password:      "s3cret",
		RoomID:        29,
		DurationMin:   60,
		StartTime:     "14:00",
		PreferredName: "A.B.",
	}
}

func TestLoginBody(t *testing.T) {
	assert.Equal(t, "username=alice&password=s3cret&ajax_indicator=TRUE", sampleRequest().LoginBody())

	r := sampleRequest()
	r.Password = "p&ss=word"
	assert.Equal(t, "username=alice&password=p%26ss%3Dword&ajax_indicator=TRUE", r.LoginBody())
}

func TestReserveBody(t *testing.T) {
	assert.Equal(t,
		"altusername=&emailconfirmation=&capacity=4&fullcapacity=8&roomid=29&duration=60&starttime=14%3A00&preferredname=A.B.",
		sampleRequest().ReserveBody())
}

func TestReserveBodyRawFields(t *testing.T) {
	r := sampleRequest()
	r.RawFields = "&roomid=30&duration=120&starttime=09:00&preferredname=X"
	assert.Equal(t,
		"altusername=&emailconfirmation=&capacity=4&fullcapacity=8&roomid=30&duration=120&starttime=09:00&preferredname=X",
		r.ReserveBody())
}

func TestRequestValidate(t *testing.T) {
	require.NoError(t, sampleRequest().Validate())

	r := sampleRequest()
	r.Username = ""
	assert.Error(t, r.Validate())

	r = sampleRequest()
	r.RoomID = 0
	assert.Error(t, r.Validate())

	r.RawFields = "roomid=29"
	assert.NoError(t, r.Validate(), "raw fields replace the structured ones")

	r = sampleRequest()
	r.StartTime = " "
	assert.Error(t, r.Validate())
}

func TestRequestStringHidesPassword(t *testing.T) {
	assert.NotContains(t, sampleRequest().String(), "s3cret")
}
