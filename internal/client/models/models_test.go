package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_IsAttending(t *testing.T) {
	e := &Event{Attendees: []UserRef{{ID: "u1"}, {ID: "u2"}}}

	assert.True(t, e.IsAttending("u2"))
	assert.False(t, e.IsAttending("u3"))
	assert.False(t, (&Event{}).IsAttending("u1"))
}

func TestEventInput_OmitsUnsetFields(t *testing.T) {
	title := "Go meetup"
	places := 0

	b, err := json.Marshal(EventInput{Title: &title, AvailablePlaces: &places})
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Go meetup","available_places":0}`, string(b))
}

func TestEvent_DecodesServerPayload(t *testing.T) {
	payload := `{
		"id":"e1","title":"T","description":"D",
		"startDate":"2030-01-01T10:00:00Z","endDate":"2030-01-01T12:00:00Z",
		"location":"Riga","available_places":3,"price":9.5,"image_url":null,
		"creator":{"id":"u1","email":"a@example.com","name":"Alice"},
		"attendees":[{"id":"u2","email":"b@example.com","name":"Bob"}],
		"createdAt":"2029-12-01T00:00:00Z","updatedAt":"2029-12-01T00:00:00Z"
	}`

	var e Event
	require.NoError(t, json.Unmarshal([]byte(payload), &e))
	assert.Equal(t, "Riga", e.Location)
	assert.Equal(t, 3, e.AvailablePlaces)
	assert.Nil(t, e.ImageURL)
	assert.Equal(t, "Alice", e.Creator.Name)
	assert.True(t, e.IsAttending("u2"))
}
