package models

import (
	"encoding/json"
	"math"
	"time"
)

// DateLayout is the wire format of event timestamps. Values are rendered in UTC.
const DateLayout = "2006-01-02T15:04:05Z"

type Event struct {
	ID              string
	Title           string
	Description     string
	Location        string
	AvailablePlaces int
	Price           float64
	ImageURL        *string
	StartDate       time.Time
	EndDate         time.Time
	Creator         UserRef
	Attendees       []UserRef
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HasAvailablePlaces reports whether another attendee fits.
func (e *Event) HasAvailablePlaces() bool {
	return e.AvailablePlaces > len(e.Attendees)
}

func (e *Event) IsAttending(userID string) bool {
	for _, a := range e.Attendees {
		if a.ID == userID {
			return true
		}
	}
	return false
}

type eventJSON struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	StartDate       string    `json:"startDate"`
	EndDate         string    `json:"endDate"`
	Location        string    `json:"location"`
	AvailablePlaces int       `json:"available_places"`
	Price           float64   `json:"price"`
	ImageURL        *string   `json:"image_url"`
	Creator         UserRef   `json:"creator"`
	Attendees       []UserRef `json:"attendees"`
	CreatedAt       string    `json:"createdAt"`
	UpdatedAt       string    `json:"updatedAt"`
}

func (e Event) MarshalJSON() ([]byte, error) {
	attendees := e.Attendees
	if attendees == nil {
		attendees = []UserRef{}
	}
	return json.Marshal(eventJSON{
		ID:              e.ID,
		Title:           e.Title,
		Description:     e.Description,
		StartDate:       e.StartDate.UTC().Format(DateLayout),
		EndDate:         e.EndDate.UTC().Format(DateLayout),
		Location:        e.Location,
		AvailablePlaces: e.AvailablePlaces,
		Price:           e.Price,
		ImageURL:        e.ImageURL,
		Creator:         e.Creator,
		Attendees:       attendees,
		CreatedAt:       e.CreatedAt.UTC().Format(DateLayout),
		UpdatedAt:       e.UpdatedAt.UTC().Format(DateLayout),
	})
}

type EventStatistics struct {
	TotalPlaces     int     `json:"total_places"`
	AttendeesCount  int     `json:"attendees_count"`
	AvailablePlaces int     `json:"available_places"`
	OccupancyRate   float64 `json:"occupancy_rate"`
	IsFull          bool    `json:"is_full"`
}

// Statistics summarises occupancy. The rate is a percentage rounded to two
// decimals and is 0 for an event with no places.
func (e *Event) Statistics() EventStatistics {
	count := len(e.Attendees)
	var rate float64
	if e.AvailablePlaces > 0 {
		rate = math.Round(float64(count)/float64(e.AvailablePlaces)*100*100) / 100
	}
	return EventStatistics{
		TotalPlaces:     e.AvailablePlaces,
		AttendeesCount:  count,
		AvailablePlaces: e.AvailablePlaces - count,
		OccupancyRate:   rate,
		IsFull:          !e.HasAvailablePlaces(),
	}
}

type EventParticipants struct {
	EventID           string    `json:"event_id"`
	EventTitle        string    `json:"event_title"`
	TotalParticipants int       `json:"total_participants"`
	Participants      []UserRef `json:"participants"`
}

func (e *Event) Participants() EventParticipants {
	p := e.Attendees
	if p == nil {
		p = []UserRef{}
	}
	return EventParticipants{
		EventID:           e.ID,
		EventTitle:        e.Title,
		TotalParticipants: len(p),
		Participants:      p,
	}
}

// EventFilter narrows a search. Nil/empty fields do not constrain.
type EventFilter struct {
	Query              string
	StartFrom          *time.Time
	EndBy              *time.Time
	Location           string
	MinPrice           *float64
	MaxPrice           *float64
	HasAvailablePlaces bool
}
