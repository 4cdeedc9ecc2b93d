// Package models holds the payloads the CLI exchanges with the gophevents API.
package models

// User is the account projection returned by the auth endpoints.
type User struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	IsVerified bool   `json:"isVerified"`
}

type UserRef struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Event mirrors the server's event view. Dates stay in their wire form
// (YYYY-MM-DDTHH:MM:SSZ).
type Event struct {
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

// IsAttending reports whether userID is among the attendees.
func (e *Event) IsAttending(userID string) bool {
	for _, a := range e.Attendees {
		if a.ID == userID {
			return true
		}
	}
	return false
}

// EventInput is the body for create and update. Nil fields are omitted so
// an update only touches what was set.
type EventInput struct {
	Title           *string  `json:"title,omitempty"`
	Description     *string  `json:"description,omitempty"`
	Location        *string  `json:"location,omitempty"`
	StartDate       *string  `json:"startDate,omitempty"`
	EndDate         *string  `json:"endDate,omitempty"`
	AvailablePlaces *int     `json:"available_places,omitempty"`
	Price           *float64 `json:"price,omitempty"`
	ImageURL        *string  `json:"image_url,omitempty"`
}

type EventStatistics struct {
	TotalPlaces     int     `json:"total_places"`
	AttendeesCount  int     `json:"attendees_count"`
	AvailablePlaces int     `json:"available_places"`
	OccupancyRate   float64 `json:"occupancy_rate"`
	IsFull          bool    `json:"is_full"`
}

type EventParticipants struct {
	EventID           string    `json:"event_id"`
	EventTitle        string    `json:"event_title"`
	TotalParticipants int       `json:"total_participants"`
	Participants      []UserRef `json:"participants"`
}

// SearchQuery carries the optional filters of GET /api/events/search.
// Empty strings are not sent.
type SearchQuery struct {
	Text               string
	StartDate          string
	EndDate            string
	Location           string
	MinPrice           string
	MaxPrice           string
	HasAvailablePlaces bool
}

// ProfileUpdate is the body of PUT /api/auth/profile. Empty fields are
// left unchanged by the server.
type ProfileUpdate struct {
	CurrentPassword string `json:"current_password,omitempty"`
	NewPassword     string `json:"new_password,omitempty"`
	Name            string `json:"name,omitempty"`
	Email           string `json:"email,omitempty"`
}

// ImageUpload is the presigned upload target for an event image.
type ImageUpload struct {
	Key       string `json:"key"`
	UploadURL string `json:"upload_url"`
	ImageURL  string `json:"image_url"`
	ExpiresAt string `json:"expires_at"`
}
