package models

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

const eventTextMaxLength = 255

// ValidateEvent checks the client-editable fields of e. Date ordering has
// its own error and is checked by the caller.
func ValidateEvent(e *Event) map[string][]string {
	return collect([]fieldRules{
		{"title", e.Title, []validation.Rule{
			validation.Required.Error("title is required"),
			validation.RuneLength(0, eventTextMaxLength).Error("must be at most 255 characters"),
		}},
		{"description", e.Description, []validation.Rule{
			validation.Required.Error("description is required"),
		}},
		{"location", e.Location, []validation.Rule{
			validation.Required.Error("location is required"),
			validation.RuneLength(0, eventTextMaxLength).Error("must be at most 255 characters"),
		}},
		{"available_places", e.AvailablePlaces, []validation.Rule{
			validation.Min(0).Error("must not be negative"),
		}},
		{"price", e.Price, []validation.Rule{
			validation.Min(0.0).Error("must not be negative"),
		}},
	})
}
