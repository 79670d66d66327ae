package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"campusevents/internal/day"
)

// ID identifies a record within its collection. Source files use both JSON
// numbers (1) and strings ("evt-1"); both decode to the same string form so
// "1" and 1 refer to the same event.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Category values used by the site. The set is open; records may carry
// other values and are filtered by exact match.
const (
	CategoryWorkshop   = "Workshop"
	CategorySocial     = "Social"
	CategoryAcademic   = "Academic"
	CategorySports     = "Sports"
	CategoryCareer     = "Career"
	CategoryTechnical  = "Technical"
	CategoryCultural   = "Cultural"
	CategoryNetworking = "Networking"
	CategoryOther      = "Other"
)

// Status is the upcoming/past classification relative to today.
type Status string

const (
	StatusUpcoming Status = "upcoming"
	StatusPast     Status = "past"
)

// Event is a single scheduled campus activity as stored in events.json.
type Event struct {
	ID          ID       `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Date        day.Date `json:"date"`
	// Time is a free-text display string ("6:00 PM - 9:00 PM").
	Time      string `json:"time"`
	Venue     string `json:"venue"`
	Category  string `json:"category"`
	Organizer string `json:"organizer"`
	ImagePath string `json:"imagePath"`
	Featured  bool   `json:"featured"`

	// Recurrence is an optional RRULE (e.g. "FREQ=WEEKLY;COUNT=6") for
	// repeating meetings, optionally followed by an EXDATE line. Only the
	// calendar expands it.
	Recurrence string `json:"recurrence,omitempty"`
}

// StatusOn derives the event status relative to today.
func (e Event) StatusOn(today day.Date) Status {
	if e.Date.Before(today) {
		return StatusPast
	}
	return StatusUpcoming
}

// ImageURL strips the "/public" prefix some records carry from the
// original asset layout.
func (e Event) ImageURL() string {
	return strings.Replace(e.ImagePath, "/public", "", 1)
}

// GalleryImage is one photo in gallery.json.
type GalleryImage struct {
	ID       ID     `json:"id"`
	ImageURL string `json:"imageUrl"`
	Caption  string `json:"caption"`
	Category string `json:"category"`
	// Year is a 4-digit string.
	Year string `json:"year"`
}

type Testimonial struct {
	ID     ID     `json:"id"`
	Name   string `json:"name"`
	Course string `json:"course"`
	Quote  string `json:"quote"`
	Avatar string `json:"avatar"`
}

type Banner struct {
	ID               ID     `json:"id"`
	Title            string `json:"title"`
	Subtitle         string `json:"subtitle"`
	ImageURL         string `json:"imageUrl"`
	CallToActionText string `json:"callToActionText"`
	CallToActionLink string `json:"callToActionLink"`
}

type Contact struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	Designation string `json:"designation"`
	Department  string `json:"department"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
}
