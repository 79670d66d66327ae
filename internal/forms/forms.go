// Package forms validates the registration, feedback and contact forms.
// Nothing is stored or sent anywhere; a valid submission is acknowledged
// with a confirmation id after a short simulated delay.
package forms

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	nameRe  = regexp.MustCompile(`^[a-zA-Z\s'-]+$`)
	emailRe = regexp.MustCompile(`\S+@\S+\.\S+`)
	phoneRe = regexp.MustCompile(`^\d{10,11}$`)
)

// RatingLabels names ratings 1..5.
var RatingLabels = []string{"Poor", "Fair", "Good", "Very Good", "Excellent"}

// Errors maps a field name to its message. An empty map means valid.
type Errors map[string]string

func (e Errors) Valid() bool { return len(e) == 0 }

// Registration is the event sign-up form.
type Registration struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func (r Registration) Validate() Errors {
	errs := Errors{}
	switch name := strings.TrimSpace(r.Name); {
	case name == "":
		errs["name"] = "Name is required."
	case !nameRe.MatchString(r.Name):
		errs["name"] = "Name can only contain letters and spaces."
	}
	validateEmail(errs, r.Email)
	switch phone := strings.TrimSpace(r.Phone); {
	case phone == "":
		errs["phone"] = "Phone number is required."
	case !phoneRe.MatchString(r.Phone):
		errs["phone"] = "Please enter a valid 10 or 11 digit phone number."
	}
	return errs
}

// Feedback is the post-event rating form.
type Feedback struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Rating   int    `json:"rating"`
	Comments string `json:"comments"`
}

func (f Feedback) Validate() Errors {
	errs := Errors{}
	if f.Rating < 1 || f.Rating > len(RatingLabels) {
		errs["rating"] = "Please provide a rating."
	}
	if strings.TrimSpace(f.Name) == "" {
		errs["name"] = "Name is required."
	}
	validateEmail(errs, f.Email)
	return errs
}

// RatingLabel returns the label for the rating, or "" when out of range.
func (f Feedback) RatingLabel() string {
	if f.Rating < 1 || f.Rating > len(RatingLabels) {
		return ""
	}
	return RatingLabels[f.Rating-1]
}

// Contact is the general enquiry form.
type Contact struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (c Contact) Validate() Errors {
	errs := Errors{}
	if strings.TrimSpace(c.Name) == "" {
		errs["name"] = "Name is required."
	}
	validateEmail(errs, c.Email)
	if strings.TrimSpace(c.Subject) == "" {
		errs["subject"] = "Subject is required."
	}
	if strings.TrimSpace(c.Message) == "" {
		errs["message"] = "Message is required."
	}
	return errs
}

func validateEmail(errs Errors, email string) {
	switch {
	case strings.TrimSpace(email) == "":
		errs["email"] = "Email is required."
	case !emailRe.MatchString(email):
		errs["email"] = "Email address is invalid."
	}
}

// Receipt acknowledges an accepted submission.
type Receipt struct {
	ConfirmationID string    `json:"confirmation_id"`
	ReceivedAt     time.Time `json:"received_at"`
}

// Accept waits delay (or until ctx is done) and issues a receipt.
func Accept(ctx context.Context, delay time.Duration) (Receipt, error) {
	if delay > 0 {
		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return Receipt{}, ctx.Err()
		case <-t.C:
		}
	}
	return Receipt{
		ConfirmationID: uuid.NewString(),
		ReceivedAt:     time.Now().UTC(),
	}, nil
}
