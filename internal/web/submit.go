package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"campusevents/internal/forms"
	appLog "campusevents/internal/log"
	"campusevents/internal/model"
)

type validationResponse struct {
	Error  string       `json:"error"`
	Fields forms.Errors `json:"fields"`
}

type receiptResponse struct {
	forms.Receipt
	EventID     model.ID `json:"event_id,omitempty"`
	RatingLabel string   `json:"rating_label,omitempty"`
}

// handleRegister validates an event registration.
//
// POST /api/events/{id}/register {"name","email","phone"}
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookupEvent(w, r)
	if !ok {
		return
	}
	var in forms.Registration
	if !decodeForm(w, r, &in) || !validForm(w, in.Validate()) {
		return
	}
	receipt, ok := s.accept(w, r)
	if !ok {
		return
	}
	appLog.Info("registration accepted", "event", e.ID, "confirmation", receipt.ConfirmationID)
	writeJSON(w, http.StatusOK, receiptResponse{Receipt: receipt, EventID: e.ID})
}

// handleFeedback validates a feedback form.
func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var in forms.Feedback
	if !decodeForm(w, r, &in) || !validForm(w, in.Validate()) {
		return
	}
	receipt, ok := s.accept(w, r)
	if !ok {
		return
	}
	appLog.Info("feedback accepted", "rating", in.Rating, "confirmation", receipt.ConfirmationID)
	writeJSON(w, http.StatusOK, receiptResponse{Receipt: receipt, RatingLabel: in.RatingLabel()})
}

// handleContactForm validates a contact enquiry.
func (s *Server) handleContactForm(w http.ResponseWriter, r *http.Request) {
	var in forms.Contact
	if !decodeForm(w, r, &in) || !validForm(w, in.Validate()) {
		return
	}
	receipt, ok := s.accept(w, r)
	if !ok {
		return
	}
	appLog.Info("contact message accepted", "subject", in.Subject, "confirmation", receipt.ConfirmationID)
	writeJSON(w, http.StatusOK, receiptResponse{Receipt: receipt})
}

func (s *Server) accept(w http.ResponseWriter, r *http.Request) (forms.Receipt, bool) {
	receipt, err := forms.Accept(r.Context(), s.cfg.SubmitDelay)
	if err != nil {
		// The client went away during the simulated delay.
		appLog.Debug("submission abandoned", "path", r.URL.Path, "err", err)
		writeError(w, http.StatusServiceUnavailable, "submission cancelled")
		return forms.Receipt{}, false
	}
	return receipt, true
}

func decodeForm(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFormBody))
	if err := dec.Decode(dst); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func validForm(w http.ResponseWriter, errs forms.Errors) bool {
	if errs.Valid() {
		return true
	}
	writeJSON(w, http.StatusUnprocessableEntity, validationResponse{
		Error:  "validation failed",
		Fields: errs,
	})
	return false
}
