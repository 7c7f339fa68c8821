package models

import "time"

// Notification event types.
const (
	EventNewReservation       = "nouvelle_reservation"
	EventReservationConfirmed = "reservation_confirmee"
	EventReservationCancelled = "reservation_annulee"
	EventTripCancelled        = "trajet_annule"
	EventTripCompleted        = "trajet_termine"
	EventTripReminder         = "rappel_trajet"
)

// Notification is the stored in-app record; SMS/email delivery is a
// best-effort side effect on top of it.
type Notification struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	Type         string    `json:"type"`
	Titre        string    `json:"titre"`
	Message      string    `json:"message"`
	Data         string    `json:"data,omitempty"`
	Lue          bool      `json:"lue"`
	DateCreation time.Time `json:"date_creation"`
}
