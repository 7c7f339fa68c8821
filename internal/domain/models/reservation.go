package models

import "time"

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "en_attente"
	ReservationConfirmed ReservationStatus = "confirmee"
	ReservationCancelled ReservationStatus = "annulee"
	ReservationCompleted ReservationStatus = "terminee"
)

// Terminal reports whether the reservation can no longer change state.
func (s ReservationStatus) Terminal() bool {
	return s == ReservationCancelled || s == ReservationCompleted
}

type PaymentMethod string

const (
	PayCash        PaymentMethod = "especes"
	PayOrangeMoney PaymentMethod = "orange_money"
	PayWave        PaymentMethod = "wave"
	PayVirement    PaymentMethod = "virement"
)

// Valid reports whether the declared payment method is one the platform
// records. Payment itself happens off-platform.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PayCash, PayOrangeMoney, PayWave, PayVirement:
		return true
	}
	return false
}

// Reservation is a rider's claim on one or more seats of a trip.
type Reservation struct {
	ID              int64             `json:"id"`
	TrajetID        int64             `json:"trajet_id"`
	PassagerID      int64             `json:"passager_id"`
	NombrePlaces    int               `json:"nombre_places"`
	PrixTotal       int64             `json:"prix_total"`
	MessagePassager string            `json:"message_passager,omitempty"`
	ModePaiement    PaymentMethod     `json:"mode_paiement"`
	Statut          ReservationStatus `json:"statut"`
	DateReservation time.Time         `json:"date_reservation"`
	DateAnnulation  *time.Time        `json:"date_annulation,omitempty"`
}

// ReservationSummary joins trip data onto a reservation for rider listings.
type ReservationSummary struct {
	Reservation
	VilleDepart      string    `json:"ville_depart"`
	VilleDestination string    `json:"ville_destination"`
	DateDepart       time.Time `json:"date_depart"`
	ChauffeurPrenom  string    `json:"chauffeur_prenom"`
	ChauffeurNom     string    `json:"chauffeur_nom"`
}
