package models

import "time"

type TripStatus string

const (
	TripActive    TripStatus = "actif"
	TripFull      TripStatus = "complet"
	TripCompleted TripStatus = "termine"
	TripCancelled TripStatus = "annule"
)

// tripTransitions is the directed graph of allowed status changes. Actif and
// complet oscillate with seat availability; termine and annule are terminal.
var tripTransitions = map[TripStatus][]TripStatus{
	TripActive:    {TripFull, TripCompleted, TripCancelled},
	TripFull:      {TripActive, TripCompleted},
	TripCompleted: {},
	TripCancelled: {},
}

// CanTransition reports whether from -> to follows the trip state machine.
func (from TripStatus) CanTransition(to TripStatus) bool {
	if from == to {
		return true
	}
	for _, s := range tripTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Terminal reports whether the status permits no further transition.
func (s TripStatus) Terminal() bool {
	return s == TripCompleted || s == TripCancelled
}

// Trip is a driver-published offer of seats between two cities.
type Trip struct {
	ID                int64      `json:"id"`
	ChauffeurID       int64      `json:"chauffeur_id"`
	VilleDepart       string     `json:"ville_depart"`
	VilleDestination  string     `json:"ville_destination"`
	DateDepart        time.Time  `json:"date_depart"`
	PrixParPlace      int64      `json:"prix_par_place"`
	PlacesTotales     int        `json:"places_totales"`
	PlacesDisponibles int        `json:"places_disponibles"`
	VoitureMarque     string     `json:"voiture_marque,omitempty"`
	VoitureModele     string     `json:"voiture_modele,omitempty"`
	PointDepartPrecis string     `json:"point_depart_precis,omitempty"`
	Description       string     `json:"description,omitempty"`
	Statut            TripStatus `json:"statut"`
	DateCreation      time.Time  `json:"date_creation"`
}

// TripSummary joins driver identity onto a trip for listing and detail pages.
type TripSummary struct {
	Trip
	ChauffeurPrenom    string `json:"chauffeur_prenom"`
	ChauffeurNom       string `json:"chauffeur_nom"`
	ChauffeurTelephone string `json:"chauffeur_telephone,omitempty"`
}
