package services

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	intconfig "github.com/massamba-mbaye/covoiturage-senegal/internal/config"
	"github.com/massamba-mbaye/covoiturage-senegal/internal/domain"
	"github.com/massamba-mbaye/covoiturage-senegal/internal/domain/models"
	"github.com/massamba-mbaye/covoiturage-senegal/internal/repositories"
	"github.com/massamba-mbaye/covoiturage-senegal/internal/utils"
)

// Publication bounds.
const (
	MaxPlacesParTrajet = 8
	PrixMinimum        = 500
	PrixMaximum        = 50000
)

// TripService handles trip publication and the read-mostly listing glue.
// Mutations of the seat counter stay in ReservationService.
type TripService struct {
	TripRepo        repositories.TripRepository
	ReservationRepo repositories.ReservationRepository
	DB              *sql.DB
	Now             func() time.Time
	RequestID       string
}

func (s TripService) db() *sql.DB {
	if s.DB != nil {
		return s.DB
	}
	return intconfig.DB
}

func (s TripService) trips() repositories.TripRepository {
	if s.TripRepo.DB != nil {
		return s.TripRepo
	}
	return repositories.TripRepository{DB: s.db()}
}

func (s TripService) reservations() repositories.ReservationRepository {
	if s.ReservationRepo.DB != nil {
		return s.ReservationRepo
	}
	return repositories.ReservationRepository{DB: s.db()}
}

func (s TripService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// PublishCommand carries the driver's trip offer.
type PublishCommand struct {
	ChauffeurID       int64
	VilleDepart       string
	VilleDestination  string
	DateDepart        time.Time
	PrixParPlace      int64
	PlacesTotales     int
	VoitureMarque     string
	VoitureModele     string
	PointDepartPrecis string
	Description       string
}

// Publish validates and creates a trip; availability starts at full capacity.
func (s TripService) Publish(cmd PublishCommand) (models.Trip, error) {
	var out models.Trip

	if cmd.ChauffeurID <= 0 {
		return out, domain.ValidationError{Field: "chauffeur_id", Msg: "id invalide"}
	}
	cmd.VilleDepart = strings.TrimSpace(cmd.VilleDepart)
	cmd.VilleDestination = strings.TrimSpace(cmd.VilleDestination)
	if len(cmd.VilleDepart) < 2 {
		return out, domain.ValidationError{Field: "ville_depart", Msg: "ville de depart requise"}
	}
	if len(cmd.VilleDestination) < 2 {
		return out, domain.ValidationError{Field: "ville_destination", Msg: "ville de destination requise"}
	}
	if strings.EqualFold(cmd.VilleDepart, cmd.VilleDestination) {
		return out, domain.ValidationError{Field: "ville_destination", Msg: "la destination doit differer du depart"}
	}
	if !cmd.DateDepart.After(s.now()) {
		return out, domain.ValidationError{Field: "date_depart", Msg: "la date de depart doit etre dans le futur"}
	}
	if cmd.PrixParPlace < PrixMinimum || cmd.PrixParPlace > PrixMaximum {
		return out, domain.ValidationError{
			Field: "prix_par_place",
			Msg:   fmt.Sprintf("le prix doit etre entre %s et %s", utils.FormatFCFA(PrixMinimum), utils.FormatFCFA(PrixMaximum)),
		}
	}
	if cmd.PlacesTotales < 1 || cmd.PlacesTotales > MaxPlacesParTrajet {
		return out, domain.ValidationError{
			Field: "places_totales",
			Msg:   fmt.Sprintf("le nombre de places doit etre entre 1 et %d", MaxPlacesParTrajet),
		}
	}

	out = models.Trip{
		ChauffeurID:       cmd.ChauffeurID,
		VilleDepart:       cmd.VilleDepart,
		VilleDestination:  cmd.VilleDestination,
		DateDepart:        cmd.DateDepart,
		PrixParPlace:      cmd.PrixParPlace,
		PlacesTotales:     cmd.PlacesTotales,
		PlacesDisponibles: cmd.PlacesTotales,
		VoitureMarque:     strings.TrimSpace(cmd.VoitureMarque),
		VoitureModele:     strings.TrimSpace(cmd.VoitureModele),
		PointDepartPrecis: strings.TrimSpace(cmd.PointDepartPrecis),
		Description:       strings.TrimSpace(cmd.Description),
		Statut:            models.TripActive,
		DateCreation:      s.now(),
	}

	id, err := s.trips().Create(out)
	if err != nil {
		return models.Trip{}, domain.InternalError{Err: err}
	}
	out.ID = id

	utils.LogEvent(s.RequestID, "trajet", "publish",
		fmt.Sprintf("trajet_id=%d route=%s->%s places=%d", id, out.VilleDepart, out.VilleDestination, out.PlacesTotales))
	return out, nil
}

// Search lists bookable trips matching the riders' criteria.
func (s TripService) Search(villeDepart, villeDestination, date string) ([]models.TripSummary, error) {
	var datePtr *time.Time
	if strings.TrimSpace(date) != "" {
		d, err := utils.ParseDate(date)
		if err != nil {
			return nil, domain.ValidationError{Field: "date", Msg: "format attendu AAAA-MM-JJ"}
		}
		datePtr = &d
	}

	out, err := s.trips().Search(villeDepart, villeDestination, datePtr)
	if err != nil {
		return nil, domain.InternalError{Err: err}
	}
	return out, nil
}

// Get returns a trip with driver details.
func (s TripService) Get(id int64) (models.TripSummary, error) {
	if id <= 0 {
		return models.TripSummary{}, domain.ValidationError{Field: "id", Msg: "id invalide"}
	}
	out, err := s.trips().GetByID(id)
	if err != nil {
		if domain.IsNotFound(err) {
			return out, err
		}
		return out, domain.InternalError{Err: err}
	}
	return out, nil
}

// TripWithReservations is the driver's view of one published trip.
type TripWithReservations struct {
	models.Trip
	Reservations []models.Reservation `json:"reservations"`
}

// ListByChauffeur returns a driver's trips with their reservations.
func (s TripService) ListByChauffeur(chauffeurID int64) ([]TripWithReservations, error) {
	if chauffeurID <= 0 {
		return nil, domain.ValidationError{Field: "chauffeur_id", Msg: "id invalide"}
	}
	trips, err := s.trips().ListByChauffeur(chauffeurID)
	if err != nil {
		return nil, domain.InternalError{Err: err}
	}

	out := make([]TripWithReservations, 0, len(trips))
	for _, t := range trips {
		res, err := s.reservations().ListByTrip(t.ID)
		if err != nil {
			return nil, domain.InternalError{Err: err}
		}
		out = append(out, TripWithReservations{Trip: t, Reservations: res})
	}
	return out, nil
}

// ListReservationsByPassager returns the rider's reservation history.
func (s TripService) ListReservationsByPassager(passagerID int64) ([]models.ReservationSummary, error) {
	if passagerID <= 0 {
		return nil, domain.ValidationError{Field: "passager_id", Msg: "id invalide"}
	}
	out, err := s.reservations().ListByPassager(passagerID)
	if err != nil {
		return nil, domain.InternalError{Err: err}
	}
	return out, nil
}
