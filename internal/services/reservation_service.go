package services

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	intconfig "github.com/massamba-mbaye/covoiturage-senegal/internal/config"
	intdb "github.com/massamba-mbaye/covoiturage-senegal/internal/db"
	"github.com/massamba-mbaye/covoiturage-senegal/internal/domain"
	"github.com/massamba-mbaye/covoiturage-senegal/internal/domain/models"
	"github.com/massamba-mbaye/covoiturage-senegal/internal/policy"
	"github.com/massamba-mbaye/covoiturage-senegal/internal/repositories"
	"github.com/massamba-mbaye/covoiturage-senegal/internal/utils"
)

// MaxPlacesParReservation caps seats per single reservation.
const MaxPlacesParReservation = 4

// Notifier receives post-commit events. Implementations must be best-effort:
// a notification failure never surfaces to the booking caller.
type Notifier interface {
	Notify(userID int64, event string, data map[string]string)
}

// ReservationService is the transaction engine: every seat-counter mutation
// in the system goes through one of its commands, inside one transaction.
type ReservationService struct {
	TripRepo        repositories.TripRepository
	ReservationRepo repositories.ReservationRepository
	UserRepo        repositories.UserRepository
	Notifier        Notifier
	DB              *sql.DB
	WindowHours     int
	Now             func() time.Time
	RequestID       string
}

func (s ReservationService) db() *sql.DB {
	if s.DB != nil {
		return s.DB
	}
	return intconfig.DB
}

func (s ReservationService) trips() repositories.TripRepository {
	if s.TripRepo.DB != nil {
		return s.TripRepo
	}
	return repositories.TripRepository{DB: s.db()}
}

func (s ReservationService) reservations() repositories.ReservationRepository {
	if s.ReservationRepo.DB != nil {
		return s.ReservationRepo
	}
	return repositories.ReservationRepository{DB: s.db()}
}

func (s ReservationService) users() repositories.UserRepository {
	if s.UserRepo.DB != nil {
		return s.UserRepo
	}
	return repositories.UserRepository{DB: s.db()}
}

func (s ReservationService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s ReservationService) window() int {
	if s.WindowHours > 0 {
		return s.WindowHours
	}
	return policy.DefaultWindowHours
}

func (s ReservationService) notify(userID int64, event string, data map[string]string) {
	if s.Notifier == nil || userID <= 0 {
		return
	}
	s.Notifier.Notify(userID, event, data)
}

// ReserveCommand carries everything Reserve needs; identity is explicit,
// never read from ambient state.
type ReserveCommand struct {
	TrajetID     int64
	PassagerID   int64
	NombrePlaces int
	Message      string
	ModePaiement models.PaymentMethod
}

// Reserve checks availability, decrements the seat counter and writes the
// reservation as one atomic unit. The counter is re-read under a row lock
// inside the transaction, so two riders racing for the last seat cannot both
// succeed.
func (s ReservationService) Reserve(cmd ReserveCommand) (models.Reservation, error) {
	var out models.Reservation

	if cmd.TrajetID <= 0 {
		return out, domain.ValidationError{Field: "trajet_id", Msg: "id invalide"}
	}
	if cmd.PassagerID <= 0 {
		return out, domain.ValidationError{Field: "passager_id", Msg: "id invalide"}
	}
	if cmd.NombrePlaces < 1 || cmd.NombrePlaces > MaxPlacesParReservation {
		return out, domain.ValidationError{
			Field: "nombre_places",
			Msg:   fmt.Sprintf("doit etre entre 1 et %d", MaxPlacesParReservation),
		}
	}
	if cmd.ModePaiement == "" {
		cmd.ModePaiement = models.PayCash
	}
	if !cmd.ModePaiement.Valid() {
		return out, domain.ValidationError{Field: "mode_paiement", Msg: "mode de paiement invalide"}
	}
	cmd.Message = strings.TrimSpace(cmd.Message)
	if len(cmd.Message) > 500 {
		return out, domain.ValidationError{Field: "message", Msg: "message trop long"}
	}

	now := s.now()
	var trip models.Trip

	err := intdb.RunInTx(s.db(), func(tx *sql.Tx) error {
		var err error
		trip, err = s.trips().GetForUpdateTx(tx, cmd.TrajetID)
		if err != nil {
			return err
		}

		// A complet trip falls through to the availability check below so a
		// rider racing for the last seat sees "places insuffisantes", not a
		// status error.
		if trip.Statut.Terminal() {
			return domain.ConflictError{Resource: "trajet", Msg: "trajet non reservable"}
		}
		if !trip.DateDepart.After(now) {
			return domain.ConflictError{Resource: "trajet", Msg: "trajet deja passe"}
		}
		if trip.ChauffeurID == cmd.PassagerID {
			return domain.ForbiddenError{Msg: "vous ne pouvez pas reserver votre propre trajet"}
		}

		active, err := s.reservations().CountActiveForRiderTx(tx, cmd.TrajetID, cmd.PassagerID)
		if err != nil {
			return err
		}
		if active > 0 {
			return domain.ConflictError{Resource: "reservation", Msg: "vous avez deja une reservation sur ce trajet"}
		}

		// Availability check against the locked row: this re-read is what
		// turns a lost-update race into a clean rejection.
		if cmd.NombrePlaces > trip.PlacesDisponibles {
			return domain.ConflictError{Resource: "trajet", Msg: "places insuffisantes"}
		}

		out = models.Reservation{
			TrajetID:        cmd.TrajetID,
			PassagerID:      cmd.PassagerID,
			NombrePlaces:    cmd.NombrePlaces,
			PrixTotal:       int64(cmd.NombrePlaces) * trip.PrixParPlace,
			MessagePassager: cmd.Message,
			ModePaiement:    cmd.ModePaiement,
			Statut:          models.ReservationConfirmed,
			DateReservation: now,
		}
		out.ID, err = s.reservations().InsertTx(tx, out)
		if err != nil {
			return err
		}

		newAvail := trip.PlacesDisponibles - cmd.NombrePlaces
		newStatut := trip.Statut
		if newAvail == 0 {
			newStatut = models.TripFull
		}
		return s.trips().UpdateSeatsTx(tx, trip.ID, newAvail, newStatut)
	})
	if err != nil {
		return models.Reservation{}, s.wrapInfra(err)
	}

	utils.LogEvent(s.RequestID, "reservation", "reserve",
		fmt.Sprintf("trajet_id=%d reservation_id=%d places=%d", trip.ID, out.ID, out.NombrePlaces))

	data := s.tripEventData(trip)
	data["nb_places"] = fmt.Sprintf("%d", out.NombrePlaces)
	data["reservation_id"] = fmt.Sprintf("%d", out.ID)
	data["prix_total"] = utils.FormatFCFA(out.PrixTotal)
	if rider, err := s.users().GetByID(cmd.PassagerID); err == nil {
		data["passager_nom"] = rider.ShortName()
	}
	s.notify(trip.ChauffeurID, models.EventNewReservation, data)
	s.notify(cmd.PassagerID, models.EventReservationConfirmed, data)

	return out, nil
}

// CancelByRider cancels the rider's own reservation inside one transaction,
// restoring seats to the trip when the reservation was confirmed. Only
// permitted while the cancellation window is open.
func (s ReservationService) CancelByRider(reservationID, passagerID int64) error {
	if reservationID <= 0 {
		return domain.ValidationError{Field: "reservation_id", Msg: "id invalide"}
	}
	if passagerID <= 0 {
		return domain.ValidationError{Field: "passager_id", Msg: "id invalide"}
	}

	now := s.now()
	var (
		trip models.Trip
		res  models.Reservation
	)

	err := intdb.RunInTx(s.db(), func(tx *sql.Tx) error {
		var err error
		res, err = s.reservations().GetForUpdateTx(tx, reservationID)
		if err != nil {
			return err
		}
		if res.PassagerID != passagerID {
			return domain.ForbiddenError{Msg: "cette reservation ne vous appartient pas"}
		}
		if res.Statut.Terminal() {
			return domain.ConflictError{Resource: "reservation", Msg: "reservation deja annulee ou terminee"}
		}

		trip, err = s.trips().GetForUpdateTx(tx, res.TrajetID)
		if err != nil {
			return err
		}
		if !policy.Allowed(trip.DateDepart, now, s.window()) {
			return domain.PolicyError{
				Msg: fmt.Sprintf("delai d'annulation depasse (%dh avant le depart)", s.window()),
			}
		}

		if err := s.reservations().UpdateStatusTx(tx, res.ID, models.ReservationCancelled, &now); err != nil {
			return err
		}

		if res.Statut == models.ReservationConfirmed {
			newAvail := trip.PlacesDisponibles + res.NombrePlaces
			newStatut := trip.Statut
			if newStatut == models.TripFull {
				newStatut = models.TripActive
			}
			return s.trips().UpdateSeatsTx(tx, trip.ID, newAvail, newStatut)
		}
		return nil
	})
	if err != nil {
		return s.wrapInfra(err)
	}

	utils.LogEvent(s.RequestID, "reservation", "cancel_rider",
		fmt.Sprintf("reservation_id=%d trajet_id=%d", res.ID, trip.ID))

	data := s.tripEventData(trip)
	data["reservation_id"] = fmt.Sprintf("%d", res.ID)
	data["annule_par"] = "passager"
	if rider, err := s.users().GetByID(passagerID); err == nil {
		data["passager_nom"] = rider.ShortName()
	}
	s.notify(trip.ChauffeurID, models.EventReservationCancelled, data)

	return nil
}

// CancelTrip cancels a driver's own active trip. Confirmed reservations
// block cancellation: the driver has to resolve passengers first. Pending
// reservations are cascade-cancelled; they never held seats.
func (s ReservationService) CancelTrip(trajetID, chauffeurID int64) error {
	if trajetID <= 0 {
		return domain.ValidationError{Field: "trajet_id", Msg: "id invalide"}
	}
	if chauffeurID <= 0 {
		return domain.ValidationError{Field: "chauffeur_id", Msg: "id invalide"}
	}

	var (
		trip    models.Trip
		pending []models.Reservation
	)

	err := intdb.RunInTx(s.db(), func(tx *sql.Tx) error {
		var err error
		trip, err = s.trips().GetForUpdateTx(tx, trajetID)
		if err != nil {
			return err
		}
		if trip.ChauffeurID != chauffeurID {
			return domain.ForbiddenError{Msg: "ce trajet ne vous appartient pas"}
		}
		if trip.Statut != models.TripActive {
			return domain.ConflictError{Resource: "trajet", Msg: "trajet non annulable dans son statut actuel"}
		}

		confirmed, err := s.reservations().CountConfirmedTx(tx, trajetID)
		if err != nil {
			return err
		}
		if confirmed > 0 {
			return domain.PolicyError{
				Msg: "impossible d'annuler: des reservations confirmees existent, contactez d'abord vos passagers",
			}
		}

		pending, err = s.reservations().ListByStatusTx(tx, trajetID, models.ReservationPending)
		if err != nil {
			return err
		}
		if err := s.reservations().UpdateStatusByTripTx(tx, trajetID, models.ReservationPending, models.ReservationCancelled); err != nil {
			return err
		}
		return s.trips().UpdateStatusTx(tx, trajetID, models.TripCancelled)
	})
	if err != nil {
		return s.wrapInfra(err)
	}

	utils.LogEvent(s.RequestID, "trajet", "cancel_trip",
		fmt.Sprintf("trajet_id=%d pending_annulees=%d", trajetID, len(pending)))

	data := s.tripEventData(trip)
	if driver, err := s.users().GetByID(chauffeurID); err == nil {
		data["chauffeur_nom"] = driver.Prenom
	}
	for _, res := range pending {
		s.notify(res.PassagerID, models.EventTripCancelled, data)
	}

	return nil
}

// CompleteDueTrips is the scheduled sweep: trips whose departure has passed
// move to termine, and their confirmed reservations to terminee, one
// transaction per trip. Idempotent; returns how many trips it closed.
func (s ReservationService) CompleteDueTrips() (int, error) {
	now := s.now()
	ids, err := s.trips().ListDueForCompletion(now)
	if err != nil {
		return 0, s.wrapInfra(err)
	}

	completed := 0
	for _, id := range ids {
		var (
			trip      models.Trip
			confirmed []models.Reservation
		)
		err := intdb.RunInTx(s.db(), func(tx *sql.Tx) error {
			var err error
			trip, err = s.trips().GetForUpdateTx(tx, id)
			if err != nil {
				return err
			}
			// Re-check under lock: another sweep or a cancellation may have
			// beaten us to a terminal status.
			if trip.Statut.Terminal() || trip.DateDepart.After(now) {
				return nil
			}

			confirmed, err = s.reservations().ListByStatusTx(tx, id, models.ReservationConfirmed)
			if err != nil {
				return err
			}
			// Trip first, then its reservations: a reservation is never
			// terminee while its trip is still open.
			if err := s.trips().UpdateStatusTx(tx, id, models.TripCompleted); err != nil {
				return err
			}
			return s.reservations().UpdateStatusByTripTx(tx, id, models.ReservationConfirmed, models.ReservationCompleted)
		})
		if err != nil {
			utils.LogEvent(s.RequestID, "trajet", "complete_sweep",
				fmt.Sprintf("trajet_id=%d err=%v", id, err))
			continue
		}
		if trip.Statut.Terminal() || trip.DateDepart.After(now) {
			continue
		}
		completed++

		data := s.tripEventData(trip)
		for _, res := range confirmed {
			s.notify(res.PassagerID, models.EventTripCompleted, data)
		}
	}

	if completed > 0 {
		utils.LogEvent(s.RequestID, "trajet", "complete_sweep", fmt.Sprintf("trajets_termines=%d", completed))
	}
	return completed, nil
}

func (s ReservationService) tripEventData(trip models.Trip) map[string]string {
	return map[string]string{
		"trajet_id":    fmt.Sprintf("%d", trip.ID),
		"trajet_route": trip.VilleDepart + " -> " + trip.VilleDestination,
		"date":         utils.FormatDate(trip.DateDepart),
		"heure":        utils.FormatTimeHM(trip.DateDepart),
	}
}

// wrapInfra keeps domain errors as-is and hides everything else behind a
// generic internal failure.
func (s ReservationService) wrapInfra(err error) error {
	if err == nil {
		return nil
	}
	if domain.IsValidation(err) || domain.IsNotFound(err) || domain.IsConflict(err) ||
		domain.IsForbidden(err) || domain.IsPolicy(err) {
		return err
	}
	return domain.InternalError{Err: err}
}
