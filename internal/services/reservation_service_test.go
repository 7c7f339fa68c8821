package services

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/massamba-mbaye/covoiturage-senegal/internal/domain"
	"github.com/massamba-mbaye/covoiturage-senegal/internal/domain/models"
)

type notifierEvent struct {
	UserID int64
	Event  string
	Data   map[string]string
}

type fakeNotifier struct {
	events []notifierEvent
}

func (f *fakeNotifier) Notify(userID int64, event string, data map[string]string) {
	f.events = append(f.events, notifierEvent{UserID: userID, Event: event, Data: data})
}

func (f *fakeNotifier) eventsFor(userID int64) []string {
	out := []string{}
	for _, e := range f.events {
		if e.UserID == userID {
			out = append(out, e.Event)
		}
	}
	return out
}

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T) (ReservationService, sqlmock.Sqlmock, *fakeNotifier) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	notifier := &fakeNotifier{}
	engine := ReservationService{
		DB:          db,
		Notifier:    notifier,
		WindowHours: 24,
		Now:         func() time.Time { return testNow },
	}
	return engine, mock, notifier
}

var tripCols = []string{
	"id", "chauffeur_id", "ville_depart", "ville_destination", "date_depart",
	"prix_par_place", "places_totales", "places_disponibles",
	"voiture_marque", "voiture_modele", "point_depart_precis", "description",
	"statut", "date_creation",
}

func tripRow(id, chauffeurID int64, depart time.Time, prix int64, total, avail int, statut models.TripStatus) *sqlmock.Rows {
	return sqlmock.NewRows(tripCols).AddRow(
		id, chauffeurID, "Dakar", "Saint-Louis", depart,
		prix, total, avail,
		"Toyota", "Corolla", "", "",
		string(statut), testNow.Add(-24*time.Hour),
	)
}

var reservationCols = []string{
	"id", "trajet_id", "passager_id", "nombre_places", "prix_total",
	"message_passager", "mode_paiement", "statut", "date_reservation", "date_annulation",
}

func reservationRow(id, trajetID, passagerID int64, places int, prix int64, statut models.ReservationStatus) *sqlmock.Rows {
	return sqlmock.NewRows(reservationCols).AddRow(
		id, trajetID, passagerID, places, prix,
		"", "especes", string(statut), testNow.Add(-time.Hour), nil,
	)
}

func userRow(id int64, prenom, nom string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "prenom", "nom", "email", "telephone", "mot_de_passe", "date_inscription"}).
		AddRow(id, prenom, nom, "user@exemple.sn", "771234567", "hash", testNow.Add(-72*time.Hour))
}

func TestReserveDecrementsSeatsAtomically(t *testing.T) {
	engine, mock, notifier := newTestEngine(t)
	depart := testNow.Add(72 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM trajets WHERE id = (.+) FOR UPDATE").WithArgs(int64(7)).
		WillReturnRows(tripRow(7, 1, depart, 5000, 4, 3, models.TripActive))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM reservations`).WithArgs(int64(7), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
	mock.ExpectExec("INSERT INTO reservations").
		WillReturnResult(sqlmock.NewResult(10, 1))
	mock.ExpectExec("UPDATE trajets SET places_disponibles").
		WithArgs(1, "actif", int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	mock.ExpectQuery("FROM users WHERE id =").WithArgs(int64(2)).
		WillReturnRows(userRow(2, "Awa", "Diop"))

	res, err := engine.Reserve(ReserveCommand{TrajetID: 7, PassagerID: 2, NombrePlaces: 2})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if res.ID != 10 {
		t.Fatalf("expected reservation id 10, got %d", res.ID)
	}
	if res.PrixTotal != 10000 {
		t.Fatalf("expected prix_total 10000, got %d", res.PrixTotal)
	}
	if res.Statut != models.ReservationConfirmed {
		t.Fatalf("expected statut confirmee, got %s", res.Statut)
	}

	driverEvents := notifier.eventsFor(1)
	if len(driverEvents) != 1 || driverEvents[0] != models.EventNewReservation {
		t.Fatalf("expected driver to receive nouvelle_reservation, got %v", driverEvents)
	}
	riderEvents := notifier.eventsFor(2)
	if len(riderEvents) != 1 || riderEvents[0] != models.EventReservationConfirmed {
		t.Fatalf("expected rider to receive reservation_confirmee, got %v", riderEvents)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReserveLastSeatMarksTripFull(t *testing.T) {
	engine, mock, _ := newTestEngine(t)
	depart := testNow.Add(72 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM trajets WHERE id = (.+) FOR UPDATE").WithArgs(int64(7)).
		WillReturnRows(tripRow(7, 1, depart, 5000, 4, 2, models.TripActive))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM reservations`).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
	mock.ExpectExec("INSERT INTO reservations").
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectExec("UPDATE trajets SET places_disponibles").
		WithArgs(0, "complet", int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	mock.ExpectQuery("FROM users WHERE id =").
		WillReturnRows(userRow(2, "Awa", "Diop"))

	if _, err := engine.Reserve(ReserveCommand{TrajetID: 7, PassagerID: 2, NombrePlaces: 2}); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReserveInsufficientSeats(t *testing.T) {
	engine, mock, notifier := newTestEngine(t)
	depart := testNow.Add(72 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM trajets WHERE id = (.+) FOR UPDATE").WithArgs(int64(7)).
		WillReturnRows(tripRow(7, 1, depart, 5000, 4, 1, models.TripActive))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM reservations`).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
	mock.ExpectRollback()

	_, err := engine.Reserve(ReserveCommand{TrajetID: 7, PassagerID: 2, NombrePlaces: 2})
	if !domain.IsConflict(err) {
		t.Fatalf("expected conflict error, got %v", err)
	}
	if len(notifier.events) != 0 {
		t.Fatalf("expected no notifications on failure, got %v", notifier.events)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

// A rider losing the last-seat race sees the trip already complet after the
// locked re-read; that must surface as "places insuffisantes", not as a
// status error.
func TestReserveRaceLoserGetsInsufficientSeats(t *testing.T) {
	engine, mock, _ := newTestEngine(t)
	depart := testNow.Add(72 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM trajets WHERE id = (.+) FOR UPDATE").WithArgs(int64(7)).
		WillReturnRows(tripRow(7, 1, depart, 5000, 1, 0, models.TripFull))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM reservations`).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
	mock.ExpectRollback()

	_, err := engine.Reserve(ReserveCommand{TrajetID: 7, PassagerID: 3, NombrePlaces: 1})
	if !domain.IsConflict(err) {
		t.Fatalf("expected conflict error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReserveSelfBookingForbidden(t *testing.T) {
	engine, mock, _ := newTestEngine(t)
	depart := testNow.Add(72 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM trajets WHERE id = (.+) FOR UPDATE").WithArgs(int64(7)).
		WillReturnRows(tripRow(7, 2, depart, 5000, 4, 4, models.TripActive))
	mock.ExpectRollback()

	_, err := engine.Reserve(ReserveCommand{TrajetID: 7, PassagerID: 2, NombrePlaces: 1})
	if !domain.IsForbidden(err) {
		t.Fatalf("expected forbidden error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReserveDuplicateReservation(t *testing.T) {
	engine, mock, _ := newTestEngine(t)
	depart := testNow.Add(72 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM trajets WHERE id = (.+) FOR UPDATE").WithArgs(int64(7)).
		WillReturnRows(tripRow(7, 1, depart, 5000, 4, 4, models.TripActive))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM reservations`).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))
	mock.ExpectRollback()

	_, err := engine.Reserve(ReserveCommand{TrajetID: 7, PassagerID: 2, NombrePlaces: 1})
	if !domain.IsConflict(err) {
		t.Fatalf("expected conflict error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReservePastDepartureRejected(t *testing.T) {
	engine, mock, _ := newTestEngine(t)
	depart := testNow.Add(-time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM trajets WHERE id = (.+) FOR UPDATE").WithArgs(int64(7)).
		WillReturnRows(tripRow(7, 1, depart, 5000, 4, 4, models.TripActive))
	mock.ExpectRollback()

	_, err := engine.Reserve(ReserveCommand{TrajetID: 7, PassagerID: 2, NombrePlaces: 1})
	if !domain.IsConflict(err) {
		t.Fatalf("expected conflict error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReserveSeatCountValidatedBeforeStore(t *testing.T) {
	engine, mock, _ := newTestEngine(t)

	_, err := engine.Reserve(ReserveCommand{TrajetID: 7, PassagerID: 2, NombrePlaces: 5})
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	_, err = engine.Reserve(ReserveCommand{TrajetID: 7, PassagerID: 2, NombrePlaces: 0})
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}

	// No store access at all for validation failures.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("store was touched: %v", err)
	}
}

func TestCancelByRiderRestoresSeats(t *testing.T) {
	engine, mock, notifier := newTestEngine(t)
	depart := testNow.Add(48 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM reservations WHERE id = (.+) FOR UPDATE").WithArgs(int64(10)).
		WillReturnRows(reservationRow(10, 7, 2, 2, 10000, models.ReservationConfirmed))
	mock.ExpectQuery("FROM trajets WHERE id = (.+) FOR UPDATE").WithArgs(int64(7)).
		WillReturnRows(tripRow(7, 1, depart, 5000, 4, 0, models.TripFull))
	mock.ExpectExec("UPDATE reservations SET statut").
		WithArgs("annulee", sqlmock.AnyArg(), int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE trajets SET places_disponibles").
		WithArgs(2, "actif", int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	mock.ExpectQuery("FROM users WHERE id =").WithArgs(int64(2)).
		WillReturnRows(userRow(2, "Awa", "Diop"))

	if err := engine.CancelByRider(10, 2); err != nil {
		t.Fatalf("expected success, got %v", err)
	}

	driverEvents := notifier.eventsFor(1)
	if len(driverEvents) != 1 || driverEvents[0] != models.EventReservationCancelled {
		t.Fatalf("expected driver to receive reservation_annulee, got %v", driverEvents)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCancelByRiderAlreadyTerminal(t *testing.T) {
	engine, mock, notifier := newTestEngine(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM reservations WHERE id = (.+) FOR UPDATE").WithArgs(int64(10)).
		WillReturnRows(reservationRow(10, 7, 2, 2, 10000, models.ReservationCancelled))
	mock.ExpectRollback()

	err := engine.CancelByRider(10, 2)
	if !domain.IsConflict(err) {
		t.Fatalf("expected conflict error, got %v", err)
	}
	if len(notifier.events) != 0 {
		t.Fatalf("expected no side effects, got %v", notifier.events)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCancelByRiderWindowClosed(t *testing.T) {
	engine, mock, _ := newTestEngine(t)
	depart := testNow.Add(2 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM reservations WHERE id = (.+) FOR UPDATE").WithArgs(int64(10)).
		WillReturnRows(reservationRow(10, 7, 2, 1, 5000, models.ReservationConfirmed))
	mock.ExpectQuery("FROM trajets WHERE id = (.+) FOR UPDATE").WithArgs(int64(7)).
		WillReturnRows(tripRow(7, 1, depart, 5000, 4, 3, models.TripActive))
	mock.ExpectRollback()

	err := engine.CancelByRider(10, 2)
	if !domain.IsPolicy(err) {
		t.Fatalf("expected policy error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCancelByRiderNotOwner(t *testing.T) {
	engine, mock, _ := newTestEngine(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM reservations WHERE id = (.+) FOR UPDATE").WithArgs(int64(10)).
		WillReturnRows(reservationRow(10, 7, 2, 1, 5000, models.ReservationConfirmed))
	mock.ExpectRollback()

	err := engine.CancelByRider(10, 99)
	if !domain.IsForbidden(err) {
		t.Fatalf("expected forbidden error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCancelTripBlockedByConfirmedReservations(t *testing.T) {
	engine, mock, _ := newTestEngine(t)
	depart := testNow.Add(72 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM trajets WHERE id = (.+) FOR UPDATE").WithArgs(int64(7)).
		WillReturnRows(tripRow(7, 1, depart, 5000, 4, 2, models.TripActive))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM reservations`).WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(2))
	mock.ExpectRollback()

	err := engine.CancelTrip(7, 1)
	if !domain.IsPolicy(err) {
		t.Fatalf("expected policy error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCancelTripCascadesPendingReservations(t *testing.T) {
	engine, mock, notifier := newTestEngine(t)
	depart := testNow.Add(72 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM trajets WHERE id = (.+) FOR UPDATE").WithArgs(int64(7)).
		WillReturnRows(tripRow(7, 1, depart, 5000, 4, 4, models.TripActive))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM reservations`).WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
	mock.ExpectQuery("FROM reservations WHERE trajet_id = (.+) AND statut = ").
		WithArgs(int64(7), "en_attente").
		WillReturnRows(reservationRow(12, 7, 5, 1, 5000, models.ReservationPending))
	mock.ExpectExec("UPDATE reservations SET statut = (.+) WHERE trajet_id").
		WithArgs("annulee", int64(7), "en_attente").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE trajets SET statut").
		WithArgs("annule", int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	mock.ExpectQuery("FROM users WHERE id =").WithArgs(int64(1)).
		WillReturnRows(userRow(1, "Moussa", "Fall"))

	if err := engine.CancelTrip(7, 1); err != nil {
		t.Fatalf("expected success, got %v", err)
	}

	riderEvents := notifier.eventsFor(5)
	if len(riderEvents) != 1 || riderEvents[0] != models.EventTripCancelled {
		t.Fatalf("expected pending rider to receive trajet_annule, got %v", riderEvents)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCancelTripNotOwner(t *testing.T) {
	engine, mock, _ := newTestEngine(t)
	depart := testNow.Add(72 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM trajets WHERE id = (.+) FOR UPDATE").WithArgs(int64(7)).
		WillReturnRows(tripRow(7, 1, depart, 5000, 4, 4, models.TripActive))
	mock.ExpectRollback()

	err := engine.CancelTrip(7, 42)
	if !domain.IsForbidden(err) {
		t.Fatalf("expected forbidden error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCompleteDueTripsClosesTripAndReservations(t *testing.T) {
	engine, mock, notifier := newTestEngine(t)
	depart := testNow.Add(-time.Hour)

	mock.ExpectQuery("SELECT id FROM trajets").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	mock.ExpectBegin()
	mock.ExpectQuery("FROM trajets WHERE id = (.+) FOR UPDATE").WithArgs(int64(7)).
		WillReturnRows(tripRow(7, 1, depart, 5000, 4, 2, models.TripFull))
	mock.ExpectQuery("FROM reservations WHERE trajet_id = (.+) AND statut = ").
		WithArgs(int64(7), "confirmee").
		WillReturnRows(reservationRow(10, 7, 2, 2, 10000, models.ReservationConfirmed))
	mock.ExpectExec("UPDATE trajets SET statut").
		WithArgs("termine", int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE reservations SET statut = (.+) WHERE trajet_id").
		WithArgs("terminee", int64(7), "confirmee").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	completed, err := engine.CompleteDueTrips()
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if completed != 1 {
		t.Fatalf("expected 1 completed trip, got %d", completed)
	}

	riderEvents := notifier.eventsFor(2)
	if len(riderEvents) != 1 || riderEvents[0] != models.EventTripCompleted {
		t.Fatalf("expected rider to receive trajet_termine, got %v", riderEvents)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCompleteDueTripsSkipsAlreadyTerminal(t *testing.T) {
	engine, mock, notifier := newTestEngine(t)
	depart := testNow.Add(-time.Hour)

	mock.ExpectQuery("SELECT id FROM trajets").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	// Another sweep got there first: the locked re-read sees termine.
	mock.ExpectBegin()
	mock.ExpectQuery("FROM trajets WHERE id = (.+) FOR UPDATE").WithArgs(int64(7)).
		WillReturnRows(tripRow(7, 1, depart, 5000, 4, 2, models.TripCompleted))
	mock.ExpectCommit()

	completed, err := engine.CompleteDueTrips()
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if completed != 0 {
		t.Fatalf("expected 0 completed trips, got %d", completed)
	}
	if len(notifier.events) != 0 {
		t.Fatalf("expected no notifications, got %v", notifier.events)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
