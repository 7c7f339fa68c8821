package repositories

import (
	"database/sql"
	"errors"
	"time"

	intconfig "github.com/massamba-mbaye/covoiturage-senegal/internal/config"
	"github.com/massamba-mbaye/covoiturage-senegal/internal/domain"
	"github.com/massamba-mbaye/covoiturage-senegal/internal/domain/models"
)

type ReservationRepository struct {
	DB *sql.DB
}

func (r ReservationRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

const reservationColumns = `id, trajet_id, passager_id, nombre_places, prix_total,
		COALESCE(message_passager, ''), mode_paiement, statut, date_reservation, date_annulation`

func scanReservation(row interface{ Scan(...any) error }) (models.Reservation, error) {
	var (
		res        models.Reservation
		annulation sql.NullTime
	)
	err := row.Scan(
		&res.ID,
		&res.TrajetID,
		&res.PassagerID,
		&res.NombrePlaces,
		&res.PrixTotal,
		&res.MessagePassager,
		&res.ModePaiement,
		&res.Statut,
		&res.DateReservation,
		&annulation,
	)
	if annulation.Valid {
		t := annulation.Time
		res.DateAnnulation = &t
	}
	return res, err
}

// GetByID fetches a reservation outside any transaction.
func (r ReservationRepository) GetByID(id int64) (models.Reservation, error) {
	res, err := scanReservation(r.db().QueryRow(`SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return res, domain.NotFoundError{Resource: "reservation"}
	}
	return res, err
}

// GetForUpdateTx re-reads the reservation under a row lock so the status
// check and the status write happen against the same row version.
func (r ReservationRepository) GetForUpdateTx(tx *sql.Tx, id int64) (models.Reservation, error) {
	res, err := scanReservation(tx.QueryRow(`SELECT `+reservationColumns+` FROM reservations WHERE id = ? FOR UPDATE`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return res, domain.NotFoundError{Resource: "reservation"}
	}
	return res, err
}

// InsertTx writes the reservation row inside the booking transaction.
func (r ReservationRepository) InsertTx(tx *sql.Tx, res models.Reservation) (int64, error) {
	out, err := tx.Exec(`
		INSERT INTO reservations (
			trajet_id, passager_id, nombre_places, prix_total,
			message_passager, mode_paiement, statut, date_reservation
		) VALUES (?, ?, ?, ?, ?, ?, ?, NOW())`,
		res.TrajetID,
		res.PassagerID,
		res.NombrePlaces,
		res.PrixTotal,
		res.MessagePassager,
		string(res.ModePaiement),
		string(res.Statut),
	)
	if err != nil {
		return 0, err
	}
	return out.LastInsertId()
}

// CountActiveForRiderTx counts non-terminal reservations a rider holds on a
// trip. A rider may hold at most one.
func (r ReservationRepository) CountActiveForRiderTx(tx *sql.Tx, trajetID, passagerID int64) (int, error) {
	var n int
	err := tx.QueryRow(`
		SELECT COUNT(*) FROM reservations
		WHERE trajet_id = ? AND passager_id = ? AND statut IN ('en_attente', 'confirmee')`,
		trajetID, passagerID).Scan(&n)
	return n, err
}

// CountConfirmedTx counts confirmed reservations on a trip; a non-zero count
// blocks trip cancellation.
func (r ReservationRepository) CountConfirmedTx(tx *sql.Tx, trajetID int64) (int, error) {
	var n int
	err := tx.QueryRow(`SELECT COUNT(*) FROM reservations WHERE trajet_id = ? AND statut = 'confirmee'`,
		trajetID).Scan(&n)
	return n, err
}

// UpdateStatusTx moves a reservation to a new status, stamping the
// cancellation time when provided.
func (r ReservationRepository) UpdateStatusTx(tx *sql.Tx, id int64, statut models.ReservationStatus, annulation *time.Time) error {
	if annulation != nil {
		_, err := tx.Exec(`UPDATE reservations SET statut = ?, date_annulation = ? WHERE id = ?`,
			string(statut), *annulation, id)
		return err
	}
	_, err := tx.Exec(`UPDATE reservations SET statut = ? WHERE id = ?`, string(statut), id)
	return err
}

// ListByStatusTx returns reservations of a trip in a given status, inside
// the transaction (cascade cancellation, completion).
func (r ReservationRepository) ListByStatusTx(tx *sql.Tx, trajetID int64, statut models.ReservationStatus) ([]models.Reservation, error) {
	rows, err := tx.Query(`SELECT `+reservationColumns+` FROM reservations WHERE trajet_id = ? AND statut = ?`,
		trajetID, string(statut))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Reservation{}
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return out, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// UpdateStatusByTripTx moves every reservation of a trip from one status to
// another in a single statement.
func (r ReservationRepository) UpdateStatusByTripTx(tx *sql.Tx, trajetID int64, from, to models.ReservationStatus) error {
	_, err := tx.Exec(`UPDATE reservations SET statut = ? WHERE trajet_id = ? AND statut = ?`,
		string(to), trajetID, string(from))
	return err
}

// ListByPassager returns a rider's reservations with trip context, newest first.
func (r ReservationRepository) ListByPassager(passagerID int64) ([]models.ReservationSummary, error) {
	rows, err := r.db().Query(`
		SELECT r.id, r.trajet_id, r.passager_id, r.nombre_places, r.prix_total,
		       COALESCE(r.message_passager, ''), r.mode_paiement, r.statut,
		       r.date_reservation, r.date_annulation,
		       t.ville_depart, t.ville_destination, t.date_depart,
		       u.prenom, u.nom
		FROM reservations r
		JOIN trajets t ON t.id = r.trajet_id
		JOIN users u ON u.id = t.chauffeur_id
		WHERE r.passager_id = ?
		ORDER BY r.date_reservation DESC`, passagerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.ReservationSummary{}
	for rows.Next() {
		var (
			s          models.ReservationSummary
			annulation sql.NullTime
		)
		if err := rows.Scan(
			&s.ID, &s.TrajetID, &s.PassagerID, &s.NombrePlaces, &s.PrixTotal,
			&s.MessagePassager, &s.ModePaiement, &s.Statut,
			&s.DateReservation, &annulation,
			&s.VilleDepart, &s.VilleDestination, &s.DateDepart,
			&s.ChauffeurPrenom, &s.ChauffeurNom,
		); err != nil {
			return out, err
		}
		if annulation.Valid {
			t := annulation.Time
			s.DateAnnulation = &t
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListByTrip returns all reservations on a trip for the driver view.
func (r ReservationRepository) ListByTrip(trajetID int64) ([]models.Reservation, error) {
	rows, err := r.db().Query(`SELECT `+reservationColumns+` FROM reservations WHERE trajet_id = ? ORDER BY date_reservation ASC`, trajetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Reservation{}
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return out, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}
