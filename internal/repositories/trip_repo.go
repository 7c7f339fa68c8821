package repositories

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	intconfig "github.com/massamba-mbaye/covoiturage-senegal/internal/config"
	"github.com/massamba-mbaye/covoiturage-senegal/internal/domain"
	"github.com/massamba-mbaye/covoiturage-senegal/internal/domain/models"
)

type TripRepository struct {
	DB *sql.DB
}

func (r TripRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

const tripColumns = `id, chauffeur_id, ville_depart, ville_destination, date_depart,
		prix_par_place, places_totales, places_disponibles,
		COALESCE(voiture_marque, ''), COALESCE(voiture_modele, ''),
		COALESCE(point_depart_precis, ''), COALESCE(description, ''),
		statut, date_creation`

func scanTrip(row interface{ Scan(...any) error }) (models.Trip, error) {
	var t models.Trip
	err := row.Scan(
		&t.ID,
		&t.ChauffeurID,
		&t.VilleDepart,
		&t.VilleDestination,
		&t.DateDepart,
		&t.PrixParPlace,
		&t.PlacesTotales,
		&t.PlacesDisponibles,
		&t.VoitureMarque,
		&t.VoitureModele,
		&t.PointDepartPrecis,
		&t.Description,
		&t.Statut,
		&t.DateCreation,
	)
	return t, err
}

// Create inserts a new trip; places_disponibles starts at places_totales.
func (r TripRepository) Create(t models.Trip) (int64, error) {
	res, err := r.db().Exec(`
		INSERT INTO trajets (
			chauffeur_id, ville_depart, ville_destination, date_depart,
			prix_par_place, places_totales, places_disponibles,
			voiture_marque, voiture_modele, point_depart_precis, description,
			statut, date_creation
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NOW())`,
		t.ChauffeurID,
		t.VilleDepart,
		t.VilleDestination,
		t.DateDepart,
		t.PrixParPlace,
		t.PlacesTotales,
		t.PlacesTotales,
		t.VoitureMarque,
		t.VoitureModele,
		t.PointDepartPrecis,
		t.Description,
		string(models.TripActive),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetByID fetches a trip with its driver identity joined on.
func (r TripRepository) GetByID(id int64) (models.TripSummary, error) {
	var out models.TripSummary
	err := r.db().QueryRow(`
		SELECT t.id, t.chauffeur_id, t.ville_depart, t.ville_destination, t.date_depart,
		       t.prix_par_place, t.places_totales, t.places_disponibles,
		       COALESCE(t.voiture_marque, ''), COALESCE(t.voiture_modele, ''),
		       COALESCE(t.point_depart_precis, ''), COALESCE(t.description, ''),
		       t.statut, t.date_creation,
		       u.prenom, u.nom, u.telephone
		FROM trajets t
		JOIN users u ON u.id = t.chauffeur_id
		WHERE t.id = ?`, id).Scan(
		&out.ID,
		&out.ChauffeurID,
		&out.VilleDepart,
		&out.VilleDestination,
		&out.DateDepart,
		&out.PrixParPlace,
		&out.PlacesTotales,
		&out.PlacesDisponibles,
		&out.VoitureMarque,
		&out.VoitureModele,
		&out.PointDepartPrecis,
		&out.Description,
		&out.Statut,
		&out.DateCreation,
		&out.ChauffeurPrenom,
		&out.ChauffeurNom,
		&out.ChauffeurTelephone,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return out, domain.NotFoundError{Resource: "trajet"}
	}
	return out, err
}

// GetForUpdateTx re-reads the trip row under a row lock. The locked read is
// what makes the seat counter decrement serializable across concurrent
// reservations.
func (r TripRepository) GetForUpdateTx(tx *sql.Tx, id int64) (models.Trip, error) {
	t, err := scanTrip(tx.QueryRow(`SELECT `+tripColumns+` FROM trajets WHERE id = ? FOR UPDATE`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return t, domain.NotFoundError{Resource: "trajet"}
	}
	return t, err
}

// UpdateSeatsTx writes the new availability and status computed under the
// row lock.
func (r TripRepository) UpdateSeatsTx(tx *sql.Tx, id int64, available int, statut models.TripStatus) error {
	_, err := tx.Exec(`UPDATE trajets SET places_disponibles = ?, statut = ? WHERE id = ?`,
		available, string(statut), id)
	return err
}

// UpdateStatusTx flips the trip status only.
func (r TripRepository) UpdateStatusTx(tx *sql.Tx, id int64, statut models.TripStatus) error {
	_, err := tx.Exec(`UPDATE trajets SET statut = ? WHERE id = ?`, string(statut), id)
	return err
}

// Search lists bookable trips matching origin/destination and an optional
// date, soonest departure first.
func (r TripRepository) Search(villeDepart, villeDestination string, date *time.Time) ([]models.TripSummary, error) {
	query := `
		SELECT t.id, t.chauffeur_id, t.ville_depart, t.ville_destination, t.date_depart,
		       t.prix_par_place, t.places_totales, t.places_disponibles,
		       COALESCE(t.voiture_marque, ''), COALESCE(t.voiture_modele, ''),
		       COALESCE(t.point_depart_precis, ''), COALESCE(t.description, ''),
		       t.statut, t.date_creation,
		       u.prenom, u.nom, ''
		FROM trajets t
		JOIN users u ON u.id = t.chauffeur_id
		WHERE t.statut = 'actif' AND t.places_disponibles > 0 AND t.date_depart > NOW()`
	args := []any{}

	if v := strings.TrimSpace(villeDepart); v != "" {
		query += ` AND t.ville_depart LIKE ?`
		args = append(args, "%"+v+"%")
	}
	if v := strings.TrimSpace(villeDestination); v != "" {
		query += ` AND t.ville_destination LIKE ?`
		args = append(args, "%"+v+"%")
	}
	if date != nil {
		query += ` AND DATE(t.date_depart) = ?`
		args = append(args, date.Format("2006-01-02"))
	}
	query += ` ORDER BY t.date_depart ASC LIMIT 50`

	rows, err := r.db().Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.TripSummary{}
	for rows.Next() {
		var t models.TripSummary
		if err := rows.Scan(
			&t.ID, &t.ChauffeurID, &t.VilleDepart, &t.VilleDestination, &t.DateDepart,
			&t.PrixParPlace, &t.PlacesTotales, &t.PlacesDisponibles,
			&t.VoitureMarque, &t.VoitureModele, &t.PointDepartPrecis, &t.Description,
			&t.Statut, &t.DateCreation,
			&t.ChauffeurPrenom, &t.ChauffeurNom, &t.ChauffeurTelephone,
		); err != nil {
			return out, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListByChauffeur returns all trips a driver has published, newest first.
func (r TripRepository) ListByChauffeur(chauffeurID int64) ([]models.Trip, error) {
	rows, err := r.db().Query(`SELECT `+tripColumns+` FROM trajets WHERE chauffeur_id = ? ORDER BY date_depart DESC`, chauffeurID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Trip{}
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return out, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListDueForCompletion returns ids of trips whose departure has passed and
// that the completion sweep still has to close.
func (r TripRepository) ListDueForCompletion(now time.Time) ([]int64, error) {
	rows, err := r.db().Query(`
		SELECT id FROM trajets
		WHERE statut IN ('actif', 'complet') AND date_depart <= ?
		ORDER BY date_depart ASC LIMIT 100`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return out, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// ListDepartingBetween returns active trips departing in [from, to), used by
// the reminder sweep.
func (r TripRepository) ListDepartingBetween(from, to time.Time) ([]models.Trip, error) {
	rows, err := r.db().Query(`
		SELECT `+tripColumns+` FROM trajets
		WHERE statut IN ('actif', 'complet') AND date_depart >= ? AND date_depart < ?`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Trip{}
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return out, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
