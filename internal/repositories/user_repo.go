package repositories

import (
	"database/sql"
	"errors"

	intconfig "github.com/massamba-mbaye/covoiturage-senegal/internal/config"
	"github.com/massamba-mbaye/covoiturage-senegal/internal/domain"
	"github.com/massamba-mbaye/covoiturage-senegal/internal/domain/models"
)

type UserRepository struct {
	DB *sql.DB
}

func (r UserRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

const userColumns = `id, prenom, nom, email, telephone, mot_de_passe, date_inscription`

func scanUser(row interface{ Scan(...any) error }) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Prenom, &u.Nom, &u.Email, &u.Telephone, &u.MotDePasseHash, &u.DateInscription)
	return u, err
}

func (r UserRepository) GetByID(id int64) (models.User, error) {
	u, err := scanUser(r.db().QueryRow(`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return u, domain.NotFoundError{Resource: "utilisateur"}
	}
	return u, err
}

// GetByIdentifier looks a user up by email or phone, for login.
func (r UserRepository) GetByIdentifier(identifier string) (models.User, error) {
	u, err := scanUser(r.db().QueryRow(`SELECT `+userColumns+` FROM users WHERE email = ? OR telephone = ?`,
		identifier, identifier))
	if errors.Is(err, sql.ErrNoRows) {
		return u, domain.NotFoundError{Resource: "utilisateur"}
	}
	return u, err
}

// Exists reports whether an account already uses the email or phone.
func (r UserRepository) Exists(email, telephone string) (bool, error) {
	var n int
	err := r.db().QueryRow(`SELECT COUNT(*) FROM users WHERE email = ? OR telephone = ?`,
		email, telephone).Scan(&n)
	return n > 0, err
}

func (r UserRepository) Create(u models.User) (int64, error) {
	res, err := r.db().Exec(`
		INSERT INTO users (prenom, nom, email, telephone, mot_de_passe, date_inscription)
		VALUES (?, ?, ?, ?, ?, NOW())`,
		u.Prenom, u.Nom, u.Email, u.Telephone, u.MotDePasseHash)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
