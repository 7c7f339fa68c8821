package models

import (
	"time"
	"unicode/utf8"
)

// User is an account: a user acts as driver when publishing trips and as
// rider when reserving.
type User struct {
	ID              int64     `json:"id"`
	Prenom          string    `json:"prenom"`
	Nom             string    `json:"nom"`
	Email           string    `json:"email"`
	Telephone       string    `json:"telephone"`
	MotDePasseHash  string    `json:"-"`
	DateInscription time.Time `json:"date_inscription"`
}

// ShortName renders "Prenom N." the way notifications identify riders.
func (u User) ShortName() string {
	if u.Nom == "" {
		return u.Prenom
	}
	initial, _ := utf8.DecodeRuneInString(u.Nom)
	return u.Prenom + " " + string(initial) + "."
}
