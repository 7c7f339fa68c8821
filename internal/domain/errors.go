package domain

import (
	"errors"
	"fmt"
)

type NotFoundError struct {
	Resource string
	Err      error
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "introuvable"
	}
	return fmt.Sprintf("%s introuvable", e.Resource)
}

func (e NotFoundError) Unwrap() error { return e.Err }

type ValidationError struct {
	Field string
	Msg   string
	Err   error
}

func (e ValidationError) Error() string {
	if e.Msg != "" && e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Field != "" {
		return fmt.Sprintf("%s invalide", e.Field)
	}
	return "donnees invalides"
}

func (e ValidationError) Unwrap() error { return e.Err }

// ConflictError covers state conflicts detected inside the transaction
// (places insuffisantes, reservation en double, statut terminal). Safe to
// show verbatim to the user.
type ConflictError struct {
	Resource string
	Msg      string
	Err      error
}

func (e ConflictError) Error() string {
	switch {
	case e.Msg != "" && e.Resource != "":
		return fmt.Sprintf("%s: %s", e.Resource, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Resource != "":
		return fmt.Sprintf("conflit sur %s", e.Resource)
	default:
		return "conflit"
	}
}

func (e ConflictError) Unwrap() error { return e.Err }

// ForbiddenError marks operations the caller is not allowed to perform on
// the target resource (not the owner, self-booking).
type ForbiddenError struct {
	Msg string
	Err error
}

func (e ForbiddenError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "operation non autorisee"
}

func (e ForbiddenError) Unwrap() error { return e.Err }

// PolicyError is a business-rule rejection (delai d'annulation depasse,
// reservations confirmees bloquant l'annulation du trajet).
type PolicyError struct {
	Msg string
	Err error
}

func (e PolicyError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "operation refusee"
}

func (e PolicyError) Unwrap() error { return e.Err }

type InternalError struct {
	Msg string
	Err error
}

func (e InternalError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "erreur interne"
}

func (e InternalError) Unwrap() error { return e.Err }

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target ConflictError
	return errors.As(err, &target)
}

func IsForbidden(err error) bool {
	var target ForbiddenError
	return errors.As(err, &target)
}

func IsPolicy(err error) bool {
	var target PolicyError
	return errors.As(err, &target)
}

func IsInternal(err error) bool {
	var target InternalError
	return errors.As(err, &target)
}
