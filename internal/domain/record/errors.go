package record

import "errors"

var (
	ErrPeriodNotFound       = errors.New("no records found for period")
	ErrDuplicateMatricule   = errors.New("duplicate matricule within period")
	ErrExitBeforeEntry      = errors.New("date_sortie is before date_entree")
	ErrInvalidEstablishment = errors.New("establishment id is required")
)
