package domain

import (
	"errors"
	"strings"
)

// Sentinelas que los errores de cada dominio envuelven para que la capa HTTP
// los traduzca sin conocer los dominios.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrInvalidInput = errors.New("invalid input")
)

// ErrStorageUnavailable identifica fallos de conectividad con el almacén.
var ErrStorageUnavailable = errors.New("storage unavailable")

// StorageUnavailableError envuelve el error original del driver.
// Los adaptadores de persistencia lo crean; el resto de capas lo propagan tal cual.
type StorageUnavailableError struct {
	Store string
	Err   error
}

func (e *StorageUnavailableError) Error() string {
	return e.Store + ": " + ErrStorageUnavailable.Error() + ": " + e.Err.Error()
}

func (e *StorageUnavailableError) Unwrap() error {
	return e.Err
}

// Is permite usar errors.Is(err, ErrStorageUnavailable).
func (e *StorageUnavailableError) Is(target error) bool {
	return target == ErrStorageUnavailable
}

// ErrValidation identifica entidades que no cumplen sus reglas.
var ErrValidation = errors.New("validation failed")

// ValidationError lista los campos inválidos de una entidad.
type ValidationError struct {
	Entity string
	Fields []FieldError
}

type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString(e.Entity)
	b.WriteString(" validation failed:")
	for i, f := range e.Fields {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(" ")
		b.WriteString(f.Field)
		b.WriteString(" (")
		b.WriteString(f.Rule)
		b.WriteString(")")
	}
	return b.String()
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
