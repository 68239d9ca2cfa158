package query

import (
	"errors"
	"fmt"
)

// ClientRequestError indica parámetros mal formados o contradictorios.
// Siempre es culpa del cliente y nunca es fatal.
type ClientRequestError struct {
	Param  string
	Reason string
}

func (e *ClientRequestError) Error() string {
	if e.Param == "" {
		return "invalid query: " + e.Reason
	}
	return fmt.Sprintf("invalid query parameter %q: %s", e.Param, e.Reason)
}

func clientError(param, format string, args ...interface{}) error {
	return &ClientRequestError{Param: param, Reason: fmt.Sprintf(format, args...)}
}

// PageOutOfRangeError indica que el salto pedido supera el número de registros
// que cumplen el filtro. LastPage permite redirigir a la última página válida.
type PageOutOfRangeError struct {
	Page     int
	Size     int
	Total    int64
	LastPage int
}

func (e *PageOutOfRangeError) Error() string {
	return fmt.Sprintf("page %d does not exist: %d matching records, last page is %d", e.Page, e.Total, e.LastPage)
}

// IsClientError agrupa los dos tipos de error atribuibles al cliente.
func IsClientError(err error) bool {
	var cre *ClientRequestError
	var pre *PageOutOfRangeError
	return errors.As(err, &cre) || errors.As(err, &pre)
}
