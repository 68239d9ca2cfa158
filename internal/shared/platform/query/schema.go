package query

import (
	"math"
	"strconv"
	"strings"
	"time"

	sharedDomain "github.com/davicafu/scavhunt/internal/shared/domain"
)

// Kind es el tipo de un campo para convertir los valores de la query string.
type Kind int

const (
	KindString Kind = iota + 1
	KindNumber
	KindBool
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	case KindTime:
		return "date"
	}
	return "unknown"
}

// Schema describe los campos conocidos de una colección.
// Con Strict, cualquier campo fuera del esquema se rechaza en todas las etapas.
type Schema struct {
	Fields map[string]Kind
	Strict bool
}

func (s Schema) checkField(param, field string) error {
	if err := validFieldName(param, field); err != nil {
		return err
	}
	if !s.Strict {
		return nil
	}
	if _, ok := s.Fields[field]; !ok {
		return clientError(param, "unknown field %q", field)
	}
	return nil
}

func validFieldName(param, field string) error {
	switch {
	case field == "":
		return clientError(param, "empty field name")
	case strings.HasPrefix(field, "$"):
		return clientError(param, "field names must not start with '$'")
	case strings.ContainsAny(field, " \t\r\n"):
		return clientError(param, "field names must not contain whitespace")
	}
	return nil
}

// coerce convierte el texto de la query string al tipo del campo.
// Sin esquema, la igualdad conserva el texto y las comparaciones infieren
// número, después fecha y por último texto.
func (s Schema) coerce(param, field string, op sharedDomain.Operator, raw string) (interface{}, error) {
	kind, known := s.Fields[field]
	if !known {
		if op == sharedDomain.OpEq {
			return raw, nil
		}
		if n, ok := parseNumber(raw); ok {
			return n, nil
		}
		if t, ok := parseTime(raw); ok {
			return t, nil
		}
		return raw, nil
	}

	switch kind {
	case KindNumber:
		if n, ok := parseNumber(raw); ok {
			return n, nil
		}
	case KindBool:
		if b, err := strconv.ParseBool(raw); err == nil {
			return b, nil
		}
	case KindTime:
		if t, ok := parseTime(raw); ok {
			return t, nil
		}
	default:
		return raw, nil
	}
	return nil, clientError(param, "value %q is not a valid %s", raw, kind)
}

func parseNumber(raw string) (interface{}, bool) {
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i, true
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, false
	}
	return f, true
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

func parseTime(raw string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
