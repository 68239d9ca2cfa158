package domain

import (
	"github.com/davicafu/scavhunt/internal/shared/platform/query"
)

// QuerySchema tipa los campos filtrables de hunts. No es estricto: los campos
// de ítems anidados (items.name) se filtran con la coerción por defecto.
var QuerySchema = query.Schema{
	Fields: map[string]query.Kind{
		"_id":          query.KindString,
		"title":        query.KindString,
		"description":  query.KindString,
		"difficulty":   query.KindString,
		"startDate":    query.KindTime,
		"endDate":      query.KindTime,
		"createdAt":    query.KindTime,
		"createdBy":    query.KindString,
		"participants": query.KindString,
		"completed":    query.KindBool,
		"winner":       query.KindString,
		"__v":          query.KindNumber,
	},
}

// DefaultProjection oculta la versión y la fecha de creación salvo que se pidan.
var DefaultProjection = &query.Projection{Mode: query.Exclude, Fields: []string{"__v", "createdAt"}}

// QueryOptions agrupa las opciones con las que se compilan los listados de hunts.
func QueryOptions() []query.Option {
	return []query.Option{
		query.WithSchema(QuerySchema),
		query.WithDefaultProjection(DefaultProjection),
	}
}
