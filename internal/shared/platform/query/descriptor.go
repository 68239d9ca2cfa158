package query

import (
	sharedDomain "github.com/davicafu/scavhunt/internal/shared/domain"
)

// Document es un registro devuelto por el almacén, ya proyectado.
type Document map[string]interface{}

// ---------- Filtro ----------

// Filter es el conjunto de predicados compilado, ordenado por campo y operador.
type Filter []sharedDomain.Criterion

// ToConditions implementa sharedDomain.Criteria.
func (f Filter) ToConditions() []sharedDomain.Criterion {
	return append([]sharedDomain.Criterion(nil), f...)
}

// Map devuelve la forma de documento nativa del filtro, p. ej.
// {"difficulty": "easy", "numOfPlayers": {"$gte": 4}}.
// Un campo con un único predicado de igualdad se expresa como valor directo.
func (f Filter) Map() map[string]interface{} {
	byField := make(map[string][]sharedDomain.Criterion)
	for _, c := range f {
		byField[c.Field] = append(byField[c.Field], c)
	}

	out := make(map[string]interface{}, len(byField))
	for field, conds := range byField {
		if len(conds) == 1 && conds[0].Op == sharedDomain.OpEq {
			out[field] = conds[0].Value
			continue
		}
		ops := make(map[string]interface{}, len(conds))
		for _, c := range conds {
			ops[string(c.Op)] = c.Value
		}
		out[field] = ops
	}
	return out
}

// ---------- Orden ----------

// SortField indica campo y dirección. El orden del slice es el orden de desempate.
type SortField struct {
	Field string
	Desc  bool
}

// ---------- Proyección ----------

type ProjectionMode int

const (
	Include ProjectionMode = iota + 1
	Exclude
)

func (m ProjectionMode) String() string {
	switch m {
	case Include:
		return "include"
	case Exclude:
		return "exclude"
	}
	return "unknown"
}

// Projection limita los campos devueltos por registro.
type Projection struct {
	Mode   ProjectionMode
	Fields []string
}

// Map devuelve {campo: 1} en modo inclusión y {campo: 0} en modo exclusión.
func (p Projection) Map() map[string]int {
	flag := 1
	if p.Mode == Exclude {
		flag = 0
	}
	out := make(map[string]int, len(p.Fields))
	for _, f := range p.Fields {
		out[f] = flag
	}
	return out
}

// Selects indica si el campo sobrevive a la proyección.
// En modo inclusión "_id" siempre se devuelve, igual que en Mongo.
func (p Projection) Selects(field string) bool {
	listed := false
	for _, f := range p.Fields {
		if f == field {
			listed = true
			break
		}
	}
	if p.Mode == Exclude {
		return !listed
	}
	return listed || field == "_id"
}

// ---------- Paginación ----------

// Page es paginación por offset: Skip = (Number-1)*Size.
type Page struct {
	Number int
	Size   int
	Skip   int64
}

// ---------- Descriptor ----------

// Descriptor es la consulta final que se entrega al almacén.
// Una dimensión a nil conserva el comportamiento por defecto del almacén
// (sin filtro, sin orden, proyección completa, sin límite).
type Descriptor struct {
	Target     string
	Filter     Filter
	Sort       []SortField
	Projection *Projection
	Page       *Page
}

// clone copia los slices para que el descriptor devuelto sea inmutable.
func (d Descriptor) clone() Descriptor {
	out := Descriptor{Target: d.Target}
	if d.Filter != nil {
		out.Filter = append(Filter{}, d.Filter...)
	}
	if d.Sort != nil {
		out.Sort = append([]SortField{}, d.Sort...)
	}
	if d.Projection != nil {
		p := Projection{Mode: d.Projection.Mode, Fields: append([]string{}, d.Projection.Fields...)}
		out.Projection = &p
	}
	if d.Page != nil {
		pg := *d.Page
		out.Page = &pg
	}
	return out
}
