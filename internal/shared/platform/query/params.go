package query

import (
	"net/url"
	"sort"
	"strings"
)

// Nombres de parámetros consumidos por las etapas de orden, proyección y paginación.
const (
	ParamPage   = "page"
	ParamLimit  = "limit"
	ParamSort   = "sort"
	ParamFields = "fields"
)

// ReservedParams nunca se tratan como predicados de filtro.
var ReservedParams = []string{ParamPage, ParamLimit, ParamSort, ParamFields}

// IsReserved indica si el nombre pertenece a una etapa distinta del filtro.
func IsReserved(name string) bool {
	for _, r := range ReservedParams {
		if r == name {
			return true
		}
	}
	return false
}

// Params es el mapa crudo de la query string. Cada valor es un string,
// un []string (clave repetida) o un map[string]interface{} (sintaxis field[op]=v).
type Params map[string]interface{}

// Clone hace una copia profunda; el compilador nunca toca el mapa del llamador.
func (p Params) Clone() Params {
	if p == nil {
		return Params{}
	}
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case []string:
		return append([]string(nil), t...)
	case map[string]interface{}:
		m := make(map[string]interface{}, len(t))
		for k, inner := range t {
			m[k] = cloneValue(inner)
		}
		return m
	case map[string]string:
		m := make(map[string]interface{}, len(t))
		for k, inner := range t {
			m[k] = inner
		}
		return m
	default:
		return v
	}
}

// ParamsFromValues construye Params desde una query string ya decodificada,
// plegando claves con corchetes (duration[gte]=5) en mapas anidados.
// Si un campo aparece a la vez plano y con corchetes, el valor plano se
// guarda bajo el operador "eq".
func ParamsFromValues(values url.Values) Params {
	p := make(Params, len(values))

	nested := make(map[string]bool)
	for key := range values {
		if segs := segments(key); len(segs) > 1 {
			nested[segs[0]] = true
		}
	}

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		vals := values[key]
		segs := segments(key)
		if len(segs) == 1 {
			if nested[key] {
				insert(p, []string{key, "eq"}, scalar(vals))
				continue
			}
			p[key] = scalar(vals)
			continue
		}
		insert(p, segs, scalar(vals))
	}
	return p
}

// insert coloca el valor en la ruta de mapas anidados indicada por segs.
func insert(p Params, segs []string, value interface{}) {
	var cur map[string]interface{} = p
	for i, seg := range segs {
		if i == len(segs)-1 {
			cur[seg] = value
			return
		}
		next, ok := cur[seg].(map[string]interface{})
		if !ok {
			next = make(map[string]interface{})
			cur[seg] = next
		}
		cur = next
	}
}

func scalar(vals []string) interface{} {
	switch len(vals) {
	case 0:
		return ""
	case 1:
		return vals[0]
	}
	return append([]string(nil), vals...)
}

// segments divide "a[b][c]" en [a b c]. Una clave mal formada se trata como
// nombre de campo literal.
func segments(key string) []string {
	open := strings.IndexByte(key, '[')
	if open <= 0 || !strings.HasSuffix(key, "]") {
		return []string{key}
	}
	segs := []string{key[:open]}
	rest := key[open:]
	for rest != "" {
		if rest[0] != '[' {
			return []string{key}
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return []string{key}
		}
		segs = append(segs, rest[1:end])
		rest = rest[end+1:]
	}
	return segs
}
