// Package docstore es un almacén de documentos en memoria que ejecuta
// descriptores de consulta con la semántica de Mongo que usa el servicio:
// igualdad y comparación por campo, orden multi-clave, proyección y skip/limit.
package docstore

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	sharedDomain "github.com/davicafu/scavhunt/internal/shared/domain"
	"github.com/davicafu/scavhunt/internal/shared/platform/query"
)

var (
	ErrNotFound    = errors.New("document not found")
	ErrDuplicateID = errors.New("duplicate document id")
	ErrMissingID   = errors.New("document without _id")
)

const IDField = "_id"

type collection struct {
	docs  map[string]query.Document
	order []string // orden de inserción, usado cuando no hay sort
}

// Store es seguro para uso concurrente.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

func New() *Store {
	return &Store{collections: make(map[string]*collection)}
}

func (s *Store) coll(name string) *collection {
	c, ok := s.collections[name]
	if !ok {
		c = &collection{docs: make(map[string]query.Document)}
		s.collections[name] = c
	}
	return c
}

// ---------- Escritura ----------

func (s *Store) Insert(ctx context.Context, name string, doc query.Document) error {
	id, ok := doc[IDField].(string)
	if !ok || id == "" {
		return ErrMissingID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.coll(name)
	if _, exists := c.docs[id]; exists {
		return ErrDuplicateID
	}
	c.docs[id] = copyDoc(doc)
	c.order = append(c.order, id)
	return nil
}

// Replace sustituye el documento completo conservando su posición de inserción.
func (s *Store) Replace(ctx context.Context, name, id string, doc query.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.coll(name)
	if _, exists := c.docs[id]; !exists {
		return ErrNotFound
	}
	d := copyDoc(doc)
	d[IDField] = id
	c.docs[id] = d
	return nil
}

func (s *Store) Delete(ctx context.Context, name, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.coll(name)
	if _, exists := c.docs[id]; !exists {
		return ErrNotFound
	}
	delete(c.docs, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

// ---------- Lectura ----------

func (s *Store) Get(ctx context.Context, name, id string) (query.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[name]
	if !ok {
		return nil, ErrNotFound
	}
	d, ok := c.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyDoc(d), nil
}

func (s *Store) Count(ctx context.Context, name string, filter query.Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[name]
	if !ok {
		return 0, nil
	}
	var n int64
	for _, id := range c.order {
		if Match(c.docs[id], filter) {
			n++
		}
	}
	return n, nil
}

// Find ejecuta el descriptor completo. Las dimensiones a nil no se aplican.
func (s *Store) Find(ctx context.Context, d query.Descriptor) ([]query.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	var matched []query.Document
	if c, ok := s.collections[d.Target]; ok {
		for _, id := range c.order {
			if doc := c.docs[id]; Match(doc, d.Filter) {
				matched = append(matched, doc)
			}
		}
	}
	s.mu.RUnlock()

	if len(d.Sort) > 0 {
		sort.SliceStable(matched, func(i, j int) bool {
			return less(matched[i], matched[j], d.Sort)
		})
	}

	if d.Page != nil {
		matched = window(matched, d.Page.Skip, d.Page.Size)
	}

	out := make([]query.Document, 0, len(matched))
	for _, doc := range matched {
		out = append(out, Project(doc, d.Projection))
	}
	return out, nil
}

func window(docs []query.Document, skip int64, size int) []query.Document {
	if skip >= int64(len(docs)) {
		return nil
	}
	docs = docs[skip:]
	if size > 0 && size < len(docs) {
		docs = docs[:size]
	}
	return docs
}

// ---------- Evaluación ----------

// Match indica si el documento cumple todas las condiciones (AND).
// Un campo array cumple si alguno de sus elementos cumple, como en Mongo.
func Match(doc query.Document, filter query.Filter) bool {
	for _, c := range filter {
		v, ok := Lookup(doc, c.Field)
		if !ok {
			return false
		}
		if !matchValue(v, c) {
			return false
		}
	}
	return true
}

func matchValue(v interface{}, c sharedDomain.Criterion) bool {
	if list, ok := v.([]interface{}); ok {
		for _, el := range list {
			if matchValue(el, c) {
				return true
			}
		}
		return false
	}
	if list, ok := v.([]string); ok {
		for _, el := range list {
			if matchValue(el, c) {
				return true
			}
		}
		return false
	}

	cmp, ok := Compare(v, c.Value)
	if !ok {
		return false
	}
	switch c.Op {
	case sharedDomain.OpEq:
		return cmp == 0
	case sharedDomain.OpGt:
		return cmp > 0
	case sharedDomain.OpGte:
		return cmp >= 0
	case sharedDomain.OpLt:
		return cmp < 0
	case sharedDomain.OpLte:
		return cmp <= 0
	}
	return false
}

// Lookup resuelve rutas con puntos ("items.name") sobre mapas anidados.
func Lookup(doc query.Document, path string) (interface{}, bool) {
	var cur interface{} = map[string]interface{}(doc)
	for _, part := range strings.Split(path, ".") {
		switch m := cur.(type) {
		case map[string]interface{}:
			v, ok := m[part]
			if !ok {
				return nil, false
			}
			cur = v
		case query.Document:
			v, ok := m[part]
			if !ok {
				return nil, false
			}
			cur = v
		case []interface{}:
			var found []interface{}
			for _, el := range m {
				if sub, ok := el.(map[string]interface{}); ok {
					if v, ok := sub[part]; ok {
						found = append(found, v)
					}
				}
			}
			if len(found) == 0 {
				return nil, false
			}
			cur = found
		default:
			return nil, false
		}
	}
	return cur, true
}

// Compare ordena dos valores del mismo tipo. ok es false si no son comparables.
func Compare(a, b interface{}) (int, bool) {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		if !ok {
			return 0, false
		}
		return cmpFloat(fa, fb), true
	}
	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(x, y), true
	case bool:
		y, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case x == y:
			return 0, true
		case !x:
			return -1, true
		}
		return 1, true
	case time.Time:
		y, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return x.Compare(y), true
	case nil:
		if b == nil {
			return 0, true
		}
	}
	return 0, false
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// typeRank sigue el orden de tipos de Mongo: ausente/null, números, texto, booleano, fecha.
func typeRank(v interface{}, present bool) int {
	if !present || v == nil {
		return 0
	}
	if _, ok := toFloat(v); ok {
		return 1
	}
	switch v.(type) {
	case string:
		return 2
	case []interface{}, map[string]interface{}:
		return 3
	case bool:
		return 4
	case time.Time:
		return 5
	}
	return 6
}

func less(a, b query.Document, fields []query.SortField) bool {
	for _, f := range fields {
		va, okA := Lookup(a, f.Field)
		vb, okB := Lookup(b, f.Field)
		ra, rb := typeRank(va, okA), typeRank(vb, okB)

		cmp := 0
		if ra != rb {
			cmp = ra - rb
		} else if c, ok := Compare(va, vb); ok {
			cmp = c
		}
		if cmp == 0 {
			continue
		}
		if f.Desc {
			return cmp > 0
		}
		return cmp < 0
	}
	return false
}

// Project devuelve una copia con solo los campos seleccionados.
// Las rutas con punto ("items.name") bajan a subdocumentos y a cada
// elemento de los arrays de subdocumentos, como en Mongo.
func Project(doc query.Document, p *query.Projection) query.Document {
	if p == nil {
		return copyDoc(doc)
	}

	tree := newPathTree(p.Fields)
	if p.Mode == query.Exclude {
		return query.Document(excludePaths(doc, tree))
	}
	if _, ok := tree[IDField]; !ok {
		tree[IDField] = nil
	}
	return query.Document(includePaths(doc, tree))
}

// pathTree agrupa las rutas por segmento; un hijo nil marca el campo completo.
type pathTree map[string]pathTree

func newPathTree(fields []string) pathTree {
	root := pathTree{}
	for _, f := range fields {
		cur := root
		parts := strings.Split(f, ".")
		for i, part := range parts {
			if i == len(parts)-1 {
				cur[part] = nil
				break
			}
			next, seen := cur[part]
			if seen && next == nil {
				// el campo completo ya estaba listado
				break
			}
			if next == nil {
				next = pathTree{}
				cur[part] = next
			}
			cur = next
		}
	}
	return root
}

func asMap(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, true
	case query.Document:
		return m, true
	}
	return nil, false
}

func includePaths(src map[string]interface{}, tree pathTree) map[string]interface{} {
	out := make(map[string]interface{}, len(tree))
	for k, sub := range tree {
		v, ok := src[k]
		if !ok {
			continue
		}
		if sub == nil {
			out[k] = copyValue(v)
			continue
		}
		if projected, ok := includeValue(v, sub); ok {
			out[k] = projected
		}
	}
	return out
}

// includeValue descarta los escalares: una ruta anidada solo existe dentro de subdocumentos.
func includeValue(v interface{}, tree pathTree) (interface{}, bool) {
	if m, ok := asMap(v); ok {
		return includePaths(m, tree), true
	}
	if arr, ok := v.([]interface{}); ok {
		out := make([]interface{}, 0, len(arr))
		for _, el := range arr {
			if projected, ok := includeValue(el, tree); ok {
				out = append(out, projected)
			}
		}
		return out, true
	}
	return nil, false
}

func excludePaths(src map[string]interface{}, tree pathTree) map[string]interface{} {
	out := make(map[string]interface{}, len(src))
	for k, v := range src {
		sub, listed := tree[k]
		switch {
		case !listed:
			out[k] = copyValue(v)
		case sub != nil:
			out[k] = excludeValue(v, sub)
		}
	}
	return out
}

func excludeValue(v interface{}, tree pathTree) interface{} {
	if m, ok := asMap(v); ok {
		return excludePaths(m, tree)
	}
	if arr, ok := v.([]interface{}); ok {
		out := make([]interface{}, len(arr))
		for i, el := range arr {
			out[i] = excludeValue(el, tree)
		}
		return out
	}
	return copyValue(v)
}

func copyDoc(doc query.Document) query.Document {
	out := make(query.Document, len(doc))
	for k, v := range doc {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		m := make(map[string]interface{}, len(t))
		for k, inner := range t {
			m[k] = copyValue(inner)
		}
		return m
	case query.Document:
		return map[string]interface{}(copyDoc(t))
	case []interface{}:
		s := make([]interface{}, len(t))
		for i, inner := range t {
			s[i] = copyValue(inner)
		}
		return s
	case []string:
		return append([]string(nil), t...)
	}
	return v
}
