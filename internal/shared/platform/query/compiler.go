package query

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	sharedDomain "github.com/davicafu/scavhunt/internal/shared/domain"
)

// CountFunc devuelve cuántos registros cumplen el filtro. La implementa el almacén.
type CountFunc func(ctx context.Context, filter Filter) (int64, error)

const (
	DefaultPageSize = 100
	MaxPageSize     = 1000
)

type config struct {
	schema            Schema
	defaultSort       []SortField
	defaultProjection *Projection
	pageSize          int
	maxPageSize       int
}

type Option func(*config)

func WithSchema(s Schema) Option {
	return func(c *config) { c.schema = s }
}

func WithDefaultSort(fields ...SortField) Option {
	return func(c *config) { c.defaultSort = append([]SortField(nil), fields...) }
}

// WithDefaultProjection fija la proyección usada sin "fields". nil devuelve todos los campos.
func WithDefaultProjection(p *Projection) Option {
	return func(c *config) { c.defaultProjection = p }
}

func WithPageSize(def, max int) Option {
	return func(c *config) {
		if def > 0 {
			c.pageSize = def
		}
		if max > 0 {
			c.maxPageSize = max
		}
		if c.pageSize > c.maxPageSize {
			c.pageSize = c.maxPageSize
		}
	}
}

// Compiler traduce los parámetros de una petición a un Descriptor.
// Se crea uno por petición; no es seguro para uso concurrente.
type Compiler struct {
	raw  Params
	cfg  config
	desc Descriptor
	err  error
}

func NewCompiler(target string, raw Params, opts ...Option) *Compiler {
	cfg := config{
		defaultSort:       []SortField{{Field: "createdAt", Desc: true}},
		defaultProjection: &Projection{Mode: Exclude, Fields: []string{"__v"}},
		pageSize:          DefaultPageSize,
		maxPageSize:       MaxPageSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Compiler{
		raw:  raw.Clone(),
		cfg:  cfg,
		desc: Descriptor{Target: target},
	}
}

// Compile ejecuta las cuatro etapas en orden y devuelve el descriptor final.
func Compile(ctx context.Context, target string, raw Params, count CountFunc, opts ...Option) (Descriptor, error) {
	return NewCompiler(target, raw, opts...).
		Filter().
		Sort().
		LimitFields().
		Paginate(ctx, count).
		Descriptor()
}

// ---------- Etapas ----------

func (c *Compiler) Filter() *Compiler {
	if c.err != nil {
		return c
	}
	f, err := filterStage(c.raw, c.cfg.schema)
	if err != nil {
		c.err = err
		return c
	}
	c.desc.Filter = f
	return c
}

func (c *Compiler) Sort() *Compiler {
	if c.err != nil {
		return c
	}
	s, err := sortStage(c.raw, c.cfg)
	if err != nil {
		c.err = err
		return c
	}
	c.desc.Sort = s
	return c
}

func (c *Compiler) LimitFields() *Compiler {
	if c.err != nil {
		return c
	}
	p, err := projectionStage(c.raw, c.cfg)
	if err != nil {
		c.err = err
		return c
	}
	c.desc.Projection = p
	return c
}

// Paginate aplica skip/limit. Solo consulta count si "page" viene explícito y es
// mayor que 1; el conteo usa el filtro ya compilado.
func (c *Compiler) Paginate(ctx context.Context, count CountFunc) *Compiler {
	if c.err != nil {
		return c
	}
	page, explicit, err := pageStage(c.raw, c.cfg)
	if err != nil {
		c.err = err
		return c
	}
	c.desc.Page = page

	if !explicit || page.Number == 1 {
		return c
	}
	if count == nil {
		c.err = errors.New("query: page requested but no count function provided")
		return c
	}
	if err := ctx.Err(); err != nil {
		c.err = err
		return c
	}

	total, err := count(ctx, c.desc.Filter)
	if err != nil {
		c.err = err
		return c
	}
	if page.Skip >= total {
		last := int((total + int64(page.Size) - 1) / int64(page.Size))
		if last < 1 {
			last = 1
		}
		c.err = &PageOutOfRangeError{Page: page.Number, Size: page.Size, Total: total, LastPage: last}
	}
	return c
}

// Err devuelve el primer error de las etapas ejecutadas.
func (c *Compiler) Err() error { return c.err }

func (c *Compiler) Descriptor() (Descriptor, error) {
	if c.err != nil {
		return Descriptor{}, c.err
	}
	return c.desc.clone(), nil
}

// ---------- Filtro ----------

var operators = map[string]sharedDomain.Operator{
	"eq":  sharedDomain.OpEq,
	"gt":  sharedDomain.OpGt,
	"gte": sharedDomain.OpGte,
	"lt":  sharedDomain.OpLt,
	"lte": sharedDomain.OpLte,
}

// nativeOperator acepta "gte" y "$gte"; así una clave ya traducida no se duplica.
func nativeOperator(key string) (sharedDomain.Operator, bool) {
	op, ok := operators[strings.TrimPrefix(key, "$")]
	return op, ok
}

func filterStage(raw Params, schema Schema) (Filter, error) {
	var out Filter
	for _, field := range sortedKeys(raw) {
		value := raw[field]
		if IsReserved(field) {
			continue
		}
		if err := schema.checkField(field, field); err != nil {
			return nil, err
		}

		switch v := value.(type) {
		case string:
			val, err := schema.coerce(field, field, sharedDomain.OpEq, v)
			if err != nil {
				return nil, err
			}
			out = append(out, sharedDomain.Criterion{Field: field, Op: sharedDomain.OpEq, Value: val})
		case map[string]interface{}:
			conds, err := operatorClauses(field, v, schema)
			if err != nil {
				return nil, err
			}
			out = append(out, conds...)
		case []string:
			return nil, clientError(field, "parameter given more than once")
		default:
			return nil, clientError(field, "unsupported value of type %T", value)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Field != out[j].Field {
			return out[i].Field < out[j].Field
		}
		return out[i].Op < out[j].Op
	})
	return out, nil
}

func operatorClauses(field string, ops map[string]interface{}, schema Schema) ([]sharedDomain.Criterion, error) {
	if len(ops) == 0 {
		return nil, clientError(field, "empty operator set")
	}
	seen := make(map[sharedDomain.Operator]bool, len(ops))
	conds := make([]sharedDomain.Criterion, 0, len(ops))
	for _, key := range sortedKeys(ops) {
		value := ops[key]
		param := fmt.Sprintf("%s[%s]", field, key)
		op, ok := nativeOperator(key)
		if !ok {
			return nil, clientError(param, "unsupported operator %q", key)
		}
		if seen[op] {
			return nil, clientError(param, "operator given more than once")
		}
		seen[op] = true

		s, ok := value.(string)
		if !ok {
			if _, list := value.([]string); list {
				return nil, clientError(param, "parameter given more than once")
			}
			return nil, clientError(param, "nested operators are not supported")
		}
		val, err := schema.coerce(param, field, op, s)
		if err != nil {
			return nil, err
		}
		conds = append(conds, sharedDomain.Criterion{Field: field, Op: op, Value: val})
	}
	return conds, nil
}

// ---------- Orden ----------

func sortStage(raw Params, cfg config) ([]SortField, error) {
	value, present, err := stringParam(raw, ParamSort)
	if err != nil {
		return nil, err
	}
	if !present || strings.TrimSpace(value) == "" {
		return append([]SortField{}, cfg.defaultSort...), nil
	}

	var out []SortField
	seen := make(map[string]bool)
	for _, tok := range strings.Split(value, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		desc := strings.HasPrefix(tok, "-")
		name := strings.TrimPrefix(tok, "-")
		if err := cfg.schema.checkField(ParamSort, name); err != nil {
			return nil, err
		}
		if seen[name] {
			return nil, clientError(ParamSort, "field %q listed more than once", name)
		}
		seen[name] = true
		out = append(out, SortField{Field: name, Desc: desc})
	}
	if len(out) == 0 {
		return append([]SortField{}, cfg.defaultSort...), nil
	}
	return out, nil
}

// ---------- Proyección ----------

func projectionStage(raw Params, cfg config) (*Projection, error) {
	value, present, err := stringParam(raw, ParamFields)
	if err != nil {
		return nil, err
	}
	if !present || strings.TrimSpace(value) == "" {
		if cfg.defaultProjection == nil {
			return nil, nil
		}
		p := Projection{Mode: cfg.defaultProjection.Mode, Fields: append([]string{}, cfg.defaultProjection.Fields...)}
		return &p, nil
	}

	var p Projection
	seen := make(map[string]bool)
	for _, tok := range strings.Split(value, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		mode := Include
		if strings.HasPrefix(tok, "-") {
			mode = Exclude
		}
		if p.Mode != 0 && p.Mode != mode {
			return nil, clientError(ParamFields, "cannot mix included and excluded fields")
		}
		p.Mode = mode

		name := strings.TrimPrefix(tok, "-")
		if err := cfg.schema.checkField(ParamFields, name); err != nil {
			return nil, err
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		p.Fields = append(p.Fields, name)
	}
	if len(p.Fields) == 0 {
		return nil, clientError(ParamFields, "no fields listed")
	}
	return &p, nil
}

// ---------- Paginación ----------

func pageStage(raw Params, cfg config) (*Page, bool, error) {
	number, explicit, err := positiveInt(raw, ParamPage, 1)
	if err != nil {
		return nil, false, err
	}
	size, _, err := positiveInt(raw, ParamLimit, cfg.pageSize)
	if err != nil {
		return nil, false, err
	}
	if size > cfg.maxPageSize {
		return nil, false, clientError(ParamLimit, "must not exceed %d", cfg.maxPageSize)
	}
	if int64(number-1) > math.MaxInt64/int64(size) {
		return nil, false, clientError(ParamPage, "too large")
	}
	return &Page{Number: number, Size: size, Skip: int64(number-1) * int64(size)}, explicit, nil
}

func positiveInt(raw Params, name string, def int) (int, bool, error) {
	value, present, err := stringParam(raw, name)
	if err != nil {
		return 0, false, err
	}
	value = strings.TrimSpace(value)
	if !present || value == "" {
		return def, false, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		return 0, false, clientError(name, "must be a positive integer")
	}
	return n, true, nil
}

// stringParam lee un parámetro reservado, que solo admite un valor de texto.
func stringParam(raw Params, name string) (string, bool, error) {
	v, ok := raw[name]
	if !ok {
		return "", false, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", false, clientError(name, "must be a single value")
	}
	return s, true, nil
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
