package sqldb

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect resume las diferencias de SQL entre SQLite y Postgres que usan los repositorios.
type Dialect struct {
	Name       string
	DriverName string
	numbered   bool
}

var (
	SQLite   = Dialect{Name: "sqlite", DriverName: "sqlite"}
	Postgres = Dialect{Name: "postgres", DriverName: "pgx", numbered: true}
)

// DialectFor resuelve el dialecto a partir del nombre configurado.
func DialectFor(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	}
	return Dialect{}, fmt.Errorf("unsupported sql driver %q", name)
}

// Placeholder devuelve el marcador del argumento n (empezando en 1).
func (d Dialect) Placeholder(n int) string {
	if d.numbered {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// Rebind reescribe los '?' de una sentencia al estilo del dialecto.
func (d Dialect) Rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString(d.Placeholder(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ContainsText genera una condición de subcadena literal, sin comodines
// y sensible a mayúsculas en ambos dialectos.
func (d Dialect) ContainsText(column, placeholder string) string {
	if d.numbered {
		return fmt.Sprintf("strpos(%s, %s) > 0", column, placeholder)
	}
	return fmt.Sprintf("instr(%s, %s) > 0", column, placeholder)
}

// Args acumula argumentos posicionales y emite el placeholder que corresponde a cada uno.
type Args struct {
	dialect Dialect
	values  []interface{}
}

func NewArgs(d Dialect) *Args {
	return &Args{dialect: d}
}

// Add registra v y devuelve su placeholder.
func (a *Args) Add(v interface{}) string {
	a.values = append(a.values, v)
	return a.dialect.Placeholder(len(a.values))
}

func (a *Args) Dialect() Dialect {
	return a.dialect
}

func (a *Args) Values() []interface{} {
	return a.values
}
