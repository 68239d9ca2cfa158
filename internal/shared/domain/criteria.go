package domain

// ---------------- Operadores ----------------

// Operator es el token de comparación nativo del almacén de documentos.
// Los adaptadores SQL lo traducen a su propia sintaxis.
type Operator string

const (
	OpEq  Operator = "$eq"
	OpGt  Operator = "$gt"
	OpGte Operator = "$gte"
	OpLt  Operator = "$lt"
	OpLte Operator = "$lte"
)

// ---------------- Criterion ----------------

// Criterion describe una condición neutral de filtrado
type Criterion struct {
	Field string
	Op    Operator
	Value interface{}
}

// ---------------- Criteria interface ----------------

// Criteria permite transformar filtros a condiciones neutrales.
// Todas las condiciones se combinan con AND.
type Criteria interface {
	ToConditions() []Criterion
}
