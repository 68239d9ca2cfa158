package sqldb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	sharedDomain "github.com/davicafu/scavhunt/internal/shared/domain"
	"github.com/davicafu/scavhunt/internal/shared/infra/platform/db/sqldb"
	"github.com/davicafu/scavhunt/internal/shared/platform/query"
	userDomain "github.com/davicafu/scavhunt/internal/user/domain"
)

// columns traduce los campos públicos del documento a columnas de la tabla users.
// password_hash nunca se expone a través de un descriptor.
var columns = map[string]string{
	"_id":       "id",
	"username":  "username",
	"email":     "email",
	"createdAt": "created_at",
	"hunts":     "hunts",
	"__v":       "version",
}

// fieldOrder fija el orden de las columnas en el SELECT.
var fieldOrder = []string{"_id", "username", "email", "createdAt", "hunts", "__v"}

var sqlOperators = map[sharedDomain.Operator]string{
	sharedDomain.OpEq:  "=",
	sharedDomain.OpGt:  ">",
	sharedDomain.OpGte: ">=",
	sharedDomain.OpLt:  "<",
	sharedDomain.OpLte: "<=",
}

// UserRepoSQL implementa UserRepository y OutboxRepository sobre SQLite o Postgres.
type UserRepoSQL struct {
	*sqldb.OutboxRepo
	db      *sql.DB
	dialect sqldb.Dialect
}

func NewUserRepoSQL(db *sql.DB, d sqldb.Dialect) *UserRepoSQL {
	return &UserRepoSQL{
		OutboxRepo: sqldb.NewOutboxRepo(db, d),
		db:         db,
		dialect:    d,
	}
}

// InitSchema crea las tablas users y outbox si no existen.
func InitSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS users (
            id TEXT PRIMARY KEY,
            username TEXT NOT NULL,
            email TEXT NOT NULL UNIQUE,
            password_hash TEXT NOT NULL,
            created_at BIGINT NOT NULL,
            hunts TEXT NOT NULL DEFAULT '[]',
            version BIGINT NOT NULL DEFAULT 0
        )
    `)
	if err != nil {
		return err
	}
	return sqldb.InitOutbox(ctx, db)
}

// --- Consultas ---

func (r *UserRepoSQL) Find(ctx context.Context, d query.Descriptor) ([]query.Document, error) {
	fields := selectedFields(d.Projection)
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = columns[f]
	}
	if len(cols) == 0 {
		// proyección que excluye todo: se leen las filas y se devuelven documentos vacíos
		cols = []string{"id"}
	}

	args := sqldb.NewArgs(r.dialect)
	where, err := whereClause(d.Filter, args)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM users%s", strings.Join(cols, ", "), where)

	if len(d.Sort) > 0 {
		order := make([]string, 0, len(d.Sort)+1)
		for _, s := range d.Sort {
			col, ok := columns[s.Field]
			if !ok {
				return nil, fmt.Errorf("%w: cannot sort by %q", sharedDomain.ErrInvalidInput, s.Field)
			}
			dir := "ASC"
			if s.Desc {
				dir = "DESC"
			}
			order = append(order, col+" "+dir)
		}
		// desempate estable para que las páginas no se solapen
		order = append(order, "id ASC")
		b.WriteString(" ORDER BY " + strings.Join(order, ", "))
	}

	if d.Page != nil {
		fmt.Fprintf(&b, " LIMIT %s OFFSET %s", args.Add(d.Page.Size), args.Add(d.Page.Skip))
	}

	rows, err := r.db.QueryContext(ctx, b.String(), args.Values()...)
	if err != nil {
		return nil, sqldb.Classify(r.dialect.Name, err)
	}
	defer rows.Close()

	docs := []query.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows, fields)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, sqldb.Classify(r.dialect.Name, err)
	}
	return docs, nil
}

func (r *UserRepoSQL) Count(ctx context.Context, filter query.Filter) (int64, error) {
	args := sqldb.NewArgs(r.dialect)
	where, err := whereClause(filter, args)
	if err != nil {
		return 0, err
	}

	var n int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users"+where, args.Values()...).Scan(&n); err != nil {
		return 0, sqldb.Classify(r.dialect.Name, err)
	}
	return n, nil
}

func (r *UserRepoSQL) GetByID(ctx context.Context, id uuid.UUID) (*userDomain.User, error) {
	row := r.db.QueryRowContext(ctx, r.dialect.Rebind(
		`SELECT id, username, email, password_hash, created_at, hunts, version FROM users WHERE id = ?`),
		id.String(),
	)

	var (
		idStr, hunts string
		createdAt    int64
		u            userDomain.User
	)
	err := row.Scan(&idStr, &u.Username, &u.Email, &u.PasswordHash, &createdAt, &hunts, &u.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, userDomain.ErrUserNotFound
	}
	if err != nil {
		return nil, sqldb.Classify(r.dialect.Name, err)
	}

	if u.ID, err = uuid.Parse(idStr); err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", idStr, err)
	}
	u.CreatedAt = time.UnixMilli(createdAt).UTC()
	if err := json.Unmarshal([]byte(hunts), &u.Hunts); err != nil {
		return nil, fmt.Errorf("invalid hunts for user %s: %w", idStr, err)
	}
	return &u, nil
}

// --- Escrituras (con outbox en la misma transacción) ---

func (r *UserRepoSQL) Create(ctx context.Context, u *userDomain.User, evt sharedDomain.OutboxEvent) error {
	hunts, err := encodeHunts(u.Hunts)
	if err != nil {
		return err
	}

	err = sqldb.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, r.dialect.Rebind(
			`INSERT INTO users (id, username, email, password_hash, created_at, hunts, version)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`),
			u.ID.String(), u.Username, u.Email, u.PasswordHash, u.CreatedAt.UnixMilli(), hunts, u.Version,
		)
		if err != nil {
			return err
		}
		return sqldb.InsertOutboxTx(ctx, tx, r.dialect, evt)
	})
	return r.writeError(err)
}

func (r *UserRepoSQL) Update(ctx context.Context, u *userDomain.User, evt sharedDomain.OutboxEvent) error {
	hunts, err := encodeHunts(u.Hunts)
	if err != nil {
		return err
	}

	err = sqldb.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, r.dialect.Rebind(
			`UPDATE users SET username = ?, email = ?, password_hash = ?, hunts = ?, version = ? WHERE id = ?`),
			u.Username, u.Email, u.PasswordHash, hunts, u.Version, u.ID.String(),
		)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return userDomain.ErrUserNotFound
		}
		return sqldb.InsertOutboxTx(ctx, tx, r.dialect, evt)
	})
	return r.writeError(err)
}

func (r *UserRepoSQL) DeleteByID(ctx context.Context, id uuid.UUID, evt sharedDomain.OutboxEvent) error {
	err := sqldb.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, r.dialect.Rebind(`DELETE FROM users WHERE id = ?`), id.String())
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return userDomain.ErrUserNotFound
		}
		return sqldb.InsertOutboxTx(ctx, tx, r.dialect, evt)
	})
	return r.writeError(err)
}

func (r *UserRepoSQL) writeError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, userDomain.ErrUserNotFound):
		return err
	case sqldb.IsUniqueViolation(err):
		return userDomain.ErrUserAlreadyExists
	}
	return sqldb.Classify(r.dialect.Name, err)
}

// --- Traducción del descriptor ---

func selectedFields(p *query.Projection) []string {
	if p == nil {
		return fieldOrder
	}
	fields := make([]string, 0, len(fieldOrder))
	for _, f := range fieldOrder {
		if p.Selects(f) {
			fields = append(fields, f)
		}
	}
	return fields
}

// whereClause genera " WHERE ..." con todas las condiciones unidas por AND.
// Sobre hunts solo se admite igualdad, entendida como pertenencia a la lista.
func whereClause(filter query.Filter, args *sqldb.Args) (string, error) {
	if len(filter) == 0 {
		return "", nil
	}

	conds := make([]string, 0, len(filter))
	for _, c := range filter {
		col, ok := columns[c.Field]
		if !ok {
			return "", fmt.Errorf("%w: cannot filter by %q", sharedDomain.ErrInvalidInput, c.Field)
		}
		op, ok := sqlOperators[c.Op]
		if !ok {
			return "", fmt.Errorf("%w: unsupported operator %q", sharedDomain.ErrInvalidInput, c.Op)
		}

		if c.Field == "hunts" {
			if c.Op != sharedDomain.OpEq {
				return "", fmt.Errorf("%w: hunts only supports equality", sharedDomain.ErrInvalidInput)
			}
			// el elemento se busca ya codificado en JSON, comillas incluidas
			needle, _ := json.Marshal(fmt.Sprint(c.Value))
			conds = append(conds, args.Dialect().ContainsText(col, args.Add(string(needle))))
			continue
		}

		conds = append(conds, fmt.Sprintf("%s %s %s", col, op, args.Add(columnValue(c.Value))))
	}
	return " WHERE " + strings.Join(conds, " AND "), nil
}

func columnValue(v interface{}) interface{} {
	if t, ok := v.(time.Time); ok {
		return t.UnixMilli()
	}
	return v
}

func scanDocument(rows *sql.Rows, fields []string) (query.Document, error) {
	var (
		id, username, email, hunts string
		createdAt, version         int64
	)
	if len(fields) == 0 {
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		return query.Document{}, nil
	}

	dest := make([]interface{}, len(fields))
	for i, f := range fields {
		switch f {
		case "_id":
			dest[i] = &id
		case "username":
			dest[i] = &username
		case "email":
			dest[i] = &email
		case "createdAt":
			dest[i] = &createdAt
		case "hunts":
			dest[i] = &hunts
		case "__v":
			dest[i] = &version
		}
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, err
	}

	doc := make(query.Document, len(fields))
	for _, f := range fields {
		switch f {
		case "_id":
			doc[f] = id
		case "username":
			doc[f] = username
		case "email":
			doc[f] = email
		case "createdAt":
			doc[f] = time.UnixMilli(createdAt).UTC()
		case "hunts":
			list := []string{}
			if err := json.Unmarshal([]byte(hunts), &list); err != nil {
				return nil, err
			}
			doc[f] = list
		case "__v":
			doc[f] = version
		}
	}
	return doc, nil
}

func encodeHunts(hunts []string) (string, error) {
	if hunts == nil {
		hunts = []string{}
	}
	b, err := json.Marshal(hunts)
	if err != nil {
		return "", fmt.Errorf("failed to marshal hunts: %w", err)
	}
	return string(b), nil
}

// Verificación estática para asegurar que UserRepoSQL implementa las interfaces
var (
	_ userDomain.UserRepository     = (*UserRepoSQL)(nil)
	_ sharedDomain.OutboxRepository = (*UserRepoSQL)(nil)
)
