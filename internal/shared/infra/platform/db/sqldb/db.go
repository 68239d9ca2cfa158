package sqldb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	sharedDomain "github.com/davicafu/scavhunt/internal/shared/domain"
)

// Open abre la conexión y comprueba que el servidor responde.
func Open(ctx context.Context, d Dialect, dsn string) (*sql.DB, error) {
	db, err := sql.Open(d.DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.Name, err)
	}
	if d == SQLite && strings.Contains(dsn, ":memory:") {
		// cada conexión de :memory: es una base distinta
		db.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, Classify(d.Name, err)
	}
	return db, nil
}

// Classify convierte los fallos de conectividad en StorageUnavailableError.
// El resto de errores se devuelven sin tocar.
func Classify(store string, err error) error {
	if err == nil {
		return nil
	}
	var unavailable *sharedDomain.StorageUnavailableError
	if errors.As(err, &unavailable) {
		return err
	}
	var netErr net.Error
	switch {
	case errors.Is(err, driver.ErrBadConn),
		errors.Is(err, sql.ErrConnDone),
		errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr):
		return &sharedDomain.StorageUnavailableError{Store: store, Err: err}
	}
	return err
}

// IsUniqueViolation detecta la violación de una restricción UNIQUE en ambos dialectos.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// WithTx ejecuta fn dentro de una transacción; hace rollback si fn falla.
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
