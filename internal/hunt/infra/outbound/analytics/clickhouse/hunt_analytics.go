package clickhouse

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"

	huntDomain "github.com/davicafu/scavhunt/internal/hunt/domain"
)

// HuntAnalyticsRepo implementa HuntAnalyticsRepository sobre ClickHouse.
type HuntAnalyticsRepo struct {
	db *sql.DB
}

func NewHuntAnalyticsRepo(ctx context.Context, addr, dbName, user, password string) (*HuntAnalyticsRepo, error) {
	conn := clickhouse.OpenDB(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: dbName,
			Username: user,
			Password: password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout: 5 * time.Second,
	})

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("could not ping clickhouse: %w", err)
	}

	return &HuntAnalyticsRepo{db: conn}, nil
}

// LogBatch inserta el lote de actividad en una sola transacción.
func (r *HuntAnalyticsRepo) LogBatch(ctx context.Context, activity []huntDomain.HuntActivity) error {
	if len(activity) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO hunts_log (hunt_id, event_type, difficulty, completed, event_time)")
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, a := range activity {
		if _, err := stmt.ExecContext(ctx, a.HuntID, a.EventType, a.Difficulty, a.Completed, a.OccurredAt); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to exec statement for hunt %s: %w", a.HuntID, err)
		}
	}
	return tx.Commit()
}

func (r *HuntAnalyticsRepo) GetDailyTrend(ctx context.Context, start, end time.Time) ([]huntDomain.DailyHuntTrend, error) {
	query := `
		SELECT
			toStartOfDay(event_time) AS day,
			countIf(event_type = 'hunt.created') AS created,
			countIf(event_type = 'hunt.updated' AND completed) AS completed,
			countIf(event_type = 'hunt.deleted') AS deleted
		FROM hunts_log
		WHERE event_time BETWEEN ? AND ?
		GROUP BY day
		ORDER BY day
	`
	rows, err := r.db.QueryContext(ctx, query, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trends := []huntDomain.DailyHuntTrend{}
	for rows.Next() {
		var trend huntDomain.DailyHuntTrend
		var created, completed, deleted uint64
		if err := rows.Scan(&trend.Day, &created, &completed, &deleted); err != nil {
			return nil, err
		}
		trend.CreatedCount, trend.CompletedCount, trend.DeletedCount = int(created), int(completed), int(deleted)
		trends = append(trends, trend)
	}
	return trends, rows.Err()
}

// InitSchema crea la tabla en ClickHouse si no existe.
// Se particiona por mes y se ordena por los campos de consulta habituales.
func (r *HuntAnalyticsRepo) InitSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS hunts_log (
			hunt_id    UUID,
			event_type LowCardinality(String),
			difficulty LowCardinality(String),
			completed  Bool,
			event_time DateTime64(3)
		) ENGINE = MergeTree()
		PARTITION BY toYYYYMM(event_time)
		ORDER BY (event_type, event_time);
	`
	_, err := r.db.ExecContext(ctx, query)
	return err
}

func (r *HuntAnalyticsRepo) Close() error {
	return r.db.Close()
}

// Verificación estática de la interfaz.
var _ huntDomain.HuntAnalyticsRepository = (*HuntAnalyticsRepo)(nil)
