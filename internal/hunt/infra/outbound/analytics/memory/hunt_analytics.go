package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	huntDomain "github.com/davicafu/scavhunt/internal/hunt/domain"
)

// HuntAnalyticsMemory agrega la actividad en memoria cuando no hay ClickHouse.
type HuntAnalyticsMemory struct {
	mu  sync.RWMutex
	log []huntDomain.HuntActivity
}

func NewHuntAnalyticsMemory() *HuntAnalyticsMemory {
	return &HuntAnalyticsMemory{}
}

func (r *HuntAnalyticsMemory) LogBatch(ctx context.Context, activity []huntDomain.HuntActivity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log = append(r.log, activity...)
	return nil
}

// GetDailyTrend agrupa por día UTC dentro de [start, end].
func (r *HuntAnalyticsMemory) GetDailyTrend(ctx context.Context, start, end time.Time) ([]huntDomain.DailyHuntTrend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byDay := make(map[time.Time]*huntDomain.DailyHuntTrend)
	for _, a := range r.log {
		if a.OccurredAt.Before(start) || a.OccurredAt.After(end) {
			continue
		}
		t := a.OccurredAt.UTC()
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		trend, ok := byDay[day]
		if !ok {
			trend = &huntDomain.DailyHuntTrend{Day: day}
			byDay[day] = trend
		}
		switch a.EventType {
		case huntDomain.HuntCreated:
			trend.CreatedCount++
		case huntDomain.HuntUpdated:
			if a.Completed {
				trend.CompletedCount++
			}
		case huntDomain.HuntDeleted:
			trend.DeletedCount++
		}
	}

	trends := make([]huntDomain.DailyHuntTrend, 0, len(byDay))
	for _, trend := range byDay {
		trends = append(trends, *trend)
	}
	sort.Slice(trends, func(i, j int) bool { return trends[i].Day.Before(trends[j].Day) })
	return trends, nil
}

var _ huntDomain.HuntAnalyticsRepository = (*HuntAnalyticsMemory)(nil)
