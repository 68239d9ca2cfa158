package relayer

import (
	"context"
	"encoding/json"
	"reflect"
	"time"

	"go.uber.org/zap"

	sharedDomain "github.com/davicafu/scavhunt/internal/shared/domain"
	sharedEvents "github.com/davicafu/scavhunt/internal/shared/events"
	sharedBus "github.com/davicafu/scavhunt/internal/shared/infra/platform/bus"
	"github.com/davicafu/scavhunt/internal/shared/infra/platform/metrics"
)

// Worker publica los eventos pendientes de un outbox como IntegrationEvent.
type Worker struct {
	name          string
	repo          sharedDomain.OutboxRepository
	publisher     sharedBus.EventBus
	eventRegistry map[string]sharedEvents.EventMetadata
	interval      time.Duration
	batchSize     int
	log           *zap.Logger
}

func NewOutboxWorker(
	name string,
	repo sharedDomain.OutboxRepository,
	publisher sharedBus.EventBus,
	registry map[string]sharedEvents.EventMetadata,
	interval time.Duration,
	batchSize int,
	log *zap.Logger,
) *Worker {
	return &Worker{
		name:          name,
		repo:          repo,
		publisher:     publisher,
		eventRegistry: registry,
		interval:      interval,
		batchSize:     batchSize,
		log:           log.With(zap.String("outbox", name)),
	}
}

// Start ejecuta el bucle de polling hasta que se cancela ctx. Bloquea.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.Info("🚀 Outbox worker iniciado", zap.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			w.log.Info("🛑 Outbox worker detenido")
			return
		case <-ticker.C:
			w.ProcessBatch(ctx)
		}
	}
}

// ProcessBatch publica un lote y devuelve cuántos eventos quedaron marcados.
func (w *Worker) ProcessBatch(ctx context.Context) int {
	events, err := w.repo.FetchPendingOutbox(ctx, w.batchSize)
	if err != nil {
		w.log.Warn("⚠️ Error al obtener eventos pendientes", zap.Error(err))
		return 0
	}
	if len(events) > 0 {
		w.log.Debug("📬 Eventos pendientes", zap.Int("count", len(events)))
	}

	processed := 0
	for _, evt := range events {
		if w.publishAndMark(ctx, evt) {
			processed++
		}
	}
	return processed
}

func (w *Worker) publishAndMark(ctx context.Context, evt sharedDomain.OutboxEvent) bool {
	metadata, ok := w.eventRegistry[evt.EventType]
	if !ok {
		w.log.Error("Tipo de evento desconocido en registro", zap.String("event_type", evt.EventType))
		return false
	}

	// El payload se valida contra el contrato registrado antes de publicarlo.
	contract := reflect.New(metadata.Type).Interface()
	payloadBytes, err := json.Marshal(evt.Payload)
	if err == nil {
		err = json.Unmarshal(payloadBytes, contract)
	}
	if err != nil {
		w.log.Error("Error al decodificar payload del evento", zap.String("event_id", evt.ID.String()), zap.Error(err))
		return false
	}
	data, err := json.Marshal(contract)
	if err != nil {
		w.log.Error("Error al serializar el evento", zap.String("event_id", evt.ID.String()), zap.Error(err))
		return false
	}

	integration := sharedEvents.IntegrationEvent{
		Type:      evt.EventType,
		Timestamp: evt.CreatedAt,
		Key:       evt.AggregateID,
		Data:      data,
	}

	if err := w.publisher.Publish(ctx, metadata.Topic, integration); err != nil {
		w.log.Warn("⚠️ No se pudo publicar evento",
			zap.String("event_id", evt.ID.String()),
			zap.Error(err),
		)
		return false // se reintenta en el siguiente ciclo
	}

	if err := w.repo.MarkOutboxProcessed(ctx, evt.ID); err != nil {
		w.log.Warn("⚠️ No se pudo marcar evento como procesado",
			zap.String("event_id", evt.ID.String()),
			zap.Error(err),
		)
		return false
	}
	metrics.OutboxPublished.WithLabelValues(w.name).Inc()
	w.log.Debug("✅ Evento publicado y marcado", zap.String("event_id", evt.ID.String()), zap.String("topic", metadata.Topic))
	return true
}
