package utils

import (
	"encoding/json"

	"go.uber.org/zap"
)

// UnmarshalAndHandle decodifica el payload de un evento al contrato T y lo entrega al handler.
// Un payload corrupto se registra y se descarta.
func UnmarshalAndHandle[T any](log *zap.Logger, eventType string, data json.RawMessage, handler func(T)) {
	var evt T
	if err := json.Unmarshal(data, &evt); err != nil {
		log.Warn("Failed to unmarshal event data", zap.String("type", eventType), zap.Error(err))
		return
	}
	handler(evt)
}
