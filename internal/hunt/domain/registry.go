package domain

import (
	"reflect"

	sharedEvents "github.com/davicafu/scavhunt/internal/shared/events"
)

// Las constantes de los tipos de evento se definen aquí, como valores string.
const (
	HuntCreated = "hunt.created"
	HuntUpdated = "hunt.updated"
	HuntDeleted = "hunt.deleted"
)

const (
	HuntTopic     = "hunt"
	AggregateType = "hunt"
)

func NewEventRegistry() map[string]sharedEvents.EventMetadata {
	return map[string]sharedEvents.EventMetadata{
		HuntCreated: {
			Type:  reflect.TypeOf(sharedEvents.HuntCreated{}),
			Topic: HuntTopic,
		},
		HuntUpdated: {
			Type:  reflect.TypeOf(sharedEvents.HuntUpdated{}),
			Topic: HuntTopic,
		},
		HuntDeleted: {
			Type:  reflect.TypeOf(sharedEvents.HuntDeleted{}),
			Topic: HuntTopic,
		},
	}
}
