package domain

import (
	"reflect"

	sharedEvents "github.com/davicafu/scavhunt/internal/shared/events"
)

const (
	UserCreated = "user.created"
	UserUpdated = "user.updated"
	UserDeleted = "user.deleted"
)

const (
	UserTopic     = "user"
	AggregateType = "user"
)

func NewEventRegistry() map[string]sharedEvents.EventMetadata {
	return map[string]sharedEvents.EventMetadata{
		UserCreated: {Type: reflect.TypeOf(sharedEvents.UserCreated{}), Topic: UserTopic},
		UserUpdated: {Type: reflect.TypeOf(sharedEvents.UserUpdated{}), Topic: UserTopic},
		UserDeleted: {Type: reflect.TypeOf(sharedEvents.UserDeleted{}), Topic: UserTopic},
	}
}
