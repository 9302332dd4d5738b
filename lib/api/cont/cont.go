package cont

import (
	"context"

	"rbreg/entity"
)

type ctxKey string

const (
	userDataKey ctxKey = "userData"
	eventKey    ctxKey = "gateEvent"
)

func PutUser(c context.Context, user *entity.User) context.Context {
	return context.WithValue(c, userDataKey, *user)
}

func GetUser(c context.Context) *entity.User {
	user, ok := c.Value(userDataKey).(entity.User)
	if !ok {
		return &entity.User{}
	}
	return &user
}

// PutEvent stores the event loaded by the running-window gate so handlers
// behind the gate do not re-fetch it.
func PutEvent(c context.Context, event *entity.Event) context.Context {
	return context.WithValue(c, eventKey, event)
}

// GetEvent returns the gate-loaded event, or nil when the gate passed a
// not-found through for the handler to report itself.
func GetEvent(c context.Context) *entity.Event {
	event, ok := c.Value(eventKey).(*entity.Event)
	if !ok {
		return nil
	}
	return event
}
