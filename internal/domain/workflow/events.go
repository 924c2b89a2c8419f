package workflow

import (
	"context"

	"github.com/shopspring/decimal"
)

// Event is emitted after a transition has committed. Subscribers must not
// assume they run inside the transaction; a failing subscriber cannot roll
// the transition back.
type Event struct {
	EntityType EntityType
	EntityID   string
	Action     Action
	From       string
	Status     string
	Stage      string
	ActorID    string
	AgencyID   string
	OwnerID    string
	Reason     string
	Amount     decimal.Decimal
	Label      string
}

type Subscriber func(ctx context.Context, evt Event)

func (e *Engine) Subscribe(sub Subscriber) {
	e.subs = append(e.subs, sub)
}

func (e *Engine) publish(ctx context.Context, evt Event) {
	for _, sub := range e.subs {
		sub(ctx, evt)
	}
}
