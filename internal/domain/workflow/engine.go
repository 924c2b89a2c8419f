package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

// AuthorizationPort answers whether an actor holds a permission. Implemented
// by the auth store in production and by fakes in tests.
type AuthorizationPort interface {
	Can(ctx context.Context, actorID, permission string) (bool, error)
}

// Tx is the slice of pgx.Tx the engine and its side effects need. Keeping it
// narrow lets tests drive the engine with an in-memory fake.
type Tx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// TxRunner opens one unit of work. The status write and every derived write
// of a transition happen inside a single fn invocation.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}

// Adapter binds one entity type to its table. UpdateStatus must apply the
// precondition "status is still from" and report false when zero rows match.
type Adapter interface {
	Load(ctx context.Context, id string) (Record, error)
	UpdateStatus(ctx context.Context, tx Tx, rec Record, to, actorID string, action Action, reason string) (bool, error)
}

// SideEffect runs in the same transaction as the status write of the
// transition that targets its registered status.
type SideEffect func(ctx context.Context, tx Tx, rec Record, actorID string) error

type Engine struct {
	authz    AuthorizationPort
	db       TxRunner
	adapters map[EntityType]Adapter
	effects  map[EntityType]map[string][]SideEffect
	subs     []Subscriber
	log      zerolog.Logger
}

func NewEngine(authz AuthorizationPort, db TxRunner, log zerolog.Logger) *Engine {
	return &Engine{
		authz:    authz,
		db:       db,
		adapters: make(map[EntityType]Adapter),
		effects:  make(map[EntityType]map[string][]SideEffect),
		log:      log,
	}
}

func (e *Engine) Register(entityType EntityType, adapter Adapter) {
	e.adapters[entityType] = adapter
}

// OnEnter registers a side effect for transitions that land on status.
func (e *Engine) OnEnter(entityType EntityType, status string, effect SideEffect) {
	if e.effects[entityType] == nil {
		e.effects[entityType] = make(map[string][]SideEffect)
	}
	e.effects[entityType][status] = append(e.effects[entityType][status], effect)
}

func (e *Engine) Approve(ctx context.Context, entityType EntityType, id, actorID string) (Result, error) {
	return e.transition(ctx, entityType, id, actorID, ActionApprove, "")
}

func (e *Engine) Reject(ctx context.Context, entityType EntityType, id, actorID, reason string) (Result, error) {
	if strings.TrimSpace(reason) == "" {
		return Result{}, fmt.Errorf("%w: reason required", ErrValidation)
	}
	return e.transition(ctx, entityType, id, actorID, ActionReject, strings.TrimSpace(reason))
}

// Revert returns a rejected record to draft for correction. The stored
// rejection reason survives until the next forward transition clears it.
func (e *Engine) Revert(ctx context.Context, entityType EntityType, id, actorID string) (Result, error) {
	return e.transition(ctx, entityType, id, actorID, ActionRevert, "")
}

func (e *Engine) transition(ctx context.Context, entityType EntityType, id, actorID string, action Action, reason string) (Result, error) {
	adapter, ok := e.adapters[entityType]
	if !ok {
		return Result{}, ErrUnknownEntity
	}

	rec, err := adapter.Load(ctx, id)
	if err != nil {
		return Result{}, err
	}

	// One retry after a lost optimistic race: re-read, re-validate the edge
	// from the fresh status, attempt once more.
	for attempt := 0; attempt < 2; attempt++ {
		edge, err := Next(entityType, rec.Status, action, rec.AgencyScoped())
		if err != nil {
			return Result{}, err
		}

		allowed, err := e.authz.Can(ctx, actorID, edge.Permission)
		if err != nil {
			return Result{}, err
		}
		if !allowed {
			return Result{}, fmt.Errorf("%w: %s requires %s", ErrUnauthorized, edge.Stage, edge.Permission)
		}

		var applied bool
		err = e.db.WithinTx(ctx, func(tx Tx) error {
			ok, err := adapter.UpdateStatus(ctx, tx, rec, edge.To, actorID, action, reason)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			applied = true
			for _, effect := range e.effects[entityType][edge.To] {
				if err := effect(ctx, tx, rec, actorID); err != nil {
					return fmt.Errorf("transition side effect: %w", err)
				}
			}
			return nil
		})
		if err != nil {
			return Result{}, err
		}

		if applied {
			evt := Event{
				EntityType: entityType,
				EntityID:   id,
				Action:     action,
				From:       rec.Status,
				Status:     edge.To,
				Stage:      edge.Stage,
				ActorID:    actorID,
				AgencyID:   rec.AgencyID,
				OwnerID:    rec.OwnerUserID,
				Reason:     reason,
				Amount:     rec.Amount,
				Label:      rec.Label,
			}
			e.log.Info().
				Str("entity", string(entityType)).
				Str("id", id).
				Str("action", string(action)).
				Str("from", rec.Status).
				Str("to", edge.To).
				Str("actor", actorID).
				Msg("workflow transition applied")
			e.publish(ctx, evt)
			return Result{EntityType: entityType, ID: id, From: rec.Status, Status: edge.To, Stage: edge.Stage}, nil
		}

		fresh, err := adapter.Load(ctx, id)
		if err != nil {
			return Result{}, err
		}
		if fresh.Status == rec.Status {
			// Zero rows matched yet the status reads unchanged; treat as a
			// conflict rather than looping on a phantom.
			return Result{}, ErrConflict
		}
		rec = fresh
	}
	return Result{}, ErrConflict
}
