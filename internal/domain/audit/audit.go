package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"gestimmo/internal/domain/workflow"
)

// Entry is one recorded action. Workflow transitions carry from/to statuses;
// plain actions (login, exports, bulk updates) leave them empty.
type Entry struct {
	ID         string    `json:"id"`
	ActorID    string    `json:"actorId"`
	Action     string    `json:"action"`
	EntityType string    `json:"entityType"`
	EntityID   string    `json:"entityId"`
	FromStatus string    `json:"fromStatus,omitempty"`
	ToStatus   string    `json:"toStatus,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Filter struct {
	Action     string
	EntityType string
	EntityID   string
	ActorID    string
}

type Service struct {
	DB  *pgxpool.Pool
	log zerolog.Logger
}

func New(db *pgxpool.Pool, log zerolog.Logger) *Service {
	return &Service{DB: db, log: log}
}

func (s *Service) Record(ctx context.Context, actorID, action, entityType, entityID, fromStatus, toStatus, detail string) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO audit_events (actor_user_id, action, entity_type, entity_id, from_status, to_status, detail)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
  `, actorID, action, entityType, entityID, nullIfEmpty(fromStatus), nullIfEmpty(toStatus), nullIfEmpty(detail))
	return err
}

// Subscribe records every committed workflow transition.
func (s *Service) Subscribe(engine *workflow.Engine) {
	engine.Subscribe(func(ctx context.Context, evt workflow.Event) {
		err := s.Record(ctx, evt.ActorID, string(evt.Action), string(evt.EntityType), evt.EntityID, evt.From, evt.Status, evt.Reason)
		if err != nil {
			s.log.Warn().Err(err).
				Str("entity", string(evt.EntityType)).
				Str("id", evt.EntityID).
				Msg("audit record failed")
		}
	})
}

func (s *Service) Count(ctx context.Context, filter Filter) (int, error) {
	query, args := buildBaseQuery("SELECT COUNT(1)", filter)
	var total int
	if err := s.DB.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Service) List(ctx context.Context, filter Filter, limit, offset int) ([]Entry, error) {
	query, args := buildBaseQuery(`SELECT id, actor_user_id, action, entity_type, entity_id,
    COALESCE(from_status, ''), COALESCE(to_status, ''), COALESCE(detail, ''), created_at`, filter)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.EntityType, &e.EntityID, &e.FromStatus, &e.ToStatus, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// History returns the transition trail of a single entity, oldest first.
func (s *Service) History(ctx context.Context, entityType, entityID string) ([]Entry, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, actor_user_id, action, entity_type, entity_id,
      COALESCE(from_status, ''), COALESCE(to_status, ''), COALESCE(detail, ''), created_at
    FROM audit_events
    WHERE entity_type = $1 AND entity_id = $2
    ORDER BY created_at ASC
  `, entityType, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.EntityType, &e.EntityID, &e.FromStatus, &e.ToStatus, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func buildBaseQuery(prefix string, filter Filter) (string, []any) {
	query := prefix + " FROM audit_events WHERE 1=1"
	var args []any
	if filter.Action != "" {
		query += fmt.Sprintf(" AND action = $%d", len(args)+1)
		args = append(args, filter.Action)
	}
	if filter.EntityType != "" {
		query += fmt.Sprintf(" AND entity_type = $%d", len(args)+1)
		args = append(args, filter.EntityType)
	}
	if filter.EntityID != "" {
		query += fmt.Sprintf(" AND entity_id = $%d", len(args)+1)
		args = append(args, filter.EntityID)
	}
	if filter.ActorID != "" {
		query += fmt.Sprintf(" AND actor_user_id::text = $%d", len(args)+1)
		args = append(args, filter.ActorID)
	}
	return query, args
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
