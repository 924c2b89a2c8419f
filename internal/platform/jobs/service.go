package jobs

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const (
	JobSessionPurge      = "session_purge"
	JobNotificationPrune = "notification_prune"
)

// readNotificationMaxAge is how long read notifications are kept.
const readNotificationMaxAge = 90 * 24 * time.Hour

type job struct {
	Type string
	Run  func(context.Context) (int64, error)
}

// Service runs periodic database maintenance: expired sessions and stale
// read notifications are purged on a fixed interval.
type Service struct {
	DB    *pgxpool.Pool
	log   zerolog.Logger
	queue chan job
}

func New(db *pgxpool.Pool, log zerolog.Logger) *Service {
	return &Service{
		DB:    db,
		log:   log,
		queue: make(chan job, 16),
	}
}

func (s *Service) Start(ctx context.Context, interval time.Duration) {
	go s.worker(ctx)
	if interval > 0 {
		go s.schedule(ctx, interval)
	}
}

func (s *Service) Enqueue(jobType string, run func(context.Context) (int64, error)) {
	select {
	case s.queue <- job{Type: jobType, Run: run}:
	default:
		s.log.Warn().Str("jobType", jobType).Msg("job queue full")
	}
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			affected, err := j.Run(ctx)
			if err != nil {
				s.log.Warn().Err(err).Str("jobType", j.Type).Msg("maintenance job failed")
				continue
			}
			s.log.Info().Str("jobType", j.Type).Int64("affected", affected).Msg("maintenance job done")
		}
	}
}

func (s *Service) schedule(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Enqueue(JobSessionPurge, s.purgeExpiredSessions)
			s.Enqueue(JobNotificationPrune, s.pruneReadNotifications)
		}
	}
}

func (s *Service) purgeExpiredSessions(ctx context.Context) (int64, error) {
	ct, err := s.DB.Exec(ctx, `
    DELETE FROM sessions
    WHERE expires_at < now() OR revoked_at IS NOT NULL AND revoked_at < now() - interval '7 days'
  `)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}

func (s *Service) pruneReadNotifications(ctx context.Context) (int64, error) {
	ct, err := s.DB.Exec(ctx, `
    DELETE FROM notifications
    WHERE read_at IS NOT NULL AND read_at < $1
  `, time.Now().Add(-readNotificationMaxAge))
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}
