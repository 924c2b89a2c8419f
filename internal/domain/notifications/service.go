package notifications

import (
	"context"

	"github.com/rs/zerolog"
)

type Mailer interface {
	Send(ctx context.Context, from, to, subject, body, link string) error
}

type Service struct {
	store       StoreAPI
	Mailer      Mailer
	DefaultFrom string
	log         zerolog.Logger
}

func New(store StoreAPI, mailer Mailer, log zerolog.Logger) *Service {
	return &Service{store: store, Mailer: mailer, DefaultFrom: "no-reply@gestimmo.local", log: log}
}

// Create stores one notification and, when a mailer is wired, mirrors it by
// email. Email failures are logged and swallowed: delivery is best-effort.
func (s *Service) Create(ctx context.Context, userID, severity, title, body, link string) error {
	if err := s.store.CreateNotification(ctx, userID, severity, title, body, link); err != nil {
		return err
	}
	if s.Mailer == nil {
		return nil
	}
	email, err := s.store.UserEmail(ctx, userID)
	if err != nil || email == "" {
		return nil
	}
	if err := s.Mailer.Send(ctx, s.DefaultFrom, email, title, body, link); err != nil {
		s.log.Warn().Err(err).Str("user", userID).Msg("notification email send failed")
	}
	return nil
}

func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]map[string]any, error) {
	return s.store.ListNotifications(ctx, userID, limit, offset)
}

func (s *Service) CountUnread(ctx context.Context, userID string) (int, error) {
	return s.store.CountUnread(ctx, userID)
}

func (s *Service) MarkRead(ctx context.Context, userID, notificationID string) error {
	return s.store.MarkRead(ctx, userID, notificationID)
}
