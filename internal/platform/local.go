package platform

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// LocalService exposes a Ringer through the Service interface and owns the
// cached authorization answer. The first RequestAuthorization delegates to
// the injected Authorizer and may block indefinitely on the user; every
// later call returns the cached answer without prompting.
type LocalService struct {
	ringer     *Ringer
	authorizer Authorizer
	log        zerolog.Logger

	authMu  sync.Mutex
	granted bool
	known   bool
}

func NewLocalService(ringer *Ringer, authorizer Authorizer, log zerolog.Logger) *LocalService {
	if authorizer == nil {
		// Headless fallback: grant without prompting.
		authorizer = AuthorizerFunc(func(context.Context) (bool, error) { return true, nil })
	}
	return &LocalService{ringer: ringer, authorizer: authorizer, log: log}
}

func (s *LocalService) AuthorizationCached() (bool, bool) {
	s.authMu.Lock()
	defer s.authMu.Unlock()
	return s.granted, s.known
}

func (s *LocalService) RequestAuthorization(ctx context.Context) (bool, error) {
	s.authMu.Lock()
	if s.known {
		granted := s.granted
		s.authMu.Unlock()
		return granted, nil
	}
	s.authMu.Unlock()

	// The prompt blocks on the user; never hold the lock across it.
	granted, err := s.authorizer.RequestAuthorization(ctx)
	if err != nil {
		return false, err
	}

	s.authMu.Lock()
	s.granted = granted
	s.known = true
	s.authMu.Unlock()
	s.log.Info().Bool("granted", granted).Msg("alarm authorization resolved")
	return granted, nil
}

func (s *LocalService) Schedule(ctx context.Context, req ScheduleRequest) (string, error) {
	if granted, _ := s.AuthorizationCached(); !granted {
		return "", ErrNotAuthorized
	}
	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}
	if err := s.ringer.Arm(id, req.FireAt.Truncate(time.Minute), req.Label); err != nil {
		return "", err
	}
	s.log.Debug().Str("alarm_id", id).Time("fire_at", req.FireAt).Msg("alarm scheduled")
	return id, nil
}

func (s *LocalService) Delete(ctx context.Context, id string) error {
	if err := s.ringer.Cancel(id); err != nil {
		return err
	}
	s.log.Debug().Str("alarm_id", id).Msg("alarm deleted")
	return nil
}

func (s *LocalService) Pause(ctx context.Context, id string) error {
	return s.ringer.Pause(id)
}

func (s *LocalService) Resume(ctx context.Context, id string) error {
	return s.ringer.Resume(id)
}

func (s *LocalService) ListActive(ctx context.Context) ([]AlarmView, error) {
	return s.ringer.Pending(), nil
}
