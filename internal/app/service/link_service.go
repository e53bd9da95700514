package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sifan077/ShortKey/internal/app/keygen"
	"github.com/sifan077/ShortKey/internal/app/model"
	"github.com/sifan077/ShortKey/internal/app/probe"
	"github.com/sifan077/ShortKey/internal/app/repository"
	"github.com/sifan077/ShortKey/internal/infra/metrics"
	"go.uber.org/zap"
)

const defaultMaxAttempts = 3

// LinkService defines behaviour-level operations on links.
type LinkService interface {
	CreateLink(ctx context.Context, input CreateLinkInput) (*model.Link, error)
	ResolveAndRecordClick(ctx context.Context, key string) (*model.Link, error)
	GetAdminView(ctx context.Context, secretKey string) (*model.Link, error)
	Reactivate(ctx context.Context, secretKey string) (*model.Link, error)
	// Deactivate returns the target URL of the deactivated link.
	Deactivate(ctx context.Context, secretKey string) (string, error)
}

// EventSink receives link lifecycle events. Delivery is best-effort.
type EventSink interface {
	Publish(ctx context.Context, event model.LinkEvent) error
}

// Deps groups the collaborators of the link service.
type Deps struct {
	Logger *zap.Logger
	Links  repository.LinkRepository
	Keys   *keygen.Generator
	Prober probe.Prober
	Events EventSink

	// MaxAttempts bounds retries after a random key collides. Custom keys
	// are tried exactly once.
	MaxAttempts int
}

type linkService struct {
	logger      *zap.Logger
	repo        repository.LinkRepository
	keys        *keygen.Generator
	prober      probe.Prober
	events      EventSink
	maxAttempts int
}

// NewLinkService returns a service implementation backed by the given repository.
func NewLinkService(deps Deps) LinkService {
	s := &linkService{
		logger:      deps.Logger,
		repo:        deps.Links,
		keys:        deps.Keys,
		prober:      deps.Prober,
		events:      deps.Events,
		maxAttempts: deps.MaxAttempts,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.keys == nil {
		s.keys = keygen.NewGenerator(keygen.Options{})
	}
	if s.maxAttempts <= 0 {
		s.maxAttempts = defaultMaxAttempts
	}
	return s
}

// CreateLinkInput captures data required to create a link.
type CreateLinkInput struct {
	TargetURL string
	// CustomKey, when set, is used verbatim as the public key.
	CustomKey string
}

func (s *linkService) CreateLink(ctx context.Context, input CreateLinkInput) (*model.Link, error) {
	if err := ValidateTargetURL(input.TargetURL); err != nil {
		return nil, err
	}
	custom := input.CustomKey != ""
	if custom {
		if err := ValidateCustomKey(input.CustomKey); err != nil {
			return nil, err
		}
	}

	if s.prober != nil {
		if err := s.prober.Check(ctx, input.TargetURL); err != nil {
			metrics.ProbeFailuresTotal.Inc()
			s.logger.Info("target failed reachability probe",
				zap.String("target", input.TargetURL), zap.Error(err))
			return nil, fmt.Errorf("%w: %w", ErrTargetUnreachable, err)
		}
	}

	attempts, source := s.maxAttempts, "random"
	if custom {
		attempts, source = 1, "custom"
	}

	var key string
	for attempt := 1; attempt <= attempts; attempt++ {
		link, err := s.insert(ctx, input)
		if err == nil {
			metrics.LinksCreatedTotal.WithLabelValues(source).Inc()
			s.logger.Info("link created",
				zap.String("key", link.Key),
				zap.String("target", link.TargetURL),
				zap.Int("attempt", attempt))
			s.publish(ctx, model.EventLinkCreated, link)
			return link, nil
		}

		var collision *keyCollision
		if !errors.As(err, &collision) {
			return nil, fmt.Errorf("create link: %w", err)
		}
		key = collision.key
		metrics.KeyCollisionsTotal.Inc()
		s.logger.Warn("key collision on create",
			zap.String("key", key),
			zap.String("source", source),
			zap.Int("attempt", attempt))
	}

	return nil, fmt.Errorf("%w: %q", ErrKeyConflict, key)
}

type keyCollision struct {
	key string
}

func (e *keyCollision) Error() string { return "key collision on " + e.key }

func (s *linkService) insert(ctx context.Context, input CreateLinkInput) (*model.Link, error) {
	key := input.CustomKey
	if key == "" {
		generated, err := s.keys.PublicKey()
		if err != nil {
			return nil, fmt.Errorf("generate key: %w", err)
		}
		key = generated
	}

	secret, err := s.keys.SecretKey(key)
	if err != nil {
		return nil, fmt.Errorf("generate secret key: %w", err)
	}

	link := &model.Link{
		TargetURL: input.TargetURL,
		Key:       key,
		SecretKey: secret,
	}
	if err := s.repo.Create(ctx, link); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			s.keys.Remember(key)
			return nil, &keyCollision{key: key}
		}
		return nil, err
	}
	s.keys.Remember(key)
	return link, nil
}

func (s *linkService) ResolveAndRecordClick(ctx context.Context, key string) (*model.Link, error) {
	link, err := s.repo.GetByKey(ctx, key)
	if err == nil {
		err = s.repo.IncrementClicks(ctx, link)
	}
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			metrics.RedirectsTotal.WithLabelValues("not_found").Inc()
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("resolve link: %w", err)
	}

	metrics.RedirectsTotal.WithLabelValues("hit").Inc()
	return link, nil
}

func (s *linkService) GetAdminView(ctx context.Context, secretKey string) (*model.Link, error) {
	link, err := s.loadBySecret(ctx, secretKey)
	if err != nil {
		return nil, err
	}
	metrics.AdminActionsTotal.WithLabelValues("info").Inc()
	return link, nil
}

func (s *linkService) Reactivate(ctx context.Context, secretKey string) (*model.Link, error) {
	link, err := s.setStatus(ctx, secretKey, model.StatusActive)
	if err != nil {
		return nil, err
	}
	metrics.AdminActionsTotal.WithLabelValues("activate").Inc()
	return link, nil
}

func (s *linkService) Deactivate(ctx context.Context, secretKey string) (string, error) {
	link, err := s.setStatus(ctx, secretKey, model.StatusInactive)
	if err != nil {
		return "", err
	}
	metrics.AdminActionsTotal.WithLabelValues("deactivate").Inc()
	return link.TargetURL, nil
}

// setStatus persists the requested state. Repeating a transition succeeds
// without emitting another event.
func (s *linkService) setStatus(ctx context.Context, secretKey string, status model.Status) (*model.Link, error) {
	link, err := s.loadBySecret(ctx, secretKey)
	if err != nil {
		return nil, err
	}

	previous := link.Status()
	if err := s.repo.SetActive(ctx, link, status == model.StatusActive); err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update link status: %w", err)
	}

	if previous != status {
		s.logger.Info("link status changed",
			zap.String("key", link.Key),
			zap.Stringer("from", previous),
			zap.Stringer("to", status))
		eventType := model.EventLinkDeactivated
		if status == model.StatusActive {
			eventType = model.EventLinkReactivated
		}
		s.publish(ctx, eventType, link)
	}
	return link, nil
}

func (s *linkService) loadBySecret(ctx context.Context, secretKey string) (*model.Link, error) {
	link, err := s.repo.GetBySecretKey(ctx, secretKey)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load link: %w", err)
	}
	return link, nil
}

func (s *linkService) publish(ctx context.Context, eventType model.EventType, link *model.Link) {
	if s.events == nil {
		return
	}
	event := model.LinkEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Key:       link.Key,
		TargetURL: link.TargetURL,
		Timestamp: time.Now().UTC(),
	}
	if err := s.events.Publish(ctx, event); err != nil {
		metrics.EventsPublishedTotal.WithLabelValues(string(eventType), "error").Inc()
		s.logger.Warn("failed to publish link event",
			zap.String("type", string(eventType)),
			zap.String("key", link.Key),
			zap.Error(err))
		return
	}
	metrics.EventsPublishedTotal.WithLabelValues(string(eventType), "ok").Inc()
}
