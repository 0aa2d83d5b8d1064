package service

import (
	"context"
	"strings"
	"time"

	"github.com/iliyamo/michels-travel/internal/logger"
	"github.com/iliyamo/michels-travel/internal/model"
)

const trackTimeout = 2 * time.Second

type NavigationStore interface {
	Insert(ctx context.Context, e model.NavigationEvent) error
	ListRecent(ctx context.Context, limit, offset int) ([]model.NavigationEvent, error)
}

type NavigationUseCase interface {
	Track(ctx context.Context, e model.NavigationEvent)
	PageView(ctx context.Context, e model.NavigationEvent) error
	Recent(ctx context.Context, limit, offset int) ([]model.NavigationEvent, error)
}

type NavigationService struct {
	store NavigationStore
	log   *logger.Logger
}

func NewNavigationService(store NavigationStore, log *logger.Logger) *NavigationService {
	if log == nil {
		log = logger.Discard()
	}
	return &NavigationService{store: store, log: log}
}

// Track stores a request event. Failures are logged only.
func (s *NavigationService) Track(ctx context.Context, e model.NavigationEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), trackTimeout)
	defer cancel()
	if err := s.store.Insert(ctx, e); err != nil {
		s.log.Warn("navigation tracking failed", "path", e.Path, "error", err)
	}
}

// PageView records a page view reported by the web client.
func (s *NavigationService) PageView(ctx context.Context, e model.NavigationEvent) error {
	e.Path = strings.TrimSpace(e.Path)
	if e.Path == "" || !strings.HasPrefix(e.Path, "/") {
		return &ValidationError{Fields: map[string]string{"path": "must be an absolute path"}}
	}
	e.Method = "VIEW"
	e.Status = 200
	return s.store.Insert(ctx, e)
}

func (s *NavigationService) Recent(ctx context.Context, limit, offset int) ([]model.NavigationEvent, error) {
	return s.store.ListRecent(ctx, limit, offset)
}

var _ NavigationUseCase = (*NavigationService)(nil)
