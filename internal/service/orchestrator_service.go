package service

import (
	"context"

	"network-orchestrator-be/internal/entity"
	"network-orchestrator-be/pkg/events"
	"network-orchestrator-be/pkg/fallback"
	"network-orchestrator-be/pkg/orchestrator"
	"network-orchestrator-be/pkg/session"
)

// IOrchestratorService is the API facade over the inbox and read models.
type IOrchestratorService interface {
	// Ingest enqueues ev on the inbox. With a blocking inbox it returns once
	// the event has been handled.
	Ingest(ctx context.Context, ev events.Inbound) error
	Status() orchestrator.Status
	RequestFallback(ctx context.Context, req events.FallbackRequest) (entity.FallbackArtifact, error)
	Session(contextID string) (entity.Session, bool)
	ClearFallbackCache(ctx context.Context) (int, error)
}

type orchestratorService struct {
	inbox    IConsumerService
	orch     *orchestrator.Orchestrator
	sessions *session.Store
	cache    *fallback.Cache
}

func NewOrchestratorService(inbox IConsumerService, orch *orchestrator.Orchestrator, sessions *session.Store, cache *fallback.Cache) IOrchestratorService {
	return &orchestratorService{
		inbox:    inbox,
		orch:     orch,
		sessions: sessions,
		cache:    cache,
	}
}

func (s *orchestratorService) Ingest(ctx context.Context, ev events.Inbound) error {
	return s.inbox.Publish(ctx, ev)
}

func (s *orchestratorService) Status() orchestrator.Status {
	return s.orch.Status()
}

func (s *orchestratorService) RequestFallback(ctx context.Context, req events.FallbackRequest) (entity.FallbackArtifact, error) {
	return s.orch.RequestFallback(ctx, req)
}

func (s *orchestratorService) Session(contextID string) (entity.Session, bool) {
	return s.sessions.Get(contextID)
}

func (s *orchestratorService) ClearFallbackCache(ctx context.Context) (int, error) {
	return s.cache.Clear(ctx)
}
