package service

import (
	"context"
	"fmt"

	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/repository/memory"
	"ai-chatbot-be/internal/repository/specification"
	"ai-chatbot-be/internal/repository/unitofwork"
	"ai-chatbot-be/pkg/catalog"
)

// IPersonaService is the read side of the persona directory.
type IPersonaService interface {
	// Find returns a provisioned persona or ErrPersonaNotFound.
	Find(ctx context.Context, modeId string) (*entity.Assistant, error)
	List(ctx context.Context) ([]*entity.Assistant, error)
	Catalog() map[string]catalog.Mode
	Invalidate()
}

type personaService struct {
	uowFactory unitofwork.RepositoryFactory
	catalog    *catalog.Catalog
	cache      *memory.PersonaCache
}

func NewPersonaService(
	uowFactory unitofwork.RepositoryFactory,
	cat *catalog.Catalog,
	cache *memory.PersonaCache,
) IPersonaService {
	return &personaService{
		uowFactory: uowFactory,
		catalog:    cat,
		cache:      cache,
	}
}

func (s *personaService) Find(ctx context.Context, modeId string) (*entity.Assistant, error) {
	if modeId == "" {
		return nil, ErrPersonaNotFound
	}
	if cached, ok := s.cache.Get(modeId); ok {
		return cached, nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	persona, err := uow.AssistantRepository().FindOne(ctx, specification.ByModeID{ModeID: modeId})
	if err != nil {
		return nil, fmt.Errorf("find persona %s: %w", modeId, err)
	}
	if persona == nil || !persona.IsProvisioned() {
		return nil, ErrPersonaNotFound
	}

	s.cache.Save(persona)
	return persona, nil
}

func (s *personaService) List(ctx context.Context) ([]*entity.Assistant, error) {
	if cached, ok := s.cache.GetAll(); ok {
		return cached, nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	personas, err := uow.AssistantRepository().FindAll(ctx,
		specification.Provisioned{},
		specification.OrderBy{Field: "id"},
	)
	if err != nil {
		return nil, err
	}

	s.cache.SaveAll(personas)
	return personas, nil
}

func (s *personaService) Catalog() map[string]catalog.Mode {
	return s.catalog.ByMode()
}

func (s *personaService) Invalidate() {
	s.cache.Invalidate()
}
