package service

import (
	"context"
	"fmt"

	"ai-chatbot-be/internal/constant"
	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/pkg/logger"
	"ai-chatbot-be/internal/repository/specification"
	"ai-chatbot-be/internal/repository/unitofwork"
	"ai-chatbot-be/pkg/assistant"
	"ai-chatbot-be/pkg/catalog"
)

type ProvisionOutcome string

const (
	ProvisionCreated ProvisionOutcome = "created"
	ProvisionUpdated ProvisionOutcome = "updated"
	ProvisionSkipped ProvisionOutcome = "skipped"
	ProvisionFailed  ProvisionOutcome = "failed"
)

type ProvisionResult struct {
	Mode    string
	ModeId  string
	Name    string
	Handle  string
	Outcome ProvisionOutcome
	Err     error
}

type IPersonaProvisioner interface {
	// Provision syncs catalog rows and registers missing personas with the
	// backend. force re-registers every persona. One failure does not stop
	// the rest.
	Provision(ctx context.Context, force bool) ([]ProvisionResult, error)
}

type personaProvisioner struct {
	uowFactory unitofwork.RepositoryFactory
	catalog    *catalog.Catalog
	gateway    assistant.Gateway
	model      string
	logger     logger.ILogger
}

func NewPersonaProvisioner(
	uowFactory unitofwork.RepositoryFactory,
	cat *catalog.Catalog,
	gateway assistant.Gateway,
	model string,
	log logger.ILogger,
) IPersonaProvisioner {
	return &personaProvisioner{
		uowFactory: uowFactory,
		catalog:    cat,
		gateway:    gateway,
		model:      model,
		logger:     log,
	}
}

func (p *personaProvisioner) Provision(ctx context.Context, force bool) ([]ProvisionResult, error) {
	var results []ProvisionResult
	for _, persona := range p.catalog.List() {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		results = append(results, p.provisionOne(ctx, persona, force))
	}
	return results, nil
}

func (p *personaProvisioner) provisionOne(ctx context.Context, persona catalog.Persona, force bool) ProvisionResult {
	result := ProvisionResult{Mode: persona.Mode, ModeId: persona.ID, Name: persona.Name}
	fail := func(err error) ProvisionResult {
		result.Outcome = ProvisionFailed
		result.Err = err
		p.logger.Error("PROVISION", "Failed to provision persona", map[string]interface{}{
			"mode_id": persona.ID,
			"error":   err.Error(),
		})
		return result
	}

	uow := p.uowFactory.NewUnitOfWork(ctx)
	repo := uow.AssistantRepository()

	row, err := repo.FindOne(ctx, specification.ByModeID{ModeID: persona.ID})
	if err != nil {
		return fail(err)
	}
	if row == nil {
		row = &entity.Assistant{ModeId: persona.ID}
		applyCatalog(row, persona)
		if err := repo.Create(ctx, row); err != nil {
			return fail(fmt.Errorf("create row: %w", err))
		}
	} else if force {
		applyCatalog(row, persona)
		if err := repo.Update(ctx, row); err != nil {
			return fail(fmt.Errorf("update row: %w", err))
		}
	}

	if row.IsProvisioned() && !force {
		result.Handle = row.Handle
		result.Outcome = ProvisionSkipped
		return result
	}

	hadHandle := row.IsProvisioned()
	handle, err := p.gateway.CreateAssistant(ctx, assistant.AssistantSpec{
		Name:         persona.Name,
		Description:  persona.Description,
		Instructions: persona.SystemPrompt,
		Model:        p.model,
		Tools:        []string{constant.AssistantToolCodeInterpreter},
	})
	if err != nil {
		return fail(upstream("create assistant", err))
	}

	row.Handle = handle
	if err := repo.Update(ctx, row); err != nil {
		return fail(fmt.Errorf("store handle: %w", err))
	}

	result.Handle = handle
	result.Outcome = ProvisionCreated
	if hadHandle {
		result.Outcome = ProvisionUpdated
	}
	return result
}

func applyCatalog(row *entity.Assistant, persona catalog.Persona) {
	row.Name = persona.Name
	row.Description = persona.Description
	row.SystemPrompt = persona.SystemPrompt
	row.Mode = persona.Mode
}
