package implementation

import (
	"context"
	"errors"

	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/mapper"
	"ai-chatbot-be/internal/model"
	"ai-chatbot-be/internal/repository/contract"
	"ai-chatbot-be/internal/repository/specification"

	"gorm.io/gorm"
)

type AssistantRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.AssistantMapper
}

func NewAssistantRepository(db *gorm.DB) contract.AssistantRepository {
	return &AssistantRepositoryImpl{
		db:     db,
		mapper: mapper.NewAssistantMapper(),
	}
}

func (r *AssistantRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *AssistantRepositoryImpl) Create(ctx context.Context, assistant *entity.Assistant) error {
	m := r.mapper.AssistantToModel(assistant)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*assistant = *r.mapper.AssistantToEntity(m)
	return nil
}

func (r *AssistantRepositoryImpl) Update(ctx context.Context, assistant *entity.Assistant) error {
	m := r.mapper.AssistantToModel(assistant)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*assistant = *r.mapper.AssistantToEntity(m)
	return nil
}

func (r *AssistantRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Assistant, error) {
	var m model.Assistant
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.AssistantToEntity(&m), nil
}

func (r *AssistantRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Assistant, error) {
	var models []*model.Assistant
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.Assistant, len(models))
	for i, m := range models {
		entities[i] = r.mapper.AssistantToEntity(m)
	}
	return entities, nil
}
