package implementation

import (
	"context"
	"errors"
	"time"

	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/mapper"
	"ai-chatbot-be/internal/model"
	"ai-chatbot-be/internal/repository/contract"
	"ai-chatbot-be/internal/repository/specification"

	"gorm.io/gorm"
)

type ChatRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatMapper
}

func NewChatRepository(db *gorm.DB) contract.ChatRepository {
	return &ChatRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatMapper(),
	}
}

func (r *ChatRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ChatRepositoryImpl) Create(ctx context.Context, chat *entity.Chat) error {
	if err := chat.Owner.Validate(); err != nil {
		return err
	}
	m := r.mapper.ChatToModel(chat)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	return r.refresh(chat, m)
}

// Update saves every column; the model hook refreshes last_activity.
func (r *ChatRepositoryImpl) Update(ctx context.Context, chat *entity.Chat) error {
	if err := chat.Owner.Validate(); err != nil {
		return err
	}
	m := r.mapper.ChatToModel(chat)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	return r.refresh(chat, m)
}

func (r *ChatRepositoryImpl) refresh(chat *entity.Chat, m *model.Chat) error {
	assistant := chat.Assistant
	updated, err := r.mapper.ChatToEntity(m)
	if err != nil {
		return err
	}
	*chat = *updated
	chat.Assistant = assistant
	return nil
}

func (r *ChatRepositoryImpl) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&model.Chat{}, id).Error
}

func (r *ChatRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Chat, error) {
	var m model.Chat
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	// Take, not First: First orders by primary key ahead of the specs.
	if err := query.Take(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ChatToEntity(&m)
}

func (r *ChatRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Chat, error) {
	var models []*model.Chat
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.Chat, 0, len(models))
	for _, m := range models {
		e, err := r.mapper.ChatToEntity(m)
		if err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	return entities, nil
}

func (r *ChatRepositoryImpl) FindLatestByOwnerAndAssistant(ctx context.Context, owner entity.Owner, assistantId uint) (*entity.Chat, error) {
	return r.FindOne(ctx,
		specification.OwnedBy{Owner: owner},
		specification.ByAssistantID{AssistantID: assistantId},
		specification.Newest{},
	)
}

// DeactivateIdle bypasses hooks on purpose: a sweep is not chat activity.
func (r *ChatRepositoryImpl) DeactivateIdle(ctx context.Context, cutoff time.Time) (int64, error) {
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Chat{}),
		specification.ActiveOnly{},
		specification.IdleSince{Cutoff: cutoff},
	)
	result := query.UpdateColumn("is_active", false)
	return result.RowsAffected, result.Error
}

func (r *ChatRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Chat{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
