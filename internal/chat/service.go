// Package chat keeps one conversation per user and relays turns to the model.
package chat

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"brainboost/internal/database"
	"brainboost/internal/errcode"
	"brainboost/internal/generation"
)

// Responder is the subset of *generation.Generator used for chat.
type Responder interface {
	Chat(ctx context.Context, preamble string, history []generation.Message) (string, error)
}

type Service struct {
	db        *gorm.DB
	responder Responder
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(db *gorm.DB, responder Responder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, responder: responder, logger: logger, now: time.Now}
}

// Send 追加用户消息，携带最近的对话上下文请求模型回复。
// 上游调用成功后两条消息在同一事务中写入；失败时不写入任何消息。
func (s *Service) Send(ctx context.Context, user database.User, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", errcode.Invalid("Message is required")
	}

	chat, err := s.ensureChat(ctx, user.ID)
	if err != nil {
		return "", err
	}

	recent := make([]database.ChatMessage, 0, generation.ChatContextSize)
	err = s.db.WithContext(ctx).
		Where("chat_id = ?", chat.ID).
		Order("id DESC").
		Limit(generation.ChatContextSize - 1).
		Find(&recent).Error
	if err != nil {
		return "", errcode.StoreFailed("load chat messages", err)
	}
	slices.Reverse(recent)

	userMsg := database.ChatMessage{ChatID: chat.ID, Role: database.RoleUser, Content: text, Timestamp: s.now()}
	history := make([]generation.Message, 0, len(recent)+1)
	for _, m := range recent {
		history = append(history, generation.Message{Role: m.Role, Content: m.Content})
	}
	history = append(history, generation.Message{Role: generation.RoleUser, Content: text})

	preamble := generation.ChatPreamble(user.Name, user.Subjects, user.LearningStyle)
	reply, err := s.responder.Chat(ctx, preamble, history)
	if err != nil {
		return "", err
	}

	assistantMsg := database.ChatMessage{ChatID: chat.ID, Role: database.RoleAssistant, Content: reply, Timestamp: s.now()}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&userMsg).Error; err != nil {
			return err
		}
		return tx.Create(&assistantMsg).Error
	})
	if err != nil {
		return "", errcode.StoreFailed("save chat messages", err)
	}
	return reply, nil
}

// ensureChat returns the user's chat, creating it on first use.
func (s *Service) ensureChat(ctx context.Context, userID uint) (*database.Chat, error) {
	db := s.db.WithContext(ctx)
	chat := database.Chat{UserID: userID}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&chat).Error; err != nil {
		return nil, errcode.StoreFailed("create chat", err)
	}
	if chat.ID != 0 {
		return &chat, nil
	}
	chat = database.Chat{}
	if err := db.Where("user_id = ?", userID).First(&chat).Error; err != nil {
		return nil, errcode.StoreFailed("load chat", err)
	}
	return &chat, nil
}

// History 返回用户的全部消息；尚无对话时返回空切片。
func (s *Service) History(ctx context.Context, userID uint) ([]database.ChatMessage, error) {
	messages := make([]database.ChatMessage, 0)
	err := s.db.WithContext(ctx).
		Joins("JOIN chats ON chats.id = chat_messages.chat_id").
		Where("chats.user_id = ?", userID).
		Order("chat_messages.id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, errcode.StoreFailed("load chat history", err)
	}
	return messages, nil
}

// Clear 删除用户的对话及其全部消息，对话不存在时同样成功。
func (s *Service) Clear(ctx context.Context, userID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var chat database.Chat
		err := tx.Where("user_id = ?", userID).First(&chat).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := tx.Where("chat_id = ?", chat.ID).Delete(&database.ChatMessage{}).Error; err != nil {
			return err
		}
		return tx.Delete(&chat).Error
	})
	if err != nil {
		return errcode.StoreFailed("clear chat", err)
	}
	return nil
}
