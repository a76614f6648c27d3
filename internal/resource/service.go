// Package resource stores flashcard decks and study notes, and exports them to object storage.
package resource

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"brainboost/internal/database"
	"brainboost/internal/errcode"
	"brainboost/internal/generation"
	"brainboost/internal/storage"
)

// ExportLinkTTL is how long an export download link stays valid.
const ExportLinkTTL = 15 * time.Minute

var ErrResourceNotFound = errcode.Missing("Resource not found")

// Generator is the subset of *generation.Generator used for resources.
type Generator interface {
	Flashcards(ctx context.Context, req generation.TopicRequest) (generation.FlashcardSet, error)
	Notes(ctx context.Context, req generation.TopicRequest) (string, error)
}

// ObjectStore is the subset of *storage.Client used for exports.
type ObjectStore interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error
	GeneratePresignedURL(ctx context.Context, objectKey string, duration time.Duration) (string, error)
}

type Service struct {
	db        *gorm.DB
	generator Generator
	store     ObjectStore
	logger    *slog.Logger
}

// NewService 构造资料服务；store 为 nil 时导出功能不可用。
func NewService(db *gorm.DB, generator Generator, store ObjectStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, generator: generator, store: store, logger: logger}
}

// UpsertFlashcards 按 (用户, 标题, 学科, flashcard) 查找资料，存在则替换内容，否则新建。
func (s *Service) UpsertFlashcards(ctx context.Context, userID uint, title, subject string, cards []Flashcard) (*database.Resource, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errcode.Invalid("Title is required")
	}
	content, err := Encode(FlashcardContent(cards))
	if err != nil {
		return nil, errcode.Wrap(errcode.Internal, "encode flashcards", err)
	}

	var res database.Resource
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ? AND title = ? AND subject = ? AND type = ?",
			userID, title, subject, database.ResourceTypeFlashcard).
			First(&res).Error
		switch {
		case err == nil:
			res.Content = content
			return tx.Model(&res).Update("content", content).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			res = database.Resource{
				UserID:  userID,
				Title:   title,
				Subject: subject,
				Type:    database.ResourceTypeFlashcard,
				Content: content,
			}
			return tx.Create(&res).Error
		default:
			return err
		}
	})
	if err != nil {
		return nil, errcode.StoreFailed("save flashcards", err)
	}
	return &res, nil
}

// List 返回用户全部资料，最新的在前。
func (s *Service) List(ctx context.Context, userID uint) ([]database.Resource, error) {
	resources := make([]database.Resource, 0)
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&resources).Error
	if err != nil {
		return nil, errcode.StoreFailed("list resources", err)
	}
	return resources, nil
}

// TopicInput 是按主题生成内容的参数。
type TopicInput struct {
	Subject       string
	Topic         string
	LearningStyle string
	Count         int
}

func (in TopicInput) validate() error {
	if strings.TrimSpace(in.Subject) == "" || strings.TrimSpace(in.Topic) == "" {
		return errcode.Invalid("Subject and topic are required")
	}
	return nil
}

// GenerateFlashcards 生成闪卡但不落库，保存需另行调用 UpsertFlashcards。
func (s *Service) GenerateFlashcards(ctx context.Context, in TopicInput) (generation.FlashcardSet, error) {
	if err := in.validate(); err != nil {
		return generation.FlashcardSet{}, err
	}
	return s.generator.Flashcards(ctx, generation.TopicRequest{
		Subject:       in.Subject,
		Topic:         in.Topic,
		LearningStyle: in.LearningStyle,
		Count:         in.Count,
	})
}

// GenerateNotes 生成 Markdown 笔记，并总是保存为一条新的 notes 资料。
func (s *Service) GenerateNotes(ctx context.Context, userID uint, in TopicInput) (*database.Resource, string, error) {
	if err := in.validate(); err != nil {
		return nil, "", err
	}
	notes, err := s.generator.Notes(ctx, generation.TopicRequest{
		Subject:       in.Subject,
		Topic:         in.Topic,
		LearningStyle: in.LearningStyle,
	})
	if err != nil {
		return nil, "", err
	}
	content, err := Encode(NotesContent(notes))
	if err != nil {
		return nil, "", errcode.Wrap(errcode.Internal, "encode notes", err)
	}
	res := database.Resource{
		UserID:  userID,
		Title:   in.Topic + " Notes",
		Subject: in.Subject,
		Type:    database.ResourceTypeNotes,
		Content: content,
	}
	if err := s.db.WithContext(ctx).Create(&res).Error; err != nil {
		return nil, "", errcode.StoreFailed("save notes", err)
	}
	return &res, notes, nil
}

// Export 将资料渲染为文件上传到对象存储，返回限时下载链接。
func (s *Service) Export(ctx context.Context, userID, resourceID uint) (string, error) {
	if s.store == nil {
		return "", errcode.New(errcode.Unavailable, "Export is not available")
	}

	var res database.Resource
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", resourceID, userID).First(&res).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrResourceNotFound
	}
	if err != nil {
		return "", errcode.StoreFailed("load resource", err)
	}

	body, ext, contentType, err := render(res)
	if err != nil {
		return "", errcode.Wrap(errcode.Internal, "render resource", err)
	}

	objectKey := fmt.Sprintf("%s%s.%s", storage.ExportPrefix(userID), uuid.NewString(), ext)
	if err := s.store.UploadFile(ctx, objectKey, bytes.NewReader(body), int64(len(body)), contentType); err != nil {
		return "", errcode.Wrap(errcode.Internal, "upload export", err)
	}
	url, err := s.store.GeneratePresignedURL(ctx, objectKey, ExportLinkTTL)
	if err != nil {
		return "", errcode.Wrap(errcode.Internal, "presign export", err)
	}
	s.logger.InfoContext(ctx, "resource exported", "resource_id", res.ID, "object_key", objectKey)
	return url, nil
}

// render returns the export body, file extension and MIME type.
func render(res database.Resource) ([]byte, string, string, error) {
	content, err := Decode(res)
	if err != nil {
		return nil, "", "", err
	}
	switch c := content.(type) {
	case NotesContent:
		var buf bytes.Buffer
		fmt.Fprintf(&buf, "# %s\n\n", res.Title)
		if res.Subject != "" {
			fmt.Fprintf(&buf, "_Subject: %s_\n\n", res.Subject)
		}
		buf.WriteString(string(c))
		buf.WriteString("\n")
		return buf.Bytes(), "md", "text/markdown; charset=utf-8", nil
	case FlashcardContent:
		body, err := json.MarshalIndent(struct {
			Title      string      `json:"title"`
			Subject    string      `json:"subject"`
			Flashcards []Flashcard `json:"flashcards"`
		}{res.Title, res.Subject, c}, "", "  ")
		if err != nil {
			return nil, "", "", err
		}
		return body, "json", "application/json", nil
	default:
		return nil, "", "", fmt.Errorf("cannot render %T", content)
	}
}
