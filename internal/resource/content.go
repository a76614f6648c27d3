package resource

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"brainboost/internal/database"
	"brainboost/internal/generation"
)

type Flashcard = generation.Flashcard

// Content is the type-tagged payload of a resource.
type Content interface {
	Type() string
}

// FlashcardContent is stored for ResourceTypeFlashcard.
type FlashcardContent []Flashcard

// NotesContent is Markdown stored for ResourceTypeNotes.
type NotesContent string

func (FlashcardContent) Type() string { return database.ResourceTypeFlashcard }
func (NotesContent) Type() string     { return database.ResourceTypeNotes }

// Encode serialises c for the Content column.
func Encode(c Content) (datatypes.JSON, error) {
	if cards, ok := c.(FlashcardContent); ok && cards == nil {
		c = FlashcardContent{}
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode %s content: %w", c.Type(), err)
	}
	return datatypes.JSON(raw), nil
}

// Decode reads a resource's content according to its type tag.
func Decode(r database.Resource) (Content, error) {
	switch r.Type {
	case database.ResourceTypeFlashcard:
		cards := FlashcardContent{}
		if len(r.Content) > 0 {
			if err := json.Unmarshal(r.Content, &cards); err != nil {
				return nil, fmt.Errorf("decode flashcard content of resource %d: %w", r.ID, err)
			}
		}
		if cards == nil {
			cards = FlashcardContent{}
		}
		return cards, nil
	case database.ResourceTypeNotes:
		var notes string
		if len(r.Content) > 0 {
			if err := json.Unmarshal(r.Content, &notes); err != nil {
				return nil, fmt.Errorf("decode notes content of resource %d: %w", r.ID, err)
			}
		}
		return NotesContent(notes), nil
	default:
		return nil, fmt.Errorf("resource %d has unknown type %q", r.ID, r.Type)
	}
}
