package generation

import (
	"context"
	"log/slog"
	"strings"

	"brainboost/internal/errcode"
	"brainboost/internal/metrics"
)

// Token budgets per prompt kind.
const (
	studyPlanMaxTokens   = 1000
	explanationMaxTokens = 1000
	questionsMaxTokens   = 1500
	flashcardsMaxTokens  = 1000
	notesMaxTokens       = 1500

	// ChatContextSize is how many trailing chat messages are sent upstream.
	ChatContextSize = 10
)

// StudyPlanRequest describes the plan a student asked for.
type StudyPlanRequest struct {
	Subjects      []string
	DurationDays  int
	Goals         string
	LearningStyle string
}

// TopicRequest describes a single-topic generation.
type TopicRequest struct {
	Subject       string
	Topic         string
	Difficulty    string
	LearningStyle string
	Count         int
}

func (r TopicRequest) withDefaults() TopicRequest {
	if r.Count <= 0 {
		r.Count = defaultCount
	}
	if strings.TrimSpace(r.Difficulty) == "" {
		r.Difficulty = defaultDifficulty
	}
	return r
}

// Generator turns domain requests into prompts and interprets the answers.
type Generator struct {
	completer Completer
	logger    *slog.Logger
}

func NewGenerator(completer Completer, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{completer: completer, logger: logger}
}

// StudyPlan 生成学习计划草稿；模型输出无法解析或 schedule 为空时使用固定模板。
func (g *Generator) StudyPlan(ctx context.Context, req StudyPlanRequest) (StudyPlanDraft, error) {
	raw, err := g.completer.Complete(ctx, studyPlanPrompt(req), studyPlanMaxTokens)
	if err != nil {
		return StudyPlanDraft{}, g.upstream(ctx, "study_plan", err)
	}
	out := Parse(raw, validStudyPlan)
	g.observe(ctx, "study_plan", out.Parsed, out.Err)
	return out.OrFallback(func() StudyPlanDraft {
		return FallbackStudyPlan(req.Subjects, req.DurationDays)
	}), nil
}

// Questions 生成选择题，解析失败时返回单道占位题。
func (g *Generator) Questions(ctx context.Context, req TopicRequest) (QuestionSet, error) {
	req = req.withDefaults()
	raw, err := g.completer.Complete(ctx, questionsPrompt(req), questionsMaxTokens)
	if err != nil {
		return QuestionSet{}, g.upstream(ctx, "questions", err)
	}
	out := Parse(raw, validQuestions)
	g.observe(ctx, "questions", out.Parsed, out.Err)
	return out.OrFallback(func() QuestionSet {
		return FallbackQuestions(req.Subject, req.Topic)
	}), nil
}

// Flashcards 生成闪卡，解析失败时返回单张占位卡片。
func (g *Generator) Flashcards(ctx context.Context, req TopicRequest) (FlashcardSet, error) {
	req = req.withDefaults()
	raw, err := g.completer.Complete(ctx, flashcardsPrompt(req), flashcardsMaxTokens)
	if err != nil {
		return FlashcardSet{}, g.upstream(ctx, "flashcards", err)
	}
	out := Parse(raw, validFlashcards)
	g.observe(ctx, "flashcards", out.Parsed, out.Err)
	return out.OrFallback(func() FlashcardSet {
		return FallbackFlashcards(req.Subject, req.Topic)
	}), nil
}

// Explanation returns a free-text explanation of a topic.
func (g *Generator) Explanation(ctx context.Context, req TopicRequest) (string, error) {
	req = req.withDefaults()
	return g.text(ctx, "explanation", explanationPrompt(req), explanationMaxTokens)
}

// Notes returns Markdown study notes for a topic.
func (g *Generator) Notes(ctx context.Context, req TopicRequest) (string, error) {
	return g.text(ctx, "notes", notesPrompt(req), notesMaxTokens)
}

// Chat sends preamble followed by history and returns the assistant reply unchanged.
// history is trimmed to its last ChatContextSize entries.
func (g *Generator) Chat(ctx context.Context, preamble string, history []Message) (string, error) {
	if len(history) > ChatContextSize {
		history = history[len(history)-ChatContextSize:]
	}
	messages := make([]Message, 0, len(history)+1)
	messages = append(messages, Message{Role: RoleSystem, Content: preamble})
	messages = append(messages, history...)

	reply, err := g.completer.Chat(ctx, messages)
	if err != nil {
		return "", g.upstream(ctx, "chat", err)
	}
	metrics.ObserveGeneration("chat", metrics.ResultText)
	return reply, nil
}

func (g *Generator) text(ctx context.Context, kind, prompt string, maxTokens int) (string, error) {
	raw, err := g.completer.Complete(ctx, prompt, maxTokens)
	if err != nil {
		return "", g.upstream(ctx, kind, err)
	}
	metrics.ObserveGeneration(kind, metrics.ResultText)
	return strings.TrimSpace(raw), nil
}

func (g *Generator) observe(ctx context.Context, kind string, parsed bool, parseErr error) {
	if parsed {
		metrics.ObserveGeneration(kind, metrics.ResultParsed)
		return
	}
	metrics.ObserveGeneration(kind, metrics.ResultFallback)
	g.logger.WarnContext(ctx, "model output unusable, using fallback", "kind", kind, "error", parseErr)
}

func (g *Generator) upstream(ctx context.Context, kind string, err error) error {
	metrics.ObserveGeneration(kind, metrics.ResultError)
	g.logger.ErrorContext(ctx, "completion call failed", "kind", kind, "error", err)
	return errcode.UpstreamFailed("generate "+kind, err)
}
