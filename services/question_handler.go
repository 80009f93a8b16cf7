package services

import (
	"context"
	"log/slog"
	"strings"

	"volos-codex/models"
)

const contextSeparator = "\n\n---\n\n"

// TextCompleter sends a prompt to a language model.
type TextCompleter interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Searcher is the retrieval contract the question flow depends on.
type Searcher interface {
	Search(ctx context.Context, query string, system models.RuleSystem) ([]string, error)
}

// QuestionHandler answers a rules question from retrieved rulebook pages.
type QuestionHandler struct {
	search    Searcher
	prompts   *PromptBuilder
	completer TextCompleter
	logger    *slog.Logger
}

func NewQuestionHandler(search Searcher, prompts *PromptBuilder, completer TextCompleter, log *slog.Logger) *QuestionHandler {
	if log == nil {
		log = slog.Default()
	}
	return &QuestionHandler{
		search:    search,
		prompts:   prompts,
		completer: completer,
		logger:    log.With("component", "question_handler"),
	}
}

// Handle retrieves context for question within system and returns the
// model's answer.
func (h *QuestionHandler) Handle(ctx context.Context, question string, system models.RuleSystem) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", ErrEmptyQuery
	}

	pages, err := h.search.Search(ctx, question, system)
	if err != nil {
		h.logger.Error("failed to search rulebooks", "system", system.String(), "error", err)
		return "", err
	}
	h.logger.Info("found relevant pages", "system", system.String(), "count", len(pages))

	prompt := h.BuildPrompt(question, system, pages)

	answer, err := h.completer.Complete(ctx, prompt)
	if err != nil {
		h.logger.Error("failed to complete prompt", "system", system.String(), "error", err)
		return "", err
	}
	return answer, nil
}

// BuildPrompt joins the system instructions, the retrieved pages and the
// question. Without pages the context section is left out.
func (h *QuestionHandler) BuildPrompt(question string, system models.RuleSystem, pages []string) string {
	var sb strings.Builder
	sb.WriteString(h.prompts.Build(system))

	contextText := strings.Join(pages, contextSeparator)
	if strings.TrimSpace(contextText) != "" {
		sb.WriteString("\n\n### Rulebook context:\n")
		sb.WriteString(contextText)
		sb.WriteString("\n\n")
	} else {
		h.logger.Warn("no context pages found for prompt", "system", system.String())
		sb.WriteString("\n\n")
	}

	sb.WriteString("User question: ")
	sb.WriteString(question)

	h.logger.Debug("prompt built", "length", sb.Len())
	return sb.String()
}

// SuggestKeyword asks the model for the official term matching a vague
// description.
func (h *QuestionHandler) SuggestKeyword(ctx context.Context, description string) (string, error) {
	if strings.TrimSpace(description) == "" {
		return "", ErrEmptyQuery
	}

	answer, err := h.completer.Complete(ctx, h.prompts.KeywordPrompt()+"\n\nUser description: "+description)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}
