package service

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"

	"github.com/cloo-solutions/docchat/internal/domain"
	"github.com/cloo-solutions/docchat/internal/telemetry"
)

const (
	// maxHistoryTurns bounds how much caller-supplied history is forwarded
	// to the completion model.
	maxHistoryTurns = 10

	// previewMaxChars bounds the cited chunk preview length.
	previewMaxChars = 200

	answerSystemPrompt = "You are a helpful AI assistant that answers questions based on the provided document content. " +
		"Use only the information from the document context to answer questions. " +
		"If the answer is not in the provided context, say so clearly. " +
		"Be concise and accurate in your responses. " +
		"Always reference the page numbers when possible."

	summarySystemPrompt = "You are a helpful AI assistant that creates concise summaries of document content."

	// summaryQuery is a generic probe that pulls a representative sample of
	// chunks for summarization.
	summaryQuery = "summary overview main points"

	groundingMissResponse = "I couldn't find relevant information in the document to answer your question."
	summaryMissResponse   = "No content found for this document."
)

// CompletionClient defines the interface for chat completion generation.
type CompletionClient interface {
	Complete(ctx context.Context, messages []domain.ConversationTurn, maxTokens int, temperature float32) (string, error)
}

// ChatConfig controls retrieval and generation parameters.
type ChatConfig struct {
	TopK             int
	SummaryTopK      int
	MaxTokens        int
	SummaryMaxTokens int
	Temperature      float32
}

// DefaultChatConfig provides sane defaults for answering and summarization.
func DefaultChatConfig() ChatConfig {
	return ChatConfig{
		TopK:             5,
		SummaryTopK:      10,
		MaxTokens:        1000,
		SummaryMaxTokens: 500,
		Temperature:      0.1,
	}
}

// ChatService answers questions about one document using retrieved chunks as
// grounding context, and produces whole-document summaries.
type ChatService struct {
	embedder   EmbeddingClient
	index      VectorIndex
	completion CompletionClient
	cfg        ChatConfig
}

func NewChatService(embedder EmbeddingClient, index VectorIndex, completion CompletionClient, cfg ChatConfig) *ChatService {
	if cfg.TopK <= 0 {
		cfg = DefaultChatConfig()
	}
	return &ChatService{
		embedder:   embedder,
		index:      index,
		completion: completion,
		cfg:        cfg,
	}
}

// Answer produces a grounded response to the query with page-level citations.
// Finding nothing relevant is a normal outcome: the response explains the
// miss and Sources is empty. Embedding and search failures propagate as
// errors; a completion failure after a successful retrieval degrades to an
// explanatory response instead.
func (s *ChatService) Answer(ctx context.Context, query, documentID string, history []domain.ConversationTurn) (*domain.Answer, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrMissingQuery
	}
	if documentID == "" {
		return nil, domain.ErrMissingDocumentID
	}

	ctx, span := telemetry.StartSpan(ctx, "chat.answer", telemetry.SpanAttributes{
		DocumentID: documentID,
		Operation:  "answer",
	})
	defer span.End()

	results, err := s.retrieve(ctx, query, documentID, s.cfg.TopK)
	if err != nil {
		return nil, err
	}

	if len(results) == 0 {
		return &domain.Answer{
			Response: groundingMissResponse,
			Sources:  []domain.Source{},
			Query:    query,
		}, nil
	}

	contextBlock := buildContext(results)

	messages := make([]domain.ConversationTurn, 0, maxHistoryTurns+2)
	messages = append(messages, domain.ConversationTurn{
		Role:    domain.RoleSystem,
		Content: answerSystemPrompt,
	})
	messages = append(messages, boundHistory(history)...)
	messages = append(messages, domain.ConversationTurn{
		Role: domain.RoleUser,
		Content: fmt.Sprintf(
			"Based on the following document content, please answer this question: %s\n\nDocument Content:\n%s\n\nQuestion: %s",
			query, contextBlock, query,
		),
	})

	response, err := s.completion.Complete(ctx, messages, s.cfg.MaxTokens, s.cfg.Temperature)
	if err != nil {
		// Retrieval already succeeded; degrade instead of failing the
		// whole request.
		log.Printf("completion failed for document %s: %v", documentID, err)
		return &domain.Answer{
			Response: fmt.Sprintf("An error occurred while processing your question: %v", err),
			Sources:  []domain.Source{},
			Query:    query,
		}, nil
	}

	return &domain.Answer{
		Response: response,
		Sources:  deriveSources(results),
		Query:    query,
	}, nil
}

// Summarize produces a whole-document summary from a representative sample
// of chunks. Empty retrieval yields a fixed message, not an error.
func (s *ChatService) Summarize(ctx context.Context, documentID string) (string, error) {
	if documentID == "" {
		return "", domain.ErrMissingDocumentID
	}

	ctx, span := telemetry.StartSpan(ctx, "chat.summarize", telemetry.SpanAttributes{
		DocumentID: documentID,
		Operation:  "summarize",
	})
	defer span.End()

	results, err := s.retrieve(ctx, summaryQuery, documentID, s.cfg.SummaryTopK)
	if err != nil {
		return "", err
	}

	if len(results) == 0 {
		return summaryMissResponse, nil
	}

	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Text
	}

	messages := []domain.ConversationTurn{
		{Role: domain.RoleSystem, Content: summarySystemPrompt},
		{
			Role: domain.RoleUser,
			Content: fmt.Sprintf(
				"Please provide a concise summary of the following document content:\n\n%s",
				strings.Join(texts, "\n\n"),
			),
		},
	}

	summary, err := s.completion.Complete(ctx, messages, s.cfg.SummaryMaxTokens, s.cfg.Temperature)
	if err != nil {
		return "", domain.NewCompletionError(err)
	}

	return summary, nil
}

func (s *ChatService) retrieve(ctx context.Context, query, documentID string, topK int) ([]domain.RetrievalResult, error) {
	vectors, err := s.embedder.GenerateEmbeddings(ctx, []string{query})
	if err != nil {
		return nil, domain.NewEmbeddingError(err)
	}

	return s.index.Search(ctx, vectors[0], documentID, topK)
}

// buildContext concatenates retrieved chunk texts in descending-similarity
// order, each prefixed with its page number.
func buildContext(results []domain.RetrievalResult) string {
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = fmt.Sprintf("Page %d: %s", r.PageNumber, r.Text)
	}
	return strings.Join(parts, "\n\n")
}

// boundHistory keeps at most the last maxHistoryTurns turns, oldest-first.
func boundHistory(history []domain.ConversationTurn) []domain.ConversationTurn {
	if len(history) <= maxHistoryTurns {
		return history
	}
	return history[len(history)-maxHistoryTurns:]
}

// deriveSources builds citations from the same retrieval results used as
// grounding context, never from the model output.
func deriveSources(results []domain.RetrievalResult) []domain.Source {
	sources := make([]domain.Source, len(results))
	for i, r := range results {
		sources[i] = domain.Source{
			PageNumber:     r.PageNumber,
			Preview:        makePreview(r.Text),
			RelevanceScore: roundScore(r.Score),
		}
	}
	return sources
}

func makePreview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewMaxChars {
		return text
	}
	return string(runes[:previewMaxChars]) + "..."
}

func roundScore(score float32) float64 {
	return math.Round(float64(score)*1000) / 1000
}
