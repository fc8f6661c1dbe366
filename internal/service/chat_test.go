package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/docchat/internal/domain"
)

// MockCompletionClient mocks the completion capability
type MockCompletionClient struct {
	mock.Mock
}

func (m *MockCompletionClient) Complete(ctx context.Context, messages []domain.ConversationTurn, maxTokens int, temperature float32) (string, error) {
	args := m.Called(ctx, messages, maxTokens, temperature)
	return args.String(0), args.Error(1)
}

func newChatFixture() (*MockEmbeddingClient, *MockVectorIndex, *MockCompletionClient, *ChatService) {
	embedder := new(MockEmbeddingClient)
	index := new(MockVectorIndex)
	completion := new(MockCompletionClient)
	svc := NewChatService(embedder, index, completion, DefaultChatConfig())
	return embedder, index, completion, svc
}

func queryVector() [][]float32 {
	return [][]float32{make([]float32, 1536)}
}

func skyResults() []domain.RetrievalResult {
	return []domain.RetrievalResult{
		{Text: "The sky is blue.", PageNumber: 1, ChunkIndex: 0, Score: 0.9234},
		{Text: "The grass is green.", PageNumber: 2, ChunkIndex: 1, Score: 0.4111},
	}
}

func TestChatService_Answer_Success(t *testing.T) {
	embedder, index, completion, svc := newChatFixture()
	ctx := context.Background()

	embedder.On("GenerateEmbeddings", mock.Anything, []string{"What color is the sky?"}).Return(queryVector(), nil)
	index.On("Search", mock.Anything, mock.Anything, "doc-1", 5).Return(skyResults(), nil)

	completion.On("Complete", mock.Anything, mock.MatchedBy(func(messages []domain.ConversationTurn) bool {
		if len(messages) != 2 {
			return false
		}
		if messages[0].Role != domain.RoleSystem {
			return false
		}
		final := messages[len(messages)-1]
		return final.Role == domain.RoleUser &&
			strings.Contains(final.Content, "What color is the sky?") &&
			strings.Contains(final.Content, "Page 1: The sky is blue.") &&
			strings.Contains(final.Content, "Page 2: The grass is green.")
	}), 1000, float32(0.1)).Return("The sky is blue (page 1).", nil)

	answer, err := svc.Answer(ctx, "What color is the sky?", "doc-1", nil)
	require.NoError(t, err)

	assert.Equal(t, "The sky is blue (page 1).", answer.Response)
	assert.Equal(t, "What color is the sky?", answer.Query)

	require.Len(t, answer.Sources, 2)
	assert.Equal(t, 1, answer.Sources[0].PageNumber)
	assert.Equal(t, "The sky is blue.", answer.Sources[0].Preview)
	assert.Equal(t, 0.923, answer.Sources[0].RelevanceScore)
	assert.Equal(t, 0.411, answer.Sources[1].RelevanceScore)

	embedder.AssertExpectations(t)
	index.AssertExpectations(t)
	completion.AssertExpectations(t)
}

func TestChatService_Answer_GroundingMiss(t *testing.T) {
	embedder, index, completion, svc := newChatFixture()
	ctx := context.Background()

	embedder.On("GenerateEmbeddings", mock.Anything, []string{"unrelated nonsense query"}).Return(queryVector(), nil)
	index.On("Search", mock.Anything, mock.Anything, "doc-1", 5).Return([]domain.RetrievalResult{}, nil)

	answer, err := svc.Answer(ctx, "unrelated nonsense query", "doc-1", nil)
	require.NoError(t, err)

	assert.Equal(t, groundingMissResponse, answer.Response)
	assert.Empty(t, answer.Sources)
	completion.AssertNotCalled(t, "Complete")
}

func TestChatService_Answer_HistoryBounded(t *testing.T) {
	embedder, index, completion, svc := newChatFixture()
	ctx := context.Background()

	history := make([]domain.ConversationTurn, 0, 15)
	for i := 0; i < 15; i++ {
		role := domain.RoleUser
		if i%2 == 1 {
			role = domain.RoleAssistant
		}
		history = append(history, domain.ConversationTurn{Role: role, Content: fmt.Sprintf("turn %d", i)})
	}

	embedder.On("GenerateEmbeddings", mock.Anything, mock.Anything).Return(queryVector(), nil)
	index.On("Search", mock.Anything, mock.Anything, "doc-1", 5).Return(skyResults(), nil)

	completion.On("Complete", mock.Anything, mock.MatchedBy(func(messages []domain.ConversationTurn) bool {
		// system + 10 history turns + final user turn
		if len(messages) != 12 {
			return false
		}
		// Exactly the last 10 turns, in their original relative order.
		for i := 0; i < 10; i++ {
			if messages[1+i].Content != fmt.Sprintf("turn %d", i+5) {
				return false
			}
		}
		return true
	}), 1000, float32(0.1)).Return("ok", nil)

	_, err := svc.Answer(ctx, "question", "doc-1", history)
	require.NoError(t, err)
	completion.AssertExpectations(t)
}

func TestChatService_Answer_SourcePreviewTruncated(t *testing.T) {
	embedder, index, completion, svc := newChatFixture()
	ctx := context.Background()

	long := strings.Repeat("x", 450)
	embedder.On("GenerateEmbeddings", mock.Anything, mock.Anything).Return(queryVector(), nil)
	index.On("Search", mock.Anything, mock.Anything, "doc-1", 5).Return([]domain.RetrievalResult{
		{Text: long, PageNumber: 4, Score: 0.5},
	}, nil)
	completion.On("Complete", mock.Anything, mock.Anything, 1000, float32(0.1)).Return("answer", nil)

	answer, err := svc.Answer(ctx, "q", "doc-1", nil)
	require.NoError(t, err)

	require.Len(t, answer.Sources, 1)
	assert.Equal(t, strings.Repeat("x", 200)+"...", answer.Sources[0].Preview)
	assert.Len(t, answer.Sources[0].Preview, 203)
}

func TestChatService_Answer_EmbeddingFailurePropagates(t *testing.T) {
	embedder, index, _, svc := newChatFixture()
	ctx := context.Background()

	embedder.On("GenerateEmbeddings", mock.Anything, mock.Anything).Return(nil, errors.New("api down"))

	answer, err := svc.Answer(ctx, "question", "doc-1", nil)

	assert.Nil(t, answer)
	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrCodeEmbedding, domainErr.Code)
	index.AssertNotCalled(t, "Search")
}

func TestChatService_Answer_CompletionFailureDegrades(t *testing.T) {
	embedder, index, completion, svc := newChatFixture()
	ctx := context.Background()

	embedder.On("GenerateEmbeddings", mock.Anything, mock.Anything).Return(queryVector(), nil)
	index.On("Search", mock.Anything, mock.Anything, "doc-1", 5).Return(skyResults(), nil)
	completion.On("Complete", mock.Anything, mock.Anything, 1000, float32(0.1)).Return("", errors.New("model overloaded"))

	answer, err := svc.Answer(ctx, "question", "doc-1", nil)
	require.NoError(t, err)

	assert.Contains(t, answer.Response, "An error occurred while processing your question")
	assert.Empty(t, answer.Sources)
}

func TestChatService_Answer_Validation(t *testing.T) {
	_, _, _, svc := newChatFixture()
	ctx := context.Background()

	_, err := svc.Answer(ctx, "   ", "doc-1", nil)
	assert.Equal(t, domain.ErrMissingQuery, err)

	_, err = svc.Answer(ctx, "question", "", nil)
	assert.Equal(t, domain.ErrMissingDocumentID, err)
}

func TestChatService_Summarize_Success(t *testing.T) {
	embedder, index, completion, svc := newChatFixture()
	ctx := context.Background()

	embedder.On("GenerateEmbeddings", mock.Anything, []string{summaryQuery}).Return(queryVector(), nil)
	index.On("Search", mock.Anything, mock.Anything, "doc-1", 10).Return(skyResults(), nil)

	completion.On("Complete", mock.Anything, mock.MatchedBy(func(messages []domain.ConversationTurn) bool {
		return len(messages) == 2 &&
			messages[0].Content == summarySystemPrompt &&
			strings.Contains(messages[1].Content, "The sky is blue.")
	}), 500, float32(0.1)).Return("A short document about colors.", nil)

	summary, err := svc.Summarize(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "A short document about colors.", summary)
}

func TestChatService_Summarize_NoContent(t *testing.T) {
	embedder, index, completion, svc := newChatFixture()
	ctx := context.Background()

	embedder.On("GenerateEmbeddings", mock.Anything, mock.Anything).Return(queryVector(), nil)
	index.On("Search", mock.Anything, mock.Anything, "doc-gone", 10).Return([]domain.RetrievalResult{}, nil)

	summary, err := svc.Summarize(ctx, "doc-gone")
	require.NoError(t, err)

	assert.Equal(t, summaryMissResponse, summary)
	completion.AssertNotCalled(t, "Complete")
}

func TestChatService_Summarize_CompletionFailure(t *testing.T) {
	embedder, index, completion, svc := newChatFixture()
	ctx := context.Background()

	embedder.On("GenerateEmbeddings", mock.Anything, mock.Anything).Return(queryVector(), nil)
	index.On("Search", mock.Anything, mock.Anything, "doc-1", 10).Return(skyResults(), nil)
	completion.On("Complete", mock.Anything, mock.Anything, 500, float32(0.1)).Return("", errors.New("timeout"))

	summary, err := svc.Summarize(ctx, "doc-1")

	assert.Empty(t, summary)
	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrCodeCompletion, domainErr.Code)
}
