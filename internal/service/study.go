package service

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/student-ai-platform/internal/apiclient"
	"github.com/student-ai-platform/internal/models"
	"github.com/student-ai-platform/internal/types"
)

// DefaultConversationTitle is used when a conversation is created without one
const DefaultConversationTitle = "New Conversation"

// StudyService talks to the study chat endpoints
type StudyService struct {
	backend *apiclient.Client
	ai      *apiclient.Client
}

// NewStudyService creates a new study service
func NewStudyService(backend, ai *apiclient.Client) *StudyService {
	return &StudyService{backend: backend, ai: ai}
}

type chatRequest struct {
	Message        string           `json:"message"`
	ConversationID *string          `json:"conversation_id"`
	Subject        *string          `json:"subject"`
	Difficulty     types.Difficulty `json:"difficulty"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// SendMessage asks a study question. An empty conversationID starts a new conversation.
func (s *StudyService) SendMessage(ctx context.Context, message, conversationID, subject string, difficulty types.Difficulty) (*models.ChatReply, error) {
	if difficulty == "" {
		difficulty = types.DifficultyIntermediate
	}
	var reply models.ChatReply
	err := callData(ctx, s.backend, apiclient.Request{
		Method: http.MethodPost,
		Path:   "/study/chat",
		Body: chatRequest{
			Message:        message,
			ConversationID: optional(conversationID),
			Subject:        optional(subject),
			Difficulty:     difficulty,
		},
	}, &reply)
	if err != nil {
		return nil, err
	}
	return &reply, nil
}

// Conversation returns a conversation with its messages
func (s *StudyService) Conversation(ctx context.Context, id string) (*models.ConversationDetail, error) {
	var detail models.ConversationDetail
	if err := getData(ctx, s.backend, "/study/conversations/"+url.PathEscape(id), nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Conversations lists the user's conversations
func (s *StudyService) Conversations(ctx context.Context, query models.ConversationQuery) (*models.ConversationList, error) {
	q := pageQuery(nil, query.Limit, query.Offset)
	if query.Subject != "" {
		q.Set("subject", query.Subject)
	}
	var list models.ConversationList
	if err := getData(ctx, s.backend, "/study/conversations", q, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

type conversationEnvelope struct {
	Conversation models.Conversation `json:"conversation"`
}

// CreateConversation starts an empty conversation
func (s *StudyService) CreateConversation(ctx context.Context, title, subject string) (*models.Conversation, error) {
	if title == "" {
		title = DefaultConversationTitle
	}
	var result conversationEnvelope
	err := callData(ctx, s.backend, apiclient.Request{
		Method: http.MethodPost,
		Path:   "/study/conversations",
		Body:   map[string]string{"title": title, "subject": subject},
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result.Conversation, nil
}

// UpdateConversation renames or re-subjects a conversation
func (s *StudyService) UpdateConversation(ctx context.Context, id string, update models.ConversationUpdate) (*models.Conversation, error) {
	var result conversationEnvelope
	err := callData(ctx, s.backend, apiclient.Request{
		Method: http.MethodPut,
		Path:   "/study/conversations/" + url.PathEscape(id),
		Body:   update,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result.Conversation, nil
}

// DeleteConversation removes a conversation and its messages
func (s *StudyService) DeleteConversation(ctx context.Context, id string) error {
	return callData(ctx, s.backend, apiclient.Request{
		Method: http.MethodDelete,
		Path:   "/study/conversations/" + url.PathEscape(id),
	}, nil)
}

// Stats returns the study activity counters
func (s *StudyService) Stats(ctx context.Context) (*models.StudyStats, error) {
	var result struct {
		Stats models.StudyStats `json:"stats"`
	}
	if err := getData(ctx, s.backend, "/study/stats", nil, &result); err != nil {
		return nil, err
	}
	return &result.Stats, nil
}

// Search finds stored messages containing q; limit defaults to 10
func (s *StudyService) Search(ctx context.Context, q string, limit int) (*models.MessageSearch, error) {
	if limit <= 0 {
		limit = 10
	}
	query := url.Values{"q": {q}, "limit": {strconv.Itoa(limit)}}

	var result models.MessageSearch
	if err := getData(ctx, s.backend, "/study/search", query, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// AIHealth returns the raw health report of the AI server
func (s *StudyService) AIHealth(ctx context.Context) (*models.HealthStatus, error) {
	var health models.HealthStatus
	if err := s.ai.Get(ctx, "/health", nil, &health); err != nil {
		return nil, err
	}
	return &health, nil
}
