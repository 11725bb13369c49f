package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/student-ai-platform/internal/models"
)

func TestStudySendMessageDefaults(t *testing.T) {
	f := newFixture(t)
	f.srv.Envelope(http.MethodPost, "/api/study/chat", map[string]interface{}{
		"conversation_id": "c1",
		"ai_response":     map[string]interface{}{"id": "m2", "content": "Đạo hàm là...", "subject_detected": "math"},
	})

	reply, err := NewStudyService(f.backend, f.ai).SendMessage(context.Background(), "đạo hàm là gì?", "", "", "")
	require.NoError(t, err)
	assert.Equal(t, "c1", reply.ConversationID)
	assert.Equal(t, "math", reply.AIResponse.SubjectDetected)

	var body map[string]interface{}
	f.srv.LastBody(http.MethodPost, "/api/study/chat", &body)
	assert.Equal(t, "intermediate", body["difficulty"])
	assert.Nil(t, body["conversation_id"])
	assert.Nil(t, body["subject"])
	assert.Contains(t, body, "conversation_id")
}

func TestStudyConversations(t *testing.T) {
	f := newFixture(t)
	f.srv.Envelope(http.MethodGet, "/api/study/conversations", map[string]interface{}{
		"conversations": []map[string]interface{}{{"_id": "c1", "title": "Toán"}},
		"pagination":    map[string]interface{}{"total": 1},
	})
	f.srv.Envelope(http.MethodPost, "/api/study/conversations", map[string]interface{}{
		"conversation": map[string]interface{}{"_id": "c2", "title": DefaultConversationTitle},
	})
	f.srv.Envelope(http.MethodGet, "/api/study/conversations/{id}", map[string]interface{}{
		"conversation": map[string]interface{}{"_id": "c1"},
		"messages":     []map[string]interface{}{{"id": "m1", "type": "user", "content": "hi"}},
	})
	f.srv.Envelope(http.MethodPut, "/api/study/conversations/{id}", map[string]interface{}{
		"conversation": map[string]interface{}{"_id": "c1", "title": "Lý"},
	})
	f.srv.Envelope(http.MethodDelete, "/api/study/conversations/{id}", nil)

	svc := NewStudyService(f.backend, f.ai)
	ctx := context.Background()

	list, err := svc.Conversations(ctx, models.ConversationQuery{Limit: 50})
	require.NoError(t, err)
	require.Len(t, list.Conversations, 1)
	assert.Equal(t, "50", f.srv.LastRequest(http.MethodGet, "/api/study/conversations").URL.Query().Get("limit"))

	conv, err := svc.CreateConversation(ctx, "", "math")
	require.NoError(t, err)
	assert.Equal(t, "c2", conv.ID)
	var body map[string]string
	f.srv.LastBody(http.MethodPost, "/api/study/conversations", &body)
	assert.Equal(t, DefaultConversationTitle, body["title"])
	assert.Equal(t, "math", body["subject"])

	detail, err := svc.Conversation(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, detail.Messages, 1)
	assert.Equal(t, "hi", detail.Messages[0].Content)

	updated, err := svc.UpdateConversation(ctx, "c1", models.ConversationUpdate{Title: "Lý"})
	require.NoError(t, err)
	assert.Equal(t, "Lý", updated.Title)

	require.NoError(t, svc.DeleteConversation(ctx, "c1"))
	assert.Equal(t, 1, f.srv.Hits(http.MethodDelete, "/api/study/conversations/{id}"))
}

func TestStudySearchAndHealth(t *testing.T) {
	f := newFixture(t)
	f.srv.Envelope(http.MethodGet, "/api/study/search", map[string]interface{}{
		"query": "đạo hàm", "count": 1, "results": []map[string]interface{}{{"_id": "m1", "content": "đạo hàm"}},
	})
	f.srv.Envelope(http.MethodGet, "/api/study/stats", map[string]interface{}{
		"stats": map[string]interface{}{"totalConversations": 3, "activeSubjects": 2},
	})
	f.srv.JSON(http.MethodGet, "/health", http.StatusOK, map[string]interface{}{
		"status": "healthy", "uptime": 12.5, "models_loaded": map[string]bool{"llm_study": true},
	})

	svc := NewStudyService(f.backend, f.ai)
	ctx := context.Background()

	found, err := svc.Search(ctx, "đạo hàm", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, found.Count)
	q := f.srv.LastRequest(http.MethodGet, "/api/study/search").URL.Query()
	assert.Equal(t, "đạo hàm", q.Get("q"))
	assert.Equal(t, "10", q.Get("limit"))

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalConversations)

	health, err := svc.AIHealth(ctx)
	require.NoError(t, err)
	assert.True(t, health.Healthy())
	assert.True(t, health.ModelsLoaded["llm_study"])
}
