package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/student-ai-platform/internal/models"
)

func TestHelpSearchCombinesFAQAndGuides(t *testing.T) {
	f := newFixture(t)
	f.srv.Envelope(http.MethodGet, "/api/help/faq", map[string]interface{}{
		"faqs":  []map[string]interface{}{{"id": 1, "question": "Làm sao kết nối ví?"}},
		"total": 1,
	})
	f.srv.Envelope(http.MethodGet, "/api/help/guides", map[string]interface{}{"guides": nil, "total": 0})

	result, err := NewHelpService(f.backend).Search(context.Background(), "ví")
	require.NoError(t, err)
	assert.Len(t, result.FAQs, 1)
	assert.NotNil(t, result.Guides)
	assert.Equal(t, 1, result.Total)

	q := f.srv.LastRequest(http.MethodGet, "/api/help/faq").URL.Query()
	assert.Equal(t, "ví", q.Get("search"))
	assert.Equal(t, "10", q.Get("limit"))
	assert.Equal(t, "ví", f.srv.LastRequest(http.MethodGet, "/api/help/guides").URL.Query().Get("search"))
}

func TestHelpSearchFailsWhenEitherSourceFails(t *testing.T) {
	f := newFixture(t)
	f.srv.Envelope(http.MethodGet, "/api/help/faq", map[string]interface{}{"faqs": []interface{}{}})
	f.srv.JSON(http.MethodGet, "/api/help/guides", http.StatusInternalServerError, map[string]string{})

	_, err := NewHelpService(f.backend).Search(context.Background(), "nft")
	assert.Error(t, err)
}

func TestHelpTickets(t *testing.T) {
	tests := []struct {
		name        string
		submit      func(*HelpService, models.ContactRequest) error
		subject     string
		wantType    string
		wantSubject string
	}{
		{
			name:        "general default",
			submit:      contactWith((*HelpService).Contact),
			subject:     "Hello",
			wantType:    ContactGeneral,
			wantSubject: "Hello",
		},
		{
			name:        "problem with subject",
			submit:      contactWith((*HelpService).ReportProblem),
			subject:     "Upload lỗi",
			wantType:    ContactProblem,
			wantSubject: "Problem Report: Upload lỗi",
		},
		{
			name:        "problem without subject",
			submit:      contactWith((*HelpService).ReportProblem),
			wantType:    ContactProblem,
			wantSubject: "Problem Report: General Issue",
		},
		{
			name:        "feature without subject",
			submit:      contactWith((*HelpService).RequestFeature),
			wantType:    ContactFeature,
			wantSubject: "Feature Request: New Feature",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.srv.Envelope(http.MethodPost, "/api/help/contact", map[string]interface{}{"id": 1700000000000, "message": "ok"})

			err := tt.submit(NewHelpService(f.backend), models.ContactRequest{
				Name: "An", Email: "an@example.com", Subject: tt.subject, Message: "...",
			})
			require.NoError(t, err)

			var body map[string]string
			f.srv.LastBody(http.MethodPost, "/api/help/contact", &body)
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, tt.wantSubject, body["subject"])
		})
	}
}

func contactWith(fn func(*HelpService, context.Context, models.ContactRequest) (*models.ContactReceipt, error)) func(*HelpService, models.ContactRequest) error {
	return func(s *HelpService, req models.ContactRequest) error {
		_, err := fn(s, context.Background(), req)
		return err
	}
}

func TestHelpStaticData(t *testing.T) {
	svc := NewHelpService(nil)
	topics := svc.PopularTopics()
	require.Len(t, topics, 5)
	assert.Equal(t, 1250, topics[0].Views)
	assert.Equal(t, 1247, svc.Stats().ResolvedTickets)
}

func TestHelpLookups(t *testing.T) {
	f := newFixture(t)
	f.srv.Envelope(http.MethodGet, "/api/help/faq/{id}", map[string]interface{}{"id": 3, "question": "Phí?"})
	f.srv.Envelope(http.MethodGet, "/api/help/support", map[string]interface{}{"options": []map[string]interface{}{{"type": "email"}}, "total": 1})
	f.srv.Envelope(http.MethodGet, "/api/help/status", map[string]interface{}{"overall": "operational"})

	svc := NewHelpService(f.backend)
	ctx := context.Background()

	item, err := svc.FAQItem(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, item.ID)

	support, err := svc.Support(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, support.Total)

	status, err := svc.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, "operational", status.Overall)
}
