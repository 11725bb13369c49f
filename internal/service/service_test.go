package service

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/student-ai-platform/internal/apiclient"
	apperrors "github.com/student-ai-platform/internal/errors"
	"github.com/student-ai-platform/internal/notify"
	"github.com/student-ai-platform/internal/testutil"
)

type fixture struct {
	srv     *testutil.FakeServer
	rec     *notify.Recorder
	pub     *notify.Publisher
	backend *apiclient.Client
	ai      *apiclient.Client
}

// newFixture serves the backend under /api and the AI server at the root of one fake server
func newFixture(t *testing.T) *fixture {
	t.Helper()
	srv := testutil.NewFakeServer(t)
	rec := &notify.Recorder{}
	pub := notify.NewPublisher(rec, notify.NewCatalog(notify.LocaleVI))
	return &fixture{
		srv:     srv,
		rec:     rec,
		pub:     pub,
		backend: apiclient.New(apiclient.NameBackend, srv.URL()+"/api", 5*time.Second, apiclient.WithNotifier(pub)),
		ai:      apiclient.New(apiclient.NameAIServer, srv.URL(), 5*time.Second, apiclient.WithNotifier(pub)),
	}
}

func TestMessage(t *testing.T) {
	cause := apperrors.NewHTTPError(http.StatusBadRequest, "bad amount")

	assert.Equal(t, "", Message(nil))
	assert.Equal(t, "friendly", Message(fail("friendly", cause)))
	assert.Equal(t, "bad amount", Message(cause))
	assert.Equal(t, "plain", Message(errors.New("plain")))
}

func TestFailureUnwrapsToCategorizedError(t *testing.T) {
	err := error(fail("text", apperrors.NewHTTPError(http.StatusNotFound, "")))
	assert.True(t, apperrors.IsNotFound(err))
	assert.Equal(t, "text", err.Error())
}
