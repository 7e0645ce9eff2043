package api_test

import (
	"context"
	"net/http"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"

	"github.com/technosupport/ts-camwatch/internal/alerting"
	"github.com/technosupport/ts-camwatch/internal/data"
)

// withURLParam attaches a chi route parameter to the request, mirroring what
// the router does before a handler runs.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func newMockRepos(t *testing.T) (*data.Repositories, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return data.NewRepositories(db, nil), mock
}

// expectSettingsMap satisfies the settings load the test-send handlers do
// before every send. Empty rows mean the parsed settings are all defaults.
func expectSettingsMap(mock sqlmock.Sqlmock) {
	mock.ExpectQuery("SELECT key, value, description FROM settings").
		WillReturnRows(sqlmock.NewRows([]string{"key", "value", "description"}))
}

type MockRestarter struct {
	Calls int
}

func (m *MockRestarter) Restart() { m.Calls++ }

type MockMailSender struct {
	Err      error
	Subjects []string
}

func (m *MockMailSender) Send(_ context.Context, _ alerting.MailSettings, subject string, _ []string) error {
	m.Subjects = append(m.Subjects, subject)
	return m.Err
}

type MockChatSender struct {
	Err   error
	Texts []string
}

func (m *MockChatSender) Send(_ context.Context, _ alerting.TelegramSettings, text string) error {
	m.Texts = append(m.Texts, text)
	return m.Err
}
