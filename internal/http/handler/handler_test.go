package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/ShortKey/internal/app/model"
	"github.com/sifan077/ShortKey/internal/app/probe"
	"github.com/sifan077/ShortKey/internal/app/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockLinkService is a mock implementation of service.LinkService
type MockLinkService struct {
	mock.Mock
}

func (m *MockLinkService) CreateLink(ctx context.Context, input service.CreateLinkInput) (*model.Link, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Link), args.Error(1)
}

func (m *MockLinkService) ResolveAndRecordClick(ctx context.Context, key string) (*model.Link, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Link), args.Error(1)
}

func (m *MockLinkService) GetAdminView(ctx context.Context, secretKey string) (*model.Link, error) {
	args := m.Called(ctx, secretKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Link), args.Error(1)
}

func (m *MockLinkService) Reactivate(ctx context.Context, secretKey string) (*model.Link, error) {
	args := m.Called(ctx, secretKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Link), args.Error(1)
}

func (m *MockLinkService) Deactivate(ctx context.Context, secretKey string) (string, error) {
	args := m.Called(ctx, secretKey)
	return args.String(0), args.Error(1)
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func setupApp(svc service.LinkService, db Pinger) *fiber.App {
	app := fiber.New()
	urls := NewLinkURLs("https://sho.rt/s/")
	NewAPIHandler(APIDeps{LinkService: svc, URLs: urls}).Register(app)
	NewAdminHandler(AdminDeps{LinkService: svc, URLs: urls}).Register(app)
	NewRedirectHandler(RedirectDeps{LinkService: svc, Database: db}).Register(app)
	return app
}

func send(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]interface{}, http.Header) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp.StatusCode, decoded, resp.Header
}

func sampleLink() *model.Link {
	return &model.Link{
		ID:        7,
		TargetURL: "https://www.example.com",
		Key:       "abcde",
		SecretKey: "abcde_Zx81KqPa",
		IsActive:  true,
		Clicks:    3,
	}
}

func TestLinkURLs(t *testing.T) {
	urls := NewLinkURLs("https://sho.rt/s/")
	assert.Equal(t, "https://sho.rt/s/abcde", urls.Short("abcde"))
	assert.Equal(t, "https://sho.rt/s/admin/abcde_x", urls.Admin("abcde_x"))

	info := urls.Info(sampleLink())
	assert.Equal(t, "https://sho.rt/s/abcde", info.URL)
	assert.Equal(t, "https://sho.rt/s/admin/abcde_Zx81KqPa", info.AdminURL)
	assert.EqualValues(t, 3, info.Clicks)
}

func TestCreateLink(t *testing.T) {
	svc := new(MockLinkService)
	svc.On("CreateLink", mock.Anything, service.CreateLinkInput{
		TargetURL: "https://www.example.com",
		CustomKey: "abcde",
	}).Return(sampleLink(), nil)

	status, body, _ := send(t, setupApp(svc, nil), fiber.MethodPost, "/url",
		`{"target_url":"https://www.example.com","custom_key":"abcde"}`)

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "abcde", body["key"])
	assert.Equal(t, "abcde_Zx81KqPa", body["secret_key"])
	assert.Equal(t, "https://sho.rt/s/abcde", body["url"])
	assert.Equal(t, "https://sho.rt/s/admin/abcde_Zx81KqPa", body["admin_url"])
	svc.AssertExpectations(t)
}

func TestCreateLink_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		detail string
	}{
		{"invalid url", service.ErrInvalidURL, fiber.StatusBadRequest, "Your provided URL is not valid"},
		{"invalid key", fmt.Errorf("%w: %q is reserved", service.ErrInvalidKey, "url"), fiber.StatusBadRequest, `Your provided custom key is not valid: "url" is reserved`},
		{"unreachable", fmt.Errorf("%w: %w", service.ErrTargetUnreachable, probe.ErrUnreachable), fiber.StatusBadRequest, "Target website is not accessible"},
		{"bad status", fmt.Errorf("%w: %w", service.ErrTargetUnreachable, &probe.StatusError{Code: 500}), fiber.StatusBadRequest, "Target website is not accessible (status code 500)."},
		{"conflict", fmt.Errorf("%w: %q", service.ErrKeyConflict, "abcde"), fiber.StatusConflict, "already taken"},
		{"internal", errors.New("db exploded"), fiber.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockLinkService)
			svc.On("CreateLink", mock.Anything, mock.Anything).Return(nil, tt.err)

			status, body, _ := send(t, setupApp(svc, nil), fiber.MethodPost, "/url", `{"target_url":"https://x.example"}`)
			assert.Equal(t, tt.status, status)
			assert.Contains(t, body["detail"], tt.detail)
		})
	}
}

func TestCreateLink_BadBody(t *testing.T) {
	svc := new(MockLinkService)
	app := setupApp(svc, nil)

	status, body, _ := send(t, app, fiber.MethodPost, "/url", `{"custom_key":"abc"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "target_url is required", body["detail"])

	status, _, _ = send(t, app, fiber.MethodPost, "/url", `[1,2`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	svc.AssertNotCalled(t, "CreateLink", mock.Anything, mock.Anything)
}

func TestResolve(t *testing.T) {
	svc := new(MockLinkService)
	svc.On("ResolveAndRecordClick", mock.Anything, "abcde").Return(sampleLink(), nil)
	svc.On("ResolveAndRecordClick", mock.Anything, "gone").Return(nil, service.ErrNotFound)
	app := setupApp(svc, nil)

	status, _, header := send(t, app, fiber.MethodGet, "/abcde", "")
	assert.Equal(t, fiber.StatusTemporaryRedirect, status)
	assert.Equal(t, "https://www.example.com", header.Get(fiber.HeaderLocation))

	status, body, _ := send(t, app, fiber.MethodGet, "/gone", "")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Contains(t, body["detail"], "/gone doesn't exist")
}

func TestRoot(t *testing.T) {
	app := setupApp(new(MockLinkService), nil)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, `"Welcome to the URL shortener API :)"`, string(raw))
}

func TestHealth(t *testing.T) {
	status, body, _ := send(t, setupApp(new(MockLinkService), stubPinger{}), fiber.MethodGet, "/health", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "up", body["database"])

	status, body, _ = send(t, setupApp(new(MockLinkService), stubPinger{err: errors.New("refused")}), fiber.MethodGet, "/health", "")
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
	assert.Equal(t, "down", body["database"])
}

func TestAdminInfo(t *testing.T) {
	inactive := sampleLink()
	inactive.IsActive = false

	svc := new(MockLinkService)
	svc.On("GetAdminView", mock.Anything, "abcde_Zx81KqPa").Return(inactive, nil)
	svc.On("GetAdminView", mock.Anything, "nope").Return(nil, service.ErrNotFound)
	app := setupApp(svc, nil)

	status, body, _ := send(t, app, fiber.MethodGet, "/admin/abcde_Zx81KqPa", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, false, body["is_active"])
	assert.EqualValues(t, 3, body["clicks"])

	status, _, _ = send(t, app, fiber.MethodGet, "/admin/nope", "")
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestAdminDeactivate(t *testing.T) {
	svc := new(MockLinkService)
	svc.On("Deactivate", mock.Anything, "abcde_Zx81KqPa").Return("https://www.example.com", nil)
	svc.On("Deactivate", mock.Anything, "nope").Return("", service.ErrNotFound)
	app := setupApp(svc, nil)

	status, body, _ := send(t, app, fiber.MethodDelete, "/admin/abcde_Zx81KqPa", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Successfully deleted shortened URL for 'https://www.example.com'", body["detail"])

	status, _, _ = send(t, app, fiber.MethodDelete, "/admin/nope", "")
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestAdminActivate(t *testing.T) {
	svc := new(MockLinkService)
	svc.On("Reactivate", mock.Anything, "abcde_Zx81KqPa").Return(sampleLink(), nil)
	svc.On("Reactivate", mock.Anything, "nope").Return(nil, service.ErrNotFound)
	app := setupApp(svc, nil)

	status, body, _ := send(t, app, fiber.MethodPatch, "/admin/abcde_Zx81KqPa/activate", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "URL reactivated successfully", body["detail"])

	status, body, _ = send(t, app, fiber.MethodPatch, "/admin/nope/activate", "")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "URL not found", body["detail"])
}
