package admin

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zefparis/pub/models"
	"github.com/zefparis/pub/tasks"
)

type mockLinks struct {
	CreateLinkFn func(ctx context.Context, videoID *uint, targetURL, sourcePlatform string) (*models.SmartLink, error)
}

func (m *mockLinks) CreateLink(ctx context.Context, videoID *uint, targetURL, sourcePlatform string) (*models.SmartLink, error) {
	return m.CreateLinkFn(ctx, videoID, targetURL, sourcePlatform)
}

type mockQueue struct {
	EnqueueFn func(ctx context.Context, queueName string, payload interface{}) error
}

func (m *mockQueue) Enqueue(ctx context.Context, queueName string, payload interface{}) error {
	return m.EnqueueFn(ctx, queueName, payload)
}

func setupRouter(links LinkCreator, queue Enqueuer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := logrus.New()
	log.SetOutput(io.Discard)
	r := gin.New()
	NewHandler(links, queue, log).RegisterRoutes(r.Group("/api"))
	return r
}

func postJSON(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateSmartLink(t *testing.T) {
	var gotTarget string
	r := setupRouter(&mockLinks{CreateLinkFn: func(_ context.Context, _ *uint, target, _ string) (*models.SmartLink, error) {
		gotTarget = target
		return &models.SmartLink{ID: 1, Slug: "deals-abcde", TargetURL: target}, nil
	}}, nil)

	w := postJSON(r, "/api/smartlinks", `{"target_url":"https://x.com/deals"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "https://x.com/deals", gotTarget)
	assert.Contains(t, w.Body.String(), `"slug":"deals-abcde"`)

	w = postJSON(r, "/api/smartlinks", `{"target_url":"not a url"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateSmartLinkError(t *testing.T) {
	r := setupRouter(&mockLinks{CreateLinkFn: func(context.Context, *uint, string, string) (*models.SmartLink, error) {
		return nil, errors.New("slug already taken")
	}}, nil)
	w := postJSON(r, "/api/smartlinks", `{"target_url":"https://x.com/deals"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRunPipelineEnqueues(t *testing.T) {
	var gotQueue string
	var gotPayload interface{}
	r := setupRouter(nil, &mockQueue{EnqueueFn: func(_ context.Context, q string, p interface{}) error {
		gotQueue, gotPayload = q, p
		return nil
	}})

	w := postJSON(r, "/api/pipeline/run", `{"niche":"gadgets","limit":2}`)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, tasks.QueuePipelineRun, gotQueue)
	assert.Equal(t, tasks.PipelineRunPayload{Niche: "gadgets", Limit: 2}, gotPayload)

	assert.Equal(t, http.StatusBadRequest, postJSON(r, "/api/pipeline/run", `{"limit":2}`).Code)
	assert.Equal(t, http.StatusBadRequest, postJSON(r, "/api/pipeline/run", `{"niche":"ads","limit":500}`).Code)
}
