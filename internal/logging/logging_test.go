package logging

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zefparis/pub/internal/testutil"
	"github.com/zefparis/pub/models"
)

func TestNewParsesLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, New("debug").GetLevel())
	assert.Equal(t, logrus.InfoLevel, New("loud").GetLevel())
}

func TestDBHookPersistsEntries(t *testing.T) {
	db := testutil.NewDB(t)
	hook := NewDBHook(db, 10, logrus.InfoLevel)

	log := logrus.New()
	log.SetOutput(io.Discard)
	log.AddHook(hook)

	log.WithField("slug", "deals-abcde").Info("Captured email")
	log.WithError(errors.New("boom")).Error("Publish failed")
	log.Debug("not persisted")
	hook.Close()

	var rows []models.LogEntry
	require.NoError(t, db.Order("id asc").Find(&rows).Error)
	require.Len(t, rows, 2)
	assert.Equal(t, "info", rows[0].Level)
	assert.Equal(t, "Captured email", rows[0].Message)
	assert.Contains(t, string(rows[0].Context), "deals-abcde")
	assert.Equal(t, "error", rows[1].Level)
	assert.Contains(t, string(rows[1].Context), "boom")

	// entries after Close are dropped silently
	log.Info("late")
	hook.Close()
}

func TestRequestLoggerSetsRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := logrus.New()
	log.SetOutput(io.Discard)

	r := gin.New()
	r.Use(RequestLogger(log))
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("request_id"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, w.Header().Get("X-Request-ID"), w.Body.String())
}
