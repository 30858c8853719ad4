package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"clipstream/video-api/model"
	"clipstream/video-api/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadProgress_UnknownUploadIs404(t *testing.T) {
	gin.SetMode(gin.TestMode)

	a := &API{
		Hub:          service.NewHub(),
		Orchestrator: &service.Orchestrator{Hub: service.NewHub()},
	}

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("requestID", "test-request")
		c.Next()
	})
	r.GET("/api/upload/progress/:uploadID", a.UploadProgress)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/upload/progress/nope", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTerminalEvent_ReplaysCompletedOutcome(t *testing.T) {
	sess := model.NewUploadSession("up-1", "alice", 100)
	_, done := terminalEvent(sess)
	assert.False(t, done, "an in-flight session has nothing to replay")

	sess.SetResult(&service.CompleteResult{VideoID: "v1", ShareLink: "https://x/v/v1"})
	sess.SetState(model.UploadCompleted)

	ev, done := terminalEvent(sess)
	require.True(t, done)
	assert.Equal(t, service.EventComplete, ev.Type)
	assert.Equal(t, float64(100), ev.Progress)
	require.NotNil(t, ev.Result)
	assert.Equal(t, "v1", ev.Result.VideoID)
}

func TestTerminalEvent_ReplaysFailure(t *testing.T) {
	sess := model.NewUploadSession("up-1", "alice", 100)
	sess.SetFailure("Upload failed. Please try again later")
	sess.SetState(model.UploadFailed)

	ev, done := terminalEvent(sess)
	require.True(t, done)
	assert.Equal(t, service.EventError, ev.Type)
	assert.Equal(t, "Upload failed. Please try again later", ev.Message)
}
