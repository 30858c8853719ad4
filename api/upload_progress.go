package api

import (
	"io"
	"net/http"

	"clipstream/video-api/model"
	"clipstream/video-api/service"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
)

// terminalEvent reconstructs the stream's final event for an upload that
// already finished
func terminalEvent(sess *model.UploadSession) (service.Event, bool) {
	switch sess.State() {
	case model.UploadCompleted:
		res, _ := sess.Result().(*service.CompleteResult)
		return service.Event{Type: service.EventComplete, Progress: 100, Result: res}, true
	case model.UploadFailed:
		return service.Event{Type: service.EventError, Message: sess.Failure()}, true
	}
	return service.Event{}, false
}

// UploadProgress opens a server-sent-events stream with the progress of
// one in-flight upload. Closing the stream does not cancel the transfer,
// it only stops watching it.
func (a *API) UploadProgress(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	uploadID := c.Param("uploadID")

	sess, ok := a.Orchestrator.Session(uploadID)
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
			"error":     "No such upload",
			"requestID": requestID,
		})
		return
	}

	sub := a.Hub.Subscribe(uploadID)
	defer a.Hub.Unsubscribe(sub)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	// Checked after subscribing: a transfer that went terminal before the
	// check gets its outcome replayed here, one that goes terminal after
	// reaches us through the hub
	if ev, done := terminalEvent(sess); done {
		for _, out := range []service.Event{{Type: service.EventConnected}, ev, {Type: service.EventClose}} {
			sse.Encode(c.Writer, sse.Event{Event: "message", Data: out})
		}
		return
	}

	clientGone := c.Request.Context().Done()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-clientGone:
			return false
		case ev, ok := <-sub.C:
			if !ok {
				return false
			}

			sse.Encode(w, sse.Event{
				Event: "message",
				Data:  ev,
			})

			return ev.Type != service.EventClose
		}
	})
}
