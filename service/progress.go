package service

import (
	"math"
	"sync"

	"go.uber.org/zap"
)

// Event types pushed over the progress stream
const (
	EventConnected = "connected"
	EventProgress  = "progress"
	EventComplete  = "complete"
	EventError     = "error"
	EventClose     = "close"
)

// Event is one message on an upload's progress stream. Type discriminates
// which of the optional fields are set.
type Event struct {
	Type          string  `json:"type"`
	Progress      float64 `json:"progress,omitempty"`
	BytesUploaded int64   `json:"bytesUploaded,omitempty"`
	TotalBytes    int64   `json:"totalBytes,omitempty"`
	Message       string  `json:"message,omitempty"`

	Result *CompleteResult `json:"result,omitempty"`
}

// CompleteResult rides on the terminal complete event
type CompleteResult struct {
	VideoID     string `json:"videoId"`
	ShareLink   string `json:"shareLink"`
	DownloadURL string `json:"downloadUrl"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
}

// subscriber channels are buffered; a consumer that can't keep up loses
// progress events but never sees them out of order
const subscriberBuffer = 64

// Subscriber is one observer of one upload's progress stream
type Subscriber struct {
	UploadID string
	C        chan Event
}

// Hub fans upload progress out to any number of subscribers keyed by
// upload id. Events for one upload id are published by a single writer, so
// per-subscriber delivery order matches publish order. There is no replay:
// subscribers only see events published after they joined.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[*Subscriber]struct{}
}

func NewHub() *Hub {
	return &Hub{
		subs: make(map[string]map[*Subscriber]struct{}),
	}
}

// Subscribe registers an observer for an upload and immediately queues the
// connected acknowledgement on its channel
func (h *Hub) Subscribe(uploadID string) *Subscriber {
	s := &Subscriber{
		UploadID: uploadID,
		C:        make(chan Event, subscriberBuffer),
	}

	h.mu.Lock()
	set, ok := h.subs[uploadID]
	if !ok {
		set = make(map[*Subscriber]struct{})
		h.subs[uploadID] = set
	}
	set[s] = struct{}{}
	// Queued under the lock so a concurrent finish can't close the
	// channel between registration and the ack. The channel is freshly
	// buffered, the send never blocks.
	s.C <- Event{Type: EventConnected}
	h.mu.Unlock()

	return s
}

// Unsubscribe removes an observer. The last observer leaving drops the
// upload's registry entry. Safe to call after Complete/Fail already
// disconnected the subscriber.
func (h *Hub) Unsubscribe(s *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.subs[s.UploadID]
	if !ok {
		return
	}
	if _, ok := set[s]; !ok {
		return
	}

	delete(set, s)
	close(s.C)

	if len(set) == 0 {
		delete(h.subs, s.UploadID)
	}
}

// Publish delivers an event to every current subscriber of the upload.
// With no subscribers the event is silently dropped.
func (h *Hub) Publish(uploadID string, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for s := range h.subs[uploadID] {
		select {
		case s.C <- ev:
		default:
			zap.L().Debug("Dropping progress event for slow subscriber",
				zap.String("upload_id", uploadID))
		}
	}
}

// Progress publishes a progress event with the display percentage derived
// from the byte counts
func (h *Hub) Progress(uploadID string, uploaded, total int64) {
	var pct float64
	if total > 0 {
		pct = math.Round(float64(uploaded) / float64(total) * 100)
	}

	h.Publish(uploadID, Event{
		Type:          EventProgress,
		Progress:      pct,
		BytesUploaded: uploaded,
		TotalBytes:    total,
	})
}

// Complete publishes the terminal complete event followed by a close
// signal, then disconnects every subscriber and drops the registry entry
func (h *Hub) Complete(uploadID string, res *CompleteResult) {
	h.finish(uploadID, Event{Type: EventComplete, Result: res, Progress: 100})
}

// Fail publishes the terminal error event followed by a close signal, then
// disconnects every subscriber. msg must already be user-safe.
func (h *Hub) Fail(uploadID, msg string) {
	h.finish(uploadID, Event{Type: EventError, Message: msg})
}

func (h *Hub) finish(uploadID string, terminal Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.subs[uploadID]
	if !ok {
		return
	}
	delete(h.subs, uploadID)

	for s := range set {
		// Terminal events must land even on a saturated channel; make
		// room by dropping the oldest queued progress event
		for _, ev := range []Event{terminal, {Type: EventClose}} {
			select {
			case s.C <- ev:
			default:
				select {
				case <-s.C:
				default:
				}
				s.C <- ev
			}
		}
		close(s.C)
	}
}
