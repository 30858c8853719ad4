package model

import "sync/atomic"

// Upload session states
const (
	UploadStarted    = "started"
	UploadInProgress = "in_progress"
	UploadCompleted  = "completed"
	UploadFailed     = "failed"
)

// UploadSession is one in-flight upload. It is never persisted, the
// orchestrator owns it from Begin until the terminal event is broadcast.
type UploadSession struct {
	UploadID   string
	OwnerID    string
	TotalBytes int64

	bytesUploaded atomic.Int64
	state         atomic.Value

	// Terminal outcome, stored before the state flips so a reader that
	// observes a terminal state always finds it set
	result  atomic.Value
	failure atomic.Value
}

func NewUploadSession(uploadID, ownerID string, total int64) *UploadSession {
	s := &UploadSession{
		UploadID:   uploadID,
		OwnerID:    ownerID,
		TotalBytes: total,
	}
	s.state.Store(UploadStarted)
	return s
}

// Observe records storage-layer progress. Values only ever move forward,
// a stale callback can't roll the counter back.
func (s *UploadSession) Observe(uploaded int64) {
	for {
		cur := s.bytesUploaded.Load()
		if uploaded <= cur {
			return
		}
		if s.bytesUploaded.CompareAndSwap(cur, uploaded) {
			s.state.Store(UploadInProgress)
			return
		}
	}
}

func (s *UploadSession) BytesUploaded() int64 {
	return s.bytesUploaded.Load()
}

func (s *UploadSession) SetState(state string) {
	s.state.Store(state)
}

func (s *UploadSession) State() string {
	return s.state.Load().(string)
}

// SetResult stores the completed upload's payload for watchers that
// connect after the terminal broadcast
func (s *UploadSession) SetResult(v any) {
	s.result.Store(v)
}

func (s *UploadSession) Result() any {
	return s.result.Load()
}

// SetFailure stores the user-safe failure message
func (s *UploadSession) SetFailure(msg string) {
	s.failure.Store(msg)
}

func (s *UploadSession) Failure() string {
	v, _ := s.failure.Load().(string)
	return v
}
