package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"sync"
	"time"

	"clipstream/video-api/model"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// ErrQuotaExceeded is the synchronous rejection before any transfer starts
var ErrQuotaExceeded = errors.New("not enough storage quota")

const videoIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// UploadJob is one validated, spooled upload handed to the orchestrator.
// The orchestrator owns TempPath and removes it when the pipeline ends.
type UploadJob struct {
	UploadID     string
	TempPath     string
	OriginalName string
	Size         int64
	Extension    string
	ContentType  string

	OwnerID     string
	OwnerName   string
	OwnerAvatar string
}

// Orchestrator sequences the end-to-end upload: quota gate, engine
// transfer, catalog persistence, quota update, webhook notification and
// the terminal progress broadcast. Everything after Begin returns runs
// detached from the initiating request.
type Orchestrator struct {
	Engine   *Engine
	Catalog  VideoStore
	Quota    *QuotaTracker
	Hub      *Hub
	Notifier *Notifier

	// Share link prefix, e.g. https://clips.example.com
	BaseURL string

	sessions sync.Map // uploadID -> *model.UploadSession
}

// Begin runs the synchronous quota gate, registers the upload session and
// spawns the transfer pipeline. The caller answers the HTTP request as soon
// as Begin returns; everything later reaches the client through the hub.
func (o *Orchestrator) Begin(job *UploadJob) error {
	if !o.Quota.CanUpload(job.OwnerID, job.Size) {
		os.Remove(job.TempPath)
		return ErrQuotaExceeded
	}

	sess := model.NewUploadSession(job.UploadID, job.OwnerID, job.Size)
	o.sessions.Store(job.UploadID, sess)

	go o.run(job, sess)
	return nil
}

// Session returns the in-flight session for an upload id, if any
func (o *Orchestrator) Session(uploadID string) (*model.UploadSession, bool) {
	v, ok := o.sessions.Load(uploadID)
	if !ok {
		return nil, false
	}
	return v.(*model.UploadSession), true
}

func (o *Orchestrator) run(job *UploadJob, sess *model.UploadSession) {
	defer os.Remove(job.TempPath)
	// Keep the finished session around briefly so a watcher reconnecting
	// right after the terminal broadcast gets the outcome replayed from
	// the session instead of a stream that never produces events. After
	// the window the progress endpoint answers 404.
	defer time.AfterFunc(30*time.Second, func() {
		o.sessions.Delete(job.UploadID)
	})

	f, err := os.Open(job.TempPath)
	if err != nil {
		zap.L().Error("Failed to open spooled upload",
			zap.String("upload_id", job.UploadID), zap.Error(err))
		o.fail(job, sess, err)
		return
	}
	defer f.Close()

	videoID, err := gonanoid.Generate(videoIDAlphabet, 10)
	if err != nil {
		o.fail(job, sess, err)
		return
	}

	meta := ObjectMeta{
		ID:           videoID,
		OriginalName: job.OriginalName,
		OwnerID:      job.OwnerID,
		OwnerName:    job.OwnerName,
		Size:         job.Size,
		ContentType:  job.ContentType,
		Extension:    job.Extension,
		UploadedAt:   time.Now(),
		Legacy:       IsLegacyFormat(job.Extension),
	}

	res, err := o.Engine.Upload(context.Background(), f, meta, func(uploaded, total int64) {
		sess.Observe(uploaded)
		o.Hub.Progress(job.UploadID, uploaded, total)
	})
	if err != nil {
		zap.L().Error("Upload failed",
			zap.String("upload_id", job.UploadID),
			zap.String("user_id", job.OwnerID),
			zap.Error(err))
		o.fail(job, sess, err)
		return
	}

	rec := model.VideoRecord{
		ID:               res.ID,
		OriginalName:     job.OriginalName,
		Size:             res.Size,
		ContentType:      res.ContentType,
		FileFormat:       job.Extension,
		Legacy:           meta.Legacy,
		Bucket:           res.Bucket,
		ObjectKey:        res.Key,
		URL:              res.URL,
		UploadedBy:       job.OwnerID,
		UploaderUsername: job.OwnerName,
		UploaderAvatar:   job.OwnerAvatar,
		UploadDate:       meta.UploadedAt,
	}

	shareLink := o.shareLink(res.ID)

	o.Catalog.Put(rec)
	o.Quota.Record(job.OwnerID, res.Size, model.UploadSummary{
		ID:        res.ID,
		Name:      job.OriginalName,
		Size:      res.Size,
		Date:      meta.UploadedAt,
		ShareLink: shareLink,
	})

	if o.Catalog.MarkNotified(res.ID) {
		if err := o.Notifier.Send(rec, shareLink); err != nil {
			zap.L().Warn("Failed to deliver upload notification",
				zap.String("video_id", res.ID), zap.Error(err))
		}
	}

	result := &CompleteResult{
		VideoID:     res.ID,
		ShareLink:   shareLink,
		DownloadURL: o.BaseURL + "/download/" + res.ID,
		Size:        res.Size,
		ContentType: res.ContentType,
	}

	sess.SetResult(result)
	sess.SetState(model.UploadCompleted)
	o.Hub.Complete(job.UploadID, result)
}

func (o *Orchestrator) fail(job *UploadJob, sess *model.UploadSession, err error) {
	msg := "Upload failed. Please try again later"
	if viper.GetBool("app.debug") {
		msg = err.Error()
	}

	sess.SetFailure(msg)
	sess.SetState(model.UploadFailed)
	o.Hub.Fail(job.UploadID, msg)
}

func (o *Orchestrator) shareLink(videoID string) string {
	return fmt.Sprintf("%s/v/%s", o.BaseURL, path.Clean(videoID))
}
