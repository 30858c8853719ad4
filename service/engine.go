package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"clipstream/video-api/aws"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrUploadFailed marks an upload the engine gave up on after the SDK's
// retry budget was spent. The underlying transport error stays wrapped
// alongside it.
var ErrUploadFailed = errors.New("upload failed")

// How often the single-shot path reports progress
const progressStep = 5 << 20

// ProgressFunc receives monotonically non-decreasing byte counts while a
// transfer runs. Called synchronously from the engine, so it must be cheap.
type ProgressFunc func(bytesUploaded, totalBytes int64)

// UploadResult is the durable locator of a committed object
type UploadResult struct {
	ID          string
	Bucket      string
	Key         string
	URL         string
	Size        int64
	ContentType string
}

// Engine moves a file's bytes into object storage. Files under the
// multipart threshold go up as one PutObject; everything else is split
// into fixed-size blocks uploaded with bounded parallelism and committed
// atomically. Either way the object carries the full tag contract when it
// becomes visible.
type Engine struct {
	store       aws.ObjectStore
	bucket      string
	publicURL   string
	chunkSize   int64
	threshold   int64
	concurrency int
}

type EngineConfig struct {
	Bucket      string
	PublicURL   string
	ChunkSize   int64
	Threshold   int64
	Concurrency int
}

func NewEngine(store aws.ObjectStore, cfg EngineConfig) *Engine {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 50 << 20
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = 50 << 20
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}

	return &Engine{
		store:       store,
		bucket:      cfg.Bucket,
		publicURL:   cfg.PublicURL,
		chunkSize:   cfg.ChunkSize,
		threshold:   cfg.Threshold,
		concurrency: cfg.Concurrency,
	}
}

// Upload transfers r into the bucket under meta.ID + meta.Extension and
// reports progress through report (which may be nil). On failure any
// partially committed object is cleaned up before the error is returned.
func (e *Engine) Upload(ctx context.Context, r io.Reader, meta ObjectMeta, report ProgressFunc) (*UploadResult, error) {
	if report == nil {
		report = func(int64, int64) {}
	}

	key := meta.ID + meta.Extension
	now := time.Now()

	var err error
	if meta.Size < e.threshold {
		err = e.putSingle(ctx, r, key, meta, report)
	} else {
		err = e.putMultipart(ctx, r, key, meta, report)
	}
	if err != nil {
		e.cleanup(key)
		return nil, fmt.Errorf("%w, %w", ErrUploadFailed, err)
	}

	zap.L().Debug("File uploaded",
		zap.String("key", key),
		zap.Int64("size", meta.Size),
		zap.Duration("took", time.Since(now)))

	return &UploadResult{
		ID:          meta.ID,
		Bucket:      e.bucket,
		Key:         key,
		URL:         e.publicURL + "/" + key,
		Size:        meta.Size,
		ContentType: meta.ContentType,
	}, nil
}

func (e *Engine) putSingle(ctx context.Context, r io.Reader, key string, meta ObjectMeta, report ProgressFunc) error {
	body := &progressReader{
		r:      r,
		total:  meta.Size,
		step:   progressStep,
		report: report,
	}

	_, err := e.store.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        awssdk.String(e.bucket),
		Key:           awssdk.String(key),
		Body:          body,
		ContentLength: awssdk.Int64(meta.Size),
		ContentType:   awssdk.String(meta.ContentType),
		Tagging:       awssdk.String(encodeTags(meta)),
	})
	if err != nil {
		return fmt.Errorf("failed to upload object, %w", err)
	}

	report(meta.Size, meta.Size)
	return nil
}

func (e *Engine) putMultipart(ctx context.Context, r io.Reader, key string, meta ObjectMeta, report ProgressFunc) error {
	create, err := e.store.CreateMultipartUpload(ctx, &s3.CreateMultipartUploadInput{
		Bucket:      awssdk.String(e.bucket),
		Key:         awssdk.String(key),
		ContentType: awssdk.String(meta.ContentType),
		Tagging:     awssdk.String(encodeTags(meta)),
	})
	if err != nil {
		return fmt.Errorf("failed to create multipart upload, %w", err)
	}
	uploadID := create.UploadId

	numParts := int((meta.Size + e.chunkSize - 1) / e.chunkSize)
	completed := make([]types.CompletedPart, 0, numParts)

	var mu sync.Mutex // guards completed and the uploaded counter
	var uploaded int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	// Blocks are read sequentially and uploaded concurrently. SetLimit
	// makes Go block when all workers are busy, which bounds the number
	// of in-flight buffers.
readLoop:
	for part := 1; part <= numParts; part++ {
		select {
		case <-gctx.Done():
			break readLoop
		default:
		}

		buf := make([]byte, e.chunkSize)
		n, err := io.ReadFull(r, buf)
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			buf = buf[:n]
		} else if err != nil {
			g.Wait()
			e.abort(key, uploadID)
			return fmt.Errorf("failed to read block %d, %w", part, err)
		}

		partNum := int32(part)
		block := buf[:n]

		g.Go(func() error {
			out, err := e.store.UploadPart(gctx, &s3.UploadPartInput{
				Bucket:        awssdk.String(e.bucket),
				Key:           awssdk.String(key),
				UploadId:      uploadID,
				PartNumber:    awssdk.Int32(partNum),
				// bytes.Reader is seekable so the SDK retryer can resend the block
				Body:          bytes.NewReader(block),
				ContentLength: awssdk.Int64(int64(len(block))),
			})
			if err != nil {
				return fmt.Errorf("failed to upload block %d, %w", partNum, err)
			}

			mu.Lock()
			completed = append(completed, types.CompletedPart{
				ETag:       out.ETag,
				PartNumber: awssdk.Int32(partNum),
			})
			uploaded += int64(len(block))
			report(uploaded, meta.Size)
			mu.Unlock()

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		e.abort(key, uploadID)
		return err
	}

	sort.Slice(completed, func(i, j int) bool {
		return awssdk.ToInt32(completed[i].PartNumber) < awssdk.ToInt32(completed[j].PartNumber)
	})

	_, err = e.store.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:   awssdk.String(e.bucket),
		Key:      awssdk.String(key),
		UploadId: uploadID,
		MultipartUpload: &types.CompletedMultipartUpload{
			Parts: completed,
		},
	})
	if err != nil {
		e.abort(key, uploadID)
		return fmt.Errorf("failed to commit multipart upload, %w", err)
	}

	return nil
}

// abort tears down an uncommitted multipart upload and any partially
// visible object. Failures here are logged only, the original upload error
// is what the caller needs to see.
func (e *Engine) abort(key string, uploadID *string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err := e.store.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   awssdk.String(e.bucket),
		Key:      awssdk.String(key),
		UploadId: uploadID,
	})
	if err != nil {
		zap.L().Error("Failed to abort multipart upload", zap.String("key", key), zap.Error(err))
	}

	e.cleanup(key)
}

func (e *Engine) cleanup(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err := e.store.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: awssdk.String(e.bucket),
		Key:    awssdk.String(key),
	})
	if err != nil {
		zap.L().Error("Failed to cleanup after failed upload", zap.String("key", key), zap.Error(err))
	} else {
		zap.L().Debug("Cleaned up after failed upload", zap.String("key", key))
	}
}

// progressReader reports every step bytes read through it plus once at EOF
type progressReader struct {
	r      io.Reader
	total  int64
	step   int64
	report ProgressFunc

	read     int64
	lastSent int64
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.read += int64(n)

	if p.read-p.lastSent >= p.step {
		p.lastSent = p.read
		p.report(p.read, p.total)
	}

	return n, err
}

