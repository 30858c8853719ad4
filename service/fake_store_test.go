package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// fakeObject is one pre-seeded object for the list/tagging paths
type fakeObject struct {
	key          string
	size         int64
	lastModified time.Time
	tagging      string // url-encoded, same format the engine writes
}

// fakeStore implements aws.ObjectStore in memory and records every call.
// Failures are injected per operation.
type fakeStore struct {
	mu sync.Mutex

	puts      []*s3.PutObjectInput
	putBodies [][]byte
	creates   []*s3.CreateMultipartUploadInput
	parts     map[int32][]byte
	completes []*s3.CompleteMultipartUploadInput
	aborts    []*s3.AbortMultipartUploadInput
	deletes   []string

	objects []fakeObject

	failPut      bool
	failPart     int32 // non-zero: this part number errors
	failComplete bool

	partSeen int32 // counts UploadPart calls for failPart ordering
}

func newFakeStore() *fakeStore {
	return &fakeStore{parts: make(map[int32][]byte)}
}

func (f *fakeStore) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failPut {
		return nil, errors.New("injected transport fault")
	}

	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}

	f.puts = append(f.puts, in)
	f.putBodies = append(f.putBodies, body)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeStore) CreateMultipartUpload(_ context.Context, in *s3.CreateMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.creates = append(f.creates, in)
	return &s3.CreateMultipartUploadOutput{
		UploadId: awssdk.String("fake-upload-id"),
	}, nil
}

func (f *fakeStore) UploadPart(_ context.Context, in *s3.UploadPartInput, _ ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.partSeen++
	if f.failPart != 0 && awssdk.ToInt32(in.PartNumber) == f.failPart {
		return nil, errors.New("injected transport fault")
	}

	f.parts[awssdk.ToInt32(in.PartNumber)] = body
	return &s3.UploadPartOutput{
		ETag: awssdk.String(fmt.Sprintf("etag-%d", awssdk.ToInt32(in.PartNumber))),
	}, nil
}

func (f *fakeStore) CompleteMultipartUpload(_ context.Context, in *s3.CompleteMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failComplete {
		return nil, errors.New("injected commit fault")
	}

	f.completes = append(f.completes, in)
	return &s3.CompleteMultipartUploadOutput{}, nil
}

func (f *fakeStore) AbortMultipartUpload(_ context.Context, in *s3.AbortMultipartUploadInput, _ ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.aborts = append(f.aborts, in)
	return &s3.AbortMultipartUploadOutput{}, nil
}

func (f *fakeStore) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.deletes = append(f.deletes, awssdk.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeStore) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := &s3.ListObjectsV2Output{}
	for _, obj := range f.objects {
		out.Contents = append(out.Contents, types.Object{
			Key:          awssdk.String(obj.key),
			Size:         awssdk.Int64(obj.size),
			LastModified: awssdk.Time(obj.lastModified),
		})
	}
	return out, nil
}

func (f *fakeStore) GetObjectTagging(_ context.Context, in *s3.GetObjectTaggingInput, _ ...func(*s3.Options)) (*s3.GetObjectTaggingOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, obj := range f.objects {
		if obj.key != awssdk.ToString(in.Key) {
			continue
		}

		vals, err := url.ParseQuery(obj.tagging)
		if err != nil {
			return nil, err
		}

		out := &s3.GetObjectTaggingOutput{}
		for k := range vals {
			out.TagSet = append(out.TagSet, types.Tag{
				Key:   awssdk.String(k),
				Value: awssdk.String(vals.Get(k)),
			})
		}
		return out, nil
	}

	return nil, errors.New("no such object")
}

// partCount returns how many blocks landed successfully
func (f *fakeStore) partCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.parts)
}

// joinedParts concatenates the stored blocks in part order
func (f *fakeStore) joinedParts() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []byte
	for i := int32(1); ; i++ {
		b, ok := f.parts[i]
		if !ok {
			return out
		}
		out = append(out, b...)
	}
}
