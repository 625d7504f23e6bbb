package blob_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printdesk/printdesk/internal/platform/blob"
)

func exerciseStore(t *testing.T, store blob.Store) {
	t.Helper()
	ctx := context.Background()

	info, err := store.Put(ctx, "backups/2024/03/01/a.json", strings.NewReader(`{"a":1}`),
		blob.PutOptions{ContentType: "application/json", Metadata: map[string]string{"kind": "manual"}})
	require.NoError(t, err)
	assert.Equal(t, "backups/2024/03/01/a.json", info.Key)
	assert.Equal(t, int64(7), info.Size)

	_, err = store.Put(ctx, "backups/2024/03/01/a.json", strings.NewReader("x"), blob.PutOptions{})
	require.ErrorIs(t, err, blob.ErrExists)

	_, err = store.Put(ctx, "backups/2024/03/02/b.json", strings.NewReader(`{}`), blob.PutOptions{})
	require.NoError(t, err)
	_, err = store.Put(ctx, "other/c.txt", strings.NewReader("c"), blob.PutOptions{})
	require.NoError(t, err)

	got, rc, err := store.Get(ctx, "backups/2024/03/01/a.json")
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, `{"a":1}`, string(body))
	assert.Equal(t, "application/json", got.ContentType)

	list, err := store.List(ctx, "backups/")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "backups/2024/03/01/a.json", list[0].Key)
	assert.Equal(t, "backups/2024/03/02/b.json", list[1].Key)

	ok, err := store.Delete(ctx, "backups/2024/03/01/a.json")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = store.Delete(ctx, "backups/2024/03/01/a.json")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = store.Get(ctx, "backups/2024/03/01/a.json")
	require.ErrorIs(t, err, blob.ErrNotFound)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, blob.NewMemory())
}

func TestFilesystemStore(t *testing.T) {
	store, err := blob.NewFilesystem(t.TempDir())
	require.NoError(t, err)
	exerciseStore(t, store)

	_, err = store.Put(context.Background(), "../escape", strings.NewReader("x"), blob.PutOptions{})
	require.ErrorIs(t, err, blob.ErrInvalidKey)
}

func TestS3Store(t *testing.T) {
	exerciseStore(t, blob.NewS3WithClient(newFakeS3(), "printdesk"))
}

func TestOpenSelectsDriver(t *testing.T) {
	ctx := context.Background()
	store, err := blob.Open(ctx, blob.Config{Driver: "memory"})
	require.NoError(t, err)
	assert.Equal(t, blob.DriverMemory, store.Driver())

	store, err = blob.Open(ctx, blob.Config{FSRoot: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, blob.DriverFilesystem, store.Driver())

	_, err = blob.Open(ctx, blob.Config{Driver: "ftp"})
	require.Error(t, err)
	_, err = blob.Open(ctx, blob.Config{Driver: "s3"})
	require.Error(t, err, "bucket is required")
}

type fakeObject struct {
	data        []byte
	contentType *string
	metadata    map[string]string
	modified    time.Time
}

type fakeS3 struct {
	mu   sync.Mutex
	objs map[string]fakeObject
}

func newFakeS3() *fakeS3 { return &fakeS3{objs: make(map[string]fakeObject)} }

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objs[aws.ToString(in.Key)] = fakeObject{data: data, contentType: in.ContentType, metadata: in.Metadata, modified: time.Now().UTC()}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objs[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(obj.data)),
		ContentLength: aws.Int64(int64(len(obj.data))),
		ContentType:   obj.contentType,
		Metadata:      obj.metadata,
		LastModified:  aws.Time(obj.modified),
	}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objs[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{
		ContentLength: aws.Int64(int64(len(obj.data))),
		ContentType:   obj.contentType,
		Metadata:      obj.metadata,
		LastModified:  aws.Time(obj.modified),
	}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objs, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	for key, obj := range f.objs {
		if !strings.HasPrefix(key, aws.ToString(in.Prefix)) {
			continue
		}
		out.Contents = append(out.Contents, types.Object{
			Key:          aws.String(key),
			Size:         aws.Int64(int64(len(obj.data))),
			LastModified: aws.Time(obj.modified),
		})
	}
	return out, nil
}
