package fallback

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"network-orchestrator-be/internal/entity"
	"network-orchestrator-be/pkg/store"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjects struct {
	objects map[string][]byte
}

func (f *fakeObjects) PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = body
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjects) GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	body, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(body))}, nil
}

func TestS3Archive(t *testing.T) {
	objects := &fakeObjects{objects: make(map[string][]byte)}
	archive := newS3Archive(objects, "media", "cache/")
	ctx := context.Background()

	artifact := entity.FallbackArtifact{
		PlatformTag: "youtube",
		ContentID:   "abc",
		Payload:     json.RawMessage(`{"x":1}`),
		CachedAt:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, archive.Save(ctx, artifact))
	assert.Contains(t, objects.objects, "media/cache/youtube/abc.json")

	got, err := archive.Load(ctx, "youtube", "abc")
	require.NoError(t, err)
	assert.Equal(t, artifact.CachedAt, got.CachedAt)
	assert.JSONEq(t, `{"x":1}`, string(got.Payload))

	_, err = archive.Load(ctx, "youtube", "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
