package state

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 is an in-memory bucket honoring If-None-Match: *.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    []string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := aws.ToString(in.Key)
	if aws.ToString(in.IfNoneMatch) == "*" {
		if _, exists := f.objects[key]; exists {
			return nil, &smithy.GenericAPIError{Code: "PreconditionFailed", Message: "At least one of the pre-conditions you specified did not hold"}
		}
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[key] = data
	f.puts = append(f.puts, key)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("The specified key does not exist.")}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Store(t *testing.T) {
	testStoreContract(t, func(*testing.T) Store { return NewS3StoreWithClient(newFakeS3(), "bucket", "fleetstack") })
}

func TestS3StoreObjectKeys(t *testing.T) {
	t.Parallel()
	fake := newFakeS3()
	s := NewS3StoreWithClient(fake, "bucket", "prod")
	ctx := context.Background()

	lease, err := s.Lock(ctx, "tictactoe", "run-1")
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, NewSnapshot("tictactoe")))
	require.NoError(t, lease.Release(ctx))

	assert.Equal(t, []string{"prod/tictactoe.lock", "prod/tictactoe.state.yaml"}, fake.puts)
	assert.NotContains(t, fake.objects, "prod/tictactoe.lock")
}

func TestS3ErrorClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		err          error
		precondition bool
		noSuchKey    bool
	}{
		{"nil error", nil, false, false},
		{"plain error", errors.New("boom"), false, false},
		{"precondition failed", &smithy.GenericAPIError{Code: "PreconditionFailed"}, true, false},
		{"conditional conflict", &smithy.GenericAPIError{Code: "ConditionalRequestConflict"}, true, false},
		{"typed no such key", &types.NoSuchKey{}, false, true},
		{"typed not found", &types.NotFound{}, false, true},
		{"generic 404", &smithy.GenericAPIError{Code: "404"}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.precondition, isPreconditionFailed(tt.err))
			assert.Equal(t, tt.noSuchKey, isNoSuchKey(tt.err))
		})
	}
}
