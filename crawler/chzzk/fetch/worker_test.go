package fetch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"chzzk-vod-resolver-go/crawler/chzzk/model"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResolver struct {
	mu    sync.Mutex
	calls []string
}

func (s *stubResolver) ResolveID(ctx context.Context, videoID string) (*model.Descriptor, error) {
	s.mu.Lock()
	s.calls = append(s.calls, videoID)
	s.mu.Unlock()
	if videoID == "13" {
		return nil, errors.New("boom")
	}
	return &model.Descriptor{ID: videoID}, nil
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func TestResolveAll_KeepsInputOrder(t *testing.T) {
	ids := []string{"5", "3", "13", "1", "8", "2"}
	stub := &stubResolver{}

	results := ResolveAll(context.Background(), stub, ids, 3, Pacing{}, quietLogger())
	require.Len(t, results, len(ids))
	for i, r := range results {
		assert.Equal(t, ids[i], r.VideoID)
		if r.VideoID == "13" {
			assert.Error(t, r.Err)
			assert.Nil(t, r.Descriptor)
			continue
		}
		require.NoError(t, r.Err)
		assert.Equal(t, r.VideoID, r.Descriptor.ID)
	}
	assert.ElementsMatch(t, ids, stub.calls)
}

func TestResolveAll_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stub := &stubResolver{}
	ids := []string{"1", "2", "3"}
	results := ResolveAll(ctx, stub, ids, 2, Pacing{Base: time.Minute}, quietLogger())
	require.Len(t, results, len(ids))
	for i, r := range results {
		assert.Equal(t, ids[i], r.VideoID)
		assert.Nil(t, r.Descriptor)
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
	assert.Empty(t, stub.calls)
}

func TestResolveAll_CancelMidBatch(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	ids := []string{"1", "2", "3", "4"}
	results := ResolveAll(ctx, &stubResolver{}, ids, 1, Pacing{Base: 20 * time.Millisecond}, quietLogger())
	require.Len(t, results, len(ids))

	canceled := 0
	for i, r := range results {
		assert.Equal(t, ids[i], r.VideoID)
		if r.Err != nil {
			assert.ErrorIs(t, r.Err, context.DeadlineExceeded)
			canceled++
		}
	}
	assert.GreaterOrEqual(t, canceled, 2)
}
