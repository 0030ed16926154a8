package capture

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TenLetterx/RPi-MDP10/errors"
)

type staticFrame struct{ data []byte }

func (s staticFrame) Frame(ctx context.Context) ([]byte, error) { return s.data, nil }

func TestCaptureUploadsFrameAndReturnsResult(t *testing.T) {
	var gotName string
	var gotFrame []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/image", r.URL.Path)
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		gotName = header.Filename
		gotFrame, err = io.ReadAll(file)
		require.NoError(t, err)

		_, _ = w.Write([]byte(`{"obstacle_id":"1","image_id":"38"}`))
	}))
	defer server.Close()

	rec := NewRecognizer(RecognizerDeps{
		BaseURL: server.URL,
		Source:  staticFrame{data: []byte("jpeg-bytes")},
	})
	rec.now = func() time.Time { return time.Unix(1700000000, 0) }

	result, err := rec.Capture(context.Background(), "1", "C")
	require.NoError(t, err)
	assert.Equal(t, `{"obstacle_id":"1","image_id":"38"}`, result)
	assert.Equal(t, "1700000000_1_C.jpg", gotName)
	assert.Equal(t, []byte("jpeg-bytes"), gotFrame)
}

func TestCaptureSanitizesFilenameParts(t *testing.T) {
	var gotName string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, header, err := r.FormFile("file")
		require.NoError(t, err)
		gotName = header.Filename
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	rec := NewRecognizer(RecognizerDeps{BaseURL: server.URL, Source: staticFrame{}})
	rec.now = func() time.Time { return time.Unix(1, 0) }

	_, err := rec.Capture(context.Background(), "..1..", "C..")
	require.NoError(t, err)
	assert.Equal(t, "1_1_C.jpg", gotName)
}

func TestCaptureUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	rec := NewRecognizer(RecognizerDeps{BaseURL: server.URL, Source: staticFrame{}})
	_, err := rec.Capture(context.Background(), "1", "C")
	require.Error(t, err)
	assert.True(t, errors.IsUpstream(err))
}
