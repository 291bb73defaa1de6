package service

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SergeyShakirov/TaskGo/backend/config"
)

// fakeS3 implements the handful of S3 calls the artifact store makes.
type fakeS3 struct {
	mu      sync.Mutex
	bucket  bool
	objects map[string][]byte
	types   map[string]string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	parts := strings.SplitN(strings.TrimPrefix(r.URL.Path, "/"), "/", 2)
	if len(parts) == 1 || parts[1] == "" {
		switch r.Method {
		case http.MethodHead:
			if !f.bucket {
				w.WriteHeader(http.StatusNotFound)
				return
			}
		case http.MethodPut:
			f.bucket = true
		}
		w.WriteHeader(http.StatusOK)
		return
	}

	key := parts[1]
	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		if strings.HasPrefix(r.Header.Get("X-Amz-Content-Sha256"), "STREAMING-") {
			body = decodeAWSChunked(body)
		}
		f.objects[key] = body
		f.types[key] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodHead, http.MethodGet:
		body, ok := f.objects[key]
		if !ok {
			if r.Method == http.MethodGet {
				w.Header().Set("Content-Type", "application/xml")
				w.WriteHeader(http.StatusNotFound)
				w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`))
				return
			}
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("ETag", `"etag"`)
		w.Header().Set("Last-Modified", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC).Format(http.TimeFormat))
		w.Header().Set("Content-Type", f.types[key])
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			w.Write(body)
		}
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// decodeAWSChunked strips the chunk framing of a streaming-signed upload.
func decodeAWSChunked(body []byte) []byte {
	var out bytes.Buffer
	r := bufio.NewReader(bytes.NewReader(body))
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			break
		}
		sizeHex := strings.TrimSpace(strings.SplitN(line, ";", 2)[0])
		size, err := strconv.ParseInt(sizeHex, 16, 64)
		if err != nil || size == 0 {
			break
		}
		io.CopyN(&out, r, size)
		r.ReadString('\n')
	}
	return out.Bytes()
}

func newTestMinioStore(t *testing.T) (*MinioArtifactStore, *fakeS3) {
	t.Helper()
	fake := &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	u, err := url.Parse(server.URL)
	require.NoError(t, err)

	store, err := NewMinioArtifactStore(&config.MinioConfig{
		Endpoint:  u.Host,
		AccessKey: "test",
		SecretKey: "testtest",
		Bucket:    "taskgo",
		Region:    "us-east-1",
	})
	require.NoError(t, err)
	return store, fake
}

func TestNewMinioArtifactStoreInvalidEndpoint(t *testing.T) {
	_, err := NewMinioArtifactStore(&config.MinioConfig{Endpoint: "http://bad endpoint", Bucket: "b"})
	assert.Error(t, err)
}

func TestMinioEnsureBucket(t *testing.T) {
	store, fake := newTestMinioStore(t)

	require.NoError(t, store.EnsureBucket(context.Background()))
	assert.True(t, fake.bucket)
}

func TestMinioArtifactStoreSaveAndOpen(t *testing.T) {
	store, fake := newTestMinioStore(t)
	store.now = fixedClock(1700000000000)
	fake.objects["exports/TZ_t1_1700000000000.pdf"] = []byte("taken")

	artifact, err := store.Save(context.Background(), "t1", []byte("%PDF-test"), "pdf")
	require.NoError(t, err)

	assert.Equal(t, "TZ_t1_1700000000001.pdf", artifact.FileName)
	assert.Equal(t, DownloadPrefix+artifact.FileName, artifact.DownloadURL)
	assert.Equal(t, "application/pdf", fake.types["exports/"+artifact.FileName])

	a, err := store.Open(context.Background(), artifact.FileName)
	require.NoError(t, err)
	defer a.Body.Close()
	body, err := io.ReadAll(a.Body)
	require.NoError(t, err)
	assert.Equal(t, fake.objects["exports/"+artifact.FileName], body)
	assert.Equal(t, int64(len(body)), a.Size)
}

func TestMinioArtifactStoreOpenMissing(t *testing.T) {
	store, _ := newTestMinioStore(t)

	_, err := store.Open(context.Background(), "TZ_t1_5.docx")
	assert.ErrorIs(t, err, ErrArtifactNotFound)

	_, err = store.Open(context.Background(), "../secret")
	assert.ErrorIs(t, err, ErrArtifactNotFound)
}
