package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/SergeyShakirov/TaskGo/backend/model"
	"github.com/SergeyShakirov/TaskGo/backend/pkg/logger"
)

// DownloadPrefix is the route stored artifacts are served from.
const DownloadPrefix = "/api/export/download/"

// maxNameAttempts bounds the millisecond bumps on a name collision.
const maxNameAttempts = 1000

var (
	artifactNamePattern = regexp.MustCompile(`^TZ_[A-Za-z0-9_-]+_\d+\.(docx|pdf)$`)
	unsafeIDChars       = regexp.MustCompile(`[^A-Za-z0-9_-]`)
)

// ArtifactStore persists rendered documents under generated names.
type ArtifactStore interface {
	Save(ctx context.Context, taskID string, data []byte, ext string) (model.ExportArtifact, error)
	Open(ctx context.Context, fileName string) (*Artifact, error)
}

// Artifact is an opened stored document. The caller closes Body.
type Artifact struct {
	Name    string
	Size    int64
	ModTime time.Time
	Body    io.ReadCloser
}

// ArtifactName builds TZ_<taskId>_<unixMillis>.<ext>.
func ArtifactName(taskID string, ms int64, ext string) string {
	return fmt.Sprintf("TZ_%s_%d.%s", sanitizeTaskID(taskID), ms, ext)
}

// ValidArtifactName reports whether name could have been produced by a store.
func ValidArtifactName(name string) bool {
	return artifactNamePattern.MatchString(name)
}

func sanitizeTaskID(id string) string {
	id = unsafeIDChars.ReplaceAllString(strings.TrimSpace(id), "_")
	if id == "" {
		return "task"
	}
	return id
}

func newArtifact(name string) model.ExportArtifact {
	return model.ExportArtifact{FileName: name, DownloadURL: DownloadPrefix + name}
}

// LocalArtifactStore writes artifacts into one flat directory.
type LocalArtifactStore struct {
	dir string
	now func() time.Time
}

func NewLocalArtifactStore(dir string) *LocalArtifactStore {
	return &LocalArtifactStore{dir: dir, now: time.Now}
}

func (s *LocalArtifactStore) Dir() string { return s.dir }

// Save creates the file exclusively. When another export took the same
// millisecond, the next one is tried, so names stay unique and keep their shape.
func (s *LocalArtifactStore) Save(ctx context.Context, taskID string, data []byte, ext string) (model.ExportArtifact, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return model.ExportArtifact{}, &StorageError{Op: "mkdir", Path: s.dir, Err: err}
	}

	ms := s.now().UnixMilli()
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		name := ArtifactName(taskID, ms+int64(attempt), ext)
		path := filepath.Join(s.dir, name)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return model.ExportArtifact{}, &StorageError{Op: "create", Path: path, Err: err}
		}

		if _, err := f.Write(data); err != nil {
			f.Close()
			return model.ExportArtifact{}, &StorageError{Op: "write", Path: path, Err: err}
		}
		if err := f.Close(); err != nil {
			return model.ExportArtifact{}, &StorageError{Op: "close", Path: path, Err: err}
		}

		logger.Info(ctx, "Artifact stored", "file", name, "size", humanize.Bytes(uint64(len(data))))
		return newArtifact(name), nil
	}
	return model.ExportArtifact{}, &StorageError{Op: "create", Path: s.dir, Err: fs.ErrExist}
}

func (s *LocalArtifactStore) Open(_ context.Context, fileName string) (*Artifact, error) {
	if !ValidArtifactName(fileName) {
		return nil, ErrArtifactNotFound
	}
	path := filepath.Join(s.dir, fileName)

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrArtifactNotFound
	}
	if err != nil {
		return nil, &StorageError{Op: "open", Path: path, Err: err}
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, &StorageError{Op: "stat", Path: path, Err: err}
	}
	return &Artifact{Name: fileName, Size: info.Size(), ModTime: info.ModTime(), Body: f}, nil
}
