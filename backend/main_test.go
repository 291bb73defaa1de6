package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/SergeyShakirov/TaskGo/backend/config"
	"github.com/SergeyShakirov/TaskGo/backend/model"
	"github.com/SergeyShakirov/TaskGo/backend/service"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DEEPSEEK_API_KEY", "")
	t.Setenv("EXPORT_BACKEND", "")
	t.Setenv("DATABASE_DRIVER", "")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestGenerateCommand(t *testing.T) {
	out, err := runCLI(t, "generate", "--brief", "Booking app for a dental clinic", "--budget", "200000")
	if err != nil {
		t.Fatalf("generate failed: %v\n%s", err, out)
	}

	var gen model.Generation
	if err := json.Unmarshal([]byte(out), &gen); err != nil {
		t.Fatalf("Expected JSON output, got %q: %v", out, err)
	}
	if !gen.Success || gen.Source != model.SourceFallback {
		t.Errorf("Expected fallback success, got %+v", gen)
	}
	if gen.Data.DetailedDescription == "" {
		t.Error("Expected a description")
	}
}

func TestGenerateCommandRequiresBrief(t *testing.T) {
	if _, err := runCLI(t, "generate"); err == nil {
		t.Error("Expected error without --brief")
	}
}

func TestExportCommand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "request.json")
	req := `{"taskRequest":{"id":"cli-1","title":"Site"},"aiGeneration":{"success":true,"data":{"detailedDescription":"D"}}}`
	if err := os.WriteFile(input, []byte(req), 0o644); err != nil {
		t.Fatal(err)
	}
	outDir := filepath.Join(dir, "out")

	out, err := runCLI(t, "export", "--input", input, "--format", "word", "--out", outDir)
	if err != nil {
		t.Fatalf("export failed: %v\n%s", err, out)
	}

	var artifact model.ExportArtifact
	if err := json.Unmarshal([]byte(out), &artifact); err != nil {
		t.Fatalf("Expected JSON output, got %q: %v", out, err)
	}
	if !regexp.MustCompile(`^TZ_cli-1_\d+\.docx$`).MatchString(artifact.FileName) {
		t.Errorf("Unexpected file name %q", artifact.FileName)
	}
	if _, err := os.Stat(filepath.Join(outDir, artifact.FileName)); err != nil {
		t.Errorf("Expected artifact on disk: %v", err)
	}
}

func TestExportCommandRejectsUnknownFormat(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "request.json")
	if err := os.WriteFile(input, []byte(`{"taskRequest":{"id":"x"},"aiGeneration":{}}`), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := runCLI(t, "export", "--input", input, "--format", "odt", "--out", dir); err == nil {
		t.Error("Expected error for unsupported format")
	}
}

func TestNeedsUTF8Font(t *testing.T) {
	tests := map[string]bool{
		"en":    false,
		"de-DE": false,
		"ru":    true,
		"uk-UA": true,
		"zh":    true,
		"":      false,
		"???":   false,
	}
	for locale, want := range tests {
		if got := needsUTF8Font(locale); got != want {
			t.Errorf("needsUTF8Font(%q) = %v, want %v", locale, got, want)
		}
	}
}

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestNewExportServiceWarnsWithoutFont(t *testing.T) {
	buf := captureLog(t)
	cfg := &config.Config{Export: config.ExportConfig{Locale: "ru", Currency: "RUB"}}
	newExportService(cfg, service.NewLocalArtifactStore(t.TempDir()), service.NoopPublisher{})
	if !strings.Contains(buf.String(), "level=WARN") || !strings.Contains(buf.String(), "locale=ru") {
		t.Errorf("expected font warning, got %q", buf.String())
	}

	buf.Reset()
	cfg.Export.Locale = "en"
	newExportService(cfg, service.NewLocalArtifactStore(t.TempDir()), service.NoopPublisher{})
	if strings.Contains(buf.String(), "level=WARN") {
		t.Errorf("unexpected warning for latin locale: %q", buf.String())
	}
}

func TestOpenArtifactStoreLocal(t *testing.T) {
	buf := captureLog(t)
	dir := t.TempDir()
	cfg := &config.Config{Export: config.ExportConfig{Backend: config.BackendLocal, OutputDir: dir}}
	store, err := openArtifactStore(t.Context(), cfg)
	if err != nil {
		t.Fatalf("openArtifactStore: %v", err)
	}
	if _, ok := store.(*service.LocalArtifactStore); !ok {
		t.Fatalf("expected local store, got %T", store)
	}
	if !strings.Contains(buf.String(), "dir="+dir) {
		t.Errorf("expected dir in log, got %q", buf.String())
	}
}
