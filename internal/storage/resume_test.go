package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"jobsite/internal/common"
)

func TestLocalResumeStoreRoundTrip(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalResumeStore(root, 1<<20)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	ctx := context.Background()
	content := "%PDF-1.4\n1 0 obj\n<<>>\nendobj\n"

	ref, err := store.Save(ctx, "cv.pdf", strings.NewReader(content))
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !strings.HasPrefix(ref, "resumes/") || !strings.HasSuffix(ref, ".pdf") {
		t.Fatalf("unexpected ref %q", ref)
	}
	if ContentType(ref) != "application/pdf" {
		t.Fatalf("unexpected content type %q", ContentType(ref))
	}
	rc, err := store.Open(ctx, ref)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != content {
		t.Fatalf("expected stored content, got %q", data)
	}

	if err := store.Delete(ctx, ref); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, ref)); !os.IsNotExist(err) {
		t.Fatalf("expected file removed, got %v", err)
	}
	if err := store.Delete(ctx, ref); err != nil {
		t.Fatalf("expected repeated delete to succeed, got %v", err)
	}
}

func TestLocalResumeStoreAcceptsPlainText(t *testing.T) {
	store, err := NewLocalResumeStore(t.TempDir(), 1<<20)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	ref, err := store.Save(context.Background(), "cv.txt", strings.NewReader("Jane Doe\nGo developer\n"))
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !strings.HasSuffix(ref, ".txt") {
		t.Fatalf("unexpected ref %q", ref)
	}
}

func TestLocalResumeStoreRejectsTypeAndSize(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalResumeStore(root, 64)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	ctx := context.Background()
	png := "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"
	if _, err := store.Save(ctx, "photo.pdf", strings.NewReader(png)); !common.Is(err, common.CodeValidation) {
		t.Fatalf("expected validation error for png, got %v", err)
	}
	big := "%PDF-1.4\n" + strings.Repeat("a", 200)
	if _, err := store.Save(ctx, "cv.pdf", strings.NewReader(big)); !common.Is(err, common.CodeValidation) {
		t.Fatalf("expected validation error for size, got %v", err)
	}
	if _, err := store.Save(ctx, "cv.pdf", strings.NewReader("")); !common.Is(err, common.CodeValidation) {
		t.Fatalf("expected validation error for empty file, got %v", err)
	}
	entries, _ := os.ReadDir(filepath.Join(root, "resumes"))
	if len(entries) != 0 {
		t.Fatalf("expected no files left behind, got %d", len(entries))
	}
}

func TestLocalResumeStoreRejectsEscapingRefs(t *testing.T) {
	store, err := NewLocalResumeStore(t.TempDir(), 1<<20)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	for _, ref := range []string{"../etc/passwd", "/etc/passwd", "other/file.pdf"} {
		if _, err := store.Open(context.Background(), ref); !common.Is(err, common.CodeNotFound) {
			t.Fatalf("expected not found for %q, got %v", ref, err)
		}
	}
}
