package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"jobsite/internal/common"
)

const (
	resumeSubdir = "resumes"
	sniffBytes   = 3072
)

var allowedResumeTypes = []string{
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"text/rtf",
	"text/plain",
}

// LocalResumeStore keeps resumes on disk under <root>/resumes. References
// handed out are relative to root.
type LocalResumeStore struct {
	root     string
	maxBytes int64
}

func NewLocalResumeStore(root string, maxBytes int64) (*LocalResumeStore, error) {
	if err := os.MkdirAll(filepath.Join(root, resumeSubdir), 0o755); err != nil {
		return nil, fmt.Errorf("create resume dir: %w", err)
	}
	return &LocalResumeStore{root: root, maxBytes: maxBytes}, nil
}

func (s *LocalResumeStore) Save(ctx context.Context, filename string, r io.Reader) (string, error) {
	head := make([]byte, sniffBytes)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", common.NewError(common.CodeInternal, "failed to read resume", err)
	}
	head = head[:n]
	if n == 0 {
		return "", invalidResume("The submitted file is empty.")
	}
	detected := mimetype.Detect(head)
	if !acceptedResume(detected, filename) {
		return "", invalidResume(fmt.Sprintf("Unsupported file type %s. Upload a PDF, DOC, DOCX, RTF or text file.", detected.String()))
	}

	ref := filepath.ToSlash(filepath.Join(resumeSubdir, string(common.NewUUID())+extension(detected, filename)))
	path := filepath.Join(s.root, filepath.FromSlash(ref))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", common.NewError(common.CodeInternal, "failed to create resume file", err)
	}
	rest := r
	if s.maxBytes > 0 {
		rest = io.LimitReader(r, s.maxBytes-int64(len(head))+1)
	}
	written, err := io.Copy(file, io.MultiReader(bytes.NewReader(head), rest))
	closeErr := file.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", common.NewError(common.CodeInternal, "failed to write resume", err)
	}
	if s.maxBytes > 0 && written > s.maxBytes {
		_ = os.Remove(path)
		return "", invalidResume(fmt.Sprintf("Ensure the file is no larger than %d bytes.", s.maxBytes))
	}
	return ref, nil
}

func (s *LocalResumeStore) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	path, err := s.resolve(ref)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, common.NewError(common.CodeNotFound, "resume not found", err)
		}
		return nil, common.NewError(common.CodeInternal, "failed to open resume", err)
	}
	return file, nil
}

// Delete is a no-op for files that are already gone.
func (s *LocalResumeStore) Delete(ctx context.Context, ref string) error {
	path, err := s.resolve(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *LocalResumeStore) resolve(ref string) (string, error) {
	local := filepath.FromSlash(ref)
	if !filepath.IsLocal(local) || !strings.HasPrefix(filepath.ToSlash(filepath.Clean(local)), resumeSubdir+"/") {
		return "", common.NewError(common.CodeNotFound, "resume not found", nil)
	}
	return filepath.Join(s.root, local), nil
}

func acceptedResume(detected *mimetype.MIME, filename string) bool {
	for _, allowed := range allowedResumeTypes {
		if detected.Is(allowed) {
			return true
		}
	}
	// short docx files can sniff as a bare zip archive
	return detected.Is("application/zip") && strings.EqualFold(filepath.Ext(filename), ".docx")
}

func extension(detected *mimetype.MIME, filename string) string {
	if detected.Is("application/zip") {
		return ".docx"
	}
	if ext := detected.Extension(); ext != "" {
		return ext
	}
	return strings.ToLower(filepath.Ext(filename))
}

func invalidResume(message string) error {
	return common.NewValidationError("invalid resume", map[string]string{"resume": message})
}

// ContentType returns the download content type for a stored reference.
func ContentType(ref string) string {
	switch strings.ToLower(filepath.Ext(ref)) {
	case ".pdf":
		return "application/pdf"
	case ".doc":
		return "application/msword"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".rtf":
		return "text/rtf"
	case ".txt":
		return "text/plain; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}
