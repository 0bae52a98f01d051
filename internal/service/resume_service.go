package service

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/crisphq/crisp-backend/internal/config"
	"github.com/crisphq/crisp-backend/internal/resume"
)

// Sentinel errors for resume uploads.
var (
	ErrUnsupportedResumeType = errors.New("unsupported resume type")
	ErrResumeTooLarge        = errors.New("resume file too large")
)

// Accepted resume MIME types. Extraction runs on the text content; binary
// document formats must be converted client-side before upload.
var allowedResumeTypes = map[string]string{
	"text/plain":    ".txt",
	"text/markdown": ".md",
}

// ResumeUpload is the outcome of a resume upload: where the file landed,
// what identity fields were found, and which still need to be collected.
type ResumeUpload struct {
	Path          string        `json:"resume_path"`
	Fields        resume.Fields `json:"fields"`
	MissingFields []string      `json:"missing_fields"`
}

// ResumeService stores uploaded resumes and extracts candidate identity
// fields from them.
type ResumeService struct {
	cfg *config.Config
}

// NewResumeService creates a new ResumeService.
func NewResumeService(cfg *config.Config) *ResumeService {
	return &ResumeService{cfg: cfg}
}

// SaveUpload persists the uploaded resume with a UUID filename and runs
// field extraction over its text. The caller gets back every field that
// could be found plus the list of fields the client must still ask for.
func (s *ResumeService) SaveUpload(file multipart.File, header *multipart.FileHeader) (*ResumeUpload, error) {
	contentType := header.Header.Get("Content-Type")
	// Strip parameters like "; charset=utf-8".
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	ext, ok := allowedResumeTypes[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedResumeType, contentType)
	}

	if header.Size > s.cfg.MaxUploadBytes {
		return nil, fmt.Errorf("%w: %d bytes (max: %d)", ErrResumeTooLarge, header.Size, s.cfg.MaxUploadBytes)
	}

	content, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(content)) > s.cfg.MaxUploadBytes {
		return nil, fmt.Errorf("%w: exceeds %d bytes", ErrResumeTooLarge, s.cfg.MaxUploadBytes)
	}

	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	filename := uuid.New().String() + ext
	destPath := filepath.Join(s.cfg.UploadDir, filename)

	dst, err := os.Create(destPath)
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("write file: %w", err)
	}

	fields := resume.Extract(string(content))
	return &ResumeUpload{
		Path:          "/uploads/" + filename,
		Fields:        fields,
		MissingFields: fields.Missing(),
	}, nil
}
