package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/intervia/intervia-backend/internal/config"
	"github.com/intervia/intervia-backend/internal/inference"
	"github.com/intervia/intervia-backend/internal/model"
	"github.com/rs/zerolog"
)

// Sentinel errors for résumé uploads.
var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file too large")
	ErrExtractionFailed    = errors.New("résumé extraction failed")
)

// Allowed résumé MIME types mapped to their stored extensions.
var allowedResumeTypes = map[string]string{
	"application/pdf": ".pdf",
	"text/plain":      ".txt",
	"text/markdown":   ".md",
}

// ResumeService stores uploaded résumés and turns them into candidate
// profiles via the inference API.
type ResumeService struct {
	cfg        *config.Config
	inf        *inference.Client
	candidates *CandidateService
	log        zerolog.Logger
}

// NewResumeService creates a new ResumeService.
func NewResumeService(cfg *config.Config, inf *inference.Client, candidates *CandidateService, log zerolog.Logger) *ResumeService {
	return &ResumeService{
		cfg:        cfg,
		inf:        inf,
		candidates: candidates,
		log:        log.With().Str("component", "resume_service").Logger(),
	}
}

// ProcessUpload saves the uploaded résumé, extracts a profile from it, and
// stores the profile on the candidate. Returns the extracted profile and
// the stored file path.
func (s *ResumeService) ProcessUpload(ctx context.Context, candidateID uuid.UUID, file multipart.File, header *multipart.FileHeader) (*model.CandidateProfile, string, error) {
	contentType := header.Header.Get("Content-Type")
	ext, ok := allowedResumeTypes[contentType]
	if !ok {
		// Some clients omit or genericize the content type; fall back to the
		// filename extension before rejecting.
		ext = strings.ToLower(filepath.Ext(header.Filename))
		if ext != ".pdf" && ext != ".txt" && ext != ".md" {
			return nil, "", fmt.Errorf("%w: %s (allowed: %s)",
				ErrUnsupportedFileType, contentType, strings.Join(allowedResumeExts(), ", "))
		}
	}

	if header.Size > s.cfg.MaxUploadBytes {
		return nil, "", fmt.Errorf("%w: %d bytes (max: %d)", ErrFileTooLarge, header.Size, s.cfg.MaxUploadBytes)
	}

	raw, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read upload: %w", err)
	}
	if int64(len(raw)) > s.cfg.MaxUploadBytes {
		return nil, "", fmt.Errorf("%w: max %d bytes", ErrFileTooLarge, s.cfg.MaxUploadBytes)
	}

	storedPath, err := s.store(raw, ext)
	if err != nil {
		return nil, "", err
	}

	text := extractText(raw, ext)
	profile, err := s.inf.ExtractProfile(ctx, text)
	if err != nil {
		s.log.Error().Err(err).Str("candidate_id", candidateID.String()).Msg("profile extraction failed")
		return nil, storedPath, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	if err := s.candidates.UpdateProfile(ctx, candidateID, profile); err != nil {
		return nil, storedPath, err
	}
	return profile, storedPath, nil
}

func (s *ResumeService) store(raw []byte, ext string) (string, error) {
	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	filename := uuid.New().String() + ext
	destPath := filepath.Join(s.cfg.UploadDir, filename)
	if err := os.WriteFile(destPath, raw, 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return "/uploads/" + filename, nil
}

// extractText produces the text forwarded to profile extraction. Plain text
// formats pass through unchanged. PDFs are salvaged by stripping to
// printable runs; the extraction API tolerates noisy input and the stored
// original stays available for reprocessing.
func extractText(raw []byte, ext string) string {
	if ext != ".pdf" {
		return string(raw)
	}

	var b strings.Builder
	run := 0
	for _, c := range raw {
		if c >= 0x20 && c < 0x7f || c == '\n' {
			b.WriteByte(c)
			run++
			continue
		}
		if run > 0 && run < 3 {
			// Short runs inside binary streams are noise, not words.
			s := b.String()
			b.Reset()
			b.WriteString(s[:len(s)-run])
		} else if run >= 3 {
			b.WriteByte(' ')
		}
		run = 0
	}
	return b.String()
}

func allowedResumeExts() []string {
	exts := make([]string, 0, len(allowedResumeTypes))
	for _, e := range allowedResumeTypes {
		exts = append(exts, e)
	}
	return exts
}
