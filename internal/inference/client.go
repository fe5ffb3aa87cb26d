package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/intervia/intervia-backend/internal/interview"
	"github.com/intervia/intervia-backend/internal/model"
	"github.com/rs/zerolog"
)

// Client talks to the external inference API: question generation, transcript
// scoring, and résumé profile extraction. It implements
// interview.QuestionSource and interview.Scorer.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a Client. timeout bounds every request; scoring and
// extraction can be slow on the provider side.
func NewClient(baseURL, apiKey string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		log:     log.With().Str("component", "inference_client").Logger(),
	}
}

// GenerateQuestions asks the API for an ordered question list tailored to
// the profile. Questions come back pre-ordered and are never reordered here.
func (c *Client) GenerateQuestions(ctx context.Context, profile model.CandidateProfile, count int) ([]model.Question, error) {
	req := generateQuestionsRequest{
		Profile: toProfilePayload(profile),
		Count:   count,
	}

	var resp generateQuestionsResponse
	if err := c.post(ctx, "/v1/interview/questions", req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error
	}

	questions := make([]model.Question, 0, len(resp.Questions))
	for _, p := range resp.Questions {
		text := normalizeField(p.Text)
		if text == "" {
			continue // skip malformed entries rather than fail the batch
		}
		id, err := uuid.Parse(p.ID)
		if err != nil {
			id = uuid.New()
		}
		questions = append(questions, model.Question{
			ID:             id,
			Text:           text,
			Difficulty:     model.ParseDifficulty(normalizeField(p.Difficulty)),
			Category:       normalizeField(p.Category),
			ExpectedTopics: normalizeList(p.ExpectedTopics),
		})
	}

	return questions, nil
}

// ScoreTranscript grades a full transcript. Any transport error, API error,
// or out-of-range score is returned as an error; the caller substitutes its
// local fallback.
func (c *Client) ScoreTranscript(ctx context.Context, entries []interview.TranscriptEntry, profile model.CandidateProfile) (*interview.ScoreResult, error) {
	req := scoreRequest{
		Transcript: make([]transcriptPayload, len(entries)),
		Candidate:  toProfilePayload(profile),
	}
	for i, e := range entries {
		req.Transcript[i] = transcriptPayload{
			Question:         e.Question.Text,
			Answer:           e.Answer.AnswerText,
			Difficulty:       string(e.Question.Difficulty),
			Category:         e.Question.Category,
			ExpectedTopics:   e.Question.ExpectedTopics,
			TimeTakenSeconds: e.Answer.TimeTakenSeconds,
			TimeLimitSeconds: e.Question.TimeLimitSeconds,
		}
	}

	var resp scoreResponse
	if err := c.post(ctx, "/v1/interview/score", req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	if resp.OverallScore == nil || *resp.OverallScore < 0 || *resp.OverallScore > 100 {
		return nil, fmt.Errorf("malformed scoring response: overall_score missing or out of range")
	}

	result := &interview.ScoreResult{
		OverallScore: *resp.OverallScore,
		Summary:      normalizeField(resp.Summary),
	}
	for _, f := range resp.PerQuestion {
		result.PerQuestion = append(result.PerQuestion, model.QuestionFeedback{
			Score:      f.Score,
			Feedback:   normalizeField(f.Feedback),
			Strengths:  normalizeList(f.Strengths),
			Weaknesses: normalizeList(f.Weaknesses),
		})
	}
	return result, nil
}

// ExtractProfile converts raw résumé text into structured profile fields.
// The API mixes "not found" sentinels into otherwise-typed data; they are
// converted to absent values here, before the profile enters the core.
func (c *Client) ExtractProfile(ctx context.Context, resumeText string) (*model.CandidateProfile, error) {
	var resp extractResponse
	if err := c.post(ctx, "/v1/resume/extract", extractRequest{ResumeText: resumeText}, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error
	}

	return &model.CandidateProfile{
		Name:            normalizeField(resp.Name),
		Email:           normalizeField(resp.Email),
		Skills:          normalizeList(resp.Skills),
		ExperienceYears: resp.ExperienceYears,
		Experience:      normalizeList(resp.Experience),
		Education:       normalizeList(resp.Education),
		Summary:         normalizeField(resp.Summary),
	}, nil
}

// ────────────────────────────────────────────────────────────────────────────
// Transport
// ────────────────────────────────────────────────────────────────────────────

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("inference request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		// Try the structured error body first; fall back to the status line.
		var e struct {
			Error *apiError `json:"error"`
		}
		if jsonErr := json.Unmarshal(data, &e); jsonErr == nil && e.Error != nil {
			return e.Error
		}
		return fmt.Errorf("inference api status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// ────────────────────────────────────────────────────────────────────────────
// Boundary normalization
// ────────────────────────────────────────────────────────────────────────────

// notFoundSentinels are strings the extraction model emits for absent fields.
var notFoundSentinels = map[string]struct{}{
	"not found": {},
	"n/a":       {},
	"none":      {},
	"unknown":   {},
}

func normalizeField(s string) string {
	trimmed := strings.TrimSpace(s)
	if _, ok := notFoundSentinels[strings.ToLower(trimmed)]; ok {
		return ""
	}
	return trimmed
}

func normalizeList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if v := normalizeField(s); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func toProfilePayload(p model.CandidateProfile) profilePayload {
	return profilePayload{
		Name:            p.Name,
		Email:           p.Email,
		Skills:          p.Skills,
		ExperienceYears: p.ExperienceYears,
		Experience:      p.Experience,
		Education:       p.Education,
		Summary:         p.Summary,
	}
}
