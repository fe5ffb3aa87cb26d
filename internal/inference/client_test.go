package inference

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/intervia/intervia-backend/internal/interview"
	"github.com/intervia/intervia-backend/internal/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "test-key", 5*time.Second, zerolog.Nop())
}

func TestGenerateQuestions(t *testing.T) {
	qid := uuid.New()
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/interview/questions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, float64(3), req["count"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"questions": []map[string]interface{}{
				{"id": qid.String(), "text": "What is a goroutine?", "difficulty": "easy", "category": "concurrency"},
				{"text": "Design a rate limiter", "difficulty": "hard"},
				{"text": "", "difficulty": "easy"}, // malformed, skipped
				{"text": "Tell me about channels", "difficulty": "weird"},
			},
		})
	})

	qs, err := client.GenerateQuestions(context.Background(), model.CandidateProfile{Name: "Jo"}, 3)
	require.NoError(t, err)
	require.Len(t, qs, 3)

	assert.Equal(t, qid, qs[0].ID)
	assert.Equal(t, model.DifficultyEasy, qs[0].Difficulty)
	assert.Equal(t, "concurrency", qs[0].Category)

	// Missing ID gets a generated one; order is preserved.
	assert.NotEqual(t, uuid.Nil, qs[1].ID)
	assert.Equal(t, model.DifficultyHard, qs[1].Difficulty)

	// Unknown difficulty normalizes to medium.
	assert.Equal(t, model.DifficultyMedium, qs[2].Difficulty)
}

func TestGenerateQuestionsAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"message": "model overloaded", "code": "overloaded"},
		})
	})

	_, err := client.GenerateQuestions(context.Background(), model.CandidateProfile{}, 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overloaded")
}

func TestScoreTranscript(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/interview/score", r.URL.Path)

		var req scoreRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Transcript, 1)
		assert.Equal(t, "my answer", req.Transcript[0].Answer)

		score := 87.5
		json.NewEncoder(w).Encode(scoreResponse{
			OverallScore: &score,
			Summary:      "solid",
			PerQuestion:  []feedbackPayload{{Score: 87.5, Feedback: "good detail"}},
		})
	})

	entries := []interview.TranscriptEntry{{
		Question: model.Question{Text: "Q", Difficulty: model.DifficultyEasy, TimeLimitSeconds: 20},
		Answer:   model.Answer{AnswerText: "my answer", TimeTakenSeconds: 12},
	}}

	result, err := client.ScoreTranscript(context.Background(), entries, model.CandidateProfile{})
	require.NoError(t, err)
	assert.Equal(t, 87.5, result.OverallScore)
	assert.Equal(t, "solid", result.Summary)
	require.Len(t, result.PerQuestion, 1)
	assert.Equal(t, "good detail", result.PerQuestion[0].Feedback)
}

func TestScoreTranscriptMissingScore(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(scoreResponse{Summary: "no score field"})
	})

	_, err := client.ScoreTranscript(context.Background(), nil, model.CandidateProfile{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overall_score")
}

func TestScoreTranscriptOutOfRangeScore(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		score := 130.0
		json.NewEncoder(w).Encode(scoreResponse{OverallScore: &score})
	})

	_, err := client.ScoreTranscript(context.Background(), nil, model.CandidateProfile{})
	require.Error(t, err)
}

func TestExtractProfileNormalizesSentinels(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/resume/extract", r.URL.Path)
		json.NewEncoder(w).Encode(extractResponse{
			Name:            "Sam Rivera",
			Email:           "Not Found",
			Skills:          []string{"Go", "n/a", "PostgreSQL", "unknown"},
			ExperienceYears: 4,
			Education:       []string{"None"},
			Summary:         "Backend engineer",
		})
	})

	profile, err := client.ExtractProfile(context.Background(), "resume text")
	require.NoError(t, err)
	assert.Equal(t, "Sam Rivera", profile.Name)
	assert.Empty(t, profile.Email)
	assert.Equal(t, []string{"Go", "PostgreSQL"}, profile.Skills)
	assert.Empty(t, profile.Education)
	assert.Equal(t, 4, profile.ExperienceYears)
}

func TestPostPlainTextErrorBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})

	_, err := client.ExtractProfile(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
