package inference

import "fmt"

// Wire types for the external inference API. The API's shapes are loose
// (optional fields, "not found" sentinels); everything is normalized in
// client.go before it reaches the core.

type generateQuestionsRequest struct {
	Profile profilePayload `json:"profile"`
	Count   int            `json:"count"`
}

type profilePayload struct {
	Name            string   `json:"name"`
	Email           string   `json:"email,omitempty"`
	Skills          []string `json:"skills,omitempty"`
	ExperienceYears int      `json:"experience_years,omitempty"`
	Experience      []string `json:"experience,omitempty"`
	Education       []string `json:"education,omitempty"`
	Summary         string   `json:"summary,omitempty"`
}

type questionPayload struct {
	ID             string   `json:"id,omitempty"`
	Text           string   `json:"text"`
	Difficulty     string   `json:"difficulty"`
	Category       string   `json:"category"`
	ExpectedTopics []string `json:"expected_topics"`
}

type generateQuestionsResponse struct {
	Questions []questionPayload `json:"questions"`
	Error     *apiError         `json:"error,omitempty"`
}

type transcriptPayload struct {
	Question         string   `json:"question"`
	Answer           string   `json:"answer"`
	Difficulty       string   `json:"difficulty"`
	Category         string   `json:"category"`
	ExpectedTopics   []string `json:"expected_topics"`
	TimeTakenSeconds int      `json:"time_taken_seconds"`
	TimeLimitSeconds int      `json:"time_limit_seconds"`
}

type scoreRequest struct {
	Transcript []transcriptPayload `json:"transcript"`
	Candidate  profilePayload      `json:"candidate"`
}

type feedbackPayload struct {
	Score      float64  `json:"score"`
	Feedback   string   `json:"feedback"`
	Strengths  []string `json:"strengths"`
	Weaknesses []string `json:"weaknesses"`
}

type scoreResponse struct {
	OverallScore *float64          `json:"overall_score"`
	PerQuestion  []feedbackPayload `json:"per_question"`
	Summary      string            `json:"summary"`
	Error        *apiError         `json:"error,omitempty"`
}

type extractRequest struct {
	ResumeText string `json:"resume_text"`
}

type extractResponse struct {
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Skills          []string  `json:"skills"`
	ExperienceYears int       `json:"experience_years"`
	Experience      []string  `json:"experience"`
	Education       []string  `json:"education"`
	Summary         string    `json:"summary"`
	Error           *apiError `json:"error,omitempty"`
}

// apiError is the structured error body the inference API returns.
type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("inference api error (%s): %s", e.Code, e.Message)
}
