package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Identity ──────────────────────────────────────────────────────
	ErrTokenRequired ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid  ErrCode = "TOKEN_INVALID"
	ErrTokenExpired  ErrCode = "TOKEN_EXPIRED"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound        ErrCode = "NOT_FOUND"
	ErrConflict        ErrCode = "CONFLICT"
	ErrActionForbidden ErrCode = "ACTION_FORBIDDEN"
	ErrForbidden       ErrCode = "FORBIDDEN"

	// ─── Interview-specific ────────────────────────────────────────────
	ErrQuestionSource    ErrCode = "QUESTION_SOURCE_ERROR"
	ErrSessionActive     ErrCode = "SESSION_ALREADY_ACTIVE"
	ErrNoActiveSession   ErrCode = "NO_ACTIVE_SESSION"
	ErrSessionComplete   ErrCode = "SESSION_ALREADY_COMPLETE"
	ErrInvalidState      ErrCode = "INVALID_SESSION_STATE"
	ErrNoSnapshot        ErrCode = "NO_RESUMABLE_SESSION"
	ErrExtractionFailed  ErrCode = "PROFILE_EXTRACTION_FAILED"
	ErrScoringInProgress ErrCode = "SCORING_IN_PROGRESS"

	// ─── Uploads ───────────────────────────────────────────────────────
	ErrFileRequired    ErrCode = "FILE_REQUIRED"
	ErrUnsupportedFile ErrCode = "UNSUPPORTED_FILE_TYPE"
	ErrFileTooLarge    ErrCode = "FILE_TOO_LARGE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Identity ──────────────────────────────────────────────────────
	case ErrTokenRequired:
		return "A candidate token is required."
	case ErrTokenInvalid:
		return "The candidate token is not valid."
	case ErrTokenExpired:
		return "The candidate token has expired."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."
	case ErrActionForbidden:
		return "This action is not allowed."
	case ErrForbidden:
		return "You do not have access to this resource."

	// ─── Interview-specific ────────────────────────────────────────────
	case ErrQuestionSource:
		return "Question generation is currently unavailable. Please try again."
	case ErrSessionActive:
		return "An interview session is already in progress."
	case ErrNoActiveSession:
		return "There is no interview session in progress."
	case ErrSessionComplete:
		return "This interview session is already complete."
	case ErrInvalidState:
		return "The session is not in a state that allows this operation."
	case ErrNoSnapshot:
		return "No interrupted session was found to resume."
	case ErrExtractionFailed:
		return "The résumé could not be processed. Please fill in your profile manually."
	case ErrScoringInProgress:
		return "Your answers are being scored. Please wait."

	// ─── Uploads ───────────────────────────────────────────────────────
	case ErrFileRequired:
		return "A file upload is required."
	case ErrUnsupportedFile:
		return "Unsupported file type."
	case ErrFileTooLarge:
		return "File size exceeds the limit."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
