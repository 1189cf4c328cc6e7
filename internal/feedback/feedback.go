package feedback

import (
	"errors"
	"strings"
	"time"
)

const minMessageLength = 10

// Feedback is a platform feedback entry. Lifecycle: created unresolved
// → response set exactly once → resolved (terminal). There is no edit
// and no re-response.
type Feedback struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Category     string     `json:"category"`
	Message      string     `json:"message"`
	Response     *string    `json:"response,omitempty"`
	ResponseDate *time.Time `json:"response_date,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

func (f *Feedback) IsResolved() bool {
	return f.Response != nil
}

// SubmitFeedbackDTO is the body of POST /feedback.
type SubmitFeedbackDTO struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Category string `json:"category"`
	Message  string `json:"message"`
}

func (dto SubmitFeedbackDTO) Validate() error {
	if dto.Name == "" {
		return errors.New("name is required")
	}
	if dto.Email == "" {
		return errors.New("email is required")
	}
	if dto.Category == "" {
		return errors.New("category is required")
	}
	if len(strings.TrimSpace(dto.Message)) < minMessageLength {
		return errors.New("message must be at least 10 characters")
	}
	return nil
}

// RespondDTO is the body of POST /feedback-response.
type RespondDTO struct {
	FeedbackID int64  `json:"feedback_id"`
	Response   string `json:"response"`
}

func (dto RespondDTO) Validate() error {
	if dto.FeedbackID <= 0 {
		return errors.New("feedback_id is required")
	}
	if strings.TrimSpace(dto.Response) == "" {
		return errors.New("response is required")
	}
	return nil
}
