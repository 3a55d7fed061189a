package handler

import "time"

type segmentRequest struct {
	ID      string `json:"id"      validate:"required"`
	Name    string `json:"name"    validate:"required"`
	Order   int    `json:"order"`
	Enabled bool   `json:"enabled"`
}

type createAssessmentRequest struct {
	Name     string           `json:"name" validate:"required,min=1,max=200"`
	OwnerID  string           `json:"owner_id,omitempty"`
	Segments []segmentRequest `json:"segments" validate:"dive"`
}

type answerRequest struct {
	SegmentID  string `json:"segment_id"  validate:"required"`
	QuestionID string `json:"question_id" validate:"required"`
	Option     string `json:"option"      validate:"required"`
	Note       string `json:"note,omitempty"`
}

type setAnswersRequest struct {
	Answers []answerRequest `json:"answers" validate:"required,min=1,dive"`
}

type assignCoachRequest struct {
	// CoachID empty clears the assignment.
	CoachID string `json:"coach_id"`
}

type reassignOwnerRequest struct {
	OwnerID string `json:"owner_id" validate:"required"`
}

type collaboratorRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

type toggleSegmentRequest struct {
	Enabled bool `json:"enabled"`
}

type segmentResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Order   int    `json:"order"`
	Enabled bool   `json:"enabled"`
}

type answerResponse struct {
	SegmentID  string    `json:"segment_id"`
	QuestionID string    `json:"question_id"`
	Option     string    `json:"option"`
	Note       string    `json:"note,omitempty"`
	AnsweredAt time.Time `json:"answered_at"`
}

type assessmentResponse struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	OwnerID         string            `json:"owner_id"`
	CoachID         string            `json:"coach_id,omitempty"`
	CollaboratorIDs []string          `json:"collaborator_ids"`
	Segments        []segmentResponse `json:"segments"`
	Answers         []answerResponse  `json:"answers"`
	AccessLevel     string            `json:"access_level,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}
