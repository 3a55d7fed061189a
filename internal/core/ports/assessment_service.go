package ports

import (
	"context"

	"github.com/onekingdom/assessment-system/internal/core/domain"
)

// CreateAssessmentInput carries the data for creating a new assessment.
// OwnerID may be empty, in which case the actor becomes the owner.
type CreateAssessmentInput struct {
	Name     string
	OwnerID  string
	Segments []domain.Segment
}

// AnswerInput is a single answer write.
type AnswerInput struct {
	SegmentID  string
	QuestionID string
	Option     string
	Note       string
}

// NavigateInput asks for the enabled segment adjacent to From.
type NavigateInput struct {
	AssessmentID string
	From         string
	// Direction is "next" or "previous".
	Direction string
}

// AssessmentService defines the access-resolved assessment operations.
type AssessmentService interface {
	Create(ctx context.Context, actor *domain.Identity, input CreateAssessmentInput) (*domain.Assessment, error)
	Get(ctx context.Context, actor *domain.Identity, id string) (*domain.Assessment, domain.AccessLevel, error)
	List(ctx context.Context, actor *domain.Identity) ([]*domain.Assessment, error)
	SetAnswers(ctx context.Context, actor *domain.Identity, id string, answers []AnswerInput) (*domain.Assessment, error)
	AssignCoach(ctx context.Context, actor *domain.Identity, id, coachID string) (*domain.Assessment, error)
	ReassignOwner(ctx context.Context, actor *domain.Identity, id, ownerID string) (*domain.Assessment, error)
	AddCollaborator(ctx context.Context, actor *domain.Identity, id, userID string) (*domain.Assessment, error)
	RemoveCollaborator(ctx context.Context, actor *domain.Identity, id, userID string) (*domain.Assessment, error)
	SetSegmentEnabled(ctx context.Context, actor *domain.Identity, id, segmentID string, enabled bool) (*domain.Assessment, error)
	Navigate(ctx context.Context, actor *domain.Identity, input NavigateInput) (*domain.Segment, error)
	// NotifyCoach asks the assigned coach to review the assessment. At most
	// one notification is accepted per cooldown window per assessment.
	NotifyCoach(ctx context.Context, actor *domain.Identity, id string) error
}
