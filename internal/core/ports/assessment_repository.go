package ports

import (
	"context"
	"time"

	"github.com/onekingdom/assessment-system/internal/core/domain"
)

// AssessmentRepository defines persistence operations for assessments.
type AssessmentRepository interface {
	Create(ctx context.Context, a *domain.Assessment) error
	Get(ctx context.Context, id string) (*domain.Assessment, error)
	// ListForActor returns every assessment the actor participates in as
	// owner, coach or collaborator. Management roles list everything through
	// ListAll instead.
	ListForActor(ctx context.Context, actorID string) ([]*domain.Assessment, error)
	ListAll(ctx context.Context) ([]*domain.Assessment, error)
	// Update persists the assessment's content and participant fields. The
	// notification timestamp is owned by ClaimNotification and must never be
	// written here: an implementation that writes the whole document back
	// would erase a window claimed between the caller's read and this write.
	Update(ctx context.Context, a *domain.Assessment) error
	// HasForOwner reports whether any assessment is owned by the identity.
	HasForOwner(ctx context.Context, ownerID string) (bool, error)
	// ClaimNotification atomically sets last_notified_at = now, but only when
	// the stored value is absent or at least cooldown old. It returns false
	// when another caller already holds the current cooldown window. The
	// check and the write must be a single conditional update so that two
	// concurrent callers can never both claim the same window.
	ClaimNotification(ctx context.Context, id string, now time.Time, cooldown time.Duration) (bool, error)
}
