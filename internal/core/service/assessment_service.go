package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/onekingdom/assessment-system/internal/core/domain"
	"github.com/onekingdom/assessment-system/internal/core/ports"
)

// NotificationSink is where accepted notifications go. Configured reports
// whether a transport is available at all; Enqueue hands over a notification
// that already passed the throttle gate.
type NotificationSink interface {
	Configured() bool
	Enqueue(n ports.Notification)
}

// AssessmentService implements the access-resolved assessment operations and
// the rate-limited coach notification gate.
type AssessmentService struct {
	repo       ports.AssessmentRepository
	identities ports.IdentityRepository
	sink       NotificationSink
	cooldown   time.Duration
	logger     zerolog.Logger
}

const defaultNotifyCooldown = 30 * time.Minute

func NewAssessmentService(repo ports.AssessmentRepository, identities ports.IdentityRepository, sink NotificationSink, cooldown time.Duration, logger zerolog.Logger) *AssessmentService {
	if cooldown <= 0 {
		cooldown = defaultNotifyCooldown
	}
	return &AssessmentService{
		repo:       repo,
		identities: identities,
		sink:       sink,
		cooldown:   cooldown,
		logger:     logger,
	}
}

func (s *AssessmentService) Create(ctx context.Context, actor *domain.Identity, input ports.CreateAssessmentInput) (*domain.Assessment, error) {
	if !actor.Role.IsManager() {
		return nil, domain.Unauthorizedf(actor, "you cannot create assessments")
	}

	ownerID := input.OwnerID
	if ownerID == "" {
		ownerID = actor.ID
	} else if _, err := s.identities.Get(ctx, ownerID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	a := &domain.Assessment{
		ID:        uuid.NewString(),
		Name:      input.Name,
		OwnerID:   ownerID,
		Segments:  input.Segments,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}

	s.logger.Info().Str("assessment_id", a.ID).Str("owner_id", ownerID).Str("actor_id", actor.ID).Msg("assessment created")
	return a, nil
}

func (s *AssessmentService) Get(ctx context.Context, actor *domain.Identity, id string) (*domain.Assessment, domain.AccessLevel, error) {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, domain.AccessDenied, err
	}
	level := a.ResolveAccess(actor)
	if !level.CanRead() {
		return nil, domain.AccessDenied, domain.ErrForbidden
	}
	return a, level, nil
}

func (s *AssessmentService) List(ctx context.Context, actor *domain.Identity) ([]*domain.Assessment, error) {
	if actor.Role.IsManager() {
		return s.repo.ListAll(ctx)
	}
	return s.repo.ListForActor(ctx, actor.ID)
}

// SetAnswers writes content. Owner and collaborators may write; a segment
// being disabled does not block the write, since disabling only removes the
// segment from navigation.
func (s *AssessmentService) SetAnswers(ctx context.Context, actor *domain.Identity, id string, answers []ports.AnswerInput) (*domain.Assessment, error) {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	level := a.ResolveAccess(actor)
	if !level.CanWriteContent() {
		return nil, domain.Unauthorizedf(actor, "you cannot edit this assessment")
	}

	now := time.Now().UTC()
	for _, in := range answers {
		if _, ok := a.Segment(in.SegmentID); !ok {
			return nil, domain.ErrSegmentNotFound
		}
		a.SetAnswer(domain.Answer{
			SegmentID:  in.SegmentID,
			QuestionID: in.QuestionID,
			Option:     in.Option,
			Note:       in.Note,
			AnsweredAt: now,
		})
	}
	a.UpdatedAt = now

	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// AssignCoach sets the coach reference. Management authority is required,
// and the assigned identity must itself hold the admin or coach role.
func (s *AssessmentService) AssignCoach(ctx context.Context, actor *domain.Identity, id, coachID string) (*domain.Assessment, error) {
	a, err := s.manageable(ctx, actor, id, "you cannot reassign the coach")
	if err != nil {
		return nil, err
	}

	if coachID != "" {
		coach, err := s.identities.Get(ctx, coachID)
		if err != nil {
			return nil, err
		}
		if !coach.Role.IsManager() {
			return nil, domain.ErrInvalidCoachAssignment
		}
	}

	a.CoachID = coachID
	a.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}

	s.logger.Info().Str("assessment_id", id).Str("coach_id", coachID).Str("actor_id", actor.ID).Msg("coach assigned")
	return a, nil
}

func (s *AssessmentService) ReassignOwner(ctx context.Context, actor *domain.Identity, id, ownerID string) (*domain.Assessment, error) {
	a, err := s.manageable(ctx, actor, id, "you cannot reassign the owner")
	if err != nil {
		return nil, err
	}
	if _, err := s.identities.Get(ctx, ownerID); err != nil {
		return nil, err
	}

	a.OwnerID = ownerID
	a.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *AssessmentService) AddCollaborator(ctx context.Context, actor *domain.Identity, id, userID string) (*domain.Assessment, error) {
	a, err := s.manageable(ctx, actor, id, "you cannot manage collaborators")
	if err != nil {
		return nil, err
	}
	if _, err := s.identities.Get(ctx, userID); err != nil {
		return nil, err
	}
	if !a.IsCollaborator(userID) {
		a.CollaboratorIDs = append(a.CollaboratorIDs, userID)
		a.UpdatedAt = time.Now().UTC()
		if err := s.repo.Update(ctx, a); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (s *AssessmentService) RemoveCollaborator(ctx context.Context, actor *domain.Identity, id, userID string) (*domain.Assessment, error) {
	a, err := s.manageable(ctx, actor, id, "you cannot manage collaborators")
	if err != nil {
		return nil, err
	}
	kept := a.CollaboratorIDs[:0]
	for _, c := range a.CollaboratorIDs {
		if c != userID {
			kept = append(kept, c)
		}
	}
	a.CollaboratorIDs = kept
	a.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// SetSegmentEnabled toggles a segment's enabled flag. Stored answers are
// untouched either way.
func (s *AssessmentService) SetSegmentEnabled(ctx context.Context, actor *domain.Identity, id, segmentID string, enabled bool) (*domain.Assessment, error) {
	a, err := s.manageable(ctx, actor, id, "you cannot toggle segments")
	if err != nil {
		return nil, err
	}
	seg, ok := a.Segment(segmentID)
	if !ok {
		return nil, domain.ErrSegmentNotFound
	}
	seg.Enabled = enabled
	a.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Navigate resolves the enabled segment adjacent to From, skipping disabled
// segments and stopping at the ordered boundary. With an empty From it
// returns the first enabled segment.
func (s *AssessmentService) Navigate(ctx context.Context, actor *domain.Identity, input ports.NavigateInput) (*domain.Segment, error) {
	a, _, err := s.Get(ctx, actor, input.AssessmentID)
	if err != nil {
		return nil, err
	}

	var seg *domain.Segment
	var ok bool
	switch {
	case input.From == "":
		seg, ok = a.FirstSegment()
	case input.Direction == "previous":
		seg, ok = a.PrevSegment(input.From)
	default:
		seg, ok = a.NextSegment(input.From)
	}
	if !ok {
		return nil, domain.ErrSegmentNotFound
	}
	return seg, nil
}

// NotifyCoach is the rate-limited notification gate. The throttle check and
// the timestamp write are one conditional update in the repository, so two
// near-simultaneous calls can never both be accepted for the same window.
// Only an accepted claim reaches the transport.
func (s *AssessmentService) NotifyCoach(ctx context.Context, actor *domain.Identity, id string) error {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if !a.ResolveAccess(actor).CanRead() {
		return domain.Unauthorizedf(actor, "you cannot notify on this assessment")
	}
	if a.CoachID == "" {
		return domain.ErrNoCoachAssigned
	}
	if s.sink == nil || !s.sink.Configured() {
		return domain.ErrNotifyNotConfigured
	}

	coach, err := s.identities.Get(ctx, a.CoachID)
	if err != nil {
		return err
	}

	claimed, err := s.repo.ClaimNotification(ctx, id, time.Now().UTC(), s.cooldown)
	if err != nil {
		return err
	}
	if !claimed {
		return domain.ErrNotifyThrottled
	}

	s.sink.Enqueue(ports.Notification{
		RecipientEmail: coach.Email,
		RecipientName:  coach.Username,
		AssessmentID:   a.ID,
		AssessmentName: a.Name,
		RequestedBy:    actor.Username,
	})

	s.logger.Info().Str("assessment_id", id).Str("actor_id", actor.ID).Msg("coach notification accepted")
	return nil
}

func (s *AssessmentService) manageable(ctx context.Context, actor *domain.Identity, id, denial string) (*domain.Assessment, error) {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Role.IsManager() {
		return nil, domain.Unauthorizedf(actor, "%s", denial)
	}
	return a, nil
}
