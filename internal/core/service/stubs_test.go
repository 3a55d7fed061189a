package service

import (
	"context"
	"sync"
	"time"

	"github.com/onekingdom/assessment-system/internal/core/domain"
	"github.com/onekingdom/assessment-system/internal/core/ports"
)

// --- identity repository stub ---

type stubIdentityRepo struct {
	mu    sync.Mutex
	users map[string]*domain.Identity
}

func newStubIdentityRepo() *stubIdentityRepo {
	return &stubIdentityRepo{users: make(map[string]*domain.Identity)}
}

func cloneIdentity(u *domain.Identity) *domain.Identity {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubIdentityRepo) add(u *domain.Identity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = cloneIdentity(u)
}

func (r *stubIdentityRepo) Create(_ context.Context, user *domain.Identity) (*domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username || u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	r.users[user.ID] = cloneIdentity(user)
	return cloneIdentity(user), nil
}

func (r *stubIdentityRepo) Get(_ context.Context, id string) (*domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return cloneIdentity(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubIdentityRepo) FindByLogin(_ context.Context, identifier string) (*domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == identifier || u.Email == identifier {
			return cloneIdentity(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubIdentityRepo) FindByUsername(_ context.Context, username string) (*domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			return cloneIdentity(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubIdentityRepo) List(_ context.Context) ([]*domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Identity, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, cloneIdentity(u))
	}
	return out, nil
}

func (r *stubIdentityRepo) Update(_ context.Context, user *domain.Identity) (*domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return nil, domain.ErrUserNotFound
	}
	r.users[user.ID] = cloneIdentity(user)
	return cloneIdentity(user), nil
}

func (r *stubIdentityRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

// --- assessment repository stub ---

type stubAssessmentRepo struct {
	mu          sync.Mutex
	assessments map[string]*domain.Assessment
}

func newStubAssessmentRepo() *stubAssessmentRepo {
	return &stubAssessmentRepo{assessments: make(map[string]*domain.Assessment)}
}

func cloneAssessment(a *domain.Assessment) *domain.Assessment {
	if a == nil {
		return nil
	}
	clone := *a
	clone.CollaboratorIDs = append([]string(nil), a.CollaboratorIDs...)
	clone.Segments = append([]domain.Segment(nil), a.Segments...)
	clone.Answers = append([]domain.Answer(nil), a.Answers...)
	if a.LastNotifiedAt != nil {
		t := *a.LastNotifiedAt
		clone.LastNotifiedAt = &t
	}
	return &clone
}

func (r *stubAssessmentRepo) add(a *domain.Assessment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.assessments[a.ID] = cloneAssessment(a)
}

func (r *stubAssessmentRepo) Create(_ context.Context, a *domain.Assessment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.assessments[a.ID] = cloneAssessment(a)
	return nil
}

func (r *stubAssessmentRepo) Get(_ context.Context, id string) (*domain.Assessment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.assessments[id]; ok {
		return cloneAssessment(a), nil
	}
	return nil, domain.ErrAssessmentNotFound
}

func (r *stubAssessmentRepo) ListForActor(_ context.Context, actorID string) ([]*domain.Assessment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Assessment
	for _, a := range r.assessments {
		if a.OwnerID == actorID || a.CoachID == actorID || a.IsCollaborator(actorID) {
			out = append(out, cloneAssessment(a))
		}
	}
	return out, nil
}

func (r *stubAssessmentRepo) ListAll(_ context.Context) ([]*domain.Assessment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Assessment, 0, len(r.assessments))
	for _, a := range r.assessments {
		out = append(out, cloneAssessment(a))
	}
	return out, nil
}

func (r *stubAssessmentRepo) Update(_ context.Context, a *domain.Assessment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.assessments[a.ID]; !ok {
		return domain.ErrAssessmentNotFound
	}
	// Keep the stored notification timestamp authoritative: only
	// ClaimNotification may move it.
	a2 := cloneAssessment(a)
	a2.LastNotifiedAt = r.assessments[a.ID].LastNotifiedAt
	r.assessments[a.ID] = a2
	return nil
}

func (r *stubAssessmentRepo) HasForOwner(_ context.Context, ownerID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.assessments {
		if a.OwnerID == ownerID {
			return true, nil
		}
	}
	return false, nil
}

// ClaimNotification mirrors the conditional-update contract of the MongoDB
// implementation: check and write under one lock.
func (r *stubAssessmentRepo) ClaimNotification(_ context.Context, id string, now time.Time, cooldown time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assessments[id]
	if !ok {
		return false, domain.ErrAssessmentNotFound
	}
	if a.LastNotifiedAt != nil && now.Sub(*a.LastNotifiedAt) < cooldown {
		return false, nil
	}
	t := now
	a.LastNotifiedAt = &t
	return true, nil
}

// --- notification sink stub ---

type stubSink struct {
	mu         sync.Mutex
	configured bool
	sent       []ports.Notification
}

func (s *stubSink) Configured() bool { return s.configured }

func (s *stubSink) Enqueue(n ports.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, n)
}

func (s *stubSink) sentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}
