package domain

import (
	"errors"
	"time"
)

var ErrAssessmentNotFound = errors.New("assessment not found")
var ErrSegmentNotFound = errors.New("segment not found")
var ErrInvalidCoachAssignment = errors.New("assigned coach must hold the admin or coach role")
var ErrNoCoachAssigned = errors.New("assessment has no assigned coach")
var ErrNotifyThrottled = errors.New("notification already sent recently")
var ErrNotifyNotConfigured = errors.New("notification transport not configured")
var ErrForbidden = errors.New("access forbidden")

// AccessLevel is the outcome of resolving an actor against an assessment.
type AccessLevel string

const (
	AccessOwner        AccessLevel = "owner"
	AccessCoach        AccessLevel = "coach"
	AccessCollaborator AccessLevel = "collaborator"
	// AccessManager covers admins and coaches reaching assessments they do
	// not own, coach or collaborate on (listing, administration).
	AccessManager AccessLevel = "manager"
	AccessDenied  AccessLevel = "denied"
)

// CanWriteContent reports whether the level allows writing answers.
// Management scope alone does not: only the owner and collaborators fill
// assessments out.
func (l AccessLevel) CanWriteContent() bool {
	return l == AccessOwner || l == AccessCollaborator
}

// CanRead reports whether the level allows reading the assessment at all.
func (l AccessLevel) CanRead() bool {
	return l != AccessDenied
}

// Answer is a stored response to a single question within a segment.
type Answer struct {
	SegmentID  string    `json:"segment_id"`
	QuestionID string    `json:"question_id"`
	Option     string    `json:"option"`
	Note       string    `json:"note,omitempty"`
	AnsweredAt time.Time `json:"answered_at"`
}

// Segment is an orderable, independently toggleable unit of an assessment's
// navigable content. A disabled segment disappears from forward/backward
// navigation but stays directly addressable and keeps its stored answers.
type Segment struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Order   int    `json:"order"`
	Enabled bool   `json:"enabled"`
}

// Assessment is the core aggregate root.
type Assessment struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	OwnerID         string     `json:"owner_id"`
	CoachID         string     `json:"coach_id,omitempty"`
	CollaboratorIDs []string   `json:"collaborator_ids"`
	Segments        []Segment  `json:"segments"`
	Answers         []Answer   `json:"answers"`
	LastNotifiedAt  *time.Time `json:"last_notified_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// ResolveAccess computes actor's access level on a. Participation
// (owner, coach, collaborator) wins over management scope so that the
// specific relationship is reported, not the generic one.
func (a *Assessment) ResolveAccess(actor *Identity) AccessLevel {
	if actor == nil {
		return AccessDenied
	}
	if actor.ID == a.OwnerID {
		return AccessOwner
	}
	if a.CoachID != "" && actor.ID == a.CoachID {
		return AccessCoach
	}
	if a.IsCollaborator(actor.ID) {
		return AccessCollaborator
	}
	if actor.Role.IsManager() {
		return AccessManager
	}
	return AccessDenied
}

// IsCollaborator reports whether id is in the collaborator set.
func (a *Assessment) IsCollaborator(id string) bool {
	for _, c := range a.CollaboratorIDs {
		if c == id {
			return true
		}
	}
	return false
}

// Segment returns the segment with the given id regardless of its enabled
// state. Disabled segments remain directly addressable.
func (a *Assessment) Segment(id string) (*Segment, bool) {
	for i := range a.Segments {
		if a.Segments[i].ID == id {
			return &a.Segments[i], true
		}
	}
	return nil, false
}

// ordered returns segment indices sorted by Order without mutating a.
func (a *Assessment) ordered() []int {
	idx := make([]int, len(a.Segments))
	for i := range idx {
		idx[i] = i
	}
	for i := 1; i < len(idx); i++ {
		for j := i; j > 0 && a.Segments[idx[j]].Order < a.Segments[idx[j-1]].Order; j-- {
			idx[j], idx[j-1] = idx[j-1], idx[j]
		}
	}
	return idx
}

// NextSegment returns the first enabled segment after fromID in display
// order, skipping disabled ones. It stops at the boundary: ok is false when
// no enabled segment follows. fromID may itself be disabled.
func (a *Assessment) NextSegment(fromID string) (*Segment, bool) {
	return a.step(fromID, +1)
}

// PrevSegment is NextSegment walking backwards.
func (a *Assessment) PrevSegment(fromID string) (*Segment, bool) {
	return a.step(fromID, -1)
}

func (a *Assessment) step(fromID string, dir int) (*Segment, bool) {
	order := a.ordered()
	pos := -1
	for i, idx := range order {
		if a.Segments[idx].ID == fromID {
			pos = i
			break
		}
	}
	if pos < 0 {
		return nil, false
	}
	for i := pos + dir; i >= 0 && i < len(order); i += dir {
		seg := &a.Segments[order[i]]
		if seg.Enabled {
			return seg, true
		}
	}
	return nil, false
}

// FirstSegment returns the first enabled segment in display order.
func (a *Assessment) FirstSegment() (*Segment, bool) {
	for _, idx := range a.ordered() {
		if a.Segments[idx].Enabled {
			return &a.Segments[idx], true
		}
	}
	return nil, false
}

// SetAnswer upserts the answer for (segmentID, questionID). Answers may be
// written for disabled segments: disabling only removes a segment from the
// navigation order, it never blocks or destroys stored content.
func (a *Assessment) SetAnswer(ans Answer) {
	for i := range a.Answers {
		if a.Answers[i].SegmentID == ans.SegmentID && a.Answers[i].QuestionID == ans.QuestionID {
			a.Answers[i] = ans
			return
		}
	}
	a.Answers = append(a.Answers, ans)
}

// AnswersForSegment returns all stored answers for a segment, enabled or not.
func (a *Assessment) AnswersForSegment(segmentID string) []Answer {
	var out []Answer
	for _, ans := range a.Answers {
		if ans.SegmentID == segmentID {
			out = append(out, ans)
		}
	}
	return out
}
