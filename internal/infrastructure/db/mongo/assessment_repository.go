package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/onekingdom/assessment-system/internal/core/domain"
)

const collectionAssessments = "assessments"

// AssessmentRepository implements ports.AssessmentRepository using MongoDB.
type AssessmentRepository struct {
	col *mongo.Collection
}

func NewAssessmentRepository(db *mongo.Database) *AssessmentRepository {
	return &AssessmentRepository{col: db.Collection(collectionAssessments)}
}

type segmentDoc struct {
	ID      string `bson:"id"`
	Name    string `bson:"name"`
	Order   int    `bson:"order"`
	Enabled bool   `bson:"enabled"`
}

type answerDoc struct {
	SegmentID  string    `bson:"segment_id"`
	QuestionID string    `bson:"question_id"`
	Option     string    `bson:"option"`
	Note       string    `bson:"note,omitempty"`
	AnsweredAt time.Time `bson:"answered_at"`
}

type assessmentDoc struct {
	ID              string       `bson:"_id"`
	Name            string       `bson:"name"`
	OwnerID         string       `bson:"owner_id"`
	CoachID         string       `bson:"coach_id,omitempty"`
	CollaboratorIDs []string     `bson:"collaborator_ids"`
	Segments        []segmentDoc `bson:"segments"`
	Answers         []answerDoc  `bson:"answers"`
	LastNotifiedAt  *time.Time   `bson:"last_notified_at,omitempty"`
	CreatedAt       time.Time    `bson:"created_at"`
	UpdatedAt       time.Time    `bson:"updated_at"`
}

func toAssessmentDoc(a *domain.Assessment) assessmentDoc {
	segments := make([]segmentDoc, 0, len(a.Segments))
	for _, s := range a.Segments {
		segments = append(segments, segmentDoc{ID: s.ID, Name: s.Name, Order: s.Order, Enabled: s.Enabled})
	}
	answers := make([]answerDoc, 0, len(a.Answers))
	for _, ans := range a.Answers {
		answers = append(answers, answerDoc{
			SegmentID:  ans.SegmentID,
			QuestionID: ans.QuestionID,
			Option:     ans.Option,
			Note:       ans.Note,
			AnsweredAt: ans.AnsweredAt,
		})
	}
	return assessmentDoc{
		ID:              a.ID,
		Name:            a.Name,
		OwnerID:         a.OwnerID,
		CoachID:         a.CoachID,
		CollaboratorIDs: a.CollaboratorIDs,
		Segments:        segments,
		Answers:         answers,
		LastNotifiedAt:  a.LastNotifiedAt,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

func (d assessmentDoc) toDomain() *domain.Assessment {
	segments := make([]domain.Segment, 0, len(d.Segments))
	for _, s := range d.Segments {
		segments = append(segments, domain.Segment{ID: s.ID, Name: s.Name, Order: s.Order, Enabled: s.Enabled})
	}
	answers := make([]domain.Answer, 0, len(d.Answers))
	for _, ans := range d.Answers {
		answers = append(answers, domain.Answer{
			SegmentID:  ans.SegmentID,
			QuestionID: ans.QuestionID,
			Option:     ans.Option,
			Note:       ans.Note,
			AnsweredAt: ans.AnsweredAt,
		})
	}
	return &domain.Assessment{
		ID:              d.ID,
		Name:            d.Name,
		OwnerID:         d.OwnerID,
		CoachID:         d.CoachID,
		CollaboratorIDs: d.CollaboratorIDs,
		Segments:        segments,
		Answers:         answers,
		LastNotifiedAt:  d.LastNotifiedAt,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

func (r *AssessmentRepository) Create(ctx context.Context, a *domain.Assessment) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, toAssessmentDoc(a))
	return err
}

func (r *AssessmentRepository) Get(ctx context.Context, id string) (*domain.Assessment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var d assessmentDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAssessmentNotFound
		}
		return nil, err
	}
	return d.toDomain(), nil
}

func (r *AssessmentRepository) ListForActor(ctx context.Context, actorID string) ([]*domain.Assessment, error) {
	return r.find(ctx, bson.M{"$or": bson.A{
		bson.M{"owner_id": actorID},
		bson.M{"coach_id": actorID},
		bson.M{"collaborator_ids": actorID},
	}})
}

func (r *AssessmentRepository) ListAll(ctx context.Context) ([]*domain.Assessment, error) {
	return r.find(ctx, bson.M{})
}

// Update persists every field except last_notified_at. That timestamp is
// owned by ClaimNotification: a full-document replace here could write back
// a stale nil read before a concurrent claim and re-open the throttle
// window, so the update is an explicit field list instead.
func (r *AssessmentRepository) Update(ctx context.Context, a *domain.Assessment) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	d := toAssessmentDoc(a)
	update := bson.M{"$set": bson.M{
		"name":             d.Name,
		"owner_id":         d.OwnerID,
		"coach_id":         d.CoachID,
		"collaborator_ids": d.CollaboratorIDs,
		"segments":         d.Segments,
		"answers":          d.Answers,
		"updated_at":       d.UpdatedAt,
	}}

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": a.ID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrAssessmentNotFound
	}
	return nil
}

func (r *AssessmentRepository) HasForOwner(ctx context.Context, ownerID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, bson.M{"owner_id": ownerID})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ClaimNotification performs the throttle check and the timestamp write as
// one conditional update: the document matches only when last_notified_at is
// absent, null, or at least cooldown old. Under concurrent callers MongoDB
// serializes the document update, so exactly one claim per window succeeds.
func (r *AssessmentRepository) ClaimNotification(ctx context.Context, id string, now time.Time, cooldown time.Duration) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cutoff := now.Add(-cooldown)
	filter := bson.M{
		"_id": id,
		"$or": bson.A{
			bson.M{"last_notified_at": bson.M{"$exists": false}},
			bson.M{"last_notified_at": nil},
			bson.M{"last_notified_at": bson.M{"$lte": cutoff}},
		},
	}
	update := bson.M{"$set": bson.M{"last_notified_at": now}}

	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// EnsureIndexes creates the lookup indexes for participant queries.
func (r *AssessmentRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner_id", Value: 1}}},
		{Keys: bson.D{{Key: "coach_id", Value: 1}}},
		{Keys: bson.D{{Key: "collaborator_ids", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func (r *AssessmentRepository) find(ctx context.Context, filter bson.M) ([]*domain.Assessment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*domain.Assessment
	for cur.Next(ctx) {
		var d assessmentDoc
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		out = append(out, d.toDomain())
	}
	return out, cur.Err()
}
