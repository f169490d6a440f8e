package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/trezcool/ptemanager/core"
	"github.com/trezcool/ptemanager/core/submission"
)

type (
	feedbackDoc struct {
		Text       string    `bson:"text"`
		ReviewedBy string    `bson:"reviewedBy,omitempty"`
		ReviewedAt time.Time `bson:"reviewedAt"`
	}

	submissionDoc struct {
		ID          string       `bson:"_id"`
		TaskID      string       `bson:"taskId"`
		StudentID   string       `bson:"studentId"`
		Files       []fileDoc    `bson:"files"`
		Notes       string       `bson:"notes"`
		Status      string       `bson:"status"`
		Feedback    *feedbackDoc `bson:"feedback,omitempty"`
		SubmittedAt time.Time    `bson:"submittedAt"`
	}
)

func toSubmissionDoc(s submission.Submission) submissionDoc {
	doc := submissionDoc{
		ID:          s.ID,
		TaskID:      s.TaskID,
		StudentID:   s.StudentID,
		Files:       toFileDocs(s.Files),
		Notes:       s.Notes,
		Status:      string(s.Status),
		SubmittedAt: s.SubmittedAt,
	}
	if s.Feedback != nil {
		doc.Feedback = &feedbackDoc{Text: s.Feedback.Text, ReviewedBy: s.Feedback.ReviewedBy, ReviewedAt: s.Feedback.ReviewedAt}
	}
	return doc
}

func (d submissionDoc) toSubmission() submission.Submission {
	s := submission.Submission{
		ID:          d.ID,
		TaskID:      d.TaskID,
		StudentID:   d.StudentID,
		Files:       toDescriptors(d.Files),
		Notes:       d.Notes,
		Status:      submission.Status(d.Status),
		SubmittedAt: d.SubmittedAt.UTC(),
	}
	if d.Feedback != nil {
		s.Feedback = &submission.Feedback{
			Text:       d.Feedback.Text,
			ReviewedBy: d.Feedback.ReviewedBy,
			ReviewedAt: d.Feedback.ReviewedAt.UTC(),
		}
	}
	return s
}

type submissionRepository struct {
	coll *mongo.Collection
}

var _ submission.Repository = (*submissionRepository)(nil) // interface compliance check

func NewSubmissionRepository(db *DB) *submissionRepository {
	return &submissionRepository{coll: db.collection(submissionsColl)}
}

func submissionQuery(filter submission.QueryFilter) bson.M {
	q := bson.M{}
	if filter.StudentID != "" {
		q["studentId"] = filter.StudentID
	}
	if filter.Status != "" {
		q["status"] = string(filter.Status)
	}
	return q
}

func (repo *submissionRepository) CreateSubmission(ctx context.Context, s submission.Submission) (submission.Submission, error) {
	s.ID = core.NewID()
	if _, err := repo.coll.InsertOne(ctx, toSubmissionDoc(s)); err != nil {
		return submission.Submission{}, errors.Wrap(err, "inserting submission")
	}
	return s, nil
}

func (repo *submissionRepository) GetSubmission(ctx context.Context, id string) (submission.Submission, error) {
	var doc submissionDoc
	if err := repo.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return submission.Submission{}, submission.ErrNotFound
		}
		return submission.Submission{}, errors.Wrap(err, "finding submission")
	}
	return doc.toSubmission(), nil
}

func (repo *submissionRepository) QuerySubmissions(
	ctx context.Context,
	filter submission.QueryFilter,
	page core.Page,
) ([]submission.Submission, int, error) {
	q := submissionQuery(filter)
	total, err := repo.coll.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, errors.Wrap(err, "counting submissions")
	}

	opts := newestFirst("submittedAt")
	if page.Size > 0 {
		opts.SetSkip(int64(page.Offset())).SetLimit(int64(page.Size))
	}
	cur, err := repo.coll.Find(ctx, q, opts)
	if err != nil {
		return nil, 0, errors.Wrap(err, "querying submissions")
	}
	var docs []submissionDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, 0, errors.Wrap(err, "decoding submissions")
	}
	subs := make([]submission.Submission, 0, len(docs))
	for _, d := range docs {
		subs = append(subs, d.toSubmission())
	}
	return subs, int(total), nil
}

func (repo *submissionRepository) CountSubmissions(ctx context.Context, filter submission.QueryFilter) (int, error) {
	n, err := repo.coll.CountDocuments(ctx, submissionQuery(filter))
	return int(n), errors.Wrap(err, "counting submissions")
}

func (repo *submissionRepository) UpdateSubmission(ctx context.Context, s submission.Submission) (submission.Submission, error) {
	res, err := repo.coll.ReplaceOne(ctx, bson.M{"_id": s.ID}, toSubmissionDoc(s))
	if err != nil {
		return submission.Submission{}, errors.Wrap(err, "updating submission")
	}
	if res.MatchedCount == 0 {
		return submission.Submission{}, submission.ErrNotFound
	}
	return s, nil
}

func (repo *submissionRepository) deleteMany(ctx context.Context, field string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := repo.coll.DeleteMany(ctx, bson.M{field: bson.M{"$in": ids}})
	if err != nil {
		return 0, errors.Wrap(err, "deleting submissions")
	}
	return int(res.DeletedCount), nil
}

func (repo *submissionRepository) DeleteSubmissions(ctx context.Context, ids ...string) (int, error) {
	return repo.deleteMany(ctx, "_id", ids)
}

func (repo *submissionRepository) DeleteSubmissionsByTask(ctx context.Context, taskIDs ...string) (int, error) {
	return repo.deleteMany(ctx, "taskId", taskIDs)
}
