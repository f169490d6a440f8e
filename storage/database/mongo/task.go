package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/trezcool/ptemanager/core"
	"github.com/trezcool/ptemanager/core/task"
)

type taskDoc struct {
	ID          string     `bson:"_id"`
	Title       string     `bson:"title"`
	Type        string     `bson:"type"`
	Description string     `bson:"description"`
	Quantity    int        `bson:"quantity"`
	Deadline    *time.Time `bson:"deadline,omitempty"`
	AssignKind  string     `bson:"assignKind"`
	AssignedTo  []string   `bson:"assignedTo"`
	CreatedBy   string     `bson:"createdBy"`
	IsActive    bool       `bson:"isActive"`
	CreatedAt   time.Time  `bson:"createdAt"`
	UpdatedAt   time.Time  `bson:"updatedAt"`
}

func toTaskDoc(t task.Task) taskDoc {
	students := t.Assignment.Students
	if students == nil {
		students = []string{}
	}
	return taskDoc{
		ID:          t.ID,
		Title:       t.Title,
		Type:        t.Type,
		Description: t.Description,
		Quantity:    t.Quantity,
		Deadline:    t.Deadline,
		AssignKind:  string(t.Assignment.Kind),
		AssignedTo:  students,
		CreatedBy:   t.CreatedBy,
		IsActive:    t.IsActive,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func (d taskDoc) toTask() task.Task {
	t := task.Task{
		ID:          d.ID,
		Title:       d.Title,
		Type:        d.Type,
		Description: d.Description,
		Quantity:    d.Quantity,
		CreatedBy:   d.CreatedBy,
		IsActive:    d.IsActive,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
	if d.Deadline != nil {
		dl := d.Deadline.UTC()
		t.Deadline = &dl
	}
	if task.AssignmentKind(d.AssignKind) == task.KindSpecific {
		t.Assignment = task.Specific(d.AssignedTo...)
	} else {
		t.Assignment = task.Broadcast()
	}
	return t
}

type taskRepository struct {
	coll *mongo.Collection
}

var _ task.Repository = (*taskRepository)(nil) // interface compliance check

func NewTaskRepository(db *DB) *taskRepository {
	return &taskRepository{coll: db.collection(tasksColl)}
}

func taskQuery(filter task.QueryFilter) bson.M {
	q := bson.M{}
	if filter.IsActive != nil {
		q["isActive"] = *filter.IsActive
	}
	if filter.VisibleTo != "" {
		q["$or"] = bson.A{
			bson.M{"assignKind": bson.M{"$ne": string(task.KindSpecific)}},
			bson.M{"assignedTo": filter.VisibleTo},
		}
	}
	return q
}

func (repo *taskRepository) CreateTask(ctx context.Context, t task.Task) (task.Task, error) {
	t.ID = core.NewID()
	if _, err := repo.coll.InsertOne(ctx, toTaskDoc(t)); err != nil {
		return task.Task{}, errors.Wrap(err, "inserting task")
	}
	return t, nil
}

func (repo *taskRepository) GetTask(ctx context.Context, id string) (task.Task, error) {
	var doc taskDoc
	if err := repo.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return task.Task{}, task.ErrNotFound
		}
		return task.Task{}, errors.Wrap(err, "finding task")
	}
	return doc.toTask(), nil
}

func (repo *taskRepository) QueryTasks(ctx context.Context, filter task.QueryFilter) ([]task.Task, error) {
	cur, err := repo.coll.Find(ctx, taskQuery(filter), newestFirst("createdAt"))
	if err != nil {
		return nil, errors.Wrap(err, "querying tasks")
	}
	var docs []taskDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding tasks")
	}
	tasks := make([]task.Task, 0, len(docs))
	for _, d := range docs {
		tasks = append(tasks, d.toTask())
	}
	return tasks, nil
}

func (repo *taskRepository) CountTasks(ctx context.Context, filter task.QueryFilter) (int, error) {
	n, err := repo.coll.CountDocuments(ctx, taskQuery(filter))
	return int(n), errors.Wrap(err, "counting tasks")
}

func (repo *taskRepository) UpdateTask(ctx context.Context, t task.Task) (task.Task, error) {
	res, err := repo.coll.ReplaceOne(ctx, bson.M{"_id": t.ID}, toTaskDoc(t))
	if err != nil {
		return task.Task{}, errors.Wrap(err, "updating task")
	}
	if res.MatchedCount == 0 {
		return task.Task{}, task.ErrNotFound
	}
	return t, nil
}

func (repo *taskRepository) DeleteTasks(ctx context.Context, ids ...string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := repo.coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, errors.Wrap(err, "deleting tasks")
	}
	return int(res.DeletedCount), nil
}
