package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/ptemanager/core/files"
	"github.com/trezcool/ptemanager/core/material"
	"github.com/trezcool/ptemanager/core/submission"
	"github.com/trezcool/ptemanager/core/task"
	"github.com/trezcool/ptemanager/core/user"
)

func tstamp(createdAt []time.Time) time.Time {
	if len(createdAt) > 0 {
		return createdAt[0].UTC()
	}
	return time.Now().UTC()
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, pwd, role string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	ts := tstamp(createdAt)
	usr := user.User{
		Name:      name,
		Email:     email,
		Role:      role,
		IsActive:  isActive,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// CreateTask stores an active task. Without students, the task is assigned to all.
func CreateTask(
	t *testing.T,
	repo task.Repository,
	title, createdBy string,
	deadline *time.Time,
	students []string,
	createdAt ...time.Time,
) task.Task {
	ts := tstamp(createdAt)
	assignment := task.Broadcast()
	if len(students) > 0 {
		assignment = task.Specific(students...)
	}
	tsk, err := repo.CreateTask(context.Background(), task.Task{
		Title:       title,
		Type:        task.Types[1],
		Description: title + " description",
		Quantity:    1,
		Deadline:    deadline,
		Assignment:  assignment,
		CreatedBy:   createdBy,
		IsActive:    true,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	})
	if err != nil {
		t.Fatalf("CreateTask() failed: %v", err)
	}
	return tsk
}

func CreateSubmission(
	t *testing.T,
	repo submission.Repository,
	taskID, studentID string,
	status submission.Status,
	submittedAt ...time.Time,
) submission.Submission {
	s, err := repo.CreateSubmission(context.Background(), submission.Submission{
		TaskID:      taskID,
		StudentID:   studentID,
		Files:       []files.Descriptor{},
		Status:      status,
		SubmittedAt: tstamp(submittedAt),
	})
	if err != nil {
		t.Fatalf("CreateSubmission() failed: %v", err)
	}
	return s
}

func CreateMaterial(
	t *testing.T,
	repo material.Repository,
	title, typ, uploadedBy string,
	isActive bool,
	createdAt ...time.Time,
) material.Material {
	ts := tstamp(createdAt)
	m, err := repo.CreateMaterial(context.Background(), material.Material{
		Title:      title,
		Type:       typ,
		Language:   material.LangEnglish,
		Files:      []files.Descriptor{},
		UploadedBy: uploadedBy,
		IsActive:   isActive,
		CreatedAt:  ts,
		UpdatedAt:  ts,
	})
	if err != nil {
		t.Fatalf("CreateMaterial() failed: %v", err)
	}
	return m
}
