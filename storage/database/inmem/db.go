package inmemdb

import (
	"sync"
	"time"

	"github.com/trezcool/ptemanager/core/material"
	"github.com/trezcool/ptemanager/core/submission"
	"github.com/trezcool/ptemanager/core/task"
	"github.com/trezcool/ptemanager/core/user"
)

type (
	// DB is a process-local database. Records are copied in and out of the tables.
	DB struct {
		user       *userTable
		task       *taskTable
		submission *submissionTable
		material   *materialTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	taskTable struct {
		sync.RWMutex
		table map[string]*task.Task
	}

	submissionTable struct {
		sync.RWMutex
		table map[string]*submission.Submission
	}

	materialTable struct {
		sync.RWMutex
		table map[string]*material.Material
	}
)

func Open() *DB {
	return &DB{
		user:       &userTable{table: make(map[string]*user.User)},
		task:       &taskTable{table: make(map[string]*task.Task)},
		submission: &submissionTable{table: make(map[string]*submission.Submission)},
		material:   &materialTable{table: make(map[string]*material.Material)},
	}
}

// Reset empties every table.
func (db *DB) Reset() {
	db.user.Lock()
	db.user.table = make(map[string]*user.User)
	db.user.Unlock()

	db.task.Lock()
	db.task.table = make(map[string]*task.Task)
	db.task.Unlock()

	db.submission.Lock()
	db.submission.table = make(map[string]*submission.Submission)
	db.submission.Unlock()

	db.material.Lock()
	db.material.table = make(map[string]*material.Material)
	db.material.Unlock()
}

func (db *DB) Close() error { return nil }

// newestFirst orders records by time descending, then by id descending.
func newestFirst(ti, tj time.Time, idi, idj string) bool {
	if !ti.Equal(tj) {
		return ti.After(tj)
	}
	return idi > idj
}
