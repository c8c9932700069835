package v1

import (
	"database/sql"

	"github.com/qrave1/bounty-board/entity"
)

type Task struct {
	ID          uint64
	Poster      string
	Title       string
	Description string
	Bounty      uint64
	Worker      sql.NullString // NULL, пока исполнителя нет
	Submission  string
	Status      string
	CreatedAt   uint64
}

func NewTaskFromEntity(t entity.Task) Task {
	return Task{
		ID:          t.ID,
		Poster:      t.Poster,
		Title:       t.Title,
		Description: t.Description,
		Bounty:      t.Bounty,
		Worker:      sql.NullString{String: t.Worker, Valid: t.Worker != ""},
		Submission:  t.Submission,
		Status:      string(t.Status),
		CreatedAt:   t.CreatedAt,
	}
}

func NewEntityTask(t Task) *entity.Task {
	return &entity.Task{
		ID:          t.ID,
		Poster:      t.Poster,
		Title:       t.Title,
		Description: t.Description,
		Bounty:      t.Bounty,
		Worker:      t.Worker.String,
		Submission:  t.Submission,
		Status:      entity.TaskStatus(t.Status),
		CreatedAt:   t.CreatedAt,
	}
}
