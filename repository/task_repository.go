package repository

import (
	"context"
	"database/sql"
	"errors"
	"math"

	"github.com/qrave1/bounty-board/entity"
	v1 "github.com/qrave1/bounty-board/repository/v1"
)

var ErrTaskNotFound = errors.New("task not found")

type TaskRepository interface {
	Create(ctx context.Context, task *entity.Task) (uint64, error)
	GetByID(ctx context.Context, id uint64) (*entity.Task, error)
	List(ctx context.Context) ([]*entity.Task, error)
	Update(ctx context.Context, task *entity.Task) error
	Count(ctx context.Context) (uint64, error)
}

const taskColumns = "id, poster, title, description, bounty, worker, submission, status, created_at"

// TaskRepositoryImpl Репозиторий для работы с заданиями доски
type TaskRepositoryImpl struct {
	db DBTX
}

func NewTaskRepositoryImpl(db DBTX) *TaskRepositoryImpl {
	return &TaskRepositoryImpl{db: db}
}

// Create сохраняет задание и возвращает его номер. Номера идут подряд с 1.
func (r *TaskRepositoryImpl) Create(ctx context.Context, task *entity.Task) (uint64, error) {
	row := v1.NewTaskFromEntity(*task)

	res, err := r.db.ExecContext(
		ctx,
		"INSERT INTO tasks (poster, title, description, bounty, worker, submission, status, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		row.Poster, row.Title, row.Description, row.Bounty, row.Worker, row.Submission, row.Status, row.CreatedAt,
	)
	if err != nil {
		return 0, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	task.ID = uint64(id)
	return task.ID, nil
}

func (r *TaskRepositoryImpl) GetByID(ctx context.Context, id uint64) (*entity.Task, error) {
	// rowid в SQLite не бывает больше MaxInt64
	if id > math.MaxInt64 {
		return nil, ErrTaskNotFound
	}

	var row v1.Task
	err := r.db.QueryRowContext(
		ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE id = ?",
		int64(id),
	).Scan(&row.ID, &row.Poster, &row.Title, &row.Description, &row.Bounty, &row.Worker, &row.Submission, &row.Status, &row.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}

	return v1.NewEntityTask(row), nil
}

func (r *TaskRepositoryImpl) List(ctx context.Context) ([]*entity.Task, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+taskColumns+" FROM tasks ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*entity.Task
	for rows.Next() {
		var row v1.Task
		err := rows.Scan(&row.ID, &row.Poster, &row.Title, &row.Description, &row.Bounty, &row.Worker, &row.Submission, &row.Status, &row.CreatedAt)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, v1.NewEntityTask(row))
	}
	return tasks, rows.Err()
}

func (r *TaskRepositoryImpl) Update(ctx context.Context, task *entity.Task) error {
	if task.ID > math.MaxInt64 {
		return ErrTaskNotFound
	}
	row := v1.NewTaskFromEntity(*task)

	res, err := r.db.ExecContext(
		ctx,
		"UPDATE tasks SET title = ?, description = ?, bounty = ?, worker = ?, submission = ?, status = ? WHERE id = ?",
		row.Title, row.Description, row.Bounty, row.Worker, row.Submission, row.Status, row.ID,
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTaskNotFound
	}
	return nil
}

func (r *TaskRepositoryImpl) Count(ctx context.Context) (uint64, error) {
	var n uint64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tasks").Scan(&n)
	return n, err
}
