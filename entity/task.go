package entity

type TaskStatus string

const (
	TaskOpen       TaskStatus = "open"
	TaskInProgress TaskStatus = "in-progress"
	TaskSubmitted  TaskStatus = "submitted"
	TaskCompleted  TaskStatus = "completed"
	TaskCancelled  TaskStatus = "cancelled"
)

// Task Задание на доске. Награда (Bounty) лежит на счёте контракта,
// пока задание не будет принято или отменено.
type Task struct {
	ID          uint64     `json:"id"`
	Poster      string     `json:"poster"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Bounty      uint64     `json:"bounty"`
	Worker      string     `json:"worker,omitempty"` // пусто, пока задание никто не взял
	Submission  string     `json:"submission,omitempty"`
	Status      TaskStatus `json:"status"`
	CreatedAt   uint64     `json:"created_at"` // высота блока
}
