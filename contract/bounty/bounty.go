// Package bounty Контракт job-bounty-board. Заказчик блокирует награду в
// эскроу вместе с заданием, исполнитель берёт его и сдаёт работу, заказчик
// одобряет её с выплатой или отклоняет.
package bounty

import (
	"errors"
	"strings"

	"github.com/qrave1/bounty-board/chain"
	"github.com/qrave1/bounty-board/entity"
	"github.com/qrave1/bounty-board/repository"
	"github.com/qrave1/bounty-board/value"
)

const Name = "job-bounty-board"

const (
	MaxTitleLen       = 100
	MaxDescriptionLen = 500
	MaxSubmissionLen  = 500
)

// Коды ошибок, возвращаемые как (err uN)
const (
	ErrUnauthorized      uint64 = 100
	ErrNotFound          uint64 = 101
	ErrInvalidBounty     uint64 = 102
	ErrInvalidTitle      uint64 = 103
	ErrInvalidState      uint64 = 104
	ErrSelfAssign        uint64 = 105
	ErrInsufficientFunds uint64 = 106
)

var errorText = map[uint64]string{
	ErrUnauthorized:      "sender is not allowed to do this",
	ErrNotFound:          "task not found",
	ErrInvalidBounty:     "bounty must be greater than zero",
	ErrInvalidTitle:      "title must not be empty",
	ErrInvalidState:      "task is not in the right state",
	ErrSelfAssign:        "poster cannot accept their own task",
	ErrInsufficientFunds: "not enough STX to escrow the bounty",
}

// Describe человекочитаемое описание кода ошибки
func Describe(code uint64) string {
	if text, ok := errorText[code]; ok {
		return text
	}
	return "unknown error"
}

type Contract struct{}

func New() *Contract {
	return &Contract{}
}

func (c *Contract) Name() string { return Name }

func (c *Contract) Functions() map[string]chain.Function {
	id := chain.Param{Name: "id", Kind: value.KindUInt}

	return map[string]chain.Function{
		"post-task": {
			Params: []chain.Param{
				{Name: "title", Kind: value.KindStringUTF8, MaxLen: MaxTitleLen},
				{Name: "description", Kind: value.KindStringUTF8, MaxLen: MaxDescriptionLen},
				{Name: "bounty", Kind: value.KindUInt},
			},
			Handler: c.postTask,
		},
		"accept-task": {Params: []chain.Param{id}, Handler: c.acceptTask},
		"submit-work": {
			Params: []chain.Param{
				id,
				{Name: "submission", Kind: value.KindStringUTF8, MaxLen: MaxSubmissionLen},
			},
			Handler: c.submitWork,
		},
		"approve-task": {Params: []chain.Param{id}, Handler: c.approveTask},
		"reject-work":  {Params: []chain.Param{id}, Handler: c.rejectWork},
		"cancel-task":  {Params: []chain.Param{id}, Handler: c.cancelTask},

		"get-task":       {Params: []chain.Param{id}, ReadOnly: true, Handler: c.getTask},
		"get-task-count": {ReadOnly: true, Handler: c.getTaskCount},
	}
}

func fail(code uint64) value.Value {
	return value.Err(value.UInt(code))
}

func (c *Contract) postTask(cc *chain.CallContext, args []value.Value) (value.Value, error) {
	title := string(args[0].(value.StringUTF8))
	description := string(args[1].(value.StringUTF8))
	amount := uint64(args[2].(value.UInt))

	if strings.TrimSpace(title) == "" {
		return fail(ErrInvalidTitle), nil
	}
	if amount == 0 {
		return fail(ErrInvalidBounty), nil
	}

	res, err := cc.Ledger().Transfer(amount, cc.Sender(), cc.ContractPrincipal())
	if err != nil {
		return nil, err
	}
	if !res.Ok {
		return fail(ErrInsufficientFunds), nil
	}

	task := &entity.Task{
		Poster:      cc.Sender(),
		Title:       title,
		Description: description,
		Bounty:      amount,
		Status:      entity.TaskOpen,
		CreatedAt:   cc.BlockHeight(),
	}
	id, err := repository.NewTaskRepositoryImpl(cc.DB()).Create(cc.Context(), task)
	if err != nil {
		return nil, err
	}

	cc.Print(value.Tuple{
		"event":  value.StringASCII("task-posted"),
		"id":     value.UInt(id),
		"bounty": value.UInt(amount),
	})

	return value.Ok(value.UInt(id)), nil
}

func (c *Contract) acceptTask(cc *chain.CallContext, args []value.Value) (value.Value, error) {
	return c.transition(cc, args[0], func(task *entity.Task) (value.Value, error) {
		if task.Status != entity.TaskOpen {
			return fail(ErrInvalidState), nil
		}
		if task.Poster == cc.Sender() {
			return fail(ErrSelfAssign), nil
		}

		task.Worker = cc.Sender()
		task.Status = entity.TaskInProgress
		return nil, nil
	}, "task-accepted")
}

func (c *Contract) submitWork(cc *chain.CallContext, args []value.Value) (value.Value, error) {
	submission := string(args[1].(value.StringUTF8))

	return c.transition(cc, args[0], func(task *entity.Task) (value.Value, error) {
		if task.Worker != cc.Sender() {
			return fail(ErrUnauthorized), nil
		}
		if task.Status != entity.TaskInProgress {
			return fail(ErrInvalidState), nil
		}

		task.Submission = submission
		task.Status = entity.TaskSubmitted
		return nil, nil
	}, "work-submitted")
}

func (c *Contract) approveTask(cc *chain.CallContext, args []value.Value) (value.Value, error) {
	return c.transition(cc, args[0], func(task *entity.Task) (value.Value, error) {
		if task.Poster != cc.Sender() {
			return fail(ErrUnauthorized), nil
		}
		if task.Status != entity.TaskSubmitted {
			return fail(ErrInvalidState), nil
		}

		if err := c.payout(cc, task.Bounty, task.Worker); err != nil {
			return nil, err
		}
		task.Status = entity.TaskCompleted
		return nil, nil
	}, "task-approved")
}

func (c *Contract) rejectWork(cc *chain.CallContext, args []value.Value) (value.Value, error) {
	return c.transition(cc, args[0], func(task *entity.Task) (value.Value, error) {
		if task.Poster != cc.Sender() {
			return fail(ErrUnauthorized), nil
		}
		if task.Status != entity.TaskSubmitted {
			return fail(ErrInvalidState), nil
		}

		task.Status = entity.TaskInProgress
		return nil, nil
	}, "work-rejected")
}

func (c *Contract) cancelTask(cc *chain.CallContext, args []value.Value) (value.Value, error) {
	return c.transition(cc, args[0], func(task *entity.Task) (value.Value, error) {
		if task.Poster != cc.Sender() {
			return fail(ErrUnauthorized), nil
		}
		if task.Status != entity.TaskOpen {
			return fail(ErrInvalidState), nil
		}

		if err := c.payout(cc, task.Bounty, task.Poster); err != nil {
			return nil, err
		}
		task.Status = entity.TaskCancelled
		return nil, nil
	}, "task-cancelled")
}

// transition загружает задание, apply проверяет и меняет его, затем задание
// сохраняется. Непустой результат apply прерывает вызов с этим результатом.
func (c *Contract) transition(
	cc *chain.CallContext,
	rawID value.Value,
	apply func(task *entity.Task) (value.Value, error),
	event string,
) (value.Value, error) {
	id := uint64(rawID.(value.UInt))
	repo := repository.NewTaskRepositoryImpl(cc.DB())

	task, err := repo.GetByID(cc.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return fail(ErrNotFound), nil
		}
		return nil, err
	}

	stop, err := apply(task)
	if err != nil || stop != nil {
		return stop, err
	}

	if err := repo.Update(cc.Context(), task); err != nil {
		return nil, err
	}

	cc.Print(value.Tuple{
		"event": value.StringASCII(event),
		"id":    value.UInt(id),
	})

	return value.Ok(value.Bool(true)), nil
}

// payout выплачивает STX из эскроу контракта
func (c *Contract) payout(cc *chain.CallContext, amount uint64, to string) error {
	res, err := cc.Ledger().Transfer(amount, cc.ContractPrincipal(), to)
	if err != nil {
		return err
	}
	if !res.Ok {
		return errors.New("escrow transfer failed: " + res.String())
	}
	return nil
}

func (c *Contract) getTask(cc *chain.CallContext, args []value.Value) (value.Value, error) {
	id := uint64(args[0].(value.UInt))

	task, err := repository.NewTaskRepositoryImpl(cc.DB()).GetByID(cc.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return value.None(), nil
		}
		return nil, err
	}

	return value.Some(TaskTuple(task)), nil
}

func (c *Contract) getTaskCount(cc *chain.CallContext, _ []value.Value) (value.Value, error) {
	n, err := repository.NewTaskRepositoryImpl(cc.DB()).Count(cc.Context())
	if err != nil {
		return nil, err
	}
	return value.UInt(n), nil
}

// TaskTuple задание в том виде, в каком его возвращает get-task
func TaskTuple(task *entity.Task) value.Tuple {
	worker := value.None()
	if task.Worker != "" {
		worker = value.Some(value.Principal(task.Worker))
	}

	return value.Tuple{
		"id":          value.UInt(task.ID),
		"poster":      value.Principal(task.Poster),
		"title":       value.StringUTF8(task.Title),
		"description": value.StringUTF8(task.Description),
		"bounty":      value.UInt(task.Bounty),
		"worker":      worker,
		"submission":  value.StringUTF8(task.Submission),
		"status":      value.StringASCII(task.Status),
		"created-at":  value.UInt(task.CreatedAt),
	}
}

// TaskFromTuple обратное преобразование к TaskTuple
func TaskFromTuple(t value.Tuple) (*entity.Task, error) {
	var (
		task entity.Task
		err  error
	)

	if task.ID, err = value.ExpectUint(t["id"]); err != nil {
		return nil, err
	}
	if task.Poster, err = value.ExpectPrincipal(t["poster"]); err != nil {
		return nil, err
	}
	if task.Title, err = value.ExpectStringUTF8(t["title"]); err != nil {
		return nil, err
	}
	if task.Description, err = value.ExpectStringUTF8(t["description"]); err != nil {
		return nil, err
	}
	if task.Bounty, err = value.ExpectUint(t["bounty"]); err != nil {
		return nil, err
	}
	if task.Submission, err = value.ExpectStringUTF8(t["submission"]); err != nil {
		return nil, err
	}
	if task.CreatedAt, err = value.ExpectUint(t["created-at"]); err != nil {
		return nil, err
	}

	status, err := value.ExpectStringASCII(t["status"])
	if err != nil {
		return nil, err
	}
	task.Status = entity.TaskStatus(status)

	if worker, err := value.ExpectSome(t["worker"]); err == nil {
		if task.Worker, err = value.ExpectPrincipal(worker); err != nil {
			return nil, err
		}
	}

	return &task, nil
}
