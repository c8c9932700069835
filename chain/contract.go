package chain

import (
	"context"
	"fmt"

	"github.com/qrave1/bounty-board/entity"
	"github.com/qrave1/bounty-board/repository"
	"github.com/qrave1/bounty-board/value"
)

// Contract Код на Go, задеплоенный под адресом deployer
type Contract interface {
	Name() string
	Functions() map[string]Function
}

// Handler Функция контракта. Аргументы уже проверены по параметрам,
// возвращённая ошибка прерывает транзакцию.
type Handler func(cc *CallContext, args []value.Value) (value.Value, error)

type Function struct {
	Params   []Param
	ReadOnly bool
	Handler  Handler
}

// Param Описание аргумента. MaxLen ограничивает длину строк и буферов
type Param struct {
	Name   string
	Kind   value.Kind
	MaxLen int
}

func checkArgs(fn string, params []Param, args []value.Value) error {
	if len(args) != len(params) {
		return fmt.Errorf("%w: %s expects %d arguments, got %d", ErrArgument, fn, len(params), len(args))
	}

	for i, p := range params {
		if args[i].Kind() != p.Kind {
			return fmt.Errorf("%w: %s: %s must be %s, got %s", ErrArgument, fn, p.Name, p.Kind, args[i].Kind())
		}
		if p.MaxLen > 0 && value.Len(args[i]) > p.MaxLen {
			return fmt.Errorf("%w: %s: %s is longer than %d", ErrArgument, fn, p.Name, p.MaxLen)
		}
	}

	return nil
}

// CallContext То, что видит контракт во время вызова. Все записи идут
// через транзакцию текущего блока.
type CallContext struct {
	ctx      context.Context
	db       repository.DBTX
	sender   string
	contract string
	height   uint64
	ledger   *Ledger
	events   []entity.Event
}

func (cc *CallContext) Context() context.Context { return cc.ctx }

// DB доступ к базе в рамках транзакции
func (cc *CallContext) DB() repository.DBTX { return cc.db }

// Sender адрес, подписавший транзакцию
func (cc *CallContext) Sender() string { return cc.sender }

// ContractPrincipal адрес выполняемого контракта
func (cc *CallContext) ContractPrincipal() string { return cc.contract }

// BlockHeight высота майнящегося блока
func (cc *CallContext) BlockHeight() uint64 { return cc.height }

func (cc *CallContext) Ledger() *Ledger { return cc.ledger }

// Print добавляет print-событие в квитанцию
func (cc *CallContext) Print(v value.Value) {
	cc.emit(entity.Event{Type: entity.EventPrint, Contract: cc.contract, Value: v.String()})
}

func (cc *CallContext) emit(e entity.Event) {
	cc.events = append(cc.events, e)
}
