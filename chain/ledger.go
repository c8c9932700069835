package chain

import (
	"context"

	"github.com/qrave1/bounty-board/entity"
	"github.com/qrave1/bounty-board/repository"
	"github.com/qrave1/bounty-board/value"
)

// Коды ошибок stx-transfer
const (
	TransferInsufficientBalance uint64 = 1
	TransferSameRecipient       uint64 = 2
	TransferNonPositiveAmount   uint64 = 3
)

// Ledger Переводы STX между адресами внутри текущей транзакции
type Ledger struct {
	ctx      context.Context
	accounts *repository.AccountRepositoryImpl
	emit     func(entity.Event)
}

func (l *Ledger) Balance(principal string) (uint64, error) {
	return l.accounts.Balance(l.ctx, principal)
}

// Transfer возвращает (ok true) или (err uN) с кодами выше.
// Ошибка возвращается только при сбое хранилища.
func (l *Ledger) Transfer(amount uint64, from, to string) (value.Response, error) {
	if amount == 0 {
		return value.Err(value.UInt(TransferNonPositiveAmount)), nil
	}
	if from == to {
		return value.Err(value.UInt(TransferSameRecipient)), nil
	}

	balance, err := l.accounts.Balance(l.ctx, from)
	if err != nil {
		return value.Response{}, err
	}
	if balance < amount {
		return value.Err(value.UInt(TransferInsufficientBalance)), nil
	}

	if err := l.accounts.Debit(l.ctx, from, amount); err != nil {
		return value.Response{}, err
	}
	if err := l.accounts.Credit(l.ctx, to, amount); err != nil {
		return value.Response{}, err
	}

	l.emit(entity.Event{Type: entity.EventSTXTransfer, Sender: from, Recipient: to, Amount: amount})

	return value.Ok(value.Bool(true)), nil
}
