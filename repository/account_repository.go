package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/qrave1/bounty-board/entity"
)

var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

type AccountRepository interface {
	Create(ctx context.Context, account entity.Account) error
	GetByName(ctx context.Context, name string) (*entity.Account, error)
	GetByAddress(ctx context.Context, address string) (*entity.Account, error)
	List(ctx context.Context) ([]entity.Account, error)
	Balance(ctx context.Context, address string) (uint64, error)
	Credit(ctx context.Context, address string, amount uint64) error
	Debit(ctx context.Context, address string, amount uint64) error
}

// AccountRepositoryImpl Репозиторий балансов. Адреса контрактов хранятся без имени.
type AccountRepositoryImpl struct {
	db DBTX
}

func NewAccountRepositoryImpl(db DBTX) *AccountRepositoryImpl {
	return &AccountRepositoryImpl{db: db}
}

func (r *AccountRepositoryImpl) Create(ctx context.Context, account entity.Account) error {
	name := sql.NullString{String: account.Name, Valid: account.Name != ""}

	_, err := r.db.ExecContext(
		ctx,
		"INSERT INTO accounts (address, name, balance) VALUES (?, ?, ?)",
		account.Address, name, account.Balance,
	)
	return err
}

func (r *AccountRepositoryImpl) GetByName(ctx context.Context, name string) (*entity.Account, error) {
	return r.get(ctx, "SELECT address, name, balance FROM accounts WHERE name = ?", name)
}

func (r *AccountRepositoryImpl) GetByAddress(ctx context.Context, address string) (*entity.Account, error) {
	return r.get(ctx, "SELECT address, name, balance FROM accounts WHERE address = ?", address)
}

func (r *AccountRepositoryImpl) get(ctx context.Context, query string, arg string) (*entity.Account, error) {
	var (
		account entity.Account
		name    sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&account.Address, &name, &account.Balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, arg)
		}
		return nil, err
	}

	account.Name = name.String
	return &account, nil
}

// List возвращает аккаунты в порядке создания
func (r *AccountRepositoryImpl) List(ctx context.Context) ([]entity.Account, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT address, name, balance FROM accounts ORDER BY rowid")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []entity.Account
	for rows.Next() {
		var (
			account entity.Account
			name    sql.NullString
		)
		if err := rows.Scan(&account.Address, &name, &account.Balance); err != nil {
			return nil, err
		}
		account.Name = name.String
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

// Balance возвращает 0 для адресов, которые ещё ничего не получали
func (r *AccountRepositoryImpl) Balance(ctx context.Context, address string) (uint64, error) {
	var balance uint64
	err := r.db.QueryRowContext(ctx, "SELECT balance FROM accounts WHERE address = ?", address).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return balance, err
}

func (r *AccountRepositoryImpl) Credit(ctx context.Context, address string, amount uint64) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO accounts (address, balance) VALUES (?, ?)
		 ON CONFLICT(address) DO UPDATE SET balance = balance + excluded.balance`,
		address, amount,
	)
	return err
}

func (r *AccountRepositoryImpl) Debit(ctx context.Context, address string, amount uint64) error {
	res, err := r.db.ExecContext(
		ctx,
		"UPDATE accounts SET balance = balance - ? WHERE address = ? AND balance >= ?",
		amount, address, amount,
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrInsufficientBalance, address)
	}
	return nil
}
