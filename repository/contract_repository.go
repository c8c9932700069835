package repository

import (
	"context"

	"github.com/qrave1/bounty-board/entity"
)

type ContractRepository interface {
	Create(ctx context.Context, contract entity.Contract) error
	Exists(ctx context.Context, principal string) (bool, error)
}

type ContractRepositoryImpl struct {
	db DBTX
}

func NewContractRepositoryImpl(db DBTX) *ContractRepositoryImpl {
	return &ContractRepositoryImpl{db: db}
}

func (r *ContractRepositoryImpl) Create(ctx context.Context, contract entity.Contract) error {
	_, err := r.db.ExecContext(
		ctx,
		"INSERT INTO contracts (principal, name, deployer, deployed_at) VALUES (?, ?, ?, ?)",
		contract.Principal, contract.Name, contract.Deployer, contract.DeployedAt,
	)
	return err
}

func (r *ContractRepositoryImpl) Exists(ctx context.Context, principal string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM contracts WHERE principal = ?", principal).Scan(&n)
	return n > 0, err
}
