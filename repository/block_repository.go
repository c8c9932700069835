package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/qrave1/bounty-board/entity"
	v1 "github.com/qrave1/bounty-board/repository/v1"
)

var ErrBlockNotFound = errors.New("block not found")

type BlockRepository interface {
	Create(ctx context.Context, block *entity.Block) error
	GetByHeight(ctx context.Context, height uint64) (*entity.Block, error)
	Last(ctx context.Context) (*entity.Block, error)
}

// BlockRepositoryImpl Репозиторий блоков и квитанций транзакций
type BlockRepositoryImpl struct {
	db DBTX
}

func NewBlockRepositoryImpl(db DBTX) *BlockRepositoryImpl {
	return &BlockRepositoryImpl{db: db}
}

// Create пишет блок вместе с квитанциями. Атомарность обеспечивает
// транзакция, в которой работает репозиторий.
func (r *BlockRepositoryImpl) Create(ctx context.Context, block *entity.Block) error {
	_, err := r.db.ExecContext(
		ctx,
		"INSERT INTO blocks (height, hash, parent_hash, mined_at) VALUES (?, ?, ?, ?)",
		block.Height, block.Hash, block.ParentHash, block.MinedAt,
	)
	if err != nil {
		return err
	}

	for i, receipt := range block.Receipts {
		row, err := v1.NewReceiptFromEntity(block.Height, i, receipt)
		if err != nil {
			return fmt.Errorf("encode receipt %d: %w", i, err)
		}

		_, err = r.db.ExecContext(
			ctx,
			"INSERT INTO receipts (block_height, tx_index, tx_id, tx, result, error, events) VALUES (?, ?, ?, ?, ?, ?, ?)",
			row.BlockHeight, row.TxIndex, row.TxID, row.Tx, row.Result, row.Error, row.Events,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

func (r *BlockRepositoryImpl) GetByHeight(ctx context.Context, height uint64) (*entity.Block, error) {
	if height > math.MaxInt64 {
		return nil, ErrBlockNotFound
	}

	block, err := r.header(ctx, "SELECT height, hash, parent_hash, mined_at FROM blocks WHERE height = ?", int64(height))
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(
		ctx,
		"SELECT block_height, tx_index, tx_id, tx, result, error, events FROM receipts WHERE block_height = ? ORDER BY tx_index",
		int64(height),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var row v1.Receipt
		if err := rows.Scan(&row.BlockHeight, &row.TxIndex, &row.TxID, &row.Tx, &row.Result, &row.Error, &row.Events); err != nil {
			return nil, err
		}

		receipt, err := v1.NewEntityReceipt(row)
		if err != nil {
			return nil, fmt.Errorf("decode receipt %d: %w", row.TxIndex, err)
		}
		block.Receipts = append(block.Receipts, receipt)
	}

	return block, rows.Err()
}

// Last возвращает заголовок последнего блока, без квитанций
func (r *BlockRepositoryImpl) Last(ctx context.Context) (*entity.Block, error) {
	return r.header(ctx, "SELECT height, hash, parent_hash, mined_at FROM blocks ORDER BY height DESC LIMIT 1")
}

func (r *BlockRepositoryImpl) header(ctx context.Context, query string, args ...any) (*entity.Block, error) {
	var block entity.Block
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&block.Height, &block.Hash, &block.ParentHash, &block.MinedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBlockNotFound
		}
		return nil, err
	}
	return &block, nil
}
