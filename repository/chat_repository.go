package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/qrave1/bounty-board/entity"
)

var ErrChatNotFound = errors.New("chat not found")

type ChatRepository interface {
	Save(ctx context.Context, chat entity.Chat) error
	GetByID(ctx context.Context, id int64) (entity.Chat, error)
}

// ChatRepositoryImpl Репозиторий привязок пользователей бота к аккаунтам
type ChatRepositoryImpl struct {
	db DBTX
}

func NewChatRepositoryImpl(db DBTX) *ChatRepositoryImpl {
	return &ChatRepositoryImpl{db: db}
}

// Save создаёт привязку или перепривязывает пользователя к другому аккаунту
func (c *ChatRepositoryImpl) Save(ctx context.Context, chat entity.Chat) error {
	_, err := c.db.ExecContext(
		ctx,
		`INSERT INTO chats (id, account) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET account = excluded.account`,
		chat.ID,
		chat.Account,
	)
	return err
}

func (c *ChatRepositoryImpl) GetByID(ctx context.Context, id int64) (entity.Chat, error) {
	var chat entity.Chat
	err := c.db.QueryRowContext(
		ctx,
		"SELECT id, account FROM chats WHERE id = ?",
		id,
	).Scan(&chat.ID, &chat.Account)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.Chat{}, ErrChatNotFound
		}
		return entity.Chat{}, err
	}

	return chat, nil
}
