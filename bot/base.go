package bot

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/qrave1/bounty-board/chain"
	"github.com/qrave1/bounty-board/config"
	"github.com/qrave1/bounty-board/repository"
)

// Sender Всё, что бот отправляет в Telegram, идёт через этот интерфейс
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Botik struct {
	api  *tgbotapi.BotAPI
	bot  Sender
	self string

	chain    *chain.Chain
	taskRepo repository.TaskRepository
	chatRepo repository.ChatRepository

	pollTimeout int
	updates     tgbotapi.UpdatesChannel
}

func NewBotik(
	cfg *config.Config,
	ch *chain.Chain,
	taskRepo repository.TaskRepository,
	chatRepo repository.ChatRepository,
) (*Botik, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	api.Debug = cfg.Debug
	slog.Info("Authorized on account", slog.String("username", api.Self.UserName))

	b := New(api, ch, taskRepo, chatRepo)
	b.api = api
	b.self = api.Self.UserName
	b.pollTimeout = cfg.Telegram.PollTimeout

	return b, nil
}

// New собирает бота поверх произвольного Sender (в тестах без Telegram)
func New(
	sender Sender,
	ch *chain.Chain,
	taskRepo repository.TaskRepository,
	chatRepo repository.ChatRepository,
) *Botik {
	return &Botik{
		bot:         sender,
		chain:       ch,
		taskRepo:    taskRepo,
		chatRepo:    chatRepo,
		pollTimeout: 60,
	}
}

// Start запускает long polling и обработку обновлений до отмены ctx
func (b *Botik) Start(ctx context.Context) {
	slog.Info("Starting bot (polling)", slog.Int("timeout", b.pollTimeout))

	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.pollTimeout
	b.updates = b.api.GetUpdatesChan(u)

	go b.handleUpdates(ctx)
}

func (b *Botik) Stop() {
	if b.api != nil {
		b.api.StopReceivingUpdates()
	}
}
