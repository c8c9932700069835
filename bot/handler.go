package bot

import (
	"context"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/qrave1/bounty-board/lang"
)

func (b *Botik) handleUpdates(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-b.updates:
			if !ok {
				return
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Botik) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil {
		return
	}

	switch {
	case update.Message.IsCommand():
		slog.Info(
			"got new command",
			slog.String("command", update.Message.Command()),
		)

		b.handleCommand(ctx, update.Message)
	default:
		b.handleMessage(update.Message)
	}
}

func (b *Botik) handleMessage(msg *tgbotapi.Message) {
	// События, при добавлении новых участников
	if msg.NewChatMembers != nil {
		b.handleNewChatMember(msg)
	}
}

func (b *Botik) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case StartCommand:
		b.reply(msg, lang.Start)
	case HelpCommand:
		b.reply(msg, lang.Help)
	case LinkCommand:
		b.linkCmd(ctx, msg)
	case BalanceCommand:
		b.balanceCmd(ctx, msg)
	case PostCommand:
		b.postCmd(ctx, msg)
	case SubmitCommand:
		b.submitCmd(ctx, msg)
	case AcceptCommand, ApproveCommand, RejectCommand, CancelCommand:
		b.taskIDCmd(ctx, msg)
	case TaskCommand:
		b.taskCmd(ctx, msg)
	case TasksCommand:
		b.tasksCmd(ctx, msg)
	}
}

func (b *Botik) handleNewChatMember(msg *tgbotapi.Message) {
	for _, member := range msg.NewChatMembers {
		// Если новый пользователь это сам бот
		if member.UserName == b.self {
			slog.Info(
				"added to chat",
				slog.String("title", msg.Chat.Title),
				slog.Int64("chat_id", msg.Chat.ID),
			)

			if err := b.sendText(msg.Chat.ID, lang.BotAddedToGroup); err != nil {
				slog.Error("greet chat", slog.String("error", err.Error()))
			}
		}
	}
}
