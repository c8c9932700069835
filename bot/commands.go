package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/qrave1/bounty-board/chain"
	"github.com/qrave1/bounty-board/contract/bounty"
	"github.com/qrave1/bounty-board/entity"
	"github.com/qrave1/bounty-board/lang"
	"github.com/qrave1/bounty-board/repository"
	"github.com/qrave1/bounty-board/value"
)

const (
	StartCommand   = "start"
	HelpCommand    = "help"
	LinkCommand    = "link"
	BalanceCommand = "balance"
	PostCommand    = "post"
	AcceptCommand  = "accept"
	SubmitCommand  = "submit"
	ApproveCommand = "approve"
	RejectCommand  = "reject"
	CancelCommand  = "cancel"
	TaskCommand    = "task"
	TasksCommand   = "tasks"
)

// Команда бота -> публичная функция контракта
var contractFunctions = map[string]string{
	PostCommand:    "post-task",
	AcceptCommand:  "accept-task",
	SubmitCommand:  "submit-work",
	ApproveCommand: "approve-task",
	RejectCommand:  "reject-work",
	CancelCommand:  "cancel-task",
}

func (b *Botik) linkCmd(ctx context.Context, msg *tgbotapi.Message) {
	name := strings.TrimSpace(msg.CommandArguments())
	if name == "" || msg.From == nil {
		b.reply(msg, lang.UsageLink)
		return
	}

	acc, err := b.chain.Account(ctx, name)
	if err != nil {
		if errors.Is(err, chain.ErrUnknownAccount) {
			b.reply(msg, fmt.Sprintf(lang.UnknownAcc, name))
			return
		}
		b.fail(msg, err)
		return
	}
	// на адрес контракта привязываться нельзя
	if chain.IsContract(acc.Address) {
		b.reply(msg, fmt.Sprintf(lang.UnknownAcc, name))
		return
	}

	if err := b.chatRepo.Save(ctx, entity.NewChat(msg.From.ID, acc.Address)); err != nil {
		b.fail(msg, err)
		return
	}

	b.reply(msg, fmt.Sprintf(lang.Linked, accountLabel(acc), acc.Address))
}

// linkedAccount возвращает адрес, привязанный к автору сообщения.
// Если привязки нет, отвечает подсказкой и возвращает false.
func (b *Botik) linkedAccount(ctx context.Context, msg *tgbotapi.Message) (string, bool) {
	if msg.From == nil {
		b.reply(msg, lang.NotLinked)
		return "", false
	}

	chat, err := b.chatRepo.GetByID(ctx, msg.From.ID)
	if err != nil {
		if errors.Is(err, repository.ErrChatNotFound) {
			b.reply(msg, lang.NotLinked)
			return "", false
		}
		b.fail(msg, err)
		return "", false
	}

	return chat.Account, true
}

func (b *Botik) balanceCmd(ctx context.Context, msg *tgbotapi.Message) {
	address, ok := b.linkedAccount(ctx, msg)
	if !ok {
		return
	}

	acc, err := b.chain.Account(ctx, address)
	if err != nil {
		b.fail(msg, err)
		return
	}

	b.reply(msg, fmt.Sprintf(lang.Balance, accountLabel(acc), acc.Balance))
}

func (b *Botik) postCmd(ctx context.Context, msg *tgbotapi.Message) {
	// описание может содержать "|": название до первого, награда после последнего
	title, rest, ok := strings.Cut(msg.CommandArguments(), "|")
	sep := strings.LastIndex(rest, "|")
	if !ok || sep < 0 {
		b.reply(msg, lang.UsagePost)
		return
	}
	parts := trimAll(title, rest[:sep], rest[sep+1:])

	amount, err := strconv.ParseUint(parts[2], 10, 64)
	if err != nil {
		b.reply(msg, lang.UsagePost)
		return
	}

	b.callContract(ctx, msg, []string{
		value.StringUTF8(parts[0]).String(),
		value.StringUTF8(parts[1]).String(),
		value.UInt(amount).String(),
	})
}

func (b *Botik) submitCmd(ctx context.Context, msg *tgbotapi.Message) {
	rawID, submission, ok := strings.Cut(msg.CommandArguments(), "|")
	if !ok {
		b.reply(msg, lang.UsageSubmit)
		return
	}
	parts := trimAll(rawID, submission)

	id, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		b.reply(msg, lang.UsageSubmit)
		return
	}

	b.callContract(ctx, msg, []string{
		value.UInt(id).String(),
		value.StringUTF8(parts[1]).String(),
	})
}

// taskIDCmd обслуживает команды вида /<cmd> <id>
func (b *Botik) taskIDCmd(ctx context.Context, msg *tgbotapi.Message) {
	id, ok := b.parseID(msg)
	if !ok {
		return
	}

	b.callContract(ctx, msg, []string{value.UInt(id).String()})
}

// callContract майнит блок с одной транзакцией от привязанного аккаунта
// и отвечает результатом из квитанции.
func (b *Botik) callContract(ctx context.Context, msg *tgbotapi.Message, args []string) {
	sender, ok := b.linkedAccount(ctx, msg)
	if !ok {
		return
	}

	tx := chain.ContractCall(bounty.Name, contractFunctions[msg.Command()], args, sender)
	block, err := b.chain.MineBlock(ctx, []entity.Tx{tx})
	if err != nil {
		b.fail(msg, err)
		return
	}

	b.reply(msg, receiptText(block.Height, block.Receipts[0]))
}

func receiptText(height uint64, r entity.Receipt) string {
	if r.Error != "" {
		return fmt.Sprintf(lang.TxError, height, r.Error)
	}

	if inner, err := value.ExpectErr(r.Result); err == nil {
		code, _ := value.ExpectUint(inner)
		return fmt.Sprintf(lang.TxFailed, height, r.Result, bounty.Describe(code))
	}

	return fmt.Sprintf(lang.TxOk, height, r.Result)
}

func (b *Botik) taskCmd(ctx context.Context, msg *tgbotapi.Message) {
	id, ok := b.parseID(msg)
	if !ok {
		return
	}

	res, err := b.chain.CallReadOnly(ctx, bounty.Name, "get-task", []string{value.UInt(id).String()}, "")
	if err != nil {
		b.fail(msg, err)
		return
	}

	inner, err := value.ExpectSome(res)
	if err != nil {
		b.reply(msg, fmt.Sprintf(lang.TaskNotFound, id))
		return
	}

	tuple, err := value.ExpectTuple(inner)
	if err != nil {
		b.fail(msg, err)
		return
	}
	task, err := bounty.TaskFromTuple(tuple)
	if err != nil {
		b.fail(msg, err)
		return
	}

	b.reply(msg, taskCard(task))
}

func taskCard(task *entity.Task) string {
	return fmt.Sprintf(
		lang.TaskCard,
		task.ID,
		task.Title,
		orDash(task.Description),
		task.Bounty,
		task.Status,
		task.Poster,
		orDash(task.Worker),
		orDash(task.Submission),
	)
}

func (b *Botik) tasksCmd(ctx context.Context, msg *tgbotapi.Message) {
	tasks, err := b.taskRepo.List(ctx)
	if err != nil {
		b.fail(msg, err)
		return
	}

	if len(tasks) == 0 {
		b.reply(msg, lang.NoTasks)
		return
	}

	var text strings.Builder
	text.WriteString(lang.TaskListTitle)
	for _, task := range tasks {
		fmt.Fprintf(&text, "#%d [%s] %s - %d uSTX\n", task.ID, task.Status, task.Title, task.Bounty)
	}

	b.reply(msg, text.String())
}

func (b *Botik) parseID(msg *tgbotapi.Message) (uint64, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(msg.CommandArguments()), 10, 64)
	if err != nil {
		b.reply(msg, fmt.Sprintf(lang.UsageID, msg.Command()))
		return 0, false
	}
	return id, true
}

func (b *Botik) fail(msg *tgbotapi.Message, err error) {
	slog.Error(
		"handle command",
		slog.String("command", msg.Command()),
		slog.String("error", err.Error()),
	)
	b.reply(msg, lang.FailedStub)
}

func trimAll(parts ...string) []string {
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// accountLabel имя аккаунта, а для безымянных адресов сам адрес
func accountLabel(acc *entity.Account) string {
	if acc.Name == "" {
		return acc.Address
	}
	return acc.Name
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
