// Package lang Тексты сообщений бота
package lang

const (
	Start = "Привет! Это доска заданий с вознаграждением в STX.\n" +
		"Сначала привяжи аккаунт: /link wallet_1\n" +
		"Список команд: /help"

	Help = "Команды:\n" +
		"/link <аккаунт> - привязать аккаунт цепочки\n" +
		"/balance - баланс привязанного аккаунта\n" +
		"/post название | описание | награда - разместить задание\n" +
		"/accept <id> - взять задание\n" +
		"/submit <id> | результат - сдать работу\n" +
		"/approve <id> - принять работу и выплатить награду\n" +
		"/reject <id> - вернуть работу на доработку\n" +
		"/cancel <id> - отменить открытое задание\n" +
		"/task <id> - карточка задания\n" +
		"/tasks - все задания"

	BotAddedToGroup = "Всем привет! Каждый участник может привязать свой аккаунт командой /link"

	FailedStub = "Что-то пошло не так, попробуй позже"

	NotLinked     = "Аккаунт не привязан. Используй /link <аккаунт>"
	Linked        = "Аккаунт %s привязан (%s)"
	UnknownAcc    = "Аккаунт %s не найден"
	Balance       = "Баланс %s: %d uSTX"
	NoTasks       = "Заданий пока нет"
	TaskNotFound  = "Задание #%d не найдено"
	TaskListTitle = "Задания:\n\n"

	UsageLink   = "Формат: /link <аккаунт>"
	UsagePost   = "Формат: /post название | описание | награда"
	UsageID     = "Формат: /%s <id>"
	UsageSubmit = "Формат: /submit <id> | результат"

	TxOk     = "Блок #%d: %s"
	TxFailed = "Блок #%d: ошибка %s (%s)"
	TxError  = "Блок #%d: транзакция не выполнена: %s"

	TaskCard = "Задание #%d\n\n" +
		"Название: %s\n" +
		"Описание: %s\n" +
		"Награда: %d uSTX\n" +
		"Статус: %s\n" +
		"Автор: %s\n" +
		"Исполнитель: %s\n" +
		"Результат: %s"
)
