package entity

// Chat Привязка пользователя Telegram к аккаунту в цепочке
type Chat struct {
	ID      int64  // ID пользователя Telegram
	Account string // адрес аккаунта в цепочке
}

func NewChat(ID int64, account string) Chat {
	return Chat{ID: ID, Account: account}
}
