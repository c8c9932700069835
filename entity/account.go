package entity

type Account struct {
	Name    string `json:"name,omitempty"` // пусто для адресов контрактов
	Address string `json:"address"`
	Balance uint64 `json:"balance"`
}

type Contract struct {
	Principal  string
	Name       string
	Deployer   string
	DeployedAt uint64
}
