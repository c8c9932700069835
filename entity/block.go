package entity

import (
	"time"

	"github.com/qrave1/bounty-board/value"
)

type TxKind string

const (
	TxContractCall TxKind = "contract-call"
	TxTransferSTX  TxKind = "transfer-stx"
)

type Tx struct {
	ID        string   `json:"id"`
	Kind      TxKind   `json:"kind"`
	Sender    string   `json:"sender"`
	Contract  string   `json:"contract,omitempty"`
	Function  string   `json:"function,omitempty"`
	Args      []string `json:"args,omitempty"`
	Recipient string   `json:"recipient,omitempty"`
	Amount    uint64   `json:"amount,omitempty"`
}

type EventType string

const (
	EventSTXTransfer EventType = "stx_transfer_event"
	EventPrint       EventType = "print_event"
)

type Event struct {
	Type      EventType `json:"type"`
	Sender    string    `json:"sender,omitempty"`
	Recipient string    `json:"recipient,omitempty"`
	Amount    uint64    `json:"amount,omitempty"`
	Contract  string    `json:"contract,omitempty"`
	Value     string    `json:"value,omitempty"`
}

// Receipt is the outcome of one transaction. Result is nil when the
// transaction aborted with a runtime error, which is then stored in Error.
type Receipt struct {
	Tx     Tx
	Result value.Value
	Error  string
	Events []Event
}

// Success reports whether the transaction returned an ok response.
func (r Receipt) Success() bool {
	res, ok := r.Result.(value.Response)
	return ok && res.Ok
}

type Block struct {
	Height     uint64
	Hash       string
	ParentHash string
	MinedAt    time.Time
	Receipts   []Receipt
}
