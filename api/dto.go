package api

import (
	"time"

	"github.com/qrave1/bounty-board/entity"
)

type txRequest struct {
	Type      string   `json:"type"` // contract-call (по умолчанию) или transfer-stx
	Sender    string   `json:"sender"`
	Contract  string   `json:"contract"`
	Function  string   `json:"function"`
	Args      []string `json:"args"`
	Recipient string   `json:"recipient"`
	Amount    uint64   `json:"amount"`
}

type mineBlockRequest struct {
	Transactions []txRequest `json:"transactions"`
}

type readOnlyRequest struct {
	Sender string   `json:"sender"`
	Args   []string `json:"args"`
}

type readOnlyResponse struct {
	Result string `json:"result"`
}

type receiptResponse struct {
	Tx      entity.Tx      `json:"tx"`
	Success bool           `json:"success"`
	Result  string         `json:"result,omitempty"`
	Error   string         `json:"error,omitempty"`
	Events  []entity.Event `json:"events"`
}

type blockResponse struct {
	Height     uint64            `json:"height"`
	Hash       string            `json:"hash"`
	ParentHash string            `json:"parent_hash"`
	MinedAt    time.Time         `json:"mined_at"`
	Receipts   []receiptResponse `json:"receipts"`
}

func newBlockResponse(b *entity.Block) blockResponse {
	resp := blockResponse{
		Height:     b.Height,
		Hash:       b.Hash,
		ParentHash: b.ParentHash,
		MinedAt:    b.MinedAt,
		Receipts:   make([]receiptResponse, 0, len(b.Receipts)),
	}

	for _, r := range b.Receipts {
		rr := receiptResponse{
			Tx:      r.Tx,
			Success: r.Success(),
			Error:   r.Error,
			Events:  r.Events,
		}
		if r.Result != nil {
			rr.Result = r.Result.String()
		}
		if rr.Events == nil {
			rr.Events = []entity.Event{}
		}
		resp.Receipts = append(resp.Receipts, rr)
	}

	return resp
}
