package v1

import (
	"database/sql"
	"encoding/json"

	"github.com/qrave1/bounty-board/entity"
	"github.com/qrave1/bounty-board/value"
)

type Receipt struct {
	BlockHeight uint64
	TxIndex     int
	TxID        string
	Tx          string         // транзакция в виде json
	Result      sql.NullString // литерал значения, NULL при ошибке выполнения
	Error       string
	Events      string // события в виде json массива
}

func NewReceiptFromEntity(height uint64, index int, r entity.Receipt) (Receipt, error) {
	rawTx, err := json.Marshal(r.Tx)
	if err != nil {
		return Receipt{}, err
	}

	events := r.Events
	if events == nil {
		events = []entity.Event{}
	}
	rawEvents, err := json.Marshal(events)
	if err != nil {
		return Receipt{}, err
	}

	var result sql.NullString
	if r.Result != nil {
		result = sql.NullString{String: r.Result.String(), Valid: true}
	}

	return Receipt{
		BlockHeight: height,
		TxIndex:     index,
		TxID:        r.Tx.ID,
		Tx:          string(rawTx),
		Result:      result,
		Error:       r.Error,
		Events:      string(rawEvents),
	}, nil
}

func NewEntityReceipt(r Receipt) (entity.Receipt, error) {
	var receipt entity.Receipt

	if err := json.Unmarshal([]byte(r.Tx), &receipt.Tx); err != nil {
		return entity.Receipt{}, err
	}
	if err := json.Unmarshal([]byte(r.Events), &receipt.Events); err != nil {
		return entity.Receipt{}, err
	}

	if r.Result.Valid {
		result, err := value.Parse(r.Result.String)
		if err != nil {
			return entity.Receipt{}, err
		}
		receipt.Result = result
	}
	receipt.Error = r.Error

	return receipt, nil
}
