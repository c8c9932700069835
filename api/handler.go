package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/qrave1/bounty-board/chain"
	"github.com/qrave1/bounty-board/entity"
	"github.com/qrave1/bounty-board/repository"
	"github.com/qrave1/bounty-board/value"
)

// maxBodyBytes Предел размера тела запроса
const maxBodyBytes = 1 << 20

type Handler struct {
	chain *chain.Chain
	tasks repository.TaskRepository
}

func NewHandler(ch *chain.Chain, tasks repository.TaskRepository) *Handler {
	return &Handler{
		chain: ch,
		tasks: tasks,
	}
}

func (h *Handler) Healthcheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"height": h.chain.Height(),
	})
}

func (h *Handler) GetAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.chain.Accounts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if accounts == nil {
		accounts = []entity.Account{}
	}

	writeJSON(w, http.StatusOK, accounts)
}

func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	account, err := h.chain.Account(r.Context(), mux.Vars(r)["account"])
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, account)
}

func (h *Handler) MineBlock(w http.ResponseWriter, r *http.Request) {
	var req mineBlockRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	txs := make([]entity.Tx, 0, len(req.Transactions))
	for i, t := range req.Transactions {
		switch entity.TxKind(t.Type) {
		case "", entity.TxContractCall:
			if t.Contract == "" || t.Function == "" {
				writeJSONError(w, http.StatusBadRequest, "transaction "+strconv.Itoa(i)+": contract and function are required")
				return
			}
			txs = append(txs, chain.ContractCall(t.Contract, t.Function, t.Args, t.Sender))
		case entity.TxTransferSTX:
			if t.Recipient == "" {
				writeJSONError(w, http.StatusBadRequest, "transaction "+strconv.Itoa(i)+": recipient is required")
				return
			}
			txs = append(txs, chain.TransferSTX(t.Amount, t.Recipient, t.Sender))
		default:
			writeJSONError(w, http.StatusBadRequest, "transaction "+strconv.Itoa(i)+": unknown type "+strconv.Quote(t.Type))
			return
		}
	}

	block, err := h.chain.MineBlock(r.Context(), txs)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, newBlockResponse(block))
}

func (h *Handler) GetBlock(w http.ResponseWriter, r *http.Request) {
	height, err := strconv.ParseUint(mux.Vars(r)["height"], 10, 64)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid height")
		return
	}

	block, err := h.chain.Block(r.Context(), height)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newBlockResponse(block))
}

func (h *Handler) CallReadOnly(w http.ResponseWriter, r *http.Request) {
	var req readOnlyRequest
	if r.ContentLength != 0 {
		if err := decodeBody(w, r, &req); err != nil {
			writeDecodeError(w, err)
			return
		}
	}

	vars := mux.Vars(r)
	res, err := h.chain.CallReadOnly(r.Context(), vars["contract"], vars["function"], req.Args, req.Sender)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, readOnlyResponse{Result: res.String()})
}

func (h *Handler) GetTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.tasks.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if tasks == nil {
		tasks = []*entity.Task{}
	}

	writeJSON(w, http.StatusOK, tasks)
}

func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid id")
		return
	}

	task, err := h.tasks.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

func writeDecodeError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	writeJSONError(w, http.StatusBadRequest, "invalid JSON")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chain.ErrUnknownAccount),
		errors.Is(err, chain.ErrUnknownContract),
		errors.Is(err, chain.ErrUnknownFunction),
		errors.Is(err, repository.ErrTaskNotFound),
		errors.Is(err, repository.ErrBlockNotFound):
		writeJSONError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, chain.ErrArgument),
		errors.Is(err, chain.ErrReadOnly),
		errors.Is(err, value.ErrSyntax):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("request failed", slog.String("error", err.Error()))
		writeJSONError(w, http.StatusInternalServerError, err.Error())
	}
}
