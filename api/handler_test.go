package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/qrave1/bounty-board/api"
	"github.com/qrave1/bounty-board/chain"
	"github.com/qrave1/bounty-board/contract/bounty"
	"github.com/qrave1/bounty-board/entity"
	"github.com/qrave1/bounty-board/repository"
)

func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(setupRouter(t))
	t.Cleanup(server.Close)

	return server
}

func setupRouter(t *testing.T) http.Handler {
	t.Helper()
	ctx := context.Background()

	db, err := repository.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ch, err := chain.New(ctx, db, chain.WithWallets(2))
	require.NoError(t, err)
	_, err = ch.Deploy(ctx, bounty.New())
	require.NoError(t, err)

	return api.NewRouter(api.NewHandler(ch, repository.NewTaskRepositoryImpl(db)))
}

type receipt struct {
	Success bool           `json:"success"`
	Result  string         `json:"result"`
	Error   string         `json:"error"`
	Events  []entity.Event `json:"events"`
}

type block struct {
	Height   uint64    `json:"height"`
	Hash     string    `json:"hash"`
	Receipts []receipt `json:"receipts"`
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestMineBlockEndpoint_PostTask(t *testing.T) {
	server := setupTestServer(t)

	resp := postJSON(t, server.URL+"/blocks", map[string]any{
		"transactions": []map[string]any{{
			"contract": "job-bounty-board",
			"function": "post-task",
			"args":     []string{`u"Translate article"`, `u"Translate English to Yoruba"`, "u1000"},
			"sender":   "deployer",
		}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	got := decode[block](t, resp)
	require.Equal(t, uint64(1), got.Height)
	require.Len(t, got.Receipts, 1)
	require.True(t, got.Receipts[0].Success)
	require.Equal(t, "(ok u1)", got.Receipts[0].Result)
	require.NotEmpty(t, got.Receipts[0].Events)

	taskResp, err := http.Get(server.URL + "/tasks/1")
	require.NoError(t, err)
	defer taskResp.Body.Close()
	require.Equal(t, http.StatusOK, taskResp.StatusCode)

	task := decode[entity.Task](t, taskResp)
	require.Equal(t, "Translate article", task.Title)
	require.Equal(t, uint64(1000), task.Bounty)
	require.Equal(t, entity.TaskOpen, task.Status)

	blockResp, err := http.Get(server.URL + "/blocks/1")
	require.NoError(t, err)
	defer blockResp.Body.Close()
	require.Equal(t, got.Hash, decode[block](t, blockResp).Hash)
}

func TestMineBlockEndpoint_TransferAndErrors(t *testing.T) {
	server := setupTestServer(t)

	resp := postJSON(t, server.URL+"/blocks", map[string]any{
		"transactions": []map[string]any{
			{"type": "transfer-stx", "amount": 5, "recipient": "wallet_2", "sender": "wallet_1"},
			{"contract": "job-bounty-board", "function": "accept-task", "args": []string{"u1"}, "sender": "wallet_1"},
			{"contract": "job-bounty-board", "function": "fly", "sender": "wallet_1"},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	got := decode[block](t, resp)
	require.Len(t, got.Receipts, 3)
	require.Equal(t, "(ok true)", got.Receipts[0].Result)
	require.Equal(t, "(err u101)", got.Receipts[1].Result)
	require.Empty(t, got.Receipts[1].Events)
	require.Contains(t, got.Receipts[2].Error, "unknown function")

	bad := postJSON(t, server.URL+"/blocks", map[string]any{
		"transactions": []map[string]any{{"type": "mint"}},
	})
	require.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestReadOnlyEndpoint(t *testing.T) {
	server := setupTestServer(t)

	resp := postJSON(t, server.URL+"/contracts/job-bounty-board/read-only/get-task-count", map[string]any{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "u0", decode[map[string]string](t, resp)["result"])

	resp = postJSON(t, server.URL+"/contracts/job-bounty-board/read-only/get-task", map[string]any{"args": []string{"u1"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "none", decode[map[string]string](t, resp)["result"])

	resp = postJSON(t, server.URL+"/contracts/job-bounty-board/read-only/post-task", map[string]any{})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, server.URL+"/contracts/missing/read-only/get-task", map[string]any{})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAccountsEndpoints(t *testing.T) {
	server := setupTestServer(t)

	resp, err := http.Get(server.URL + "/accounts")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	accounts := decode[[]entity.Account](t, resp)
	require.Len(t, accounts, 3)

	one, err := http.Get(server.URL + "/accounts/wallet_1")
	require.NoError(t, err)
	defer one.Body.Close()
	require.Equal(t, chain.AddressFor("wallet_1"), decode[entity.Account](t, one).Address)

	missing, err := http.Get(server.URL + "/accounts/wallet_9")
	require.NoError(t, err)
	defer missing.Body.Close()
	require.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestTasksEndpoints_Empty(t *testing.T) {
	server := setupTestServer(t)

	resp, err := http.Get(server.URL + "/tasks")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Empty(t, decode[[]entity.Task](t, resp))

	missing, err := http.Get(server.URL + "/tasks/7")
	require.NoError(t, err)
	defer missing.Body.Close()
	require.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestHealthcheckEndpoint(t *testing.T) {
	server := setupTestServer(t)

	resp, err := http.Get(server.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	require.Equal(t, "ok", body["status"])
	require.Equal(t, float64(0), body["height"])

	postJSON(t, server.URL+"/blocks", map[string]any{"transactions": []map[string]any{}})

	again, err := http.Get(server.URL + "/healthz")
	require.NoError(t, err)
	defer again.Body.Close()
	require.Equal(t, float64(1), decode[map[string]any](t, again)["height"])
}

func TestMineBlockEndpoint_Limits(t *testing.T) {
	server := setupTestServer(t)

	// слишком глубокая вложенность становится ошибкой квитанции, а не падением
	deep := strings.Repeat("(ok ", 100_000) + "u1"
	resp := postJSON(t, server.URL+"/blocks", map[string]any{
		"transactions": []map[string]any{{
			"contract": "job-bounty-board",
			"function": "accept-task",
			"args":     []string{deep},
		}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	got := decode[block](t, resp)
	require.False(t, got.Receipts[0].Success)
	require.Contains(t, got.Receipts[0].Error, "nesting deeper than")
}

func TestMineBlockEndpoint_BodyTooLarge(t *testing.T) {
	raw, err := json.Marshal(map[string]any{
		"transactions": []map[string]any{{
			"contract": "job-bounty-board",
			"function": "accept-task",
			"args":     []string{strings.Repeat("u1", 1<<20)},
		}},
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	setupRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/blocks", bytes.NewReader(raw)))

	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestOutOfRangeIDs(t *testing.T) {
	server := setupTestServer(t)

	blockResp, err := http.Get(server.URL + "/blocks/9223372036854775808")
	require.NoError(t, err)
	defer blockResp.Body.Close()
	require.Equal(t, http.StatusNotFound, blockResp.StatusCode)

	taskResp, err := http.Get(server.URL + "/tasks/18446744073709551615")
	require.NoError(t, err)
	defer taskResp.Body.Close()
	require.Equal(t, http.StatusNotFound, taskResp.StatusCode)

	resp := postJSON(t, server.URL+"/contracts/job-bounty-board/read-only/get-task", map[string]any{
		"args": []string{"u18446744073709551615"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "none", decode[map[string]string](t, resp)["result"])
}
