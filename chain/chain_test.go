package chain_test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/qrave1/bounty-board/chain"
	"github.com/qrave1/bounty-board/entity"
	"github.com/qrave1/bounty-board/repository"
	"github.com/qrave1/bounty-board/value"
)

// vault хранит депозиты на собственном адресе
type vault struct{}

func (vault) Name() string { return "vault" }

func (vault) Functions() map[string]chain.Function {
	return map[string]chain.Function{
		"deposit": {
			Params: []chain.Param{{Name: "amount", Kind: value.KindUInt}},
			Handler: func(cc *chain.CallContext, args []value.Value) (value.Value, error) {
				res, err := cc.Ledger().Transfer(uint64(args[0].(value.UInt)), cc.Sender(), cc.ContractPrincipal())
				if err != nil || !res.Ok {
					return res, err
				}
				cc.Print(value.Tuple{"event": value.StringASCII("deposit"), "amount": args[0]})
				return value.Ok(args[0]), nil
			},
		},
		"deposit-then-fail": {
			Params: []chain.Param{{Name: "amount", Kind: value.KindUInt}},
			Handler: func(cc *chain.CallContext, args []value.Value) (value.Value, error) {
				if _, err := cc.Ledger().Transfer(uint64(args[0].(value.UInt)), cc.Sender(), cc.ContractPrincipal()); err != nil {
					return nil, err
				}
				return value.Err(value.UInt(7)), nil
			},
		},
		"note": {
			Params: []chain.Param{{Name: "text", Kind: value.KindStringUTF8, MaxLen: 5}},
			Handler: func(cc *chain.CallContext, args []value.Value) (value.Value, error) {
				return value.Ok(args[0]), nil
			},
		},
		"boom": {
			Handler: func(cc *chain.CallContext, args []value.Value) (value.Value, error) {
				return nil, errors.New("boom")
			},
		},
		"bare": {
			Handler: func(cc *chain.CallContext, args []value.Value) (value.Value, error) {
				return value.UInt(1), nil
			},
		},
		"sneak": {
			ReadOnly: true,
			Handler: func(cc *chain.CallContext, args []value.Value) (value.Value, error) {
				if _, err := cc.Ledger().Transfer(100, cc.Sender(), cc.ContractPrincipal()); err != nil {
					return nil, err
				}
				b, err := cc.Ledger().Balance(cc.ContractPrincipal())
				return value.UInt(b), err
			},
		},
		"get-balance": {
			ReadOnly: true,
			Handler: func(cc *chain.CallContext, args []value.Value) (value.Value, error) {
				b, err := cc.Ledger().Balance(cc.ContractPrincipal())
				return value.UInt(b), err
			},
		},
	}
}

func newChain(t *testing.T, opts ...chain.Option) *chain.Chain {
	t.Helper()
	ctx := context.Background()

	db, err := repository.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	opts = append([]chain.Option{chain.WithWallets(2), chain.WithInitialBalance(1_000_000)}, opts...)
	c, err := chain.New(ctx, db, opts...)
	require.NoError(t, err)

	_, err = c.Deploy(ctx, vault{})
	require.NoError(t, err)

	return c
}

func balance(t *testing.T, c *chain.Chain, account string) uint64 {
	t.Helper()
	acc, err := c.Account(context.Background(), account)
	require.NoError(t, err)
	return acc.Balance
}

func TestNew_Genesis(t *testing.T) {
	require := require.New(t)
	c := newChain(t)

	accounts, err := c.Accounts(context.Background())
	require.NoError(err)
	require.Len(accounts, 3)
	require.Equal("deployer", accounts[0].Name)
	require.Equal("wallet_1", accounts[1].Name)
	require.Equal(chain.AddressFor("wallet_2"), accounts[2].Address)
	require.Equal(uint64(1_000_000), accounts[2].Balance)
	require.True(value.ValidPrincipal(accounts[0].Address))

	require.Zero(c.Height())
	genesis, err := c.Block(context.Background(), 0)
	require.NoError(err)
	require.Empty(genesis.Receipts)
}

func TestNew_RejectsOverflowingSupply(t *testing.T) {
	db, err := repository.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	defer db.Close()

	_, err = chain.New(context.Background(), db, chain.WithInitialBalance(1<<62))
	require.Error(t, err)
}

func TestNew_ReopensExistingChain(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	db, err := repository.Open(ctx, ":memory:")
	require.NoError(err)
	defer db.Close()

	first, err := chain.New(ctx, db, chain.WithWallets(1))
	require.NoError(err)
	_, err = first.MineBlock(ctx, nil)
	require.NoError(err)

	second, err := chain.New(ctx, db, chain.WithWallets(5))
	require.NoError(err)
	require.Equal(uint64(1), second.Height())

	accounts, err := second.Accounts(ctx)
	require.NoError(err)
	require.Len(accounts, 2)
}

func TestMineBlock_OkCommits(t *testing.T) {
	require := require.New(t)
	c := newChain(t)

	block, err := c.MineBlock(context.Background(), []entity.Tx{
		chain.ContractCall("vault", "deposit", []string{"u250"}, "wallet_1"),
	})
	require.NoError(err)
	require.Equal(uint64(1), block.Height)
	require.Len(block.Receipts, 1)

	receipt := block.Receipts[0]
	inner, err := value.ExpectOk(receipt.Result)
	require.NoError(err)
	amount, err := value.ExpectUint(inner)
	require.NoError(err)
	require.Equal(uint64(250), amount)

	require.Len(receipt.Events, 2)
	require.Equal(entity.EventSTXTransfer, receipt.Events[0].Type)
	require.Equal(entity.EventPrint, receipt.Events[1].Type)
	require.Equal(`{amount: u250, event: "deposit"}`, receipt.Events[1].Value)

	require.Equal(uint64(999_750), balance(t, c, "wallet_1"))

	got, err := c.CallReadOnly(context.Background(), "vault", "get-balance", nil, "deployer")
	require.NoError(err)
	require.Equal(value.UInt(250), got)
}

func TestMineBlock_ErrResponseRollsBack(t *testing.T) {
	require := require.New(t)
	c := newChain(t)

	block, err := c.MineBlock(context.Background(), []entity.Tx{
		chain.ContractCall("vault", "deposit-then-fail", []string{"u500"}, "wallet_1"),
		chain.ContractCall("vault", "deposit", []string{"u5"}, "wallet_1"),
	})
	require.NoError(err)

	code, err := value.ExpectErr(block.Receipts[0].Result)
	require.NoError(err)
	require.Equal(value.UInt(7), code)
	require.Empty(block.Receipts[0].Events)

	require.True(block.Receipts[1].Success())
	require.Equal(uint64(999_995), balance(t, c, "wallet_1"))
}

func TestMineBlock_RuntimeErrors(t *testing.T) {
	c := newChain(t)

	tests := []struct {
		name string
		tx   entity.Tx
		want string
	}{
		{"unknown contract", chain.ContractCall("nope", "deposit", []string{"u1"}, "deployer"), "unknown contract"},
		{"unknown function", chain.ContractCall("vault", "withdraw", nil, "deployer"), "unknown function"},
		{"arity", chain.ContractCall("vault", "deposit", nil, "deployer"), "expects 1 arguments, got 0"},
		{"bad literal", chain.ContractCall("vault", "deposit", []string{"1000u"}, "deployer"), "invalid value literal"},
		{"wrong type", chain.ContractCall("vault", "deposit", []string{"true"}, "deployer"), "amount must be uint, got bool"},
		{"too long", chain.ContractCall("vault", "note", []string{`u"toolong"`}, "deployer"), "longer than 5"},
		{"handler error", chain.ContractCall("vault", "boom", nil, "deployer"), "boom"},
		{"not a response", chain.ContractCall("vault", "bare", nil, "deployer"), "must return a response"},
		{"read-only via tx", chain.ContractCall("vault", "get-balance", nil, "deployer"), "read-only"},
		{"unknown sender", chain.ContractCall("vault", "deposit", []string{"u1"}, "wallet_99"), "unknown account"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			block, err := c.MineBlock(context.Background(), []entity.Tx{tt.tx})
			require.NoError(t, err)

			receipt := block.Receipts[0]
			require.Nil(t, receipt.Result)
			require.Contains(t, receipt.Error, tt.want)
			require.False(t, receipt.Success())
		})
	}
}

func TestMineBlock_TransferSTX(t *testing.T) {
	require := require.New(t)
	c := newChain(t)

	block, err := c.MineBlock(context.Background(), []entity.Tx{
		chain.TransferSTX(100, "wallet_2", "wallet_1"),
		chain.TransferSTX(2_000_000, "wallet_2", "wallet_1"),
		chain.TransferSTX(1, "wallet_1", "wallet_1"),
		chain.TransferSTX(0, "wallet_2", "wallet_1"),
		chain.TransferSTX(7, "vault", "wallet_1"),
	})
	require.NoError(err)

	require.True(block.Receipts[0].Success())
	for i, code := range []uint64{
		chain.TransferInsufficientBalance,
		chain.TransferSameRecipient,
		chain.TransferNonPositiveAmount,
	} {
		got, err := value.ExpectErr(block.Receipts[i+1].Result)
		require.NoError(err)
		require.Equal(value.UInt(code), got)
	}
	require.True(block.Receipts[4].Success())

	require.Equal(uint64(999_893), balance(t, c, "wallet_1"))
	require.Equal(uint64(1_000_100), balance(t, c, "wallet_2"))
}

func TestMineBlock_HeightsAndPersistence(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	clock := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	c := newChain(t, chain.WithClock(func() time.Time { return clock }))

	first, err := c.MineBlock(ctx, nil)
	require.NoError(err)
	second, err := c.MineBlock(ctx, []entity.Tx{chain.ContractCall("vault", "deposit", []string{"u1"}, "deployer")})
	require.NoError(err)

	require.Equal(uint64(1), first.Height)
	require.Equal(uint64(2), second.Height)
	require.Equal(first.Hash, second.ParentHash)
	require.NotEqual(first.Hash, second.Hash)
	require.Equal(uint64(2), c.Height())

	stored, err := c.Block(ctx, 2)
	require.NoError(err)
	require.Equal(second.Hash, stored.Hash)
	require.Len(stored.Receipts, 1)
	require.Equal(second.Receipts[0].Tx.ID, stored.Receipts[0].Tx.ID)
	require.True(value.Equal(second.Receipts[0].Result, stored.Receipts[0].Result))
}

func TestCallReadOnly_RejectsPublicFunctions(t *testing.T) {
	c := newChain(t)

	_, err := c.CallReadOnly(context.Background(), "vault", "deposit", []string{"u1"}, "deployer")
	require.ErrorIs(t, err, chain.ErrReadOnly)

	_, err = c.CallReadOnly(context.Background(), "missing", "f", nil, "deployer")
	require.ErrorIs(t, err, chain.ErrUnknownContract)
}

func TestDeploy_Twice(t *testing.T) {
	c := newChain(t)

	_, err := c.Deploy(context.Background(), vault{})
	require.ErrorIs(t, err, chain.ErrContractExists)
}

func TestCallReadOnly_DiscardsWrites(t *testing.T) {
	require := require.New(t)
	c := newChain(t)

	got, err := c.CallReadOnly(context.Background(), "vault", "sneak", nil, "wallet_1")
	require.NoError(err)
	require.Equal(value.UInt(100), got)

	require.Equal(uint64(1_000_000), balance(t, c, "wallet_1"))
	got, err = c.CallReadOnly(context.Background(), "vault", "get-balance", nil, "deployer")
	require.NoError(err)
	require.Equal(value.UInt(0), got)
	require.Zero(c.Height())
}

func TestChain_ConcurrentMineAndRead(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	c := newChain(t)

	const workers = 16

	var (
		wg      sync.WaitGroup
		heights = make(chan uint64, workers)
		errs    = make(chan error, 2*workers)
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			block, err := c.MineBlock(ctx, []entity.Tx{
				chain.ContractCall("vault", "deposit", []string{"u1"}, "wallet_1"),
			})
			if err != nil {
				errs <- err
				return
			}
			if !block.Receipts[0].Success() {
				errs <- fmt.Errorf("block %d: %s", block.Height, block.Receipts[0].Error)
			}
			heights <- block.Height

			if _, err := c.CallReadOnly(ctx, "vault", "get-balance", nil, "deployer"); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(heights)
	close(errs)

	for err := range errs {
		require.NoError(err)
	}

	var got []uint64
	for h := range heights {
		got = append(got, h)
	}
	slices.Sort(got)
	want := make([]uint64, workers)
	for i := range want {
		want[i] = uint64(i + 1)
	}
	require.Equal(want, got)
	require.Equal(uint64(workers), c.Height())

	res, err := c.CallReadOnly(ctx, "vault", "get-balance", nil, "deployer")
	require.NoError(err)
	require.Equal(value.UInt(workers), res)
}

func TestBlock_HeightBeyondInt64(t *testing.T) {
	_, err := newChain(t).Block(context.Background(), 1<<63)
	require.ErrorIs(t, err, repository.ErrBlockNotFound)
}

func TestMineBlock_FreshPrincipalCanSend(t *testing.T) {
	require := require.New(t)
	c := newChain(t)
	stranger := chain.AddressFor("stranger")

	block, err := c.MineBlock(context.Background(), []entity.Tx{
		chain.TransferSTX(500, stranger, "wallet_1"),
	})
	require.NoError(err)
	require.True(block.Receipts[0].Success())

	block, err = c.MineBlock(context.Background(), []entity.Tx{
		chain.TransferSTX(200, "wallet_2", stranger),
		chain.ContractCall("vault", "deposit", []string{"u50"}, stranger),
	})
	require.NoError(err)
	require.True(block.Receipts[0].Success(), block.Receipts[0].Error)
	require.True(block.Receipts[1].Success(), block.Receipts[1].Error)
	require.Equal(uint64(250), balance(t, c, stranger))

	// с адреса контракта подписывать нельзя, даже если у него есть баланс
	block, err = c.MineBlock(context.Background(), []entity.Tx{
		chain.TransferSTX(1, "wallet_2", c.Deployer()+".vault"),
	})
	require.NoError(err)
	require.Contains(block.Receipts[0].Error, "is a contract")
}
