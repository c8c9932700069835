// Package chain Симуляция цепочки из одного узла: аккаунты с балансами STX,
// контракты на Go под адресом deployer и блоки транзакций, в квитанциях
// которых лежит ok/err результат.
//
// Каждая транзакция выполняется в savepoint внутри транзакции блока.
// Результат (err ...) или ошибка выполнения откатывают savepoint, остаётся
// только квитанция.
package chain

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/base32"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/qrave1/bounty-board/entity"
	"github.com/qrave1/bounty-board/repository"
	"github.com/qrave1/bounty-board/value"
)

const (
	DeployerName = "deployer"

	DefaultWallets        = 8
	DefaultInitialBalance = 100_000_000_000_000
)

var (
	ErrUnknownContract = errors.New("unknown contract")
	ErrUnknownFunction = errors.New("unknown function")
	ErrUnknownAccount  = errors.New("unknown account")
	ErrArgument        = errors.New("invalid arguments")
	ErrNotResponse     = errors.New("public function must return a response")
	ErrReadOnly        = errors.New("read-only mismatch")
	ErrContractExists  = errors.New("contract already deployed")
)

// WalletName имя n-го кошелька, нумерация с 1
func WalletName(n int) string {
	return fmt.Sprintf("wallet_%d", n)
}

// IsContract отличает адрес контракта (<deployer>.<name>) от адреса аккаунта
func IsContract(principal string) bool {
	return strings.Contains(principal, ".")
}

// AddressFor выводит постоянный адрес аккаунта из его имени
func AddressFor(name string) string {
	sum := sha256.Sum256([]byte(name))
	enc := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(sum[:])
	return "ST" + enc[:38]
}

type Chain struct {
	db *sql.DB

	mu        sync.Mutex
	height    uint64
	lastHash  string
	deployer  string
	contracts map[string]Contract

	wallets        int
	initialBalance uint64
	now            func() time.Time
}

type Option func(*Chain)

func WithWallets(n int) Option {
	return func(c *Chain) {
		if n >= 0 {
			c.wallets = n
		}
	}
}

func WithInitialBalance(amount uint64) Option {
	return func(c *Chain) { c.initialBalance = amount }
}

func WithClock(now func() time.Time) Option {
	return func(c *Chain) { c.now = now }
}

// New открывает цепочку из db, при первом запуске пишет генезис.
// Число кошельков и баланс влияют только на генезис.
func New(ctx context.Context, db *sql.DB, opts ...Option) (*Chain, error) {
	c := &Chain{
		db:             db,
		deployer:       AddressFor(DeployerName),
		contracts:      make(map[string]Contract),
		wallets:        DefaultWallets,
		initialBalance: DefaultInitialBalance,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.initialBalance > math.MaxInt64/uint64(c.wallets+1) {
		return nil, fmt.Errorf("initial balance %d overflows total supply", c.initialBalance)
	}

	if err := repository.Migrate(ctx, db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	last, err := repository.NewBlockRepositoryImpl(db).Last(ctx)
	switch {
	case errors.Is(err, repository.ErrBlockNotFound):
		if err := c.genesis(ctx); err != nil {
			return nil, fmt.Errorf("genesis: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("load chain tip: %w", err)
	default:
		c.height = last.Height
		c.lastHash = last.Hash
	}

	slog.Info("chain ready",
		slog.Uint64("height", c.height),
		slog.String("deployer", c.deployer),
	)

	return c, nil
}

func (c *Chain) genesis(ctx context.Context) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	accounts := repository.NewAccountRepositoryImpl(tx)

	names := []string{DeployerName}
	for i := 1; i <= c.wallets; i++ {
		names = append(names, WalletName(i))
	}
	for _, name := range names {
		err := accounts.Create(ctx, entity.Account{
			Name:    name,
			Address: AddressFor(name),
			Balance: c.initialBalance,
		})
		if err != nil {
			return fmt.Errorf("create account %s: %w", name, err)
		}
	}

	block := &entity.Block{
		Height:     0,
		ParentHash: strings.Repeat("0", 64),
		MinedAt:    c.now().UTC(),
	}
	block.Hash = blockHash(block)

	if err := repository.NewBlockRepositoryImpl(tx).Create(ctx, block); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	c.height = 0
	c.lastHash = block.Hash
	return nil
}

// Deployer адрес, под которым деплоятся контракты
func (c *Chain) Deployer() string { return c.deployer }

// Height высота последнего блока
func (c *Chain) Height() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.height
}

// Deploy регистрирует контракт как <deployer>.<name>. Повторный деплой в
// том же Chain запрещён, после перезапуска запись в базе уже есть.
func (c *Chain) Deploy(ctx context.Context, contract Contract) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	principal := c.deployer + "." + contract.Name()
	if !value.ValidPrincipal(principal) {
		return "", fmt.Errorf("invalid contract name %q", contract.Name())
	}
	if _, ok := c.contracts[principal]; ok {
		return "", fmt.Errorf("%w: %s", ErrContractExists, principal)
	}

	repo := repository.NewContractRepositoryImpl(c.db)
	exists, err := repo.Exists(ctx, principal)
	if err != nil {
		return "", err
	}
	if !exists {
		err := repo.Create(ctx, entity.Contract{
			Principal:  principal,
			Name:       contract.Name(),
			Deployer:   c.deployer,
			DeployedAt: c.height,
		})
		if err != nil {
			return "", err
		}
	}

	c.contracts[principal] = contract
	slog.Info("contract deployed", slog.String("contract", principal))

	return principal, nil
}

// ContractCall собирает вызов публичной функции. Аргументы передаются
// литералами: u"title", u1000.
func ContractCall(contract, function string, args []string, sender string) entity.Tx {
	return entity.Tx{
		ID:       uuid.NewString(),
		Kind:     entity.TxContractCall,
		Sender:   sender,
		Contract: contract,
		Function: function,
		Args:     args,
	}
}

// TransferSTX собирает обычный перевод STX
func TransferSTX(amount uint64, recipient, sender string) entity.Tx {
	return entity.Tx{
		ID:        uuid.NewString(),
		Kind:      entity.TxTransferSTX,
		Sender:    sender,
		Recipient: recipient,
		Amount:    amount,
	}
}

// MineBlock выполняет транзакции по порядку и добавляет блок с квитанцией
// на каждую. Отправитель задаётся именем (deployer, wallet_1) или адресом.
func (c *Chain) MineBlock(ctx context.Context, txs []entity.Tx) (*entity.Block, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	height := c.height + 1

	dbtx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin block %d: %w", height, err)
	}
	defer dbtx.Rollback()

	block := &entity.Block{
		Height:     height,
		ParentHash: c.lastHash,
		MinedAt:    c.now().UTC(),
		Receipts:   make([]entity.Receipt, 0, len(txs)),
	}

	for i, tx := range txs {
		if tx.ID == "" {
			tx.ID = uuid.NewString()
		}

		receipt, err := c.execute(ctx, dbtx, height, i, tx)
		if err != nil {
			return nil, fmt.Errorf("block %d tx %d: %w", height, i, err)
		}
		block.Receipts = append(block.Receipts, receipt)
	}

	block.Hash = blockHash(block)

	if err := repository.NewBlockRepositoryImpl(dbtx).Create(ctx, block); err != nil {
		return nil, fmt.Errorf("store block %d: %w", height, err)
	}
	if err := dbtx.Commit(); err != nil {
		return nil, fmt.Errorf("commit block %d: %w", height, err)
	}

	c.height = height
	c.lastHash = block.Hash

	slog.Debug("block mined",
		slog.Uint64("height", height),
		slog.Int("txs", len(txs)),
		slog.String("hash", block.Hash),
	)

	return block, nil
}

// execute выполняет транзакцию в savepoint. Ошибки контракта попадают в
// квитанцию, возвращаемая ошибка означает, что блок продолжить нельзя.
func (c *Chain) execute(ctx context.Context, dbtx *sql.Tx, height uint64, index int, tx entity.Tx) (entity.Receipt, error) {
	savepoint := fmt.Sprintf("tx_%d", index)
	if _, err := dbtx.ExecContext(ctx, "SAVEPOINT "+savepoint); err != nil {
		return entity.Receipt{}, err
	}

	cc := c.newCallContext(ctx, dbtx, height)
	result, runErr := c.run(cc, tx)

	receipt := entity.Receipt{Tx: tx, Result: result, Events: cc.events}
	if runErr != nil {
		receipt.Result = nil
		receipt.Error = runErr.Error()
	}

	if !receipt.Success() {
		if _, err := dbtx.ExecContext(ctx, "ROLLBACK TO "+savepoint); err != nil {
			return entity.Receipt{}, err
		}
		receipt.Events = nil
	}
	if _, err := dbtx.ExecContext(ctx, "RELEASE "+savepoint); err != nil {
		return entity.Receipt{}, err
	}

	if runErr != nil {
		slog.Debug("transaction aborted",
			slog.String("tx_id", tx.ID),
			slog.String("error", runErr.Error()),
		)
	}

	return receipt, nil
}

func (c *Chain) newCallContext(ctx context.Context, db repository.DBTX, height uint64) *CallContext {
	cc := &CallContext{ctx: ctx, db: db, height: height}
	cc.ledger = &Ledger{
		ctx:      ctx,
		accounts: repository.NewAccountRepositoryImpl(db),
		emit:     cc.emit,
	}
	return cc
}

func (c *Chain) run(cc *CallContext, tx entity.Tx) (value.Value, error) {
	sender, err := c.resolveSender(cc.ctx, cc.db, tx.Sender)
	if err != nil {
		return nil, err
	}
	cc.sender = sender

	switch tx.Kind {
	case entity.TxTransferSTX:
		recipient, err := c.resolvePrincipal(cc.ctx, cc.db, tx.Recipient)
		if err != nil {
			return nil, err
		}
		return cc.ledger.Transfer(tx.Amount, sender, recipient)
	case entity.TxContractCall:
		return c.call(cc, tx.Contract, tx.Function, tx.Args, false)
	}

	return nil, fmt.Errorf("unsupported transaction kind %q", tx.Kind)
}

func (c *Chain) call(cc *CallContext, contractID, function string, rawArgs []string, readOnly bool) (value.Value, error) {
	principal := c.contractPrincipal(contractID)
	contract, ok := c.contracts[principal]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownContract, contractID)
	}

	fn, ok := contract.Functions()[function]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownFunction, contract.Name(), function)
	}
	if fn.ReadOnly != readOnly {
		if fn.ReadOnly {
			return nil, fmt.Errorf("%w: %s is read-only", ErrReadOnly, function)
		}
		return nil, fmt.Errorf("%w: %s is public", ErrReadOnly, function)
	}

	args, err := value.ParseAll(rawArgs)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrArgument, function, err)
	}
	if err := checkArgs(function, fn.Params, args); err != nil {
		return nil, err
	}

	cc.contract = principal
	result, err := fn.Handler(cc, args)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, fmt.Errorf("%s returned no value", function)
	}
	if !readOnly && result.Kind() != value.KindResponse {
		return nil, fmt.Errorf("%w: %s returned %s", ErrNotResponse, function, result.Kind())
	}

	return result, nil
}

// CallReadOnly вызывает read-only функцию на текущем состоянии.
// Ничего из сделанного не сохраняется.
func (c *Chain) CallReadOnly(ctx context.Context, contract, function string, args []string, sender string) (value.Value, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	dbtx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer dbtx.Rollback()

	cc := c.newCallContext(ctx, dbtx, c.height)
	cc.sender, err = c.resolveSender(ctx, dbtx, sender)
	if err != nil {
		return nil, err
	}

	return c.call(cc, contract, function, args, true)
}

func (c *Chain) contractPrincipal(id string) string {
	if strings.Contains(id, ".") {
		return id
	}
	return c.deployer + "." + id
}

// resolveSender принимает имя аккаунта или адрес известного аккаунта
func (c *Chain) resolveSender(ctx context.Context, db repository.DBTX, sender string) (string, error) {
	if sender == "" {
		return c.deployer, nil
	}

	accounts := repository.NewAccountRepositoryImpl(db)
	acc, err := accounts.GetByName(ctx, sender)
	if errors.Is(err, repository.ErrAccountNotFound) {
		acc, err = accounts.GetByAddress(ctx, sender)
	}
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return "", fmt.Errorf("%w: %s", ErrUnknownAccount, sender)
		}
		return "", err
	}
	if IsContract(acc.Address) {
		return "", fmt.Errorf("%w: %s is a contract", ErrUnknownAccount, sender)
	}

	return acc.Address, nil
}

// resolvePrincipal принимает имя аккаунта, имя контракта или любой корректный адрес
func (c *Chain) resolvePrincipal(ctx context.Context, db repository.DBTX, target string) (string, error) {
	acc, err := repository.NewAccountRepositoryImpl(db).GetByName(ctx, target)
	if err == nil {
		return acc.Address, nil
	}
	if !errors.Is(err, repository.ErrAccountNotFound) {
		return "", err
	}

	if _, ok := c.contracts[c.contractPrincipal(target)]; ok {
		return c.contractPrincipal(target), nil
	}

	target = strings.TrimPrefix(target, "'")
	if !value.ValidPrincipal(target) {
		return "", fmt.Errorf("%w: %s", ErrUnknownAccount, target)
	}
	return target, nil
}

// Account ищет аккаунт по имени или адресу
func (c *Chain) Account(ctx context.Context, nameOrAddress string) (*entity.Account, error) {
	accounts := repository.NewAccountRepositoryImpl(c.db)

	acc, err := accounts.GetByName(ctx, nameOrAddress)
	if errors.Is(err, repository.ErrAccountNotFound) {
		acc, err = accounts.GetByAddress(ctx, nameOrAddress)
	}
	if errors.Is(err, repository.ErrAccountNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAccount, nameOrAddress)
	}
	return acc, err
}

func (c *Chain) Accounts(ctx context.Context) ([]entity.Account, error) {
	return repository.NewAccountRepositoryImpl(c.db).List(ctx)
}

func (c *Chain) Block(ctx context.Context, height uint64) (*entity.Block, error) {
	return repository.NewBlockRepositoryImpl(c.db).GetByHeight(ctx, height)
}

func blockHash(b *entity.Block) string {
	h := sha256.New()
	fmt.Fprintf(h, "%d:%s:%d", b.Height, b.ParentHash, b.MinedAt.UnixNano())
	for _, r := range b.Receipts {
		fmt.Fprintf(h, ":%s", r.Tx.ID)
		if r.Result != nil {
			fmt.Fprintf(h, "=%s", r.Result.String())
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}
