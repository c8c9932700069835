package main

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/qrave1/bounty-board/api"
	"github.com/qrave1/bounty-board/bot"
	"github.com/qrave1/bounty-board/chain"
	"github.com/qrave1/bounty-board/config"
	"github.com/qrave1/bounty-board/contract/bounty"
	"github.com/qrave1/bounty-board/entity"
	"github.com/qrave1/bounty-board/repository"
)

func newRootCmd() *cobra.Command {
	var cfg *config.Config

	root := &cobra.Command{
		Use:           "bounty-board",
		Short:         "Доска заданий с вознаграждением на симулированной цепочке",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.New()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			setupLogger(cfg)
			return nil
		},
	}

	// cfg заполняется в PersistentPreRunE, поэтому передаём указатель на него
	root.AddCommand(
		newServeCmd(&cfg),
		newBotCmd(&cfg),
		newCallCmd(&cfg),
		newReadCmd(&cfg),
		newAccountsCmd(&cfg),
	)

	return root
}

func newServeCmd(cfg **config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "HTTP API цепочки и доски заданий",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, ch, err := openChain(cmd.Context(), *cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			handler := api.NewHandler(ch, repository.NewTaskRepositoryImpl(db))
			server := api.NewServer((*cfg).HTTP.Addr, api.NewRouter(handler))

			return serveUntil(server, signalled())
		},
	}
}

type runStopper interface {
	Run() error
	Stop() error
}

// serveUntil возвращается только после завершения Stop, иначе база
// закрылась бы раньше, чем доработают активные запросы
func serveUntil(server runStopper, stop <-chan struct{}) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Run()
	}()

	select {
	case err := <-errCh:
		return err
	case <-stop:
	}

	if err := server.Stop(); err != nil {
		slog.Error("failed to stop server", slog.String("error", err.Error()))
	}

	return <-errCh
}

func newBotCmd(cfg **config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Telegram-бот доски заданий",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			db, ch, err := openChain(ctx, *cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			b, err := bot.NewBotik(
				*cfg,
				ch,
				repository.NewTaskRepositoryImpl(db),
				repository.NewChatRepositoryImpl(db),
			)
			if err != nil {
				return err
			}

			b.Start(ctx)
			waitForSignal()
			b.Stop()

			return nil
		},
	}
}

func newCallCmd(cfg **config.Config) *cobra.Command {
	var sender string

	cmd := &cobra.Command{
		Use:     "call <function> [args...]",
		Short:   "Смайнить блок с одним вызовом контракта",
		Example: `bounty-board call post-task 'u"Translate article"' 'u"English to Yoruba"' u1000 --sender wallet_1`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			db, ch, err := openChain(ctx, *cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			block, err := ch.MineBlock(ctx, []entity.Tx{
				chain.ContractCall(bounty.Name, args[0], args[1:], sender),
			})
			if err != nil {
				return err
			}

			r := block.Receipts[0]
			if r.Error != "" {
				return fmt.Errorf("block %d: %s", block.Height, r.Error)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "block %d: %s\n", block.Height, r.Result)
			for _, e := range r.Events {
				fmt.Fprintf(out, "  %s\n", eventLine(e))
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&sender, "sender", "s", chain.DeployerName, "имя или адрес отправителя")

	return cmd
}

func eventLine(e entity.Event) string {
	if e.Type == entity.EventSTXTransfer {
		return fmt.Sprintf("%s %d %s -> %s", e.Type, e.Amount, e.Sender, e.Recipient)
	}
	return fmt.Sprintf("%s %s", e.Type, e.Value)
}

func newReadCmd(cfg **config.Config) *cobra.Command {
	var sender string

	cmd := &cobra.Command{
		Use:   "read <function> [args...]",
		Short: "Вызвать read-only функцию контракта",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			db, ch, err := openChain(ctx, *cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			res, err := ch.CallReadOnly(ctx, bounty.Name, args[0], args[1:], sender)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), res.String())
			return nil
		},
	}

	cmd.Flags().StringVarP(&sender, "sender", "s", chain.DeployerName, "имя или адрес отправителя")

	return cmd
}

func newAccountsCmd(cfg **config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "accounts",
		Short: "Список аккаунтов и балансов",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			db, ch, err := openChain(ctx, *cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			accounts, err := ch.Accounts(ctx)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(accounts)
		},
	}
}
