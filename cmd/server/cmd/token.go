package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"storekeeper/internal/domain/session"
	"storekeeper/internal/infrastructure/storage/postgres"
)

var ownerID string

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Управление токенами доступа",
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Выпустить токен для владельца",
	Long: `Выпускает bearer-токен. Токен печатается один раз, в базе хранится только его хеш.

Клиент сохраняет токен командой:
  storekeeper auth login --owner <id> --token <token>`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		sessions, closeFn, err := openSessions(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		token, err := sessions.Create(cmd.Context(), ownerID)
		if err != nil {
			return fmt.Errorf("ошибка выпуска токена: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

var tokenRevokeCmd = &cobra.Command{
	Use:   "revoke",
	Short: "Отозвать все токены владельца",
	RunE: func(cmd *cobra.Command, _ []string) error {
		sessions, closeFn, err := openSessions(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		n, err := sessions.Revoke(cmd.Context(), ownerID)
		if err != nil {
			return fmt.Errorf("ошибка отзыва токенов: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Отозвано токенов: %d\n", n)
		return nil
	},
}

func openSessions(cmd *cobra.Command) (*session.Service, func(), error) {
	storage, err := postgres.New(cmd.Context(), cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("ошибка подключения к базе: %w", err)
	}
	repo := postgres.NewSessionRepository(storage, log)
	return session.NewService(repo, cfg.Server.TokenTTL, log), func() { _ = storage.Close() }, nil
}

func init() {
	tokenCmd.PersistentFlags().StringVar(&ownerID, "owner", "", "ID владельца (магазина)")
	_ = tokenCmd.MarkPersistentFlagRequired("owner")
	tokenCmd.AddCommand(tokenIssueCmd, tokenRevokeCmd)
}
