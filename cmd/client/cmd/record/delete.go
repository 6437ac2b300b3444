package record

import (
	"fmt"

	"github.com/spf13/cobra"

	"storekeeper/cmd/client/cmd/common"
)

var DeleteCmd = &cobra.Command{
	Use:   "delete <type> <id>",
	Short: "Удалить запись",
	Long: `Удаление записи. В офлайн-режиме вместе с документом удаляются его позиции.
Удаление не отправляется на сервер при синхронизации.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := common.App(cmd)
		if err != nil {
			return err
		}

		t, err := common.ParseType(args[0])
		if err != nil {
			return err
		}

		if err := app.Facade().Delete(cmd.Context(), t, args[1]); err != nil {
			return fmt.Errorf("ошибка удаления записи: %w", err)
		}

		fmt.Printf("%s Запись удалена: %s\n", common.Success("✓"), args[1])
		return nil
	},
}
