package record

import (
	"fmt"

	"github.com/spf13/cobra"

	"storekeeper/cmd/client/cmd/common"
)

var updateData string

var UpdateCmd = &cobra.Command{
	Use:   "update <type> <id>",
	Short: "Изменить запись",
	Long: `Частичное изменение записи: переданные поля заменяют существующие.
Служебные поля (id, владелец, дата создания, статус синхронизации) не меняются.`,
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

		patch, err := common.ParseData(updateData)
		if err != nil {
			return err
		}

		rec, err := app.Facade().Update(cmd.Context(), t, args[1], patch)
		if err != nil {
			return fmt.Errorf("ошибка обновления записи: %w", err)
		}

		if common.JSONOutput {
			return common.PrintJSON(rec)
		}
		fmt.Printf("%s Запись обновлена: %s\n", common.Success("✓"), args[1])
		return nil
	},
}

func init() {
	UpdateCmd.Flags().StringVarP(&updateData, "data", "d", "", "изменяемые поля в формате JSON")
}
