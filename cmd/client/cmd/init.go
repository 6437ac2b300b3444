// cmd/client/cmd/init.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"storekeeper/cmd/client/cmd/auth"
	"storekeeper/cmd/client/cmd/common"
	"storekeeper/cmd/client/cmd/mode"
	"storekeeper/cmd/client/cmd/record"
	"storekeeper/cmd/client/cmd/shop"
	"storekeeper/cmd/client/cmd/sync"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Инициализировать клиент",
	Long: `Команда init выполняет первоначальную настройку клиента:
	1. Создаёт локальную базу и применяет миграции
	2. Проверяет соединение с сервером`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		fmt.Println("=== Инициализация Storekeeper ===")
		fmt.Println()

		fmt.Println("Создание локальной базы...")
		if err := app.InitStorage(cmd.Context()); err != nil {
			return err
		}
		fmt.Printf("%s База: %s\n", common.Success("✓"), cfg.DataPath)

		fmt.Println("Проверка соединения с сервером...")
		if err := app.CheckConnection(cmd.Context()); err != nil {
			fmt.Printf("%s Не удалось подключиться к серверу: %v\n", common.Warning("⚠"), err)
			fmt.Println("Можно работать офлайн: storekeeper mode offline")
		} else {
			fmt.Printf("%s Соединение с сервером установлено\n", common.Success("✓"))
		}

		fmt.Println()
		fmt.Println("Что дальше:")
		fmt.Println("1. Получите токен у администратора: storekeeper-server token issue --owner <id>")
		fmt.Println("2. Сохраните его: storekeeper auth login --owner <id>")
		fmt.Println("3. Создайте первый товар: storekeeper record create products --data '{\"name\":\"...\"}'")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)

	rootCmd.AddCommand(auth.AuthCmd)
	auth.AuthCmd.AddCommand(auth.LoginCmd)
	auth.AuthCmd.AddCommand(auth.LogoutCmd)
	auth.AuthCmd.AddCommand(auth.StatusCmd)

	rootCmd.AddCommand(record.RecordCmd)
	record.RecordCmd.AddCommand(record.CreateCmd)
	record.RecordCmd.AddCommand(record.GetCmd)
	record.RecordCmd.AddCommand(record.ListCmd)
	record.RecordCmd.AddCommand(record.UpdateCmd)
	record.RecordCmd.AddCommand(record.DeleteCmd)

	rootCmd.AddCommand(mode.ModeCmd)

	rootCmd.AddCommand(sync.SyncCmd)
	sync.SyncCmd.AddCommand(sync.UploadCmd)
	sync.SyncCmd.AddCommand(sync.DownloadCmd)

	rootCmd.AddCommand(shop.StatsCmd)
	rootCmd.AddCommand(shop.LowStockCmd)
	rootCmd.AddCommand(shop.NextBarcodeCmd)
}
