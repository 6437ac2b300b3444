// cmd/client/cmd/record/create.go
package record

import (
	"fmt"

	"github.com/spf13/cobra"

	"storekeeper/cmd/client/cmd/common"
)

var createData string

var CreateCmd = &cobra.Command{
	Use:   "create <type>",
	Short: "Создать запись",
	Long: `Создание записи. Поля передаются JSON-объектом.

В офлайн-режиме запись получает локальный id и статус pending до
выполнения sync upload. Позиции документа передаются в поле items.

Пример:
  storekeeper record create sales --data '{"contactId":"c1","items":[{"productId":"p1","quantity":2}]}'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := common.App(cmd)
		if err != nil {
			return err
		}

		t, err := common.ParseType(args[0])
		if err != nil {
			return err
		}

		data, err := common.ParseData(createData)
		if err != nil {
			return err
		}

		rec, err := app.Facade().Create(cmd.Context(), t, data)
		if err != nil {
			return fmt.Errorf("ошибка создания записи: %w", err)
		}

		if common.JSONOutput {
			return common.PrintJSON(rec)
		}

		fmt.Printf("%s Запись создана: %s\n", common.Success("✓"), rec.ID())
		if rec.IsPending() {
			fmt.Println("Запись будет отправлена на сервер при следующей синхронизации.")
		}
		return nil
	},
}

func init() {
	CreateCmd.Flags().StringVarP(&createData, "data", "d", "", "поля записи в формате JSON")
}
