// Package shop - сводные команды магазина: статистика, остатки, штрихкоды.
package shop

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"storekeeper/cmd/client/cmd/common"
	"storekeeper/internal/domain/entity"
)

var StatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Сводка для главного экрана",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := common.App(cmd)
		if err != nil {
			return err
		}

		stats, err := app.Facade().DashboardStats(cmd.Context())
		if err != nil {
			return fmt.Errorf("ошибка получения статистики: %w", err)
		}

		if common.JSONOutput {
			return common.PrintJSON(stats)
		}

		fmt.Printf("Товаров:             %d\n", stats.Products)
		fmt.Printf("Контрагентов:        %d\n", stats.Contacts)
		fmt.Printf("Продаж:              %d\n", stats.Sales)
		fmt.Printf("Продаж сегодня:      %d\n", stats.SalesToday)
		fmt.Printf("Заканчивается:       %d\n", stats.LowStock)
		if stats.Pending > 0 {
			fmt.Printf("Не отправлено:       %s\n", common.Warning(stats.Pending))
		}
		return nil
	},
}

var LowStockCmd = &cobra.Command{
	Use:   "low-stock",
	Short: "Товары с низким остатком",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := common.App(cmd)
		if err != nil {
			return err
		}

		products, err := app.Facade().LowStockProducts(cmd.Context())
		if err != nil {
			return fmt.Errorf("ошибка получения остатков: %w", err)
		}

		if common.JSONOutput {
			return common.PrintJSON(products)
		}
		if len(products) == 0 {
			fmt.Println("Все товары в наличии")
			return nil
		}

		desc := entity.Describe(entity.Products)
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "ID\tТовар\tОстаток\tМинимум\t\n")
		for _, p := range products {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n",
				p.ID(),
				common.Truncate(p.Label(desc), 30),
				p.String("quantity"),
				p.String("minStock"),
			)
		}
		return w.Flush()
	},
}

var NextBarcodeCmd = &cobra.Command{
	Use:   "next-barcode",
	Short: "Следующий свободный штрихкод",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := common.App(cmd)
		if err != nil {
			return err
		}

		code, err := app.Facade().NextBarcode(cmd.Context())
		if err != nil {
			return fmt.Errorf("ошибка вычисления штрихкода: %w", err)
		}
		fmt.Println(code)
		return nil
	},
}
