package record

import (
	"github.com/spf13/cobra"
)

// RecordCmd - родительская команда для всех операций с записями
var RecordCmd = &cobra.Command{
	Use:   "record",
	Short: "Управление записями",
	Long: `Создание, просмотр, обновление и удаление записей любого типа:
товаров, контрагентов, продаж, закупок, расходов и т.д.

Тип указывается первым аргументом: products, sale-items, bulkPurchases ...`,
}
