// cmd/client/cmd/record/get.go
package record

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"storekeeper/cmd/client/cmd/common"
	"storekeeper/internal/domain/entity"
)

var GetCmd = &cobra.Command{
	Use:   "get <type> <id>",
	Short: "Просмотреть запись",
	Long:  `Просмотр записи по id вместе с прикреплёнными контрагентом и позициями.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := common.App(cmd)
		if err != nil {
			return err
		}

		t, err := common.ParseType(args[0])
		if err != nil {
			return err
		}

		page, err := app.Facade().Read(cmd.Context(), t, entity.Params{ID: args[1]})
		if err != nil {
			return fmt.Errorf("ошибка получения записи: %w", err)
		}
		if len(page.Items) == 0 {
			return fmt.Errorf("запись %s не найдена", args[1])
		}

		rec := page.Items[0]
		if common.JSONOutput {
			return common.PrintJSON(rec)
		}

		printRecordHuman(rec)
		return nil
	},
}

func printRecordHuman(rec entity.Record) {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		if k == entity.FieldItems {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if nested, ok := rec.Nested(k); ok {
			fmt.Printf("%-16s %s (%s)\n", k+":", nested.String(entity.FieldName), nested.ID())
			continue
		}
		fmt.Printf("%-16s %s\n", k+":", rec.String(k))
	}

	items, ok := rec.Items()
	if !ok {
		return
	}
	fmt.Printf("\nПозиции (%d):\n", len(items))
	for i, item := range items {
		name := item.String(entity.FieldProductID)
		if p, ok := item.Nested(entity.FieldProduct); ok {
			name = p.String(entity.FieldName)
		}
		fmt.Printf("  %d. %s × %s\n", i+1, name, item.String("quantity"))
	}
}
