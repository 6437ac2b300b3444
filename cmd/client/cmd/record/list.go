// cmd/client/cmd/record/list.go
package record

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"storekeeper/cmd/client/cmd/common"
	"storekeeper/internal/domain/entity"
)

var (
	listPage    int
	listLimit   int
	listSearch  string
	listDate    string
	listFilters []string
)

var ListCmd = &cobra.Command{
	Use:   "list <type>",
	Short: "Список записей",
	Long: `Постраничный просмотр записей с поиском и фильтром по дате.

Поиск ищет подстроку без учёта регистра в названии, артикуле, номере
документа и имени контрагента. Дата задаётся в формате YYYY-MM-DD.`,
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

		filters, err := parseFilters(listFilters)
		if err != nil {
			return err
		}

		page, err := app.Facade().Read(cmd.Context(), t, entity.Params{
			Page:    listPage,
			Limit:   listLimit,
			Search:  listSearch,
			Date:    listDate,
			Filters: filters,
		})
		if err != nil {
			return fmt.Errorf("ошибка получения списка записей: %w", err)
		}

		if common.JSONOutput {
			return common.PrintJSON(page)
		}
		return printPageTable(t, page)
	},
}

func printPageTable(t entity.Type, page entity.Page) error {
	if len(page.Items) == 0 {
		fmt.Println("Записи не найдены")
		return nil
	}

	desc := entity.Describe(t)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tНазвание\tСтатус\tСоздано\t\n")
	fmt.Fprintf(w, "---\t---\t---\t---\t\n")

	for _, rec := range page.Items {
		status := rec.String(entity.FieldSyncStatus)
		if status == "" {
			status = "server"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n",
			rec.ID(),
			common.Truncate(rec.Label(desc), 30),
			status,
			common.Truncate(rec.String(entity.FieldCreatedAt), 10),
		)
	}

	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\nСтраница %d из %d, всего записей: %d\n", page.Page, page.TotalPages, page.Total)
	return nil
}

// parseFilters разбирает пары key=value.
func parseFilters(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("неверный фильтр %q: ожидается key=value", pair)
		}
		out[k] = v
	}
	return out, nil
}

func init() {
	ListCmd.Flags().IntVar(&listPage, "page", 1, "номер страницы")
	ListCmd.Flags().IntVar(&listLimit, "limit", 0, "размер страницы (по умолчанию из конфигурации)")
	ListCmd.Flags().StringVarP(&listSearch, "search", "s", "", "строка поиска")
	ListCmd.Flags().StringVar(&listDate, "date", "", "день в формате YYYY-MM-DD")
	ListCmd.Flags().StringArrayVarP(&listFilters, "filter", "f", nil, "точный фильтр поля key=value")
}
