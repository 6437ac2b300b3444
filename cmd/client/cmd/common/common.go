// Package common - общие помощники команд клиента.
package common

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"storekeeper/internal/app/client"
	"storekeeper/internal/domain/entity"
)

// JSONOutput включается глобальным флагом --json.
var JSONOutput bool

var (
	Success = color.New(color.FgGreen).SprintFunc()
	Warning = color.New(color.FgYellow).SprintFunc()
	Failure = color.New(color.FgRed).SprintFunc()
)

// App достаёт приложение, созданное корневой командой.
func App(cmd *cobra.Command) (*client.App, error) {
	app, ok := client.FromContext(cmd.Context())
	if !ok || app == nil {
		return nil, fmt.Errorf("приложение не инициализировано")
	}
	return app, nil
}

// ParseType принимает имя типа (saleItems) или его ресурс (sale-items).
func ParseType(s string) (entity.Type, error) {
	t, err := entity.Parse(s)
	if err != nil {
		names := make([]string, 0, len(entity.All()))
		for _, typ := range entity.All() {
			names = append(names, string(typ))
		}
		return "", fmt.Errorf("%w (доступны: %s)", err, strings.Join(names, ", "))
	}
	return t, nil
}

// ParseData разбирает JSON-объект записи из флага --data.
func ParseData(raw string) (entity.Record, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("данные записи не указаны: используйте --data '{...}'")
	}
	var rec entity.Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("неверный JSON записи: %w", err)
	}
	return rec, nil
}

// PrintJSON печатает значение с отступами.
func PrintJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// Truncate обрезает строку до length символов.
func Truncate(s string, length int) string {
	r := []rune(s)
	if len(r) <= length {
		return s
	}
	return string(r[:length-3]) + "..."
}
