package mode

import (
	"fmt"

	"github.com/spf13/cobra"

	"storekeeper/cmd/client/cmd/common"
)

// ModeCmd показывает и переключает режим работы.
var ModeCmd = &cobra.Command{
	Use:       "mode [online|offline|show]",
	Short:     "Режим работы",
	Long:      `Без аргументов показывает текущий режим. Режим сохраняется между запусками.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"online", "offline", "show"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := common.App(cmd)
		if err != nil {
			return err
		}

		if len(args) == 0 || args[0] == "show" {
			printMode(app.Session().Offline())
			return nil
		}

		var offline bool
		switch args[0] {
		case "online":
			offline = false
		case "offline":
			offline = true
		default:
			return fmt.Errorf("неизвестный режим %q: online или offline", args[0])
		}

		if err := app.SetOffline(offline); err != nil {
			return fmt.Errorf("ошибка переключения режима: %w", err)
		}

		if offline {
			if err := app.InitStorage(cmd.Context()); err != nil {
				fmt.Printf("%s %v\n", common.Warning("⚠"), err)
			}
		} else if pending := app.Facade().PendingCount(cmd.Context()); pending > 0 {
			fmt.Printf("%s Неотправленных записей: %d. Выполните: storekeeper sync upload\n", common.Warning("⚠"), pending)
		}

		printMode(offline)
		return nil
	},
}

func printMode(offline bool) {
	if offline {
		fmt.Println("Режим: офлайн (локальная база)")
		return
	}
	fmt.Println("Режим: онлайн (сервер)")
}
