// cmd/client/cmd/sync/sync.go
package sync

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"storekeeper/cmd/client/cmd/common"
	"storekeeper/internal/app/client"
	clientsync "storekeeper/internal/app/client/sync"
	"storekeeper/internal/domain/entity"
)

var (
	syncTypes []string
	forceSync bool
)

var SyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Синхронизация с сервером",
	Long: `Отправка записей, созданных офлайн, и загрузка данных с сервера.

upload   - отправляет записи со статусом pending
download - заменяет локальные коллекции данными сервера`,
}

var UploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Отправить неотправленные записи",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := prepare(cmd)
		if err != nil {
			return err
		}

		types, err := parseTypes(syncTypes)
		if err != nil {
			return err
		}

		task, err := app.Sync().StartUpload(cmd.Context(), clientsync.UploadOptions{Types: types})
		if err != nil {
			return err
		}
		return watch(task)
	},
}

var DownloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Загрузить данные с сервера",
	Long: `Заменяет локальные коллекции серверными данными.
Если есть неотправленные записи, загрузка отменяется; --force их затирает.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := prepare(cmd)
		if err != nil {
			return err
		}

		types, err := parseTypes(syncTypes)
		if err != nil {
			return err
		}

		task, err := app.Sync().StartDownload(cmd.Context(), clientsync.DownloadOptions{
			Types:          types,
			DiscardPending: forceSync,
		})
		if err != nil {
			return err
		}

		err = watch(task)
		if errors.Is(err, clientsync.ErrPendingChanges) {
			fmt.Println("Сначала выполните: storekeeper sync upload (или повторите с --force)")
		}
		return err
	},
}

func prepare(cmd *cobra.Command) (*client.App, error) {
	app, err := common.App(cmd)
	if err != nil {
		return nil, err
	}
	if !app.IsAuthenticated() {
		return nil, fmt.Errorf("требуется вход. Выполните: storekeeper auth login")
	}
	if err := app.InitStorage(cmd.Context()); err != nil {
		return nil, err
	}
	if err := app.CheckConnection(cmd.Context()); err != nil {
		return nil, fmt.Errorf("сервер недоступен: %w", err)
	}
	return app, nil
}

func parseTypes(names []string) ([]entity.Type, error) {
	out := make([]entity.Type, 0, len(names))
	for _, n := range names {
		t, err := common.ParseType(n)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// watch печатает события задачи. В терминале рисуется строка прогресса.
func watch(task *clientsync.Task) error {
	start := time.Now()
	interactive := term.IsTerminal(int(os.Stdout.Fd()))
	width := barWidth(interactive)

	for ev := range task.Events() {
		switch ev.Kind {
		case clientsync.EventProgress:
			if interactive {
				fmt.Printf("\r%s %3d%% %s\033[K", bar(ev.Percent, width), ev.Percent, ev.Message)
			} else {
				fmt.Printf("[%3d%%] %s\n", ev.Percent, ev.Message)
			}
		case clientsync.EventSuccess, clientsync.EventError:
			if interactive {
				fmt.Println()
			}
		}
	}

	res, err := task.Wait()
	if err != nil {
		fmt.Printf("%s %v\n", common.Failure("✗"), err)
		return err
	}

	if common.JSONOutput {
		return common.PrintJSON(res)
	}
	fmt.Printf("%s %s (%v)\n", common.Success("✓"), res.Message, time.Since(start).Round(time.Millisecond))
	return nil
}

func barWidth(interactive bool) int {
	if !interactive {
		return 0
	}
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w < 60 {
		return 20
	}
	return 30
}

func bar(percent, width int) string {
	if percent > 100 {
		percent = 100
	}
	if percent < 0 {
		percent = 0
	}
	filled := percent * width / 100
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + "]"
}

func init() {
	SyncCmd.PersistentFlags().StringSliceVarP(&syncTypes, "type", "t", nil, "типы для синхронизации (по умолчанию все)")
	DownloadCmd.Flags().BoolVar(&forceSync, "force", false, "затереть неотправленные записи")
}
