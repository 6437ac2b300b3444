// cmd/client/cmd/auth/login.go
package auth

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"storekeeper/cmd/client/cmd/common"
)

var (
	loginToken string
	loginOwner string
	loginName  string
	skipCheck  bool
)

var LoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Сохранить токен доступа",
	Long: `Сохраняет токен, выданный сервером (storekeeper-server token issue),
и идентификатор владельца данных. Если токен не передан флагом,
он запрашивается без отображения на экране.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := common.App(cmd)
		if err != nil {
			return err
		}

		if loginOwner == "" {
			return fmt.Errorf("не указан владелец: используйте --owner")
		}

		token := loginToken
		if token == "" {
			fmt.Print("Токен: ")
			raw, err := term.ReadPassword(int(os.Stdin.Fd()))
			if err != nil {
				return fmt.Errorf("ошибка чтения токена: %w", err)
			}
			fmt.Println()
			token = strings.TrimSpace(string(raw))
		}

		if err := app.Login(token, loginOwner, loginName); err != nil {
			return fmt.Errorf("ошибка сохранения сессии: %w", err)
		}

		if !skipCheck {
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			if err := app.CheckConnection(ctx); err != nil {
				fmt.Printf("%s Сервер недоступен: %v\n", common.Warning("⚠"), err)
				fmt.Println("Можно работать в офлайн-режиме: storekeeper mode offline")
			}
		}

		fmt.Printf("%s Вход выполнен, владелец: %s\n", common.Success("✓"), loginOwner)
		return nil
	},
}

var LogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Удалить токен доступа",
	Long:  `Удаляет токен и владельца из сессии. Локальные данные остаются.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := common.App(cmd)
		if err != nil {
			return err
		}
		if err := app.Logout(); err != nil {
			return fmt.Errorf("ошибка выхода: %w", err)
		}
		fmt.Printf("%s Сессия завершена\n", common.Success("✓"))
		return nil
	},
}

var StatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Состояние сессии",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := common.App(cmd)
		if err != nil {
			return err
		}

		st := app.Session().Snapshot()
		if common.JSONOutput {
			st.Token = ""
			return common.PrintJSON(st)
		}

		if !app.IsAuthenticated() {
			fmt.Println("Вход не выполнен")
		} else {
			fmt.Printf("Владелец:       %s\n", st.OwnerID)
			if st.UserLogin != "" {
				fmt.Printf("Пользователь:   %s\n", st.UserLogin)
			}
		}

		mode := "онлайн"
		if st.Offline {
			mode = "офлайн"
		}
		fmt.Printf("Режим:          %s\n", mode)
		if !st.LastSync.IsZero() {
			fmt.Printf("Синхронизация:  %s\n", st.LastSync.Local().Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

func init() {
	LoginCmd.Flags().StringVar(&loginToken, "token", "", "токен доступа")
	LoginCmd.Flags().StringVar(&loginOwner, "owner", "", "идентификатор владельца данных")
	LoginCmd.Flags().StringVar(&loginName, "login", "", "имя пользователя для отображения")
	LoginCmd.Flags().BoolVar(&skipCheck, "no-check", false, "не проверять соединение с сервером")
}
