package commands

import (
	"context"
	"fmt"

	"feedbackportal/internal/observability"
	"feedbackportal/internal/services"

	"github.com/spf13/cobra"
)

// NotifyCommands returns the notification check commands
func NotifyCommands(notificationService services.NotificationServiceInterface, logger *observability.Logger) *cobra.Command {
	notifyCmd := &cobra.Command{
		Use:   "notify",
		Short: "Notification channel checks",
	}

	notifyCmd.AddCommand(telegramTestCmd(notificationService, logger))

	return notifyCmd
}

func telegramTestCmd(notificationService services.NotificationServiceInterface, logger *observability.Logger) *cobra.Command {
	var botToken string
	var chatID string

	cmd := &cobra.Command{
		Use:   "telegram-test",
		Short: "Send a test message through a Telegram bot",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx := context.Background()
			if err := notificationService.TestTelegram(ctx, botToken, chatID); err != nil {
				return err
			}
			logger.Info(ctx, "Telegram test message sent", map[string]interface{}{"chat_id": chatID})
			fmt.Println("Test message sent")
			return nil
		},
	}

	cmd.Flags().StringVar(&botToken, "token", "", "Telegram bot token")
	cmd.Flags().StringVar(&chatID, "chat", "", "Telegram chat id")
	_ = cmd.MarkFlagRequired("token")
	_ = cmd.MarkFlagRequired("chat")

	return cmd
}
