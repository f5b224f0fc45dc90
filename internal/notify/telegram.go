package notify

import (
	"fmt"
	"strings"

	"tableside/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// TelegramNotifier pings the kitchen chat when an order is submitted, so the
// kitchen display does not have to be watched between manual refreshes.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger *zerolog.Logger
}

func NewTelegramNotifier(token string, chatID int64, logger *zerolog.Logger) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	logger.Info().Str("bot", bot.Self.UserName).Msg("telegram notifier connected")
	return &TelegramNotifier{bot: bot, chatID: chatID, logger: logger}, nil
}

// OrderSubmitted sends a plain-text summary of the order to the kitchen chat.
func (n *TelegramNotifier) OrderSubmitted(order models.Order) error {
	var b strings.Builder
	fmt.Fprintf(&b, "New order %s\n", order.ID)
	for _, line := range order.Lines {
		fmt.Fprintf(&b, "• %s x%d (%s)\n", line.Name, line.Quantity, line.Category)
	}

	msg := tgbotapi.NewMessage(n.chatID, b.String())
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("send kitchen notification: %w", err)
	}
	return nil
}
