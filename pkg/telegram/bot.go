package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/korjavin/mealwatch/pkg/logger"
	"github.com/korjavin/mealwatch/pkg/messages"
	"github.com/korjavin/mealwatch/pkg/models"
)

// Bot represents a Telegram bot instance
type Bot struct {
	api    *tgbotapi.BotAPI
	logger *logger.Logger
}

// New creates a new Telegram bot instance
func New(token string) (*Bot, error) {
	return NewWithEndpoint(token, tgbotapi.APIEndpoint)
}

// NewWithEndpoint creates a bot against a custom Bot API endpoint, which must
// contain two %s verbs for the token and the method
func NewWithEndpoint(token, endpoint string) (*Bot, error) {
	api, err := tgbotapi.NewBotAPIWithAPIEndpoint(token, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	bot := &Bot{
		api:    api,
		logger: logger.New("telegram"),
	}

	bot.logger.Debug("Telegram bot created: @%s", api.Self.UserName)
	return bot, nil
}

// SendMessage sends a text message to a chat
func (b *Bot) SendMessage(chatID int64, text string) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	return b.api.Send(msg)
}

// Notifier posts updated menus to one chat
type Notifier struct {
	bot    *Bot
	chatID int64
}

// NewNotifier creates a notifier for the given chat
func NewNotifier(bot *Bot, chatID int64) *Notifier {
	return &Notifier{bot: bot, chatID: chatID}
}

// NotifyUpdate sends the new weekly menu, split into several messages when
// it is longer than Telegram allows
func (n *Notifier) NotifyUpdate(snap models.Snapshot) error {
	parts := messages.Split(messages.FormatWeek(snap), messages.MaxMessageLength)
	for i, part := range parts {
		if _, err := n.bot.SendMessage(n.chatID, part); err != nil {
			return fmt.Errorf("failed to send menu update part %d/%d: %w", i+1, len(parts), err)
		}
	}
	n.bot.logger.Info("Posted menu update to chat %d in %d message(s)", n.chatID, len(parts))
	return nil
}
