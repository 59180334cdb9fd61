package telegram

import (
	"fmt"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	tele "gopkg.in/telebot.v3"

	"github.com/tabassumkhan-ss/MSTCbotnew/internal/config"
)

// Bot only sends messages. Updates are never polled, so it can share a token
// with a bot process that handles the conversation.
type Bot struct {
	bot       *tele.Bot
	webAppURL string
}

func NewBot(cfg *config.Config) (*Bot, error) {
	return newBot(tele.Settings{Token: cfg.Telegram.BotToken}, cfg.Telegram.WebAppURL)
}

func newBot(pref tele.Settings, webAppURL string) (*Bot, error) {
	bot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	if !pref.Offline {
		log.WithField("username", bot.Me.Username).Info("Telegram notifier ready")
	}
	return &Bot{bot: bot, webAppURL: webAppURL}, nil
}

func (b *Bot) SendDepositCredited(chatID int64, amount, musd, mstc decimal.Decimal) error {
	text := fmt.Sprintf(`✅ <b>Deposit credited</b>

Amount: %s
MUSD: +%s
MSTC: +%s`, amount.StringFixed(2), musd.StringFixed(2), mstc.StringFixed(2))

	return b.SendMessage(chatID, text)
}

func (b *Bot) SendReferralIncome(chatID int64, level int, amount decimal.Decimal) error {
	text := fmt.Sprintf(`🎉 <b>Referral income</b>

Level %d: +%s MUSD`, level, amount.StringFixed(2))

	return b.SendMessage(chatID, text)
}

// SendMessage sends HTML text, with the wallet button when a web app URL is set.
func (b *Bot) SendMessage(chatID int64, text string) error {
	opts := []interface{}{tele.ModeHTML}
	if b.webAppURL != "" {
		keyboard := &tele.ReplyMarkup{}
		keyboard.Inline(
			keyboard.Row(
				keyboard.WebApp("📱 Open wallet", &tele.WebApp{URL: b.webAppURL}),
			),
		)
		opts = append(opts, keyboard)
	}

	_, err := b.bot.Send(&tele.User{ID: chatID}, text, opts...)
	return err
}
