package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

// Message is one inbound text message from a chat caller.
type Message struct {
	CallerID int64
	ChatID   int64
	Text     string
}

// Transport is the messaging surface a Connection talks through.
// The production implementation long-polls Telegram; tests inject a fake.
type Transport interface {
	Updates() <-chan Message
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendTyping(ctx context.Context, chatID int64) error
	Stop()
}

// Dialer opens a Transport for a bot token.
type Dialer func(ctx context.Context, token string, pollTimeout time.Duration) (Transport, error)

type telegramTransport struct {
	bot     *telego.Bot
	updates chan Message
	cancel  context.CancelFunc
}

// DialTelegram validates the token against the Telegram API and starts
// long polling for updates.
func DialTelegram(ctx context.Context, token string, pollTimeout time.Duration) (Transport, error) {
	bot, err := telego.NewBot(token, telego.WithDefaultLogger(false, true))
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	if _, err := bot.GetMe(ctx); err != nil {
		return nil, fmt.Errorf("verify token: %w", err)
	}

	pollCtx, cancel := context.WithCancel(context.Background())
	raw, err := bot.UpdatesViaLongPolling(pollCtx, &telego.GetUpdatesParams{
		Timeout: int(pollTimeout / time.Second),
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("start long polling: %w", err)
	}

	t := &telegramTransport{
		bot:     bot,
		updates: make(chan Message),
		cancel:  cancel,
	}
	go t.pump(raw)
	return t, nil
}

func (t *telegramTransport) pump(raw <-chan telego.Update) {
	defer close(t.updates)
	for update := range raw {
		msg := update.Message
		if msg == nil || msg.Text == "" || msg.From == nil {
			continue
		}
		t.updates <- Message{
			CallerID: msg.From.ID,
			ChatID:   msg.Chat.ID,
			Text:     msg.Text,
		}
	}
}

func (t *telegramTransport) Updates() <-chan Message { return t.updates }

func (t *telegramTransport) SendMessage(ctx context.Context, chatID int64, text string) error {
	_, err := t.bot.SendMessage(ctx, tu.Message(tu.ID(chatID), text))
	return err
}

func (t *telegramTransport) SendTyping(ctx context.Context, chatID int64) error {
	return t.bot.SendChatAction(ctx, &telego.SendChatActionParams{
		ChatID: tu.ID(chatID),
		Action: telego.ChatActionTyping,
	})
}

func (t *telegramTransport) Stop() { t.cancel() }
