// Package notify delivers alert messages to operators.
package notify

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"dog-scout/internal/config"
	"dog-scout/internal/domain"
)

// MaxMessageLength is the Telegram limit for a single message.
const MaxMessageLength = 4096

// DefaultSendTimeout bounds each Bot API request when no timeout is given.
const DefaultSendTimeout = 10 * time.Second

// Result is the delivery outcome of one message.
type Result struct {
	Sent   bool
	Status string // one of domain.Delivery*
}

// Notifier sends a formatted message. Send never returns an error;
// failures are reported through Result.Status.
type Notifier interface {
	Send(ctx context.Context, message string) Result
}

// TelegramNotifier posts messages to a single Telegram chat.
// The bot is constructed lazily on the first real send so dry runs do no I/O.
type TelegramNotifier struct {
	cfg    config.Telegram
	dryRun bool
	client *http.Client
	log    logrus.FieldLogger

	mu  sync.Mutex
	bot *tgbotapi.BotAPI
}

// NewTelegramNotifier builds a notifier from the telegram section and the dry-run switch.
// timeout bounds every Bot API request; zero means DefaultSendTimeout.
func NewTelegramNotifier(cfg config.Telegram, dryRun bool, timeout time.Duration, log logrus.FieldLogger) *TelegramNotifier {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if timeout <= 0 {
		timeout = DefaultSendTimeout
	}
	return &TelegramNotifier{
		cfg:    cfg,
		dryRun: dryRun,
		client: &http.Client{Timeout: timeout},
		log:    log.WithField("component", "telegram"),
	}
}

// WithHTTPClient returns a copy that talks through client.
func (n *TelegramNotifier) WithHTTPClient(client *http.Client) *TelegramNotifier {
	return &TelegramNotifier{cfg: n.cfg, dryRun: n.dryRun, client: client, log: n.log}
}

// Send implements Notifier.
func (n *TelegramNotifier) Send(ctx context.Context, message string) Result {
	if n.dryRun {
		n.log.WithField("status", domain.DeliveryDryRun).Info("\n" + message)
		return Result{Status: domain.DeliveryDryRun}
	}
	if !n.cfg.Enabled {
		n.log.WithField("status", domain.DeliveryDisabled).Info("\n" + message)
		return Result{Status: domain.DeliveryDisabled}
	}

	chatID, err := n.chatID()
	if err != nil {
		n.log.WithError(err).Error("telegram not configured")
		return Result{Status: domain.DeliveryConfigError}
	}
	if err := ctx.Err(); err != nil {
		return Result{Status: domain.DeliveryFailed}
	}

	// The Bot API client does not take a context; the request runs behind
	// the HTTP client timeout and the caller stops waiting at ctx.Done.
	done := make(chan Result, 1)
	go func() { done <- n.deliver(chatID, message) }()

	select {
	case res := <-done:
		return res
	case <-ctx.Done():
		n.log.WithError(ctx.Err()).Warn("telegram send timed out")
		return Result{Status: domain.DeliveryFailed}
	}
}

func (n *TelegramNotifier) deliver(chatID int64, message string) Result {
	bot, err := n.botAPI()
	if err != nil {
		n.log.WithError(err).Error("telegram bot init failed")
		return Result{Status: domain.DeliveryFailed}
	}

	for _, part := range splitMessage(message, MaxMessageLength) {
		msg := tgbotapi.NewMessage(chatID, part)
		msg.DisableWebPagePreview = true
		if _, err := bot.Send(msg); err != nil {
			n.log.WithError(err).Warn("telegram send failed")
			return Result{Status: domain.DeliveryFailed}
		}
	}
	return Result{Sent: true, Status: domain.DeliverySent}
}

func (n *TelegramNotifier) chatID() (int64, error) {
	if strings.TrimSpace(n.cfg.BotToken) == "" {
		return 0, fmt.Errorf("telegram bot token is empty")
	}
	raw := strings.TrimSpace(n.cfg.ChatID)
	if raw == "" {
		return 0, fmt.Errorf("telegram chat id is empty")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("telegram chat id %q: %w", raw, err)
	}
	return id, nil
}

func (n *TelegramNotifier) botAPI() (*tgbotapi.BotAPI, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.bot != nil {
		return n.bot, nil
	}
	endpoint := n.cfg.APIURL
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	bot, err := tgbotapi.NewBotAPIWithClient(n.cfg.BotToken, endpoint, n.client)
	if err != nil {
		return nil, err
	}
	n.bot = bot
	return bot, nil
}

// splitMessage cuts text on line boundaries into chunks of at most maxLen bytes.
func splitMessage(text string, maxLen int) []string {
	if len(text) <= maxLen {
		return []string{text}
	}
	var parts []string
	var cur strings.Builder
	for _, line := range strings.Split(text, "\n") {
		for len(line) > maxLen {
			if cur.Len() > 0 {
				parts = append(parts, cur.String())
				cur.Reset()
			}
			parts = append(parts, line[:maxLen])
			line = line[maxLen:]
		}
		if cur.Len() > 0 && cur.Len()+1+len(line) > maxLen {
			parts = append(parts, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte('\n')
		}
		cur.WriteString(line)
	}
	if cur.Len() > 0 {
		parts = append(parts, cur.String())
	}
	return parts
}

// Fanout delivers to a primary notifier and mirrors every message to
// secondary sinks. The result is the primary's.
type Fanout struct {
	primary Notifier
	mirrors []Notifier
}

// NewFanout builds a Fanout. Nil mirrors are skipped.
func NewFanout(primary Notifier, mirrors ...Notifier) *Fanout {
	f := &Fanout{primary: primary}
	for _, m := range mirrors {
		if m != nil {
			f.mirrors = append(f.mirrors, m)
		}
	}
	return f
}

// Send implements Notifier.
func (f *Fanout) Send(ctx context.Context, message string) Result {
	res := f.primary.Send(ctx, message)
	for _, m := range f.mirrors {
		m.Send(ctx, message)
	}
	return res
}
