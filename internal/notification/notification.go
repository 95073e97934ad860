package notification

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ichimoku-monitor/internal/strategy"
)

// NotificationType represents the type of notification
type NotificationType string

const (
	NotifySignal NotificationType = "signal"
	NotifyError  NotificationType = "error"
	NotifyInfo   NotificationType = "info"
)

// StopLossPercent is the advisory stop distance included with signal
// notifications, as a fraction of the signal price.
const StopLossPercent = 0.04

// Notification represents a notification message
type Notification struct {
	Type       NotificationType
	Title      string
	Message    string
	Symbol     string
	Signal     strategy.Signal
	Price      float64
	StopLoss   float64
	Confidence float64
	Timestamp  time.Time
	Extra      map[string]interface{}
}

// Notifier interface for different notification providers
type Notifier interface {
	Send(notification *Notification) error
	Name() string
	IsEnabled() bool
}

// Manager manages multiple notification providers. A failing provider is
// logged and does not stop delivery to the others.
type Manager struct {
	notifiers []Notifier
	logger    zerolog.Logger
	enabled   bool

	// OnResult, when set, is invoked once per enabled provider after each
	// delivery attempt.
	OnResult func(sink string, err error)
}

// NewManager creates a new notification manager
func NewManager(logger zerolog.Logger) *Manager {
	return &Manager{
		notifiers: make([]Notifier, 0),
		logger:    logger.With().Str("component", "NotificationManager").Logger(),
		enabled:   true,
	}
}

// AddNotifier adds a notification provider
func (m *Manager) AddNotifier(n Notifier) {
	m.notifiers = append(m.notifiers, n)
}

// EnabledCount returns how many providers are currently able to send
func (m *Manager) EnabledCount() int {
	count := 0
	for _, n := range m.notifiers {
		if n.IsEnabled() {
			count++
		}
	}
	return count
}

// Send sends a notification to all enabled providers
func (m *Manager) Send(notification *Notification) error {
	if !m.enabled {
		return nil
	}

	var lastErr error
	for _, n := range m.notifiers {
		if !n.IsEnabled() {
			continue
		}
		err := n.Send(notification)
		if err != nil {
			m.logger.Error().Err(err).
				Str("sink", n.Name()).
				Str("symbol", notification.Symbol).
				Msg("Notification delivery failed")
			lastErr = err
		}
		if m.OnResult != nil {
			m.OnResult(n.Name(), err)
		}
	}
	return lastErr
}

// SendSignal sends a signal-change notification built from a detection
// result. The narrative is optional and appended verbatim when present.
func (m *Manager) SendSignal(res *strategy.Result, previous strategy.Signal, narrative string) error {
	price := res.Snapshot.Close
	stopLoss := StopLossFor(res.Signal, price)

	var msg strings.Builder
	fmt.Fprintf(&msg, "%s %s @ %.4f\n", res.Signal, res.Symbol, price)
	fmt.Fprintf(&msg, "Confidence: %.0f%%\n", res.Confidence*100)
	fmt.Fprintf(&msg, "Stop Loss: %.4f\n", stopLoss)
	fmt.Fprintf(&msg, "Previous: %s\n", previous)
	fmt.Fprintf(&msg, "Cloud: %s", res.Snapshot.CloudColor)
	if narrative != "" {
		fmt.Fprintf(&msg, "\n\n%s", narrative)
	}

	return m.Send(&Notification{
		Type:       NotifySignal,
		Title:      fmt.Sprintf("%s %s Signal: %s", signalEmoji(res.Signal), res.Signal, res.Symbol),
		Message:    msg.String(),
		Symbol:     res.Symbol,
		Signal:     res.Signal,
		Price:      price,
		StopLoss:   stopLoss,
		Confidence: res.Confidence,
		Timestamp:  res.Timestamp,
		Extra: map[string]interface{}{
			"previous":    string(previous),
			"cloud_color": res.Snapshot.CloudColor,
		},
	})
}

// SendError sends an error notification
func (m *Manager) SendError(title, message string) error {
	return m.Send(&Notification{
		Type:      NotifyError,
		Title:     fmt.Sprintf("⚠️ %s", title),
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
}

// SendTest sends a startup test message to verify provider credentials
func (m *Manager) SendTest(strategyName string, symbols []string) error {
	return m.Send(&Notification{
		Type:      NotifyInfo,
		Title:     "🔔 Ichimoku Monitor Started",
		Message:   fmt.Sprintf("Strategy: %s\nSymbols: %s", strategyName, strings.Join(symbols, ", ")),
		Timestamp: time.Now().UTC(),
	})
}

// StopLossFor places the advisory stop on the protective side of the
// price: below it for long-directed signals, above it otherwise.
func StopLossFor(sig strategy.Signal, price float64) float64 {
	switch sig {
	case strategy.SignalLong, strategy.SignalExitShort:
		return price * (1 - StopLossPercent)
	default:
		return price * (1 + StopLossPercent)
	}
}

func signalEmoji(sig strategy.Signal) string {
	switch sig {
	case strategy.SignalLong:
		return "🟢"
	case strategy.SignalShort:
		return "🔴"
	case strategy.SignalExitLong:
		return "🟡"
	case strategy.SignalExitShort:
		return "🟠"
	default:
		return "⚪"
	}
}

// =============================================================================
// TELEGRAM NOTIFIER
// =============================================================================

// TelegramNotifier sends notifications via Telegram
type TelegramNotifier struct {
	botToken string
	chatID   string
	enabled  bool
	client   *http.Client
}

// TelegramConfig holds Telegram configuration
type TelegramConfig struct {
	BotToken string `yaml:"bot_token" json:"-"`
	ChatID   string `yaml:"chat_id" json:"-"`
	Enabled  bool   `yaml:"enabled" json:"enabled"`
}

// NewTelegramNotifier creates a new Telegram notifier
func NewTelegramNotifier(config TelegramConfig) *TelegramNotifier {
	return &TelegramNotifier{
		botToken: config.BotToken,
		chatID:   config.ChatID,
		enabled:  config.Enabled && config.BotToken != "" && config.ChatID != "",
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *TelegramNotifier) Name() string {
	return "telegram"
}

func (t *TelegramNotifier) IsEnabled() bool {
	return t.enabled
}

func (t *TelegramNotifier) Send(notification *Notification) error {
	if !t.enabled {
		return nil
	}

	message := fmt.Sprintf("*%s*\n\n%s", notification.Title, notification.Message)

	payload := map[string]interface{}{
		"chat_id":    t.chatID,
		"text":       message,
		"parse_mode": "Markdown",
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.botToken)
	resp, err := t.client.Post(url, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API returned status %d", resp.StatusCode)
	}

	return nil
}

// =============================================================================
// DISCORD NOTIFIER
// =============================================================================

// DiscordNotifier sends notifications via Discord webhook
type DiscordNotifier struct {
	webhookURL string
	enabled    bool
	client     *http.Client
}

// DiscordConfig holds Discord configuration
type DiscordConfig struct {
	WebhookURL string `yaml:"webhook_url" json:"-"`
	Enabled    bool   `yaml:"enabled" json:"enabled"`
}

// NewDiscordNotifier creates a new Discord notifier
func NewDiscordNotifier(config DiscordConfig) *DiscordNotifier {
	return &DiscordNotifier{
		webhookURL: config.WebhookURL,
		enabled:    config.Enabled && config.WebhookURL != "",
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (d *DiscordNotifier) Name() string {
	return "discord"
}

func (d *DiscordNotifier) IsEnabled() bool {
	return d.enabled
}

func (d *DiscordNotifier) Send(notification *Notification) error {
	if !d.enabled {
		return nil
	}

	color := embedColor(notification)

	embed := map[string]interface{}{
		"title":       notification.Title,
		"description": notification.Message,
		"color":       color,
		"timestamp":   notification.Timestamp.Format(time.RFC3339),
	}

	if notification.Symbol != "" {
		fields := []map[string]interface{}{
			{"name": "Symbol", "value": notification.Symbol, "inline": true},
		}
		if notification.Price > 0 {
			fields = append(fields, map[string]interface{}{
				"name": "Price", "value": fmt.Sprintf("%.4f", notification.Price), "inline": true,
			})
		}
		if notification.StopLoss > 0 {
			fields = append(fields, map[string]interface{}{
				"name": "Stop Loss", "value": fmt.Sprintf("%.4f", notification.StopLoss), "inline": true,
			})
		}
		if notification.Confidence > 0 {
			fields = append(fields, map[string]interface{}{
				"name": "Confidence", "value": fmt.Sprintf("%.0f%%", notification.Confidence*100), "inline": true,
			})
		}
		embed["fields"] = fields
	}

	payload := map[string]interface{}{
		"embeds": []map[string]interface{}{embed},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal discord payload: %w", err)
	}

	resp, err := d.client.Post(d.webhookURL, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to send discord message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("discord API returned status %d", resp.StatusCode)
	}

	return nil
}

func embedColor(n *Notification) int {
	if n.Type == NotifyError {
		return 0xFF0000
	}
	switch n.Signal {
	case strategy.SignalLong:
		return 0x00FF00
	case strategy.SignalShort:
		return 0xFF0000
	case strategy.SignalExitLong, strategy.SignalExitShort:
		return 0xFFA500
	default:
		return 0x3498DB
	}
}
