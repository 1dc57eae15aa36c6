package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// TradeAlert carries the context of an executed trade.
type TradeAlert struct {
	Action     string
	Symbol     string
	Identifier string
	AmountSOL  decimal.Decimal
	PnLPct     decimal.Decimal
	Signature  string
	Reason     string
}

// Notifier delivers operator-facing messages.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// TelegramNotifier pushes messages through the Telegram Bot API.
type TelegramNotifier struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
	logger   zerolog.Logger
}

// NewTelegramNotifier constructs the Telegram notifier.
func NewTelegramNotifier(botToken, chatID, baseURL string, timeout time.Duration, logger zerolog.Logger) *TelegramNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}

	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With().Str("component", "notify_telegram").Logger(),
	}
}

// Notify pushes the text through the sendMessage API.
func (n *TelegramNotifier) Notify(ctx context.Context, text string) error {
	payload := map[string]string{
		"chat_id": n.chatID,
		"text":    text,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram status %d", resp.StatusCode)
	}

	var result struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil {
		if !result.OK {
			return fmt.Errorf("telegram returned ok=false")
		}
	}

	n.logger.Info().Msg("notification delivered (Telegram)")
	return nil
}

// RenderTrade formats a trade alert as a Telegram message body.
func RenderTrade(alert TradeAlert) string {
	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("[Trade] %s %s\n", alert.Action, alert.Symbol))
	builder.WriteString(fmt.Sprintf("Token: %s\n", alert.Identifier))
	if !alert.AmountSOL.IsZero() {
		builder.WriteString(fmt.Sprintf("Amount: %s SOL\n", alert.AmountSOL.String()))
	}
	if !alert.PnLPct.IsZero() {
		builder.WriteString(fmt.Sprintf("PnL: %s%%\n", alert.PnLPct.StringFixed(2)))
	}
	if alert.Signature != "" {
		builder.WriteString(fmt.Sprintf("Tx: %s\n", alert.Signature))
	}
	if alert.Reason != "" {
		builder.WriteString(fmt.Sprintf("Reason: %s\n", alert.Reason))
	}
	return builder.String()
}

// Nop discards every message. Used when no Telegram credentials are
// configured.
type Nop struct{}

func (Nop) Notify(ctx context.Context, text string) error { return nil }

var (
	_ Notifier = (*TelegramNotifier)(nil)
	_ Notifier = Nop{}
)
