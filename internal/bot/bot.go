package bot

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"shachar-bot/internal/config"
	"shachar-bot/pkg/whapi"
)

type stepHandler func(ctx context.Context, userID string, sess *Session, text string)

type Bot struct {
	transport Transport
	crm       CRM
	billing   Billing
	sessions  *SessionStore
	logger    *zap.Logger

	storeName     string
	checkInterval time.Duration
	watermarkLead time.Duration
	allowed       map[string]struct{}
	excluded      map[string]struct{}

	handlers map[string]stepHandler

	// Transport timestamp of the newest message already handled.
	// Monotonically non-decreasing.
	watermark int64
}

func New(
	cfg *config.Config,
	transport Transport,
	crm CRM,
	billing Billing,
	sessions *SessionStore,
	logger *zap.Logger,
) *Bot {
	allowed := make(map[string]struct{}, len(cfg.AllowedSenders))
	for _, id := range cfg.AllowedSenders {
		allowed[strings.TrimSpace(id)] = struct{}{}
	}
	excluded := make(map[string]struct{}, len(cfg.ExcludedChats))
	for _, id := range cfg.ExcludedChats {
		excluded[strings.TrimSpace(id)] = struct{}{}
	}

	b := &Bot{
		transport:     transport,
		crm:           crm,
		billing:       billing,
		sessions:      sessions,
		logger:        logger,
		storeName:     cfg.StoreName,
		checkInterval: cfg.CheckInterval,
		watermarkLead: cfg.WatermarkLead,
		allowed:       allowed,
		excluded:      excluded,
	}

	b.registerHandlers()
	return b
}

// Start drives the polling loop until the context is cancelled. It is the
// sole driver of all state transitions; messages are dispatched one at a
// time, so session handling needs no further synchronization.
func (b *Bot) Start(ctx context.Context) error {
	b.watermark = time.Now().Add(-b.watermarkLead).Unix()

	b.logger.Info("Starting message polling",
		zap.Duration("interval", b.checkInterval),
		zap.Int64("watermark", b.watermark))

	ticker := time.NewTicker(b.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Shutting down bot")
			return nil
		case <-ticker.C:
			b.pollCycle(ctx)
		}
	}
}

// pollCycle fetches everything at or after the watermark and dispatches at
// most one message per chat. A fetch failure is not an empty batch: it is
// logged and the watermark stays put, so the next cycle retries the same
// window.
func (b *Bot) pollCycle(ctx context.Context) {
	messages, err := b.transport.ListMessages(ctx, b.watermark)
	if err != nil {
		b.logger.Error("Failed to fetch messages", zap.Error(err))
		return
	}

	if len(messages) == 0 {
		return
	}

	seen := make(map[string]struct{}, len(messages))
	for chatID := range b.excluded {
		seen[chatID] = struct{}{}
	}

	for _, msg := range messages {
		if _, handled := seen[msg.ChatID]; handled {
			// Only the first message per chat per cycle is acted on.
			continue
		}
		seen[msg.ChatID] = struct{}{}

		b.handleInbound(ctx, msg)
	}

	// The gateway returns the batch newest-first; its head is the new
	// watermark. Never move backwards on an out-of-order batch.
	if ts := messages[0].Timestamp; ts > b.watermark {
		b.watermark = ts
	}
}

func (b *Bot) handleInbound(ctx context.Context, msg whapi.Message) {
	if msg.FromMe || msg.Text == nil {
		return
	}

	text := strings.TrimSpace(msg.Text.Body)
	b.logger.Debug("Processing message",
		zap.String("user_id", msg.From),
		zap.String("chat_id", msg.ChatID))

	b.ProcessMessage(ctx, msg.From, text)
}

// send delivers a reply, logging delivery failures. The transport already
// retried by the time an error surfaces here; the user simply does not get
// this message.
func (b *Bot) send(ctx context.Context, userID, body string) {
	if err := b.transport.SendText(ctx, userID, body); err != nil {
		b.logger.Error("Failed to send message",
			zap.String("user_id", userID),
			zap.Error(err))
	}
}
