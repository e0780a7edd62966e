// Package bot is the Telegram transport: it parses commands and
// callbacks, drives the stores, and renders replies.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"github.com/nhle/taskbot/internal/model"
	"github.com/nhle/taskbot/internal/stats"
	"github.com/nhle/taskbot/internal/store"
)

// interactionTimeout bounds the handling of one inbound update.
const interactionTimeout = 15 * time.Second

// Bot wires the Telegram API to the task store and the aggregator.
type Bot struct {
	api   *tgbotapi.BotAPI
	store store.Store
	agg   *stats.Aggregator
	log   *slog.Logger

	pollTimeoutSec int
}

// New authenticates against the Telegram API with the given token.
func New(token string, pollTimeoutSec int, s store.Store, agg *stats.Aggregator, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connecting to telegram: %w", err)
	}

	if log == nil {
		log = slog.Default()
	}
	if pollTimeoutSec <= 0 {
		pollTimeoutSec = 30
	}

	return &Bot{
		api:            api,
		store:          s,
		agg:            agg,
		log:            log,
		pollTimeoutSec: pollTimeoutSec,
	}, nil
}

// Username returns the authenticated bot account name.
func (b *Bot) Username() string {
	return b.api.Self.UserName
}

// Run consumes the updates feed until ctx is cancelled. Each update is
// handled in its own goroutine so one slow interaction does not block
// the rest; per-user ordering guarantees come from the store's
// transactions, not from here.
func (b *Bot) Run(ctx context.Context) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = b.pollTimeoutSec

	updates := b.api.GetUpdatesChan(cfg)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

// handleUpdate routes one inbound update. A storage failure aborts just
// this interaction with a generic reply.
func (b *Bot) handleUpdate(parent context.Context, update tgbotapi.Update) {
	ctx, cancel := context.WithTimeout(parent, interactionTimeout)
	defer cancel()

	log := b.log.With("interaction_id", uuid.NewString())

	switch {
	case update.CallbackQuery != nil && update.CallbackQuery.From != nil:
		b.handleCallback(ctx, log, update.CallbackQuery)
	case update.Message != nil && update.Message.From != nil && update.Message.IsCommand():
		b.handleCommand(ctx, log, update.Message)
	}
}

// send delivers a reply, logging delivery failures.
func (b *Bot) send(log *slog.Logger, c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		log.Warn("sending telegram message failed", "error", err)
	}
}

// replyFailure sends the generic failure response for an aborted
// interaction.
func (b *Bot) replyFailure(log *slog.Logger, chatID int64) {
	b.send(log, tgbotapi.NewMessage(chatID, "Something went wrong, please try again 😔"))
}

// saveState applies mutate to the user's session state bag and persists
// it. Session state is advisory: failures are logged, never surfaced.
func (b *Bot) saveState(ctx context.Context, log *slog.Logger, userID int64, mutate func(model.SessionState)) {
	state, err := b.store.LoadSessionState(ctx, userID)
	if err == nil {
		mutate(state)
		err = b.store.SaveSessionState(ctx, userID, state)
	}
	if err != nil {
		log.Warn("session state update failed", "user_id", userID, "error", err)
	}
}

// SendReport implements report.Dispatcher by rendering the report and
// messaging the user directly.
func (b *Bot) SendReport(ctx context.Context, userID int64, r model.Report) error {
	msg := tgbotapi.NewMessage(userID, "🕗 Daily progress report\n\n"+renderReport(r))
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("sending report to user %d: %w", userID, err)
	}
	return nil
}
