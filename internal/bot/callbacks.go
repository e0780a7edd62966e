package bot

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/nhle/taskbot/internal/model"
	"github.com/nhle/taskbot/internal/store"
)

// Callback actions attached to the per-task inline keyboard.
const (
	actionDone    = "task_done"
	actionSkip    = "task_skip"
	actionDelay   = "task_delay"
	actionDetails = "task_details"
)

// taskInlineMenu builds the per-task control keyboard. Callback data is
// "<action>:<task id>", addressing by surrogate key so the controls
// stay valid when ordinals shift.
func taskInlineMenu(taskID int64) tgbotapi.InlineKeyboardMarkup {
	id := strconv.FormatInt(taskID, 10)
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Done", actionDone+":"+id),
			tgbotapi.NewInlineKeyboardButtonData("❌ Skip", actionSkip+":"+id),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⏰ Delay", actionDelay+":"+id),
			tgbotapi.NewInlineKeyboardButtonData("📎 Details", actionDetails+":"+id),
		),
	)
}

// parseCallbackData splits "<action>:<task id>" callback data.
func parseCallbackData(data string) (action string, taskID int64, ok bool) {
	action, idPart, found := strings.Cut(data, ":")
	if !found {
		return "", 0, false
	}
	taskID, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		return "", 0, false
	}
	return action, taskID, true
}

// handleCallback dispatches an inline keyboard press.
func (b *Bot) handleCallback(ctx context.Context, log *slog.Logger, cq *tgbotapi.CallbackQuery) {
	userID := cq.From.ID
	log = log.With("user_id", userID)

	action, taskID, ok := parseCallbackData(cq.Data)
	if !ok {
		log.Warn("ignoring malformed callback data", "data", cq.Data)
		b.answerCallback(log, cq.ID, "")
		return
	}
	log = log.With("action", action, "task_id", taskID)

	switch action {
	case actionDone:
		b.callbackDone(ctx, log, cq, taskID)
	case actionSkip:
		b.callbackSkip(ctx, log, cq, taskID)
	case actionDelay:
		b.saveState(ctx, log, userID, func(s model.SessionState) {
			s[model.StateKeyLastAction] = "inline_delay"
		})
		b.answerCallbackAlert(log, cq.ID, "Deadline postponing is coming soon ⏳")
	case actionDetails:
		b.callbackDetails(ctx, log, cq, taskID)
	default:
		log.Warn("ignoring unknown callback action")
		b.answerCallback(log, cq.ID, "")
	}
}

func (b *Bot) callbackDone(ctx context.Context, log *slog.Logger, cq *tgbotapi.CallbackQuery, taskID int64) {
	err := b.store.MarkDoneByID(ctx, taskID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		log.Error("marking task done failed", "error", err)
		b.answerCallbackAlert(log, cq.ID, "Something went wrong 😔")
		return
	}
	if errors.Is(err, store.ErrNotFound) {
		b.answerCallbackAlert(log, cq.ID, "Task not found ❗")
		return
	}

	b.saveState(ctx, log, cq.From.ID, func(s model.SessionState) {
		s[model.StateKeyLastAction] = "inline_done"
		s[model.StateKeyLastTaskID] = taskID
	})

	b.editMessage(log, cq, "Task completed ✔️")
	b.answerCallback(log, cq.ID, "Done!")
}

func (b *Bot) callbackSkip(ctx context.Context, log *slog.Logger, cq *tgbotapi.CallbackQuery, taskID int64) {
	err := b.store.DeleteByID(ctx, taskID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		log.Error("deleting task failed", "error", err)
		b.answerCallbackAlert(log, cq.ID, "Something went wrong 😔")
		return
	}
	if errors.Is(err, store.ErrNotFound) {
		b.answerCallbackAlert(log, cq.ID, "Task not found ❗")
		return
	}

	b.saveState(ctx, log, cq.From.ID, func(s model.SessionState) {
		s[model.StateKeyLastAction] = "inline_skip"
		s[model.StateKeyLastTaskID] = taskID
	})

	b.editMessage(log, cq, "Task deleted 🗑️")
	b.answerCallback(log, cq.ID, "Skipped!")
}

func (b *Bot) callbackDetails(ctx context.Context, log *slog.Logger, cq *tgbotapi.CallbackQuery, taskID int64) {
	task, err := b.store.GetTaskByID(ctx, taskID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		log.Error("getting task failed", "error", err)
		b.answerCallbackAlert(log, cq.ID, "Something went wrong 😔")
		return
	}

	b.saveState(ctx, log, cq.From.ID, func(s model.SessionState) {
		s[model.StateKeyLastAction] = "inline_details"
		s[model.StateKeyLastTaskID] = taskID
	})

	if task == nil {
		b.answerCallbackAlert(log, cq.ID, "Task not found ❗")
		return
	}

	b.answerCallback(log, cq.ID, "")

	if cq.Message == nil {
		return
	}
	reply := tgbotapi.NewMessage(cq.Message.Chat.ID, renderDetails(*task))
	reply.ParseMode = tgbotapi.ModeMarkdown
	b.send(log, reply)
}

// editMessage replaces the text of the message the keyboard hung off,
// which also removes the keyboard.
func (b *Bot) editMessage(log *slog.Logger, cq *tgbotapi.CallbackQuery, text string) {
	if cq.Message == nil {
		return
	}
	edit := tgbotapi.NewEditMessageText(cq.Message.Chat.ID, cq.Message.MessageID, text)
	if _, err := b.api.Send(edit); err != nil {
		log.Warn("editing message failed", "error", err)
	}
}

func (b *Bot) answerCallback(log *slog.Logger, callbackID, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		log.Warn("answering callback failed", "error", err)
	}
}

func (b *Bot) answerCallbackAlert(log *slog.Logger, callbackID, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallbackWithAlert(callbackID, text)); err != nil {
		log.Warn("answering callback failed", "error", err)
	}
}
