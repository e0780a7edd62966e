package bot

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/nhle/taskbot/internal/model"
	"github.com/nhle/taskbot/internal/store"
)

const helpText = `/start – Get started
/help – Show this help
/add <text> – Add a task
/list – Show your tasks
/done <number> – Mark a task done
/skip <number> – Delete a task
/stats – Your progress`

// handleCommand dispatches a slash command. Flow for every command:
// mutate the task store, read back, upsert session state, render.
func (b *Bot) handleCommand(ctx context.Context, log *slog.Logger, msg *tgbotapi.Message) {
	userID := msg.From.ID
	chatID := msg.Chat.ID
	log = log.With("user_id", userID, "command", msg.Command())

	switch msg.Command() {
	case "start":
		b.saveState(ctx, log, userID, func(s model.SessionState) {
			s[model.StateKeyLastAction] = "start"
		})
		b.send(log, tgbotapi.NewMessage(chatID, "Hi 👋 I'm your task manager. Create your first task with /add ✨"))

	case "help":
		b.send(log, tgbotapi.NewMessage(chatID, helpText))

	case "add":
		b.cmdAdd(ctx, log, chatID, userID, msg.CommandArguments())

	case "list":
		b.cmdList(ctx, log, chatID, userID)

	case "done":
		b.cmdDone(ctx, log, chatID, userID, msg.CommandArguments())

	case "skip":
		b.cmdSkip(ctx, log, chatID, userID, msg.CommandArguments())

	case "stats":
		b.cmdStats(ctx, log, chatID, userID)
	}
}

func (b *Bot) cmdAdd(ctx context.Context, log *slog.Logger, chatID, userID int64, args string) {
	taskID, err := b.store.AddTask(ctx, userID, args)
	if errors.Is(err, store.ErrEmptyTaskName) {
		b.send(log, tgbotapi.NewMessage(chatID, "Please include the task text, e.g. /add prepare the report 📄"))
		return
	}
	if err != nil {
		log.Error("adding task failed", "error", err)
		b.replyFailure(log, chatID)
		return
	}

	name := strings.TrimSpace(args)
	b.saveState(ctx, log, userID, func(s model.SessionState) {
		s[model.StateKeyLastAction] = "add"
		s[model.StateKeyLastAdded] = name
	})

	reply := tgbotapi.NewMessage(chatID, "Added a new task 👇\n• "+name)
	reply.ReplyMarkup = taskInlineMenu(taskID)
	b.send(log, reply)
}

func (b *Bot) cmdList(ctx context.Context, log *slog.Logger, chatID, userID int64) {
	tasks, err := b.store.ListTasks(ctx, userID)
	if err != nil {
		log.Error("listing tasks failed", "error", err)
		b.replyFailure(log, chatID)
		return
	}

	b.saveState(ctx, log, userID, func(s model.SessionState) {
		s[model.StateKeyLastAction] = "list"
	})

	if len(tasks) == 0 {
		b.send(log, tgbotapi.NewMessage(chatID, "Your task list is empty 🤷"))
		return
	}

	b.send(log, tgbotapi.NewMessage(chatID, renderList(tasks)))

	// One message per task so each carries its own inline controls.
	for _, t := range tasks {
		reply := tgbotapi.NewMessage(chatID, t.Name)
		reply.ReplyMarkup = taskInlineMenu(t.ID)
		b.send(log, reply)
	}
}

func (b *Bot) cmdDone(ctx context.Context, log *slog.Logger, chatID, userID int64, args string) {
	ordinal, ok := parseOrdinal(args)
	if !ok {
		b.send(log, tgbotapi.NewMessage(chatID, "Give me the task number, e.g. /done 1"))
		return
	}

	found, err := b.store.MarkDoneByOrdinal(ctx, userID, ordinal)
	if err != nil {
		log.Error("marking task done failed", "error", err)
		b.replyFailure(log, chatID)
		return
	}
	if !found {
		b.send(log, tgbotapi.NewMessage(chatID, "There is no such task ❗"))
		return
	}

	b.saveState(ctx, log, userID, func(s model.SessionState) {
		s[model.StateKeyLastAction] = "done"
		s[model.StateKeyLastDoneIndex] = ordinal
	})
	b.send(log, tgbotapi.NewMessage(chatID, "Done! Task completed ✔️"))
}

func (b *Bot) cmdSkip(ctx context.Context, log *slog.Logger, chatID, userID int64, args string) {
	ordinal, ok := parseOrdinal(args)
	if !ok {
		b.send(log, tgbotapi.NewMessage(chatID, "Give me the task number, e.g. /skip 1"))
		return
	}

	found, err := b.store.DeleteByOrdinal(ctx, userID, ordinal)
	if err != nil {
		log.Error("deleting task failed", "error", err)
		b.replyFailure(log, chatID)
		return
	}
	if !found {
		b.send(log, tgbotapi.NewMessage(chatID, "There is no such task ❗"))
		return
	}

	b.saveState(ctx, log, userID, func(s model.SessionState) {
		s[model.StateKeyLastAction] = "skip"
		s[model.StateKeyLastSkippedIndex] = ordinal
	})
	b.send(log, tgbotapi.NewMessage(chatID, "Task deleted 🗑️"))
}

func (b *Bot) cmdStats(ctx context.Context, log *slog.Logger, chatID, userID int64) {
	r, err := b.agg.BuildReport(ctx, userID, time.Now())
	if err != nil {
		log.Error("building report failed", "error", err)
		b.replyFailure(log, chatID)
		return
	}

	b.saveState(ctx, log, userID, func(s model.SessionState) {
		s[model.StateKeyLastAction] = "stats"
	})

	reply := tgbotapi.NewMessage(chatID, renderReport(r))
	reply.ParseMode = tgbotapi.ModeMarkdown
	b.send(log, reply)
}

// parseOrdinal reads a 1-based task number from command arguments.
func parseOrdinal(args string) (int, bool) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
