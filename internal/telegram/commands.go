package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/thaaaru/kadiya/internal/dispatch"
	"github.com/thaaaru/kadiya/internal/memory"
	"github.com/thaaaru/kadiya/internal/provider"
	"github.com/thaaaru/kadiya/internal/updater"
)

const helpText = `*kadiya* — cost-first personal assistant

Send any message to chat.

/task <title> — add a task
/done <id or title> — complete a task
/tasks — list pending tasks
/remind <15m|18:30> <text> — set a reminder
/reminders — list pending reminders
/note <text> — save a note
/notes <query> — search notes
/contacts [query] — list contacts
/usage — token usage summary
/version — version and update check
/help — this message`

// CommandHandler handles Telegram commands and free-text chat.
type CommandHandler struct {
	store      *memory.Store
	dispatcher *dispatch.Dispatcher
	version    string
	bot        *Bot
}

// NewCommandHandler creates a CommandHandler.
func NewCommandHandler(store *memory.Store, dispatcher *dispatch.Dispatcher, version string) *CommandHandler {
	return &CommandHandler{store: store, dispatcher: dispatcher, version: version}
}

// Handle dispatches an incoming message: commands to their handlers,
// everything else through the model dispatcher.
func (h *CommandHandler) Handle(msg *tgbotapi.Message) {
	if msg == nil {
		return
	}
	ctx := context.Background()

	if !msg.IsCommand() {
		h.handleChat(ctx, msg)
		return
	}

	switch msg.Command() {
	case "task":
		h.handleAddTask(ctx, msg)
	case "done":
		h.handleDone(ctx, msg)
	case "tasks":
		h.handleTasks(ctx, msg)
	case "remind":
		h.handleRemind(ctx, msg)
	case "reminders":
		h.handleReminders(ctx, msg)
	case "note":
		h.handleNote(ctx, msg)
	case "notes":
		h.handleNotes(ctx, msg)
	case "contacts":
		h.handleContacts(ctx, msg)
	case "usage":
		h.bot.reply(msg.Chat.ID, h.dispatcher.UsageSummary())
	case "version":
		h.handleVersion(msg)
	case "help", "start":
		h.bot.reply(msg.Chat.ID, helpText)
	default:
		h.bot.reply(msg.Chat.ID, "Unknown command. Use /help for a list of commands.")
	}
}

func (h *CommandHandler) handleChat(ctx context.Context, msg *tgbotapi.Message) {
	resp, err := h.dispatcher.Dispatch(ctx, &dispatch.Request{
		Messages:   []provider.Message{{Role: provider.RoleUser, Content: msg.Text}},
		SessionKey: fmt.Sprintf("tg:%d", msg.Chat.ID),
	})
	if err != nil {
		h.bot.reply(msg.Chat.ID, "⚠️ Request failed — try again in a moment.")
		return
	}
	h.bot.reply(msg.Chat.ID, resp.Content)
}

func (h *CommandHandler) handleAddTask(ctx context.Context, msg *tgbotapi.Message) {
	title := strings.TrimSpace(msg.CommandArguments())
	if title == "" {
		h.bot.reply(msg.Chat.ID, "Usage: /task <title>")
		return
	}
	task, err := h.store.AddTask(ctx, title, "", "normal")
	if err != nil {
		h.bot.reply(msg.Chat.ID, "Error saving task.")
		return
	}
	h.bot.reply(msg.Chat.ID, fmt.Sprintf("✓ Task added (`%s`)", task.ID))
}

func (h *CommandHandler) handleDone(ctx context.Context, msg *tgbotapi.Message) {
	arg := strings.TrimSpace(msg.CommandArguments())
	if arg == "" {
		h.bot.reply(msg.Chat.ID, "Usage: /done <id or title>")
		return
	}
	task, err := h.store.CompleteTask(ctx, arg)
	if err != nil || task == nil {
		h.bot.reply(msg.Chat.ID, "No matching pending task.")
		return
	}
	h.bot.reply(msg.Chat.ID, "✓ Completed: "+task.Title)
}

func (h *CommandHandler) handleTasks(ctx context.Context, msg *tgbotapi.Message) {
	tasks, err := h.store.ListTasks(ctx, "pending")
	if err != nil {
		h.bot.reply(msg.Chat.ID, "Error fetching tasks.")
		return
	}
	if len(tasks) == 0 {
		h.bot.reply(msg.Chat.ID, "No pending tasks. 🎉")
		return
	}
	var sb strings.Builder
	sb.WriteString("*Pending tasks*\n\n")
	for _, t := range tasks {
		sb.WriteString(fmt.Sprintf("`%s` %s", t.ID, t.Title))
		if t.DueAt != "" {
			sb.WriteString(" — due " + t.DueAt)
		}
		sb.WriteString("\n")
	}
	h.bot.reply(msg.Chat.ID, sb.String())
}

func (h *CommandHandler) handleRemind(ctx context.Context, msg *tgbotapi.Message) {
	args := strings.TrimSpace(msg.CommandArguments())
	parts := strings.SplitN(args, " ", 2)
	if len(parts) < 2 {
		h.bot.reply(msg.Chat.ID, "Usage: /remind <15m|18:30> <text>")
		return
	}
	when, err := parseRemindTime(parts[0], time.Now())
	if err != nil {
		h.bot.reply(msg.Chat.ID, "Couldn't read the time. Try `15m`, `2h`, or `18:30`.")
		return
	}
	r, err := h.store.AddReminder(ctx, parts[1], when)
	if err != nil {
		h.bot.reply(msg.Chat.ID, "Error saving reminder.")
		return
	}
	h.bot.reply(msg.Chat.ID, fmt.Sprintf("⏰ Reminder set for %s (`%s`)",
		r.RemindAt.Format("Jan 2 15:04"), r.ID))
}

func (h *CommandHandler) handleReminders(ctx context.Context, msg *tgbotapi.Message) {
	reminders, err := h.store.PendingReminders(ctx)
	if err != nil {
		h.bot.reply(msg.Chat.ID, "Error fetching reminders.")
		return
	}
	if len(reminders) == 0 {
		h.bot.reply(msg.Chat.ID, "No pending reminders.")
		return
	}
	var sb strings.Builder
	sb.WriteString("*Pending reminders*\n\n")
	for _, r := range reminders {
		sb.WriteString(fmt.Sprintf("%s — %s\n", r.RemindAt.Format("Jan 2 15:04"), r.Text))
	}
	h.bot.reply(msg.Chat.ID, sb.String())
}

func (h *CommandHandler) handleNote(ctx context.Context, msg *tgbotapi.Message) {
	text := strings.TrimSpace(msg.CommandArguments())
	if text == "" {
		h.bot.reply(msg.Chat.ID, "Usage: /note <text>")
		return
	}
	if _, err := h.store.AddNote(ctx, text, ""); err != nil {
		h.bot.reply(msg.Chat.ID, "Error saving note.")
		return
	}
	h.bot.reply(msg.Chat.ID, "✓ Noted.")
}

func (h *CommandHandler) handleNotes(ctx context.Context, msg *tgbotapi.Message) {
	notes, err := h.store.SearchNotes(ctx, strings.TrimSpace(msg.CommandArguments()))
	if err != nil {
		h.bot.reply(msg.Chat.ID, "Error searching notes.")
		return
	}
	if len(notes) == 0 {
		h.bot.reply(msg.Chat.ID, "No matching notes.")
		return
	}
	var sb strings.Builder
	sb.WriteString("*Notes*\n\n")
	for i, n := range notes {
		if i >= 10 {
			sb.WriteString(fmt.Sprintf("…and %d more\n", len(notes)-10))
			break
		}
		sb.WriteString("• " + n.Text + "\n")
	}
	h.bot.reply(msg.Chat.ID, sb.String())
}

func (h *CommandHandler) handleContacts(ctx context.Context, msg *tgbotapi.Message) {
	contacts, err := h.store.FindContacts(ctx, strings.TrimSpace(msg.CommandArguments()))
	if err != nil {
		h.bot.reply(msg.Chat.ID, "Error fetching contacts.")
		return
	}
	if len(contacts) == 0 {
		h.bot.reply(msg.Chat.ID, "No contacts found.")
		return
	}
	var sb strings.Builder
	sb.WriteString("*Contacts*\n\n")
	for _, c := range contacts {
		sb.WriteString("• " + c.Name)
		if c.Phone != "" {
			sb.WriteString(" — " + c.Phone)
		}
		sb.WriteString("\n")
	}
	h.bot.reply(msg.Chat.ID, sb.String())
}

func (h *CommandHandler) handleVersion(msg *tgbotapi.Message) {
	text := "kadiya " + h.version
	if result := updater.CheckForUpdates(h.version); result != nil && result.UpdateAvailable {
		text += fmt.Sprintf("\n🔔 Update available: %s\n%s", result.LatestVersion, result.ReleaseURL)
	}
	h.bot.reply(msg.Chat.ID, text)
}

// parseRemindTime accepts a relative duration ("15m", "2h") or a clock time
// ("18:30", today or tomorrow if already past).
func parseRemindTime(arg string, now time.Time) (time.Time, error) {
	if d, err := time.ParseDuration(arg); err == nil && d > 0 {
		return now.Add(d), nil
	}
	t, err := time.Parse("15:04", arg)
	if err != nil {
		return time.Time{}, fmt.Errorf("telegram.parseRemindTime: %q", arg)
	}
	when := time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, now.Location())
	if !when.After(now) {
		when = when.AddDate(0, 0, 1)
	}
	return when, nil
}
