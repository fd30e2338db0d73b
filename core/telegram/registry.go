package telegram

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/m3rciful/notebot/core/logger"

	tele "gopkg.in/telebot.v4"
)

// Command describes one entry of the bot command menu.
type Command struct {
	Name        string
	Description string
	// AdminOnly commands are routed normally but never advertised.
	AdminOnly bool
}

// Registry holds the commands advertised through the Telegram menu.
// Routing itself lives in the dispatch table.
type Registry struct {
	mu       sync.RWMutex
	commands []Command
	index    map[string]int
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// RegisterCommand adds a command. A leading slash is dropped; invalid and
// duplicate entries are skipped with a warning.
func (r *Registry) RegisterCommand(cmd Command) {
	if r == nil {
		return
	}
	name := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(cmd.Name), "/"))
	if name == "" || cmd.Description == "" {
		logger.TWire.LogAttrs(context.Background(), slog.LevelWarn, "register.command.skip",
			slog.String("name", cmd.Name),
			slog.String("reason", "invalid"),
		)
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.index[name]; exists {
		logger.TWire.LogAttrs(context.Background(), slog.LevelWarn, "register.command.duplicate",
			slog.String("name", name),
		)
		return
	}
	cmd.Name = name
	r.index[name] = len(r.commands)
	r.commands = append(r.commands, cmd)
}

// ListCommands returns the commands in registration order, optionally
// without the admin-only ones.
func (r *Registry) ListCommands(visibleOnly bool) []tele.Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]tele.Command, 0, len(r.commands))
	for _, c := range r.commands {
		if visibleOnly && c.AdminOnly {
			continue
		}
		list = append(list, tele.Command{Text: c.Name, Description: c.Description})
	}
	return list
}

// LookupCommand finds a command by name, with or without the slash.
func (r *Registry) LookupCommand(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.index[strings.ToLower(strings.TrimPrefix(name, "/"))]
	if !ok {
		return Command{}, false
	}
	return r.commands[i], true
}

// InitBotCommands sets the Telegram bot commands shown in the command menu.
func InitBotCommands(bot *tele.Bot, reg *Registry) {
	commands := reg.ListCommands(true)
	if len(commands) == 0 {
		return
	}
	if err := bot.SetCommands(commands); err != nil {
		logger.TWire.LogAttrs(context.Background(), slog.LevelError, "register.commands.set_failed",
			slog.String("err", err.Error()),
		)
	}
}
