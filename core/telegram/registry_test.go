package telegram

import (
	"testing"

	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

func TestRegistryKeepsOrderAndDropsSlash(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand(Command{Name: "/start", Description: "Start"})
	reg.RegisterCommand(Command{Name: "help", Description: "Help"})
	reg.RegisterCommand(Command{Name: "admin_user_count", Description: "Users", AdminOnly: true})
	reg.RegisterCommand(Command{Name: "start", Description: "again"})
	reg.RegisterCommand(Command{Name: "empty"})

	require.Equal(t, []tele.Command{
		{Text: "start", Description: "Start"},
		{Text: "help", Description: "Help"},
	}, reg.ListCommands(true))
	require.Len(t, reg.ListCommands(false), 3)

	cmd, ok := reg.LookupCommand("/START")
	require.True(t, ok)
	require.Equal(t, "Start", cmd.Description)
	_, ok = reg.LookupCommand("empty")
	require.False(t, ok)
}
