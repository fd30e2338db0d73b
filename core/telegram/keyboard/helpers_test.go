package keyboard

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/m3rciful/notebot/core/dispatch"
)

func TestMarkupReply(t *testing.T) {
	m := Markup(&dispatch.Keyboard{Reply: [][]string{{"a", "b"}, {"c"}}, OneTime: true})
	require.True(t, m.OneTimeKeyboard)
	require.True(t, m.ResizeKeyboard)
	require.Len(t, m.ReplyKeyboard, 2)
	require.Equal(t, "b", m.ReplyKeyboard[0][1].Text)
}

func TestMarkupInline(t *testing.T) {
	m := Markup(&dispatch.Keyboard{Inline: [][]dispatch.Button{
		{{Text: "go", Action: "rubric_delete", Payload: "5"}},
		{{Text: "news", Action: "rubric_delete", Payload: "6"}},
	}})
	require.Len(t, m.InlineKeyboard, 2)
	require.Equal(t, "go", m.InlineKeyboard[0][0].Text)
	require.Equal(t, "news", m.InlineKeyboard[1][0].Text)
	require.Empty(t, m.ReplyKeyboard)
}

func TestMarkupRemoveAndNil(t *testing.T) {
	require.True(t, Markup(&dispatch.Keyboard{Remove: true}).RemoveKeyboard)
	require.Nil(t, Markup(nil))
	require.Nil(t, Markup(&dispatch.Keyboard{}))
}

func TestMarkupInlineKeepsActionAndPayload(t *testing.T) {
	m := Markup(&dispatch.Keyboard{Inline: [][]dispatch.Button{{{Text: "yes", Action: "bulk_confirm", Payload: "yes"}}}})
	b := m.InlineKeyboard[0][0]
	require.Equal(t, "bulk_confirm", b.Unique)
	require.Equal(t, "yes", b.Data)
}
