package callbacks

import (
	"testing"

	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/notebot/core/dispatch"
)

func TestParseData(t *testing.T) {
	cases := []struct {
		raw, unique, payload string
	}{
		{"\frubric_delete|42", "rubric_delete", "42"},
		{"\flink_rubric|pass", "link_rubric", "pass"},
		{"\fplain", "plain", ""},
		{"bare|x|y", "bare", "x|y"},
		{"", "", ""},
	}
	for _, tc := range cases {
		unique, payload := ParseData(tc.raw)
		require.Equal(t, tc.unique, unique, tc.raw)
		require.Equal(t, tc.payload, payload, tc.raw)
	}
}

func TestParsePrefersResolvedUnique(t *testing.T) {
	got := Parse(&tele.Callback{Unique: "links_move", Data: "7"})
	require.Equal(t, dispatch.CallbackData{Action: "links_move", Payload: "7"}, got)

	got = Parse(&tele.Callback{Data: "\flinks_move|7"})
	require.Equal(t, dispatch.CallbackData{Action: "links_move", Payload: "7"}, got)

	require.Equal(t, dispatch.CallbackData{}, Parse(nil))
}
