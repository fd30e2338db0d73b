// Package callbacks decodes inline button data produced by telebot markup.
package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/notebot/core/dispatch"
)

// dataPrefix marks telebot-encoded button data: \f<unique>|<payload>.
const dataPrefix = "\f"

// ParseData splits raw callback data into its unique key and payload.
// Data without the telebot prefix is treated as a bare key.
func ParseData(raw string) (string, string) {
	raw = strings.TrimPrefix(raw, dataPrefix)
	unique, payload, _ := strings.Cut(raw, "|")
	return strings.TrimSpace(unique), payload
}

// Parse decodes cb. When telebot already resolved a registered unique,
// Data holds only the payload.
func Parse(cb *tele.Callback) dispatch.CallbackData {
	if cb == nil {
		return dispatch.CallbackData{}
	}
	if cb.Unique != "" {
		return dispatch.CallbackData{Action: cb.Unique, Payload: cb.Data}
	}
	action, payload := ParseData(cb.Data)
	return dispatch.CallbackData{Action: action, Payload: payload}
}
