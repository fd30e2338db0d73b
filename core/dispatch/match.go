package dispatch

import (
	"regexp"
	"slices"
	"strings"
)

// Matcher decides whether a route accepts an event.
type Matcher struct {
	name string
	fn   func(*Event) bool
}

// Match reports whether ev is accepted.
func (m Matcher) Match(ev *Event) bool {
	return m.fn != nil && m.fn(ev)
}

func (m Matcher) String() string { return m.name }

// Command matches commands by name, with or without the leading slash.
func Command(names ...string) Matcher {
	want := make([]string, 0, len(names))
	for _, n := range names {
		want = append(want, strings.ToLower(strings.TrimPrefix(n, "/")))
	}
	return Matcher{
		name: "command:" + strings.Join(want, ","),
		fn: func(ev *Event) bool {
			return ev.Kind == KindCommand && slices.Contains(want, ev.Command)
		},
	}
}

// Text matches plain text equal to one of values after trimming.
func Text(values ...string) Matcher {
	return Matcher{
		name: "text",
		fn: func(ev *Event) bool {
			return ev.Kind == KindText && slices.Contains(values, strings.TrimSpace(ev.Text))
		},
	}
}

// Regex matches plain text containing re and stores the submatches in
// ev.Match.
func Regex(re *regexp.Regexp) Matcher {
	return Matcher{
		name: "regex",
		fn: func(ev *Event) bool {
			if ev.Kind != KindText {
				return false
			}
			m := re.FindStringSubmatch(ev.Text)
			if m == nil {
				return false
			}
			ev.Match = m
			return true
		},
	}
}

// AnyText matches every plain text message.
func AnyText() Matcher {
	return Matcher{name: "any_text", fn: func(ev *Event) bool { return ev.Kind == KindText }}
}

// AnyCommand matches every command.
func AnyCommand() Matcher {
	return Matcher{name: "any_command", fn: func(ev *Event) bool { return ev.Kind == KindCommand }}
}

// OneOf matches when any of ms does; the first match wins.
func OneOf(ms ...Matcher) Matcher {
	names := make([]string, 0, len(ms))
	for _, m := range ms {
		names = append(names, m.name)
	}
	return Matcher{
		name: strings.Join(names, "|"),
		fn: func(ev *Event) bool {
			for _, m := range ms {
				if m.Match(ev) {
					return true
				}
			}
			return false
		},
	}
}

// Callback matches inline button presses with one of the actions.
func Callback(actions ...string) Matcher {
	return Matcher{
		name: "callback:" + strings.Join(actions, ","),
		fn: func(ev *Event) bool {
			return ev.Kind == KindCallback && slices.Contains(actions, ev.Callback.Action)
		},
	}
}

// AnyCallback matches every inline button press.
func AnyCallback() Matcher {
	return Matcher{name: "any_callback", fn: func(ev *Event) bool { return ev.Kind == KindCallback }}
}

// Voice matches voice messages.
func Voice() Matcher {
	return Matcher{name: "voice", fn: func(ev *Event) bool { return ev.Kind == KindVoice }}
}

// Any matches every event.
func Any() Matcher {
	return Matcher{name: "any", fn: func(*Event) bool { return true }}
}

// StateFilter restricts a route to conversation states. The zero value
// accepts only users without an active flow.
type StateFilter struct {
	any    bool
	states []string
}

// Idle accepts users without an active flow.
func Idle() StateFilter { return StateFilter{} }

// InState accepts users in one of the named states.
func InState(names ...string) StateFilter { return StateFilter{states: names} }

// AnyState accepts every user regardless of state.
func AnyState() StateFilter { return StateFilter{any: true} }

// Wildcard reports whether the filter ignores state.
func (f StateFilter) Wildcard() bool { return f.any }

func (f StateFilter) exact(current string) bool {
	if f.any {
		return false
	}
	if len(f.states) == 0 {
		return current == ""
	}
	return slices.Contains(f.states, current)
}

func (f StateFilter) String() string {
	switch {
	case f.any:
		return "*"
	case len(f.states) == 0:
		return "idle"
	default:
		return strings.Join(f.states, "|")
	}
}
