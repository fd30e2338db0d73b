package bot

import (
	"fmt"
	"strings"

	"github.com/m3rciful/notebot/core/telegram/format"
	"github.com/m3rciful/notebot/internal/models"
)

const (
	rubricIndent = "\t * "
	linkIndent   = "\t\t\t\t\t\t\t\t"
	bugTimeFmt   = "2006-01-02 15:04:05"
)

// linkText renders a link as "description\n[short url]" or just the short url.
func linkText(l models.Link) string {
	short := format.Escape(l.ShortURL())
	if l.Description == nil {
		return short
	}
	return format.Escape(*l.Description) + "\n[" + short + "]"
}

// linkWithRubric prefixes linkText with the rubric name or the non-rubric mark.
func linkWithRubric(l models.Link) string {
	prefix := EmojiNonRubric
	if l.Rubric != nil {
		prefix = format.Escape(l.Rubric.Name)
	}
	return prefix + " | " + linkText(l)
}

// linkButtonText is the single-line form used on inline buttons.
func linkButtonText(l models.Link) string {
	prefix := EmojiNonRubric
	if l.Rubric != nil {
		prefix = l.Rubric.Name
	}
	text := l.ShortURL()
	if l.Description != nil {
		text = *l.Description + " [" + text + "]"
	}
	return prefix + " | " + text
}

func rubricText(r models.Rubric) string {
	s := format.Bold(r.Name)
	if r.Description != nil {
		s += " [" + format.Escape(*r.Description) + "]"
	}
	return s
}

func renderRubrics(rubrics []models.Rubric) string {
	if len(rubrics) == 0 {
		return MsgRubricsEmpty
	}
	var b strings.Builder
	b.WriteString(MsgRubricsHeader)
	for _, r := range rubrics {
		b.WriteString("\n" + rubricIndent + rubricText(r))
	}
	return b.String()
}

func renderLinks(links []models.Link) string {
	if len(links) == 0 {
		return MsgLinksEmpty
	}
	var b strings.Builder
	b.WriteString(MsgLinksHeader)
	for _, l := range links {
		b.WriteString("\n" + EmojiLinkShift + " " + linkWithRubric(l))
	}
	return b.String()
}

func renderGroups(groups []models.RubricLinks) string {
	if len(groups) == 0 {
		return MsgLinksEmpty
	}
	parts := make([]string, 0, len(groups))
	for _, g := range groups {
		var b strings.Builder
		if g.Rubric != nil {
			b.WriteString(EmojiRubricShift + " " + rubricText(*g.Rubric))
		} else {
			b.WriteString(EmojiNonRubric + " " + format.Bold(MsgNonRubricTitle))
		}
		for _, l := range g.Links {
			b.WriteString("\n" + linkIndent + EmojiLinkShift + " " + linkText(l))
		}
		parts = append(parts, b.String())
	}
	return strings.Join(parts, "\n\n")
}

func bugText(bug models.Bug) string {
	return format.Lines(
		fmt.Sprintf("id: %d", bug.ID),
		"message: "+format.Escape(bug.Message),
		"created at: "+bug.CreatedAt.Format(bugTimeFmt),
		fmt.Sprintf("is shown before: %t", bug.Shown),
		fmt.Sprintf("user: %d", bug.UserID),
	)
}

func renderBugs(header string, bugs []models.Bug) string {
	if len(bugs) == 0 {
		return MsgBugsEmpty
	}
	parts := make([]string, 0, len(bugs))
	for _, bug := range bugs {
		parts = append(parts, bugText(bug))
	}
	return header + "\n" + strings.Join(parts, bugSeparator)
}

func missedText(text string) string {
	return format.Lines(
		"🤨 Sorry, but I don`t know what can I do with this:",
		"Your message: "+format.Escape(text),
		"🤔 Try to get more with /help command!",
		missedTextSupportSection,
	)
}

func unsupportedText() string {
	return format.Lines(
		"🤨 Sorry, but I don`t know what can I do with this:",
		"🧐 It might be that you sent unsupported type of message (e.g. sticker, gif)",
		"🤔 Try to get more with /help command!",
		missedTextSupportSection,
	)
}

func greeting(username string) string {
	name := username
	if name == "" {
		name = nameFallback
	}
	return "Hello, " + format.Bold(name) + "! I`m your small <i>links saver helper</i> :) " +
		"Explore more with the /help command!"
}
