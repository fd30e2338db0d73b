package bot

import (
	"strconv"

	"github.com/m3rciful/notebot/core/dispatch"
	"github.com/m3rciful/notebot/core/telegram/format"
	"github.com/m3rciful/notebot/internal/flow"
	"github.com/m3rciful/notebot/internal/models"
)

// Reply keyboard labels.
const (
	BtnSeeLinks        = "See all links"
	BtnSeeRubrics      = "See all rubrics"
	BtnLinksByRubric   = "See links by rubric"
	BtnAddLink         = "Add a new link"
	BtnAddRubric       = "Add a new rubric"
	BtnDeleteLink      = "Delete the link"
	BtnDeleteRubric    = "Delete the rubric"
	BtnSeriousDeleting = "👊 Serious deleting"

	BtnPass = "➡️ Pass"

	BtnSetNonRubric = "🖤 Set to non-rubric"
	BtnDeleteLinks  = "🗑 Delete all related links"
	BtnMoveLinks    = "📁 Move in another rubric"

	BtnComeback     = "⬅️ Comeback"
	BtnYes          = "✅ Yes"
	BtnNo           = "❌ No"
	BtnComebackMain = "⬅️ Comeback to main menu"
)

const inlineButtonMax = 60

var bulkButtons = []struct {
	op    flow.BulkOperation
	label string
	what  string
}{
	{flow.BulkAllLinks, "🗑 All links", "all links"},
	{flow.BulkAllRubrics, "🗑 All rubrics", "all rubrics (their links become non-rubric)"},
	{flow.BulkAllRubricLinks, "🗑 All rubric links", "all links that belong to a rubric"},
	{flow.BulkAllNonRubricLinks, "🗑 All non-rubric links", "all non-rubric links"},
	{flow.BulkAllData, "☢️ All data", "all links and rubrics"},
}

func bulkLabels() []string {
	out := make([]string, 0, len(bulkButtons))
	for _, b := range bulkButtons {
		out = append(out, b.label)
	}
	return out
}

func bulkByLabel(label string) (flow.BulkOperation, bool) {
	for _, b := range bulkButtons {
		if b.label == label {
			return b.op, true
		}
	}
	return "", false
}

func bulkDescription(op flow.BulkOperation) string {
	for _, b := range bulkButtons {
		if b.op == op {
			return b.what
		}
	}
	return string(op)
}

// MainKeyboard is the idle menu.
func MainKeyboard() *dispatch.Keyboard {
	return &dispatch.Keyboard{
		Reply: [][]string{
			{BtnSeeLinks, BtnSeeRubrics},
			{BtnLinksByRubric},
			{BtnAddLink, BtnAddRubric},
			{BtnDeleteLink, BtnDeleteRubric},
			{BtnSeriousDeleting},
		},
		OneTime: true,
	}
}

func removeKeyboard() *dispatch.Keyboard {
	return &dispatch.Keyboard{Remove: true}
}

func passKeyboard() *dispatch.Keyboard {
	return &dispatch.Keyboard{Reply: [][]string{{BtnPass}}, OneTime: true}
}

// dispositionKeyboard hides the move option when the user has no other rubric.
func dispositionKeyboard(canMove bool) *dispatch.Keyboard {
	rows := [][]string{{BtnSetNonRubric}, {BtnDeleteLinks}}
	if canMove {
		rows = append(rows, []string{BtnMoveLinks})
	}
	return &dispatch.Keyboard{Reply: rows, OneTime: true}
}

func bulkKeyboard() *dispatch.Keyboard {
	rows := make([][]string, 0, len(bulkButtons)+1)
	for _, b := range bulkButtons {
		rows = append(rows, []string{b.label})
	}
	rows = append(rows, []string{BtnComeback})
	return &dispatch.Keyboard{Reply: rows}
}

func confirmKeyboard() *dispatch.Keyboard {
	return &dispatch.Keyboard{Reply: [][]string{{BtnYes, BtnNo}, {BtnComebackMain}}}
}

// rubricsKeyboard lists rubrics one per row, skipping exceptID.
func rubricsKeyboard(action string, rubrics []models.Rubric, exceptID int64) *dispatch.Keyboard {
	rows := make([][]dispatch.Button, 0, len(rubrics))
	for _, r := range rubrics {
		if r.ID == exceptID {
			continue
		}
		rows = append(rows, []dispatch.Button{{
			Text:    format.Truncate(r.Name, inlineButtonMax),
			Action:  action,
			Payload: strconv.FormatInt(r.ID, 10),
		}})
	}
	return &dispatch.Keyboard{Inline: rows}
}

func linkRubricKeyboard(rubrics []models.Rubric) *dispatch.Keyboard {
	kb := rubricsKeyboard(ActionLinkRubric, rubrics, 0)
	pass := []dispatch.Button{{Text: BtnPass, Action: ActionLinkRubric, Payload: payloadPass}}
	kb.Inline = append([][]dispatch.Button{pass}, kb.Inline...)
	return kb
}

func linksKeyboard(links []models.Link) *dispatch.Keyboard {
	rows := make([][]dispatch.Button, 0, len(links))
	for _, l := range links {
		rows = append(rows, []dispatch.Button{{
			Text:    format.Truncate(linkButtonText(l), inlineButtonMax),
			Action:  ActionLinkDelete,
			Payload: strconv.FormatInt(l.ID, 10),
		}})
	}
	return &dispatch.Keyboard{Inline: rows}
}
