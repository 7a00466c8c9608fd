package importer

import (
	"fmt"

	"github.com/lshigami/examhub/internal/model"
)

func scanIndependent(l independentLayout, g Grid, plan *Plan) {
	for _, r := range readRecords(g, l.width()) {
		if r.cell(l.Content) == "" {
			if r.anyFilled(l.strayColumns()...) {
				plan.Errors = append(plan.Errors, RowError{Row: r.num, Message: msgJunkIndependent})
			}
			continue
		}

		q, msgs := l.question(r)
		if len(msgs) > 0 {
			plan.Errors = appendRowErrors(plan.Errors, r.num, msgs)
			continue
		}
		plan.Questions = append(plan.Questions, q)
		plan.ValidCount++
	}
}

func (l independentLayout) question(r record) (model.Question, []string) {
	if l.choice != nil {
		return choiceQuestion(r, *l.choice, l.kind.Skill())
	}

	var msgs []string
	content := r.cell(l.Content)
	if runeLen(content) < l.minContent {
		msgs = append(msgs, fmt.Sprintf("Prompt must be at least %d characters", l.minContent))
	}
	level, msg := parseLevel(r.cell(l.Level))
	if msg != "" {
		msgs = append(msgs, msg)
	}
	if len(msgs) > 0 {
		return model.Question{}, msgs
	}

	if hint := r.cell(l.Hint); hint != "" {
		content = withHint(content, hint)
	}
	return model.Question{
		Content:      content,
		SkillType:    l.kind.Skill(),
		QuestionType: l.questionType,
		Level:        level,
		Explanation:  optionalString(r.cell(l.Sample)),
	}, nil
}

// withHint appends the author hint to the prompt shown to students.
func withHint(content, hint string) string {
	return fmt.Sprintf("%s\n\n(Hint: %s)", content, hint)
}
