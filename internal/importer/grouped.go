package importer

import (
	"fmt"

	"github.com/lshigami/examhub/internal/model"
)

// parentDraft is a passage or listening resource declared by a row.
type parentDraft struct {
	row       int
	title     string
	body      string
	media     string
	questions []model.Question
}

// groupedAcc is threaded through the row fold. current is the parent that
// question rows attach to; it is cleared when a declaration row fails.
type groupedAcc struct {
	current *parentDraft
	parents []*parentDraft
	errs    []RowError
	valid   int
}

func scanGrouped(l groupedLayout, g Grid, plan *Plan) {
	var acc groupedAcc
	for _, r := range readRecords(g, l.width()) {
		acc = acc.step(l, r)
	}

	for _, p := range acc.parents {
		switch l.kind {
		case SheetReading:
			plan.Passages = append(plan.Passages, model.ReadingPassage{
				Title:     p.title,
				Content:   p.body,
				Questions: p.questions,
			})
		case SheetListening:
			plan.ListeningResources = append(plan.ListeningResources, model.ListeningResource{
				Title:      p.title,
				Transcript: p.body,
				AudioURL:   optionalString(p.media),
				Questions:  p.questions,
			})
		}
	}
	plan.Errors = append(plan.Errors, acc.errs...)
	plan.ValidCount += acc.valid
}

func (acc groupedAcc) step(l groupedLayout, r record) groupedAcc {
	title := r.cell(l.Title)
	body := r.cell(l.Body)
	hasTitle, hasBody := title != "", body != ""
	hasQuestion := r.cell(l.choice.Question) != ""

	if !hasTitle && !hasBody && !hasQuestion {
		if r.anyFilled(l.strayColumns()...) {
			acc.errs = append(acc.errs, RowError{Row: r.num, Message: msgJunkGrouped})
		}
		return acc
	}

	// A question row only declares a parent when it carries both title and
	// body. A lone title or body next to a question is ignored.
	declaresParent := hasTitle && hasBody
	if !hasQuestion || declaresParent {
		acc = acc.declare(l, r, title, body)
	}
	if hasQuestion {
		acc = acc.attach(l, r, declaresParent)
	}
	return acc
}

func (acc groupedAcc) declare(l groupedLayout, r record, title, body string) groupedAcc {
	var msgs []string
	if title == "" {
		msgs = append(msgs, msgTitleRequired)
	}
	switch {
	case body == "":
		msgs = append(msgs, fmt.Sprintf("%s is required", l.bodyLabel))
	case runeLen(body) < minBodyLen:
		msgs = append(msgs, fmt.Sprintf("%s must be longer than %d characters", l.bodyLabel, minBodyLen-1))
	}

	if len(msgs) > 0 {
		acc.errs = appendRowErrors(acc.errs, r.num, msgs)
		acc.current = nil
		return acc
	}

	p := &parentDraft{
		row:   r.num,
		title: title,
		body:  body,
		media: r.cell(l.Media),
	}
	acc.parents = append(acc.parents, p)
	acc.current = p
	return acc
}

func (acc groupedAcc) attach(l groupedLayout, r record, declaresParent bool) groupedAcc {
	q, msgs := choiceQuestion(r, l.choice, l.kind.Skill())
	if acc.current == nil && !declaresParent {
		msgs = append(msgs, msgOrphan)
	}
	if len(msgs) > 0 {
		acc.errs = appendRowErrors(acc.errs, r.num, msgs)
		return acc
	}
	if acc.current == nil {
		// the declaration on this same row failed and was already reported
		return acc
	}
	acc.current.questions = append(acc.current.questions, q)
	acc.valid++
	return acc
}
