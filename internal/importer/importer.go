// Package importer validates question-bank spreadsheets and turns them into
// a persistence plan. It never touches storage: callers commit a Plan only
// when it carries no errors.
package importer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lshigami/examhub/internal/model"
)

// Fixed sheet geometry shared by every import type.
const (
	TypeRow      = 6
	TypeCol      = 1
	HeaderRow    = 7
	FirstDataRow = 8
)

var ErrUnknownSheetType = errors.New("unrecognized sheet type")

type Mode string

const (
	ModeCheck Mode = "check"
	ModeSave  Mode = "save"
)

func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case ModeCheck, "":
		return ModeCheck, nil
	case ModeSave:
		return ModeSave, nil
	}
	return "", fmt.Errorf("unknown import mode %q", raw)
}

type SheetType int

const (
	SheetReading SheetType = iota + 1
	SheetListening
	SheetWriting
	SheetGrammar
	SheetSpeaking
)

var sheetPrefixes = []struct {
	prefix string
	kind   SheetType
}{
	{"TYPE_READING", SheetReading},
	{"TYPE_LISTENING", SheetListening},
	{"TYPE_WRITING", SheetWriting},
	{"TYPE_GRAMMAR", SheetGrammar},
	{"TYPE_SPEAKING", SheetSpeaking},
}

// Discriminator is the value written into the type cell of a template.
func (t SheetType) Discriminator() string {
	for _, p := range sheetPrefixes {
		if p.kind == t {
			return p.prefix
		}
	}
	return ""
}

func (t SheetType) String() string {
	return strings.ToLower(strings.TrimPrefix(t.Discriminator(), "TYPE_"))
}

// Skill is the question skill type produced by a sheet.
func (t SheetType) Skill() model.SkillType {
	switch t {
	case SheetReading:
		return model.SkillReading
	case SheetListening:
		return model.SkillListening
	case SheetWriting:
		return model.SkillWriting
	case SheetGrammar:
		return model.SkillGrammar
	case SheetSpeaking:
		return model.SkillSpeaking
	}
	return model.SkillNone
}

// ParseSheetType accepts "reading", "listening", ... as used in URLs and flags.
func ParseSheetType(name string) (SheetType, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for _, p := range sheetPrefixes {
		if "TYPE_"+name == p.prefix {
			return p.kind, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSheetType, name)
}

// KnownDiscriminators lists the accepted type cell prefixes, comma separated.
func KnownDiscriminators() string {
	names := make([]string, len(sheetPrefixes))
	for i, p := range sheetPrefixes {
		names[i] = p.prefix
	}
	return strings.Join(names, ", ")
}

// DetectType reads the discriminator cell. The value must start with one of
// the TYPE_* prefixes.
func DetectType(g Grid) (SheetType, error) {
	raw := g.Cell(TypeRow, TypeCol)
	for _, p := range sheetPrefixes {
		if strings.HasPrefix(raw, p.prefix) {
			return p.kind, nil
		}
	}
	if raw == "" {
		return 0, fmt.Errorf("%w: cell A%d is empty", ErrUnknownSheetType, TypeRow)
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSheetType, raw)
}

// RowError is a validation failure tied to a sheet row. Row 0 marks a
// batch-level error.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// Plan is the outcome of scanning a sheet: the entities to create and the
// errors found. Child questions are nested in their parent resource.
type Plan struct {
	Type               SheetType
	Passages           []model.ReadingPassage
	ListeningResources []model.ListeningResource
	Questions          []model.Question
	Errors             []RowError
	ValidCount         int
	InvalidCount       int
}

func (p *Plan) HasErrors() bool {
	return len(p.Errors) > 0
}

// Admissible reports whether the plan may be committed.
func (p *Plan) Admissible() bool {
	return !p.HasErrors() && p.ValidCount > 0
}

// QuestionCount counts every question in the plan, nested or standalone.
func (p *Plan) QuestionCount() int {
	n := len(p.Questions)
	for _, rp := range p.Passages {
		n += len(rp.Questions)
	}
	for _, lr := range p.ListeningResources {
		n += len(lr.Questions)
	}
	return n
}

// Scan validates every data row of g. It never stops at the first error.
func Scan(kind SheetType, g Grid) *Plan {
	plan := &Plan{Type: kind}
	switch kind {
	case SheetReading:
		scanGrouped(readingLayout, g, plan)
	case SheetListening:
		scanGrouped(listeningLayout, g, plan)
	case SheetGrammar:
		scanIndependent(grammarLayout, g, plan)
	case SheetWriting:
		scanIndependent(writingLayout, g, plan)
	case SheetSpeaking:
		scanIndependent(speakingLayout, g, plan)
	default:
		plan.Errors = append(plan.Errors, RowError{Row: 0, Message: ErrUnknownSheetType.Error()})
	}
	plan.InvalidCount = countRows(plan.Errors)
	return plan
}

// ScanSheet detects the sheet type and scans it.
func ScanSheet(g Grid) (*Plan, error) {
	kind, err := DetectType(g)
	if err != nil {
		return nil, err
	}
	return Scan(kind, g), nil
}

func countRows(errs []RowError) int {
	seen := make(map[int]struct{}, len(errs))
	for _, e := range errs {
		seen[e.Row] = struct{}{}
	}
	return len(seen)
}
