package importer

import "github.com/lshigami/examhub/internal/model"

// choiceColumns locates a 4-option choice question within a row.
type choiceColumns struct {
	Question    int
	Level       int
	Options     [optionSlots]int
	Correct     int
	Explanation int
}

func (c choiceColumns) detailColumns() []int {
	cols := []int{c.Level, c.Correct, c.Explanation}
	return append(cols, c.Options[:]...)
}

// groupedLayout is a sheet where parent rows declare a passage or audio
// resource and the following question rows belong to it.
type groupedLayout struct {
	kind      SheetType
	Title     int
	Body      int
	Media     int // 0 when the sheet has no media column
	bodyLabel string
	choice    choiceColumns
}

// strayColumns are scanned on rows without title, body or question.
func (l groupedLayout) strayColumns() []int {
	cols := l.choice.detailColumns()
	if l.Media > 0 {
		cols = append(cols, l.Media)
	}
	return cols
}

func (l groupedLayout) width() int {
	return maxColumn(l.columns())
}

// independentLayout is a sheet where every row is a standalone question.
// choice is set for grammar sheets only.
type independentLayout struct {
	kind         SheetType
	Content      int
	Hint         int
	Level        int
	Sample       int
	minContent   int
	questionType model.QuestionType
	choice       *choiceColumns
}

func (l independentLayout) strayColumns() []int {
	if l.choice != nil {
		return l.choice.detailColumns()
	}
	return []int{l.Hint, l.Level, l.Sample}
}

func (l independentLayout) width() int {
	return maxColumn(l.columns())
}

var readingLayout = groupedLayout{
	kind:      SheetReading,
	Title:     1,
	Body:      2,
	bodyLabel: "Passage",
	choice: choiceColumns{
		Question:    3,
		Level:       4,
		Options:     [optionSlots]int{5, 6, 7, 8},
		Correct:     9,
		Explanation: 10,
	},
}

var listeningLayout = groupedLayout{
	kind:      SheetListening,
	Title:     1,
	Body:      2,
	Media:     3,
	bodyLabel: "Transcript",
	choice: choiceColumns{
		Question:    4,
		Level:       5,
		Options:     [optionSlots]int{6, 7, 8, 9},
		Correct:     10,
		Explanation: 11,
	},
}

var grammarLayout = independentLayout{
	kind:         SheetGrammar,
	Content:      1,
	Level:        2,
	minContent:   minQuestionLen,
	questionType: model.QuestionSingleChoice,
	choice: &choiceColumns{
		Question:    1,
		Level:       2,
		Options:     [optionSlots]int{3, 4, 5, 6},
		Correct:     7,
		Explanation: 8,
	},
}

var writingLayout = independentLayout{
	kind:         SheetWriting,
	Content:      1,
	Hint:         2,
	Level:        3,
	Sample:       4,
	minContent:   minPromptLen,
	questionType: model.QuestionEssay,
}

var speakingLayout = independentLayout{
	kind:         SheetSpeaking,
	Content:      1,
	Hint:         2,
	Level:        3,
	Sample:       4,
	minContent:   minPromptLen,
	questionType: model.QuestionSpeakingRecording,
}

// column describes one template column.
type column struct {
	index   int
	header  string
	example string
}

func (l groupedLayout) columns() []column {
	cols := []column{
		{l.Title, "Title", "The Honey Bee"},
		{l.Body, l.bodyLabel, "Honey bees live in colonies of up to sixty thousand workers led by a single queen."},
	}
	if l.Media > 0 {
		cols = append(cols, column{l.Media, "Audio URL", "/uploads/listening/honey-bee.mp3"})
	}
	return append(cols, choiceTemplateColumns(l.choice, choiceExample{
		question:    "How many queens lead a colony?",
		options:     [optionSlots]string{"One", "Two", "Three", ""},
		explanation: "The text says the colony is led by a single queen.",
	})...)
}

func (l independentLayout) columns() []column {
	if l.choice != nil {
		return choiceTemplateColumns(*l.choice, choiceExample{
			question:    "She ____ to school every day.",
			options:     [optionSlots]string{"walks", "walk", "walking", "to walk"},
			explanation: "Third person singular takes -s in the present simple.",
		})
	}
	prompt := "Describe your favourite place to study and explain why you like it."
	if l.kind == SheetSpeaking {
		prompt = "Talk about a person who has influenced you. You have two minutes."
	}
	return []column{
		{l.Content, "Prompt", prompt},
		{l.Hint, "Hint", "Mention at least two reasons."},
		{l.Level, "Level (1-5)", "3"},
		{l.Sample, "Sample answer", "My favourite place to study is the city library because it is quiet."},
	}
}

type choiceExample struct {
	question    string
	options     [optionSlots]string
	explanation string
}

func choiceTemplateColumns(c choiceColumns, ex choiceExample) []column {
	cols := []column{
		{c.Question, "Question", ex.question},
		{c.Level, "Level (1-5)", "2"},
	}
	for i, idx := range c.Options {
		cols = append(cols, column{idx, "Option " + optionLetters[i], ex.options[i]})
	}
	return append(cols,
		column{c.Correct, "Correct (1-4)", "1"},
		column{c.Explanation, "Explanation", ex.explanation},
	)
}

func maxColumn(cols []column) int {
	m := 0
	for _, c := range cols {
		if c.index > m {
			m = c.index
		}
	}
	return m
}
