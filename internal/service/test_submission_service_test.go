package service

import (
	"errors"
	"io"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/lshigami/examhub/internal/dto"
	"github.com/lshigami/examhub/internal/grading"
	"github.com/lshigami/examhub/internal/model"
	"github.com/lshigami/examhub/internal/repository"
	"github.com/lshigami/examhub/internal/storage"
	"github.com/spf13/afero"
)

// mixedExam holds one choice (2 points), one essay (3 points) and one
// speaking question (4 points).
type mixedExam struct {
	examID        uint
	choice        model.Question
	essay         model.Question
	speaking      model.Question
	correctAnswer uint
	wrongAnswer   uint
}

func (f *fixture) seedMixedExam(t *testing.T) mixedExam {
	t.Helper()
	qs := f.seedQuestions(t,
		choiceQuestion("She ____ here.", model.SkillGrammar),
		openQuestion("Describe your hometown.", model.SkillWriting, model.QuestionEssay),
		openQuestion("Talk about your last holiday.", model.SkillSpeaking, model.QuestionSpeakingRecording),
	)
	examID, partID := f.newExamWithPart(t, dto.ExamCreateDTO{})
	f.link(t, partID, qs[0].ID, 2)
	f.link(t, partID, qs[1].ID, 3)
	f.link(t, partID, qs[2].ID, 4)
	return mixedExam{
		examID:        examID,
		choice:        qs[0],
		essay:         qs[1],
		speaking:      qs[2],
		correctAnswer: qs[0].Answers[0].ID,
		wrongAnswer:   qs[0].Answers[1].ID,
	}
}

func newMemMedia() (afero.Fs, *storage.MediaStore) {
	fs := afero.NewMemMapFs()
	return fs, storage.NewMediaStore(fs, "/srv/wwwroot", "uploads")
}

func (f *fixture) submissions(media MediaStorage) *testSubmissionService {
	return NewTestSubmissionService(f.store, f.keys, media, NewScoreConverterService()).(*testSubmissionService)
}

func fullSubmission(m mixedExam, studentID uint) SubmitRequest {
	return SubmitRequest{
		StudentID: studentID,
		Answers: grading.Submission{
			SelectedAnswers: map[uint]uint{m.choice.ID: m.correctAnswer},
			TextAnswers:     map[uint]string{m.essay.ID: "I grew up in a small town by the sea."},
			Audio:           map[uint]grading.Audio{m.speaking.ID: {FileName: "answer.MP3", Content: strings.NewReader("RIFF")}},
		},
	}
}

func countFiles(t *testing.T, fs afero.Fs) int {
	t.Helper()
	n := 0
	err := afero.Walk(fs, "/", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			n++
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk media fs: %v", err)
	}
	return n
}

func TestSubmitMixedExamWaitsForGrader(t *testing.T) {
	f := newFixture(t)
	m := f.seedMixedExam(t)
	fs, media := newMemMedia()

	detail, err := f.submissions(media).SubmitExam(f.ctx, m.examID, fullSubmission(m, 7))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if detail.Status != model.AttemptSubmitted || detail.Score != 2 || detail.MaxScore != 9 {
		t.Fatalf("unexpected totals %+v", detail)
	}
	if detail.PendingCount != 2 || len(detail.Results) != 3 || detail.SubmittedAt == nil {
		t.Fatalf("unexpected detail %+v", detail)
	}

	byQuestion := map[uint]dto.TestResultDTO{}
	for _, r := range detail.Results {
		byQuestion[r.QuestionID] = r
	}
	choice := byQuestion[m.choice.ID]
	if choice.IsCorrect == nil || !*choice.IsCorrect || choice.ScoreObtained != 2 || choice.CorrectAnswerID == nil || *choice.CorrectAnswerID != m.correctAnswer {
		t.Fatalf("unexpected choice result %+v", choice)
	}
	essay := byQuestion[m.essay.ID]
	if !essay.PendingGrade || essay.TextAnswer == nil {
		t.Fatalf("essay should wait for a grader: %+v", essay)
	}
	speaking := byQuestion[m.speaking.ID]
	if !speaking.PendingGrade || speaking.AudioAnswerURL == nil {
		t.Fatalf("speaking answer should be stored: %+v", speaking)
	}
	url := *speaking.AudioAnswerURL
	prefix := "/uploads/speaking/attempt_" + itoa(detail.ID) + "_student_7/q" + itoa(m.speaking.ID) + "_"
	if !strings.HasPrefix(url, prefix) || !strings.HasSuffix(url, ".mp3") {
		t.Fatalf("unexpected audio url %s, want prefix %s", url, prefix)
	}
	file, err := media.Open(url)
	if err != nil {
		t.Fatalf("open stored audio: %v", err)
	}
	defer file.Close()
	if body, _ := io.ReadAll(file); string(body) != "RIFF" {
		t.Fatalf("unexpected audio body %q", body)
	}
	if countFiles(t, fs) != 1 {
		t.Fatalf("expected exactly one stored file")
	}
}

func TestSubmitChoiceOnlyExamIsGradedImmediately(t *testing.T) {
	f := newFixture(t)
	qs := f.seedQuestions(t, choiceQuestion("She ____ here.", model.SkillGrammar), choiceQuestion("They ____ late.", model.SkillGrammar))
	examID, partID := f.newExamWithPart(t, dto.ExamCreateDTO{})
	f.link(t, partID, qs[0].ID, 1)
	f.link(t, partID, qs[1].ID, 3)
	_, media := newMemMedia()

	detail, err := f.submissions(media).SubmitExam(f.ctx, examID, SubmitRequest{
		StudentID: 3,
		Answers: grading.Submission{SelectedAnswers: map[uint]uint{
			qs[0].ID: qs[0].Answers[1].ID,
			qs[1].ID: qs[1].Answers[0].ID,
		}},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if detail.Status != model.AttemptGraded || detail.Score != 3 || detail.MaxScore != 4 || detail.PendingCount != 0 {
		t.Fatalf("unexpected detail %+v", detail)
	}
	if detail.Percentage == nil || *detail.Percentage != 75 {
		t.Fatalf("expected 75%%, got %v", detail.Percentage)
	}
}

func TestSubmitRollbackRemovesSavedAudio(t *testing.T) {
	f := newFixture(t)
	m := f.seedMixedExam(t)
	fs, media := newMemMedia()
	f.store.CommitErr = errors.New("serialization failure")

	if _, err := f.submissions(media).SubmitExam(f.ctx, m.examID, fullSubmission(m, 7)); err == nil {
		t.Fatalf("expected the submission to fail")
	}
	if c := f.store.Counts(); c.Attempts != 0 || c.Results != 0 {
		t.Fatalf("rolled back attempt left rows: %+v", c)
	}
	if n := countFiles(t, fs); n != 0 {
		t.Fatalf("expected saved audio to be removed, %d files remain", n)
	}
}

func TestSubmitRejectsClosedAndEmptyExams(t *testing.T) {
	f := newFixture(t)
	_, media := newMemMedia()
	svc := f.submissions(media)
	qs := f.seedQuestions(t, choiceQuestion("She ____ here.", model.SkillGrammar))

	start, end := time.Now().Add(-2*time.Hour), time.Now().Add(-time.Hour)
	closedID, closedPart := f.newExamWithPart(t, dto.ExamCreateDTO{StartsAt: &start, EndsAt: &end})
	f.link(t, closedPart, qs[0].ID, 1)
	if _, err := svc.SubmitExam(f.ctx, closedID, SubmitRequest{StudentID: 1}); !errors.Is(err, model.ErrExamClosed) {
		t.Fatalf("expected ErrExamClosed, got %v", err)
	}

	emptyID, _ := f.newExamWithPart(t, dto.ExamCreateDTO{})
	if _, err := svc.SubmitExam(f.ctx, emptyID, SubmitRequest{StudentID: 1}); !errors.Is(err, model.ErrEmptyExam) {
		t.Fatalf("expected ErrEmptyExam, got %v", err)
	}
	if _, err := svc.SubmitExam(f.ctx, 404, SubmitRequest{StudentID: 1}); !errors.Is(err, model.ErrExamNotFound) {
		t.Fatalf("expected ErrExamNotFound, got %v", err)
	}
	if c := f.store.Counts(); c.Attempts != 0 {
		t.Fatalf("rejected submissions created attempts: %+v", c)
	}
}

func TestSubmitClampsFutureStartTime(t *testing.T) {
	f := newFixture(t)
	qs := f.seedQuestions(t, choiceQuestion("She ____ here.", model.SkillGrammar))
	examID, partID := f.newExamWithPart(t, dto.ExamCreateDTO{})
	f.link(t, partID, qs[0].ID, 1)
	_, media := newMemMedia()
	svc := f.submissions(media)
	fixed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	future := fixed.Add(time.Hour)
	detail, err := svc.SubmitExam(f.ctx, examID, SubmitRequest{StudentID: 2, StartedAt: &future})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !detail.StartedAt.Equal(fixed) {
		t.Fatalf("expected start time %v, got %v", fixed, detail.StartedAt)
	}

	past := fixed.Add(-30 * time.Minute)
	detail, err = svc.SubmitExam(f.ctx, examID, SubmitRequest{StudentID: 2, StartedAt: &past})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !detail.StartedAt.Equal(past) {
		t.Fatalf("expected start time %v, got %v", past, detail.StartedAt)
	}
}

func TestListAttemptsFilters(t *testing.T) {
	f := newFixture(t)
	qs := f.seedQuestions(t, choiceQuestion("She ____ here.", model.SkillGrammar))
	examID, partID := f.newExamWithPart(t, dto.ExamCreateDTO{})
	f.link(t, partID, qs[0].ID, 1)
	_, media := newMemMedia()
	svc := f.submissions(media)

	for _, student := range []uint{1, 2, 2} {
		if _, err := svc.SubmitExam(f.ctx, examID, SubmitRequest{StudentID: student}); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
	student := uint(2)
	attempts, err := svc.ListAttempts(f.ctx, repository.AttemptFilter{ExamID: &examID, StudentID: &student})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(attempts) != 2 {
		t.Fatalf("expected 2 attempts, got %+v", attempts)
	}
	for _, a := range attempts {
		if a.StudentID != 2 || a.Status != model.AttemptGraded || a.MaxScore != 1 {
			t.Fatalf("unexpected attempt %+v", a)
		}
	}
}

func itoa(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
