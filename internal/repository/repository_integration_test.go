package repository_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lshigami/examhub/config"
	"github.com/lshigami/examhub/database"
	"github.com/lshigami/examhub/internal/importer"
	"github.com/lshigami/examhub/internal/model"
	"github.com/lshigami/examhub/internal/repository"
	"github.com/lshigami/examhub/internal/service"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

func startPostgres(t *testing.T, ctx context.Context) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test")
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:15-alpine",
			Env:          map[string]string{"POSTGRES_USER": "examhub", "POSTGRES_PASSWORD": "examhub", "POSTGRES_DB": "examhub"},
			ExposedPorts: []string{"5432/tcp"},
			WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") || strings.Contains(err.Error(), "docker") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	cfg := &config.Config{Database: config.Database{
		Host: host, Port: port.Port(), User: "examhub", Password: "examhub", Name: "examhub", SSLMode: "disable",
	}}
	db, err := database.NewDatabase(cfg)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestPostgresStore(t *testing.T) {
	ctx := context.Background()
	store := repository.NewStore(startPostgres(t, ctx))
	repos := store.Repos()

	yes, no := true, false
	passages := []model.ReadingPassage{{
		Title:   "Tides",
		Content: "The moon pulls the sea.",
		Questions: []model.Question{{
			Content: "What pulls the sea?", SkillType: model.SkillReading, QuestionType: model.QuestionSingleChoice, Level: 1,
			Answers: []model.Answer{{Content: "The moon", IsCorrect: &yes}, {Content: "The wind", IsCorrect: &no}},
		}},
	}}
	if err := repos.Resources.CreatePassages(ctx, passages); err != nil {
		t.Fatalf("create passages: %v", err)
	}
	qid := passages[0].Questions[0].ID

	t.Run("a question takes one slot per exam", func(t *testing.T) {
		exam := &model.Exam{Title: "Mock", DurationMinutes: 30, IsActive: true}
		if err := repos.Exams.Create(ctx, exam); err != nil {
			t.Fatalf("create exam: %v", err)
		}
		parts := []*model.ExamPart{
			{ExamID: exam.ID, Name: "A", OrderIndex: 1, SkillType: model.SkillReading},
			{ExamID: exam.ID, Name: "B", OrderIndex: 2, SkillType: model.SkillReading},
		}
		for _, p := range parts {
			if err := repos.Exams.CreatePart(ctx, p); err != nil {
				t.Fatalf("create part: %v", err)
			}
		}
		added, err := repos.Exams.InsertQuestionIfAbsent(ctx, &model.ExamQuestion{ExamID: exam.ID, ExamPartID: parts[0].ID, QuestionID: qid, SortOrder: 1, Score: 1})
		if err != nil || !added {
			t.Fatalf("first link: %v %v", added, err)
		}
		added, err = repos.Exams.InsertQuestionIfAbsent(ctx, &model.ExamQuestion{ExamID: exam.ID, ExamPartID: parts[1].ID, QuestionID: qid, SortOrder: 1, Score: 1})
		if err != nil || added {
			t.Fatalf("second link in another part should be skipped: %v %v", added, err)
		}
		if n, err := repos.Questions.UsageCount(ctx, qid); err != nil || n != 1 {
			t.Fatalf("usage count: %d %v", n, err)
		}
	})

	t.Run("deleting a passage orphans its questions", func(t *testing.T) {
		if err := repos.Resources.Delete(ctx, model.ResourceReading, passages[0].ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
		q, err := repos.Questions.FindByID(ctx, qid)
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		if q.ReadingPassageID != nil || len(q.Answers) != 2 {
			t.Fatalf("unexpected question after delete %+v", q)
		}
		if err := repos.Resources.Delete(ctx, model.ResourceReading, passages[0].ID); !errors.Is(err, model.ErrResourceNotFound) {
			t.Fatalf("expected ErrResourceNotFound, got %v", err)
		}
	})

	t.Run("an import commits in one transaction", func(t *testing.T) {
		var buf bytes.Buffer
		if err := importer.WriteTemplate(&buf, importer.SheetListening); err != nil {
			t.Fatalf("template: %v", err)
		}
		res := service.NewImportService(store).Import(ctx, service.ImportRequest{
			FileName: "listening.xlsx", Content: &buf, Mode: importer.ModeSave,
		})
		if !res.Success || res.SuccessCount == 0 {
			t.Fatalf("unexpected result %+v", res)
		}
		logs, err := repos.ImportLogs.Recent(ctx, 5)
		if err != nil || len(logs) != 1 || !logs[0].Committed {
			t.Fatalf("unexpected logs %+v %v", logs, err)
		}
		questions, err := repos.Questions.List(ctx, repository.QuestionFilter{Skills: []model.SkillType{model.SkillListening}})
		if err != nil || len(questions) != res.SuccessCount {
			t.Fatalf("listed %d questions, imported %d: %v", len(questions), res.SuccessCount, err)
		}
	})
}
