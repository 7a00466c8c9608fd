// Package repotest provides an in-memory repository.Store for service and
// controller tests. Transactions work on a copy of the data that replaces the
// live copy only when the unit of work succeeds.
package repotest

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lshigami/examhub/internal/model"
	"github.com/lshigami/examhub/internal/repository"
)

// ErrDuplicateKey mimics a unique constraint violation.
var ErrDuplicateKey = errors.New("duplicate key value violates unique constraint")

type state struct {
	nextID     uint
	questions  map[uint]model.Question
	passages   map[uint]model.ReadingPassage
	listening  map[uint]model.ListeningResource
	structures map[uint]model.ExamStructure
	exams      map[uint]model.Exam
	parts      map[uint]model.ExamPart
	links      map[uint]model.ExamQuestion
	attempts   map[uint]model.TestAttempt
	results    map[uint]model.TestResult
	importLogs []model.ImportLog
}

func newState() *state {
	return &state{
		questions:  map[uint]model.Question{},
		passages:   map[uint]model.ReadingPassage{},
		listening:  map[uint]model.ListeningResource{},
		structures: map[uint]model.ExamStructure{},
		exams:      map[uint]model.Exam{},
		parts:      map[uint]model.ExamPart{},
		links:      map[uint]model.ExamQuestion{},
		attempts:   map[uint]model.TestAttempt{},
		results:    map[uint]model.TestResult{},
	}
}

func cloneMap[V any](m map[uint]V) map[uint]V {
	out := make(map[uint]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// clone copies the maps. Stored values are never mutated in place, so sharing
// their nested slices is safe.
func (s *state) clone() *state {
	return &state{
		nextID:     s.nextID,
		questions:  cloneMap(s.questions),
		passages:   cloneMap(s.passages),
		listening:  cloneMap(s.listening),
		structures: cloneMap(s.structures),
		exams:      cloneMap(s.exams),
		parts:      cloneMap(s.parts),
		links:      cloneMap(s.links),
		attempts:   cloneMap(s.attempts),
		results:    cloneMap(s.results),
		importLogs: append([]model.ImportLog(nil), s.importLogs...),
	}
}

func (s *state) id() uint {
	s.nextID++
	return s.nextID
}

// Store is a thread-safe in-memory repository.Store.
type Store struct {
	mu sync.Mutex
	st *state

	// CommitErr, when set, makes every transaction roll back with this error
	// after its work function succeeded.
	CommitErr error
}

var _ repository.Store = (*Store)(nil)

func New() *Store {
	return &Store{st: newState()}
}

type db struct {
	store *Store
	tx    *state
}

func (d db) with(fn func(st *state) error) error {
	if d.tx != nil {
		return fn(d.tx)
	}
	d.store.mu.Lock()
	defer d.store.mu.Unlock()
	return fn(d.store.st)
}

func (s *Store) bind(tx *state) *repository.Repositories {
	d := db{store: s, tx: tx}
	return &repository.Repositories{
		Questions:  questionRepo{d},
		Resources:  resourceRepo{d},
		Structures: structureRepo{d},
		Exams:      examRepo{d},
		Attempts:   attemptRepo{d},
		ImportLogs: importLogRepo{d},
	}
}

func (s *Store) Repos() *repository.Repositories {
	return s.bind(nil)
}

func (s *Store) Transaction(ctx context.Context, fn func(tx *repository.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := s.st.clone()
	if err := fn(s.bind(tx)); err != nil {
		return err
	}
	if s.CommitErr != nil {
		return s.CommitErr
	}
	s.st = tx
	return nil
}

// Counts reports table sizes for assertions.
type Counts struct {
	Questions, Answers, Passages, Listening, Structures int
	Exams, Parts, Links, Attempts, Results, ImportLogs  int
}

func (s *Store) Counts() Counts {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := Counts{
		Questions:  len(s.st.questions),
		Passages:   len(s.st.passages),
		Listening:  len(s.st.listening),
		Structures: len(s.st.structures),
		Exams:      len(s.st.exams),
		Parts:      len(s.st.parts),
		Links:      len(s.st.links),
		Attempts:   len(s.st.attempts),
		Results:    len(s.st.results),
		ImportLogs: len(s.st.importLogs),
	}
	for _, q := range s.st.questions {
		c.Answers += len(q.Answers)
	}
	return c
}

func sortedKeys[V any](m map[uint]V) []uint {
	keys := make([]uint, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func copyAnswers(in []model.Answer) []model.Answer {
	return append([]model.Answer(nil), in...)
}

// insertQuestion assigns ids to q and its answers and stores a copy.
func (st *state) insertQuestion(q *model.Question) {
	now := time.Now()
	q.ID = st.id()
	q.CreatedAt, q.UpdatedAt = now, now
	for i := range q.Answers {
		q.Answers[i].ID = st.id()
		q.Answers[i].QuestionID = q.ID
		q.Answers[i].CreatedAt, q.Answers[i].UpdatedAt = now, now
	}
	stored := *q
	stored.Answers = copyAnswers(q.Answers)
	stored.ReadingPassage, stored.ListeningResource = nil, nil
	st.questions[q.ID] = stored
}

func (st *state) question(id uint) model.Question {
	q := st.questions[id]
	q.Answers = copyAnswers(q.Answers)
	return q
}

// questionRepo

type questionRepo struct{ d db }

func (r questionRepo) FindByID(ctx context.Context, id uint) (*model.Question, error) {
	var out *model.Question
	err := r.d.with(func(st *state) error {
		if _, ok := st.questions[id]; !ok {
			return model.ErrQuestionNotFound
		}
		q := st.question(id)
		out = &q
		return nil
	})
	return out, err
}

func (r questionRepo) List(ctx context.Context, filter repository.QuestionFilter) ([]model.Question, error) {
	var out []model.Question
	err := r.d.with(func(st *state) error {
		keys := sortedKeys(st.questions)
		for i := len(keys) - 1; i >= 0; i-- {
			q := st.question(keys[i])
			if len(filter.Skills) > 0 && !containsSkill(filter.Skills, q.SkillType) {
				continue
			}
			if filter.QuestionType != 0 && q.QuestionType != filter.QuestionType {
				continue
			}
			if filter.Level != 0 && q.Level != filter.Level {
				continue
			}
			if filter.Search != "" && !strings.Contains(strings.ToLower(q.Content), strings.ToLower(filter.Search)) {
				continue
			}
			out = append(out, q)
			if filter.Limit > 0 && len(out) == filter.Limit {
				break
			}
		}
		return nil
	})
	return out, err
}

func containsSkill(skills []model.SkillType, s model.SkillType) bool {
	for _, k := range skills {
		if k == s {
			return true
		}
	}
	return false
}

func (r questionRepo) CreateBatch(ctx context.Context, questions []model.Question) error {
	return r.d.with(func(st *state) error {
		for i := range questions {
			st.insertQuestion(&questions[i])
		}
		return nil
	})
}

func (r questionRepo) UsageCount(ctx context.Context, id uint) (int64, error) {
	var n int64
	err := r.d.with(func(st *state) error {
		for _, l := range st.links {
			if l.QuestionID == id {
				n++
			}
		}
		for _, res := range st.results {
			if res.QuestionID == id {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r questionRepo) Delete(ctx context.Context, id uint) error {
	return r.d.with(func(st *state) error {
		if _, ok := st.questions[id]; !ok {
			return model.ErrQuestionNotFound
		}
		delete(st.questions, id)
		return nil
	})
}

// resourceRepo

type resourceRepo struct{ d db }

func (r resourceRepo) CreatePassages(ctx context.Context, passages []model.ReadingPassage) error {
	return r.d.with(func(st *state) error {
		for i := range passages {
			p := &passages[i]
			p.ID = st.id()
			p.CreatedAt, p.UpdatedAt = time.Now(), time.Now()
			for j := range p.Questions {
				p.Questions[j].ReadingPassageID = &p.ID
				st.insertQuestion(&p.Questions[j])
			}
			stored := *p
			stored.Questions = nil
			st.passages[p.ID] = stored
		}
		return nil
	})
}

func (r resourceRepo) CreateListeningResources(ctx context.Context, resources []model.ListeningResource) error {
	return r.d.with(func(st *state) error {
		for i := range resources {
			res := &resources[i]
			res.ID = st.id()
			res.CreatedAt, res.UpdatedAt = time.Now(), time.Now()
			for j := range res.Questions {
				res.Questions[j].ListeningResourceID = &res.ID
				st.insertQuestion(&res.Questions[j])
			}
			stored := *res
			stored.Questions = nil
			st.listening[res.ID] = stored
		}
		return nil
	})
}

func owner(kind model.ResourceType, q model.Question) *uint {
	if kind == model.ResourceReading {
		return q.ReadingPassageID
	}
	return q.ListeningResourceID
}

func (st *state) resourceExists(kind model.ResourceType, id uint) (bool, error) {
	switch kind {
	case model.ResourceReading:
		_, ok := st.passages[id]
		return ok, nil
	case model.ResourceListening:
		_, ok := st.listening[id]
		return ok, nil
	}
	return false, model.ErrInvalidResourceType
}

func (r resourceRepo) Questions(ctx context.Context, kind model.ResourceType, id uint) ([]model.Question, error) {
	var out []model.Question
	err := r.d.with(func(st *state) error {
		ok, err := st.resourceExists(kind, id)
		if err != nil {
			return err
		}
		if !ok {
			return model.ErrResourceNotFound
		}
		for _, qid := range sortedKeys(st.questions) {
			q := st.question(qid)
			if fk := owner(kind, q); fk != nil && *fk == id {
				out = append(out, q)
			}
		}
		return nil
	})
	return out, err
}

func (r resourceRepo) Delete(ctx context.Context, kind model.ResourceType, id uint) error {
	return r.d.with(func(st *state) error {
		ok, err := st.resourceExists(kind, id)
		if err != nil {
			return err
		}
		if !ok {
			return model.ErrResourceNotFound
		}
		for qid, q := range st.questions {
			if fk := owner(kind, q); fk != nil && *fk == id {
				if kind == model.ResourceReading {
					q.ReadingPassageID = nil
				} else {
					q.ListeningResourceID = nil
				}
				st.questions[qid] = q
			}
		}
		if kind == model.ResourceReading {
			delete(st.passages, id)
		} else {
			delete(st.listening, id)
		}
		return nil
	})
}

// structureRepo

type structureRepo struct{ d db }

func (r structureRepo) Create(ctx context.Context, structure *model.ExamStructure) error {
	return r.d.with(func(st *state) error {
		for _, existing := range st.structures {
			if existing.Name == structure.Name {
				return ErrDuplicateKey
			}
		}
		structure.ID = st.id()
		structure.CreatedAt, structure.UpdatedAt = time.Now(), time.Now()
		for i := range structure.Parts {
			structure.Parts[i].ID = st.id()
			structure.Parts[i].ExamStructureID = structure.ID
		}
		stored := *structure
		stored.Parts = append([]model.StructurePart(nil), structure.Parts...)
		st.structures[structure.ID] = stored
		return nil
	})
}

func (st *state) structure(id uint) model.ExamStructure {
	s := st.structures[id]
	s.Parts = append([]model.StructurePart(nil), s.Parts...)
	sort.SliceStable(s.Parts, func(i, j int) bool { return s.Parts[i].OrderIndex < s.Parts[j].OrderIndex })
	return s
}

func (r structureRepo) FindByID(ctx context.Context, id uint) (*model.ExamStructure, error) {
	var out *model.ExamStructure
	err := r.d.with(func(st *state) error {
		if _, ok := st.structures[id]; !ok {
			return model.ErrStructureNotFound
		}
		s := st.structure(id)
		out = &s
		return nil
	})
	return out, err
}

func (r structureRepo) FindByName(ctx context.Context, name string) (*model.ExamStructure, error) {
	var out *model.ExamStructure
	err := r.d.with(func(st *state) error {
		for id, s := range st.structures {
			if s.Name == name {
				found := st.structure(id)
				out = &found
				return nil
			}
		}
		return model.ErrStructureNotFound
	})
	return out, err
}

func (r structureRepo) List(ctx context.Context) ([]model.ExamStructure, error) {
	var out []model.ExamStructure
	err := r.d.with(func(st *state) error {
		for _, id := range sortedKeys(st.structures) {
			out = append(out, st.structure(id))
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
		return nil
	})
	return out, err
}

// examRepo

type examRepo struct{ d db }

func (st *state) insertPart(p *model.ExamPart) {
	p.ID = st.id()
	p.CreatedAt, p.UpdatedAt = time.Now(), time.Now()
	stored := *p
	stored.Questions = nil
	st.parts[p.ID] = stored
}

func (r examRepo) Create(ctx context.Context, exam *model.Exam) error {
	return r.d.with(func(st *state) error {
		exam.ID = st.id()
		exam.CreatedAt, exam.UpdatedAt = time.Now(), time.Now()
		for i := range exam.Parts {
			exam.Parts[i].ExamID = exam.ID
			st.insertPart(&exam.Parts[i])
		}
		stored := *exam
		stored.Parts = nil
		st.exams[exam.ID] = stored
		return nil
	})
}

func (r examRepo) FindByID(ctx context.Context, id uint) (*model.Exam, error) {
	var out *model.Exam
	err := r.d.with(func(st *state) error {
		e, ok := st.exams[id]
		if !ok {
			return model.ErrExamNotFound
		}
		out = &e
		return nil
	})
	return out, err
}

func (r examRepo) FindWithQuestions(ctx context.Context, id uint) (*model.Exam, error) {
	var out *model.Exam
	err := r.d.with(func(st *state) error {
		e, ok := st.exams[id]
		if !ok {
			return model.ErrExamNotFound
		}
		for _, pid := range sortedKeys(st.parts) {
			p := st.parts[pid]
			if p.ExamID != id {
				continue
			}
			for _, lid := range sortedKeys(st.links) {
				l := st.links[lid]
				if l.ExamPartID != pid {
					continue
				}
				l.Question = st.question(l.QuestionID)
				p.Questions = append(p.Questions, l)
			}
			sort.SliceStable(p.Questions, func(i, j int) bool { return p.Questions[i].SortOrder < p.Questions[j].SortOrder })
			e.Parts = append(e.Parts, p)
		}
		sort.SliceStable(e.Parts, func(i, j int) bool { return e.Parts[i].OrderIndex < e.Parts[j].OrderIndex })
		out = &e
		return nil
	})
	return out, err
}

func (r examRepo) ListWithCounts(ctx context.Context) ([]repository.ExamSummary, error) {
	var out []repository.ExamSummary
	err := r.d.with(func(st *state) error {
		keys := sortedKeys(st.exams)
		for i := len(keys) - 1; i >= 0; i-- {
			sum := repository.ExamSummary{Exam: st.exams[keys[i]]}
			for _, p := range st.parts {
				if p.ExamID == sum.ID {
					sum.PartCount++
				}
			}
			for _, l := range st.links {
				if l.ExamID == sum.ID {
					sum.QuestionCount++
				}
			}
			out = append(out, sum)
		}
		return nil
	})
	return out, err
}

func (r examRepo) CreatePart(ctx context.Context, part *model.ExamPart) error {
	return r.d.with(func(st *state) error {
		st.insertPart(part)
		return nil
	})
}

func (r examRepo) FindPart(ctx context.Context, id uint) (*model.ExamPart, error) {
	var out *model.ExamPart
	err := r.d.with(func(st *state) error {
		p, ok := st.parts[id]
		if !ok {
			return model.ErrPartNotFound
		}
		out = &p
		return nil
	})
	return out, err
}

func (r examRepo) MaxPartOrder(ctx context.Context, examID uint) (int, error) {
	max := 0
	err := r.d.with(func(st *state) error {
		for _, p := range st.parts {
			if p.ExamID == examID && p.OrderIndex > max {
				max = p.OrderIndex
			}
		}
		return nil
	})
	return max, err
}

func (r examRepo) DeletePart(ctx context.Context, id uint) error {
	return r.d.with(func(st *state) error {
		if _, ok := st.parts[id]; !ok {
			return model.ErrPartNotFound
		}
		for lid, l := range st.links {
			if l.ExamPartID == id {
				delete(st.links, lid)
			}
		}
		delete(st.parts, id)
		return nil
	})
}

func (r examRepo) MaxSortOrder(ctx context.Context, partID uint) (int, error) {
	max := 0
	err := r.d.with(func(st *state) error {
		for _, l := range st.links {
			if l.ExamPartID == partID && l.SortOrder > max {
				max = l.SortOrder
			}
		}
		return nil
	})
	return max, err
}

func (r examRepo) InsertQuestionIfAbsent(ctx context.Context, link *model.ExamQuestion) (bool, error) {
	inserted := false
	err := r.d.with(func(st *state) error {
		for _, l := range st.links {
			if l.ExamID == link.ExamID && l.QuestionID == link.QuestionID {
				return nil
			}
		}
		link.ID = st.id()
		stored := *link
		stored.Question = model.Question{}
		st.links[link.ID] = stored
		inserted = true
		return nil
	})
	return inserted, err
}

func (r examRepo) RemoveQuestion(ctx context.Context, partID, questionID uint) error {
	return r.d.with(func(st *state) error {
		for lid, l := range st.links {
			if l.ExamPartID == partID && l.QuestionID == questionID {
				delete(st.links, lid)
				return nil
			}
		}
		return model.ErrQuestionNotFound
	})
}

func (r examRepo) LinkedQuestionIDs(ctx context.Context, examID uint) ([]uint, error) {
	var ids []uint
	err := r.d.with(func(st *state) error {
		for _, lid := range sortedKeys(st.links) {
			if l := st.links[lid]; l.ExamID == examID {
				ids = append(ids, l.QuestionID)
			}
		}
		return nil
	})
	return ids, err
}

// attemptRepo

type attemptRepo struct{ d db }

func (st *state) insertResult(res *model.TestResult) {
	res.ID = st.id()
	res.CreatedAt, res.UpdatedAt = time.Now(), time.Now()
	stored := *res
	stored.Question = model.Question{}
	st.results[res.ID] = stored
}

func (r attemptRepo) Create(ctx context.Context, attempt *model.TestAttempt) error {
	return r.d.with(func(st *state) error {
		attempt.ID = st.id()
		attempt.CreatedAt, attempt.UpdatedAt = time.Now(), time.Now()
		for i := range attempt.Results {
			attempt.Results[i].TestAttemptID = attempt.ID
			st.insertResult(&attempt.Results[i])
		}
		stored := *attempt
		stored.Results = nil
		stored.Exam = model.Exam{}
		st.attempts[attempt.ID] = stored
		return nil
	})
}

func (r attemptRepo) CreateResults(ctx context.Context, results []model.TestResult) error {
	return r.d.with(func(st *state) error {
		for i := range results {
			st.insertResult(&results[i])
		}
		return nil
	})
}

func (r attemptRepo) SaveGrades(ctx context.Context, attempt *model.TestAttempt) error {
	return r.d.with(func(st *state) error {
		stored, ok := st.attempts[attempt.ID]
		if !ok {
			return model.ErrAttemptNotFound
		}
		for _, res := range attempt.Results {
			cur, ok := st.results[res.ID]
			if !ok {
				continue
			}
			cur.ScoreObtained = res.ScoreObtained
			cur.IsCorrect = res.IsCorrect
			cur.Feedback = res.Feedback
			st.results[res.ID] = cur
		}
		stored.Score = attempt.Score
		stored.MaxScore = attempt.MaxScore
		stored.Status = attempt.Status
		stored.SubmittedAt = attempt.SubmittedAt
		st.attempts[attempt.ID] = stored
		return nil
	})
}

func (r attemptRepo) FindByID(ctx context.Context, id uint) (*model.TestAttempt, error) {
	var out *model.TestAttempt
	err := r.d.with(func(st *state) error {
		a, ok := st.attempts[id]
		if !ok {
			return model.ErrAttemptNotFound
		}
		out = &a
		return nil
	})
	return out, err
}

func (r attemptRepo) FindByIDWithDetails(ctx context.Context, id uint) (*model.TestAttempt, error) {
	var out *model.TestAttempt
	err := r.d.with(func(st *state) error {
		a, ok := st.attempts[id]
		if !ok {
			return model.ErrAttemptNotFound
		}
		a.Exam = st.exams[a.ExamID]
		for _, rid := range sortedKeys(st.results) {
			res := st.results[rid]
			if res.TestAttemptID != id {
				continue
			}
			res.Question = st.question(res.QuestionID)
			a.Results = append(a.Results, res)
		}
		out = &a
		return nil
	})
	return out, err
}

func (r attemptRepo) List(ctx context.Context, filter repository.AttemptFilter) ([]model.TestAttempt, error) {
	var out []model.TestAttempt
	err := r.d.with(func(st *state) error {
		keys := sortedKeys(st.attempts)
		for i := len(keys) - 1; i >= 0; i-- {
			a := st.attempts[keys[i]]
			if filter.ExamID != nil && a.ExamID != *filter.ExamID {
				continue
			}
			if filter.StudentID != nil && a.StudentID != *filter.StudentID {
				continue
			}
			if filter.Status != nil && a.Status != *filter.Status {
				continue
			}
			out = append(out, a)
		}
		return nil
	})
	return out, err
}

// importLogRepo

type importLogRepo struct{ d db }

func (r importLogRepo) Create(ctx context.Context, entry *model.ImportLog) error {
	return r.d.with(func(st *state) error {
		entry.ID = st.id()
		entry.CreatedAt = time.Now()
		st.importLogs = append(st.importLogs, *entry)
		return nil
	})
}

func (r importLogRepo) Recent(ctx context.Context, limit int) ([]model.ImportLog, error) {
	var out []model.ImportLog
	err := r.d.with(func(st *state) error {
		for i := len(st.importLogs) - 1; i >= 0; i-- {
			out = append(out, st.importLogs[i])
			if limit > 0 && len(out) == limit {
				break
			}
		}
		return nil
	})
	return out, err
}
