package service

import (
	"fmt"

	"github.com/jinzhu/copier"
	"github.com/lshigami/examhub/internal/dto"
	"github.com/lshigami/examhub/internal/model"
)

// toQuestionDTO maps a bank question. Students must not see correctness flags
// or the explanation before they submit, so reveal=false strips both.
func toQuestionDTO(q model.Question, reveal bool) (dto.QuestionResponseDTO, error) {
	var out dto.QuestionResponseDTO
	if err := copier.Copy(&out, &q); err != nil {
		return dto.QuestionResponseDTO{}, fmt.Errorf("map question %d: %w", q.ID, err)
	}
	if !reveal {
		out.Explanation = nil
		for i := range out.Answers {
			out.Answers[i].IsCorrect = nil
		}
	}
	return out, nil
}

func toExamDTO(exam *model.Exam, reveal bool) (*dto.ExamResponseDTO, error) {
	resp := &dto.ExamResponseDTO{}
	header := *exam
	header.Parts = nil
	if err := copier.Copy(resp, &header); err != nil {
		return nil, fmt.Errorf("map exam %d: %w", exam.ID, err)
	}

	resp.Parts = make([]dto.ExamPartResponseDTO, 0, len(exam.Parts))
	for _, part := range exam.Parts {
		p := toPartDTO(part)
		for _, link := range part.Questions {
			q, err := toQuestionDTO(link.Question, reveal)
			if err != nil {
				return nil, err
			}
			p.Questions = append(p.Questions, dto.ExamQuestionResponseDTO{
				ID:         link.ID,
				QuestionID: link.QuestionID,
				SortOrder:  link.SortOrder,
				Score:      link.Score,
				Question:   q,
			})
			resp.MaxScore += link.Score
		}
		resp.Parts = append(resp.Parts, p)
	}
	return resp, nil
}

func toPartDTO(part model.ExamPart) dto.ExamPartResponseDTO {
	return dto.ExamPartResponseDTO{
		ID:         part.ID,
		ExamID:     part.ExamID,
		Name:       part.Name,
		OrderIndex: part.OrderIndex,
		SkillType:  part.SkillType,
	}
}

func toAttemptSummaryDTO(a model.TestAttempt) dto.TestAttemptSummaryDTO {
	var out dto.TestAttemptSummaryDTO
	_ = copier.Copy(&out, &a)
	return out
}
