package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strconv"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/lshigami/examhub/config"
	"github.com/lshigami/examhub/internal/model"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"google.golang.org/api/option"
)

var ErrAssistantUnavailable = errors.New("grading assistant is not configured")

// GradeRequest is one pending essay or speaking answer to be scored.
type GradeRequest struct {
	Question   model.Question
	TextAnswer string
	AudioURL   string
	MaxScore   float64
}

// GradingAssistant proposes a score and feedback. Proposals are never saved
// on their own; a grader confirms them through manual grading.
type GradingAssistant interface {
	SuggestGrade(ctx context.Context, req GradeRequest) (feedback string, score float64, err error)
}

// MediaReader opens stored uploads by their public URL.
type MediaReader interface {
	Open(url string) (afero.File, error)
}

type geminiLLMService struct {
	client *genai.GenerativeModel
	media  MediaReader
}

func NewGeminiLLMService(cfg *config.Config, media MediaReader) (GradingAssistant, error) {
	if cfg.GeminiApiKey == "" {
		log.Warn().Msg("GEMINI_API_KEY is not set. Grade suggestions are disabled.")
		return &geminiLLMService{media: media}, nil
	}
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.GeminiApiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}
	return &geminiLLMService{client: client.GenerativeModel("gemini-1.5-flash"), media: media}, nil
}

// readAudio loads a stored speaking answer and guesses its MIME type from the extension.
func (s *geminiLLMService) readAudio(url string) ([]byte, string, error) {
	f, err := s.media.Open(url)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open audio %s: %w", url, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read audio %s: %w", url, err)
	}
	mimeType := mime.TypeByExtension(path.Ext(url))
	if mimeType == "" || !strings.HasPrefix(mimeType, "audio/") {
		mimeType = "audio/webm"
	}
	return data, mimeType, nil
}

func parseScoreAndFeedback(raw string) (float64, string, error) {
	const scorePrefix, feedbackPrefix = "Score:", "Feedback:"

	scoreIndex := strings.Index(raw, scorePrefix)
	if scoreIndex == -1 {
		return 0, raw, fmt.Errorf("response does not contain %q", scorePrefix)
	}
	rest := raw[scoreIndex+len(scorePrefix):]
	scoreLine := rest
	if nl := strings.Index(rest, "\n"); nl != -1 {
		scoreLine = rest[:nl]
	}
	fields := strings.Fields(scoreLine)
	if len(fields) == 0 {
		return 0, raw, fmt.Errorf("empty score in response")
	}
	score, err := strconv.ParseFloat(strings.TrimSuffix(fields[0], ","), 64)
	if err != nil {
		return 0, raw, fmt.Errorf("could not parse score %q: %w", fields[0], err)
	}

	feedback := ""
	if fi := strings.Index(raw, feedbackPrefix); fi > scoreIndex {
		feedback = strings.TrimSpace(raw[fi+len(feedbackPrefix):])
	} else if nl := strings.Index(rest, "\n"); nl != -1 {
		feedback = strings.TrimSpace(rest[nl+1:])
	}
	return score, feedback, nil
}

func clampScore(score, max float64) float64 {
	if score > max {
		return max
	}
	if score < 0 {
		return 0
	}
	return score
}

func buildGradingPrompt(req GradeRequest) string {
	var b strings.Builder
	b.WriteString("You are an experienced English teacher grading one exam answer.\n\n")
	switch req.Question.QuestionType {
	case model.QuestionSpeakingRecording:
		b.WriteString("The student recorded the spoken answer provided above in response to this task:\n---\n")
	default:
		b.WriteString("The student wrote an answer to this task:\n---\n")
	}
	b.WriteString(req.Question.Content)
	b.WriteString("\n---\n\n")
	if req.Question.Explanation != nil && *req.Question.Explanation != "" {
		b.WriteString("A sample answer written by the exam author:\n---\n")
		b.WriteString(*req.Question.Explanation)
		b.WriteString("\n---\n\n")
	}
	if req.TextAnswer != "" {
		b.WriteString("Student answer:\n---\n")
		b.WriteString(req.TextAnswer)
		b.WriteString("\n---\n\n")
	}
	b.WriteString("Evaluate grammar, vocabulary, coherence and how well the task is achieved")
	if req.Question.QuestionType == model.QuestionSpeakingRecording {
		b.WriteString(", plus pronunciation and fluency")
	}
	b.WriteString(".\n\n")
	fmt.Fprintf(&b, "Format your response strictly as:\nScore: [a number from 0 to %.1f]\nFeedback:\n[short constructive feedback with concrete corrections]\n", req.MaxScore)
	return b.String()
}

func (s *geminiLLMService) SuggestGrade(ctx context.Context, req GradeRequest) (string, float64, error) {
	if s.client == nil {
		return "", 0, ErrAssistantUnavailable
	}

	var parts []genai.Part
	if req.AudioURL != "" {
		data, mimeType, err := s.readAudio(req.AudioURL)
		if err != nil {
			log.Error().Err(err).Str("audioURL", req.AudioURL).Msg("SuggestGrade: audio unavailable")
			return "", 0, err
		}
		parts = append(parts, genai.Blob{MIMEType: mimeType, Data: data})
	}
	parts = append(parts, genai.Text(buildGradingPrompt(req)))

	resp, err := s.client.GenerateContent(ctx, parts...)
	if err != nil {
		log.Error().Err(err).Uint("questionID", req.Question.ID).Msg("SuggestGrade: Gemini API error")
		return "", 0, fmt.Errorf("gemini API error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", 0, fmt.Errorf("gemini returned no content")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	score, feedback, err := parseScoreAndFeedback(text.String())
	if err != nil {
		log.Warn().Err(err).Str("rawResponse", text.String()).Msg("SuggestGrade: unparsable response")
		return "", 0, err
	}
	return feedback, clampScore(score, req.MaxScore), nil
}
