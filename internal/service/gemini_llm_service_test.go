package service

import (
	"context"
	"strings"
	"testing"

	"github.com/lshigami/examhub/internal/model"
)

func TestParseScoreAndFeedback(t *testing.T) {
	cases := []struct {
		name         string
		raw          string
		wantScore    float64
		wantFeedback string
		wantErr      bool
	}{
		{
			name:         "strict format",
			raw:          "Score: 7.5\nFeedback:\nClear ideas, watch articles.",
			wantScore:    7.5,
			wantFeedback: "Clear ideas, watch articles.",
		},
		{
			name:         "preamble and trailing text on the score line",
			raw:          "Here is my grade.\nScore: 3, out of 5\nFeedback: Good.",
			wantScore:    3,
			wantFeedback: "Good.",
		},
		{
			name:         "no feedback label",
			raw:          "Score: 4\nNice pronunciation.",
			wantScore:    4,
			wantFeedback: "Nice pronunciation.",
		},
		{name: "no score", raw: "Feedback: fine", wantErr: true},
		{name: "empty score", raw: "Score:\nFeedback: fine", wantErr: true},
		{name: "not a number", raw: "Score: seven", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			score, feedback, err := parseScoreAndFeedback(tc.raw)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected an error, got %v %q", score, feedback)
				}
				return
			}
			if err != nil || score != tc.wantScore || feedback != tc.wantFeedback {
				t.Fatalf("got %v %q %v", score, feedback, err)
			}
		})
	}
}

func TestClampScore(t *testing.T) {
	if clampScore(12, 10) != 10 || clampScore(-1, 10) != 0 || clampScore(4.5, 10) != 4.5 {
		t.Fatalf("clampScore out of bounds")
	}
}

func TestBuildGradingPrompt(t *testing.T) {
	sample := "My hometown is a fishing village."
	prompt := buildGradingPrompt(GradeRequest{
		Question:   model.Question{Content: "Describe your hometown.", QuestionType: model.QuestionEssay, Explanation: &sample},
		TextAnswer: "I live near the sea.",
		MaxScore:   5,
	})
	for _, want := range []string{"Describe your hometown.", sample, "I live near the sea.", "Score: [a number from 0 to 5.0]"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt is missing %q:\n%s", want, prompt)
		}
	}
	if strings.Contains(prompt, "pronunciation") {
		t.Fatalf("essay prompt should not ask about pronunciation")
	}

	speaking := buildGradingPrompt(GradeRequest{
		Question: model.Question{Content: "Talk about a holiday.", QuestionType: model.QuestionSpeakingRecording},
		AudioURL: "/uploads/speaking/a.webm",
		MaxScore: 4,
	})
	if !strings.Contains(speaking, "pronunciation") || !strings.Contains(speaking, "recorded") {
		t.Fatalf("speaking prompt should describe the recording:\n%s", speaking)
	}
}

func TestReadAudioGuessesMimeType(t *testing.T) {
	_, media := newMemMedia()
	url, err := media.Save(context.Background(), "speaking/attempt_1_student_1", "q1_x.mp3", strings.NewReader("ID3"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	svc := &geminiLLMService{media: media}

	data, mimeType, err := svc.readAudio(url)
	if err != nil {
		t.Fatalf("read audio: %v", err)
	}
	if string(data) != "ID3" || !strings.HasPrefix(mimeType, "audio/") {
		t.Fatalf("unexpected %q %q", data, mimeType)
	}

	webm, err := media.Save(context.Background(), "speaking/attempt_1_student_1", "q2_x.bin", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, mimeType, _ := svc.readAudio(webm); mimeType != "audio/webm" {
		t.Fatalf("expected the audio/webm fallback, got %q", mimeType)
	}
}
