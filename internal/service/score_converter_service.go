package service

import (
	"fmt"
	"math"
)

type ScoreConverterService interface {
	ConvertToPercentage(rawScore, maxScore float64) (float64, error)
}

type scoreConverterServiceImpl struct{}

func NewScoreConverterService() ScoreConverterService {
	return &scoreConverterServiceImpl{}
}

// ConvertToPercentage maps a raw score onto 0-100, rounded to one decimal.
func (s *scoreConverterServiceImpl) ConvertToPercentage(rawScore, maxScore float64) (float64, error) {
	if maxScore <= 0 {
		return 0, fmt.Errorf("max score must be positive, got %.2f", maxScore)
	}
	if rawScore < 0 || rawScore > maxScore {
		return 0, fmt.Errorf("raw score %.2f is out of valid range (0-%.2f)", rawScore, maxScore)
	}
	return math.Round(rawScore/maxScore*1000) / 10, nil
}
