package devapi

import "career-quiz/internal/domain"

// SampleQuizID is the id SampleQuiz is seeded under.
const SampleQuizID = "career-interests-v1"

// SampleQuiz is the career interest quiz served when no database is configured.
func SampleQuiz() domain.Quiz {
	seconds := func(v int) *int { return &v }
	agree := []string{"Strongly disagree", "Disagree", "Neutral", "Agree", "Strongly agree"}
	return domain.Quiz{
		ID:          SampleQuizID,
		Title:       "Career interests",
		Description: "Three short steps about how you like to work.",
		Steps: []domain.Step{
			{Questions: []domain.Question{
				{
					ID:       "work-setting",
					Kind:     domain.KindSingleChoice,
					Prompt:   "Where would you rather spend your working day?",
					Options:  []string{"Outdoors", "Workshop or lab", "Office", "On the move"},
					Category: "environment",
				},
				{
					ID:       "team-size",
					Kind:     domain.KindSingleChoice,
					Prompt:   "Which team size suits you best?",
					Options:  []string{"Solo", "Small team", "Large organisation"},
					Category: "environment",
				},
			}},
			{Questions: []domain.Question{
				{
					ID:               "study-years",
					Kind:             domain.KindNumericRange,
					Prompt:           "How many more years of study are you willing to do?",
					Min:              seconds(0),
					Max:              seconds(10),
					TimeLimitSeconds: seconds(25),
					Category:         "education",
				},
			}},
			{Questions: []domain.Question{
				{
					ID:       "enjoy-people",
					Kind:     domain.KindOrdinalScale,
					Prompt:   "I enjoy helping people solve their problems.",
					Scale:    5,
					Labels:   agree,
					Category: "social",
				},
				{
					ID:       "enjoy-building",
					Kind:     domain.KindOrdinalScale,
					Prompt:   "I like building or fixing things with my hands.",
					Scale:    5,
					Labels:   agree,
					Category: "realistic",
				},
				{
					ID:               "enjoy-data",
					Kind:             domain.KindOrdinalScale,
					Prompt:           "Working through numbers and data is fun.",
					Scale:            7,
					TimeLimitSeconds: seconds(15),
					Category:         "investigative",
				},
			}},
		},
	}
}
