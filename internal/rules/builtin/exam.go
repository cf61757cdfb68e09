package builtin

import (
	"github.com/TSENGHUNGLIN/chenyang-learning-platform-sub001/internal/rules"
	"github.com/TSENGHUNGLIN/chenyang-learning-platform-sub001/internal/validation"
)

// ExamTemplateKey identifies the exam question template schema.
const ExamTemplateKey = "exam_template"

func init() {
	registerExamTemplate()
}

func registerExamTemplate() {
	rules.Register(rules.Schema{
		Key:         ExamTemplateKey,
		Group:       "Exams",
		Label:       "Exam question template",
		Description: "Question bank import. Score defaults to the exam's own weighting when blank.",
		Source:      "builtin",
		Rules: []validation.FieldRule{
			{Name: "question", Required: true, Type: validation.TypeString, Min: validation.Bound(5)},
			{Name: "type", Required: true, Enum: []string{"single_choice", "multiple_choice", "true_false"}},
			{Name: "difficulty", Required: true, Enum: []string{"easy", "medium", "hard"}},
			{Name: "correct answer", Required: true},
			{Name: "score", Type: validation.TypeNumber, Min: validation.Bound(1), Max: validation.Bound(100)},
		},
	})
}
