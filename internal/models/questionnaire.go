package models

// QuestionType enumerates the supported questionnaire input kinds.
type QuestionType string

const (
	QuestionBoolean     QuestionType = "boolean"
	QuestionText        QuestionType = "text"
	QuestionSelect      QuestionType = "select"
	QuestionMultiSelect QuestionType = "multiselect"
)

// MaxQuestionnaireQuestions caps generated questionnaires.
const MaxQuestionnaireQuestions = 20

// Question is one questionnaire entry.
type Question struct {
	ID             int          `json:"id"`
	Question       string       `json:"question"`
	Type           QuestionType `json:"question_type"`
	Options        []string     `json:"options,omitempty"`
	Required       bool         `json:"required"`
	GrantRelevance []string     `json:"grant_relevance,omitempty"`
}

// Questionnaire is the set of questions presented to the organization.
type Questionnaire struct {
	Questions      []Question `json:"questions"`
	TotalQuestions int        `json:"total_questions"`
}

// Answer pairs a question with the user's response. Value holds a bool,
// string or []string depending on the question type.
type Answer struct {
	QuestionID int `json:"question_id"`
	Value      any `json:"answer"`
}

// QuestionnaireSubmission carries the completed questionnaire plus optional
// free-form notes.
type QuestionnaireSubmission struct {
	Answers      []Answer `json:"answers"`
	FreeFormText string   `json:"free_form_text,omitempty"`
}
