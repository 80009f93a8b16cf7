package models

// QuestionRequest is the payload of POST /questions.
type QuestionRequest struct {
	Prompt string     `json:"prompt" binding:"required"`
	System RuleSystem `json:"system"`
}

type QuestionResponse struct {
	Answer string `json:"answer"`
}

// SearchRequest is the payload of POST /search.
type SearchRequest struct {
	Query  string     `json:"query"`
	System RuleSystem `json:"system"`
}

type SearchResponse struct {
	System   RuleSystem `json:"system"`
	Passages []string   `json:"passages"`
}

// KeywordRequest is the payload of POST /keywords.
type KeywordRequest struct {
	Description string `json:"description" binding:"required"`
}

type KeywordResponse struct {
	Keyword string `json:"keyword"`
}
