package model

import (
	"strings"
	"time"
)

type QuestionType string

const (
	QuestionSingleChoice QuestionType = "single-choice"
	QuestionMultiChoice  QuestionType = "multi-choice"
	QuestionText         QuestionType = "text"
	QuestionTextarea     QuestionType = "textarea"
	QuestionNumber       QuestionType = "number"
	QuestionPhone        QuestionType = "phone"
	QuestionDate         QuestionType = "date"
	QuestionFile         QuestionType = "file"
	QuestionSelect       QuestionType = "select"
)

// AnswerOption is one fixed choice of a single/multi-choice question.
// BlocksProgress marks disqualifying choices: the user can select them
// but cannot advance past the question afterwards.
type AnswerOption struct {
	ID             string `json:"id"`
	Text           string `json:"text"`
	Value          int    `json:"value,omitempty"`
	Description    string `json:"description,omitempty"`
	BlocksProgress bool   `json:"blocksProgress,omitempty"`
}

// DependencyRule gates a question's visibility on a prior answer.
// With RequiresText set the referenced answer must carry non-empty text
// (or any non-empty sub-field). With AllowedAnswerIDs set the referenced
// answer's selection must intersect the list; an empty list is satisfied
// by mere presence of the answer.
type DependencyRule struct {
	QuestionID       string   `json:"questionId"`
	RequiresText     bool     `json:"requiresText,omitempty"`
	AllowedAnswerIDs []string `json:"allowedAnswerIds,omitempty"`
}

// SubField is one input of a composite question (e.g. the country code
// and local number of the phone question).
type SubField struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Placeholder string `json:"placeholder,omitempty"`
	Pattern     string `json:"pattern,omitempty"`
}

// Validation holds the optional format/range constraints of a question.
// Nil pointer means "not constrained".
type Validation struct {
	Pattern   string   `json:"pattern,omitempty"`
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
	Step      *float64 `json:"step,omitempty"`
	MinLength int      `json:"minLength,omitempty"`
	MaxLength int      `json:"maxLength,omitempty"`
	MinAge    int      `json:"minAge,omitempty"`
	MaxAge    int      `json:"maxAge,omitempty"`
}

// Question is immutable configuration, created once at startup.
type Question struct {
	ID                     string           `json:"id"`
	Title                  string           `json:"title"`
	Category               string           `json:"category"`
	Required               bool             `json:"required,omitempty"`
	Clarification          string           `json:"clarification,omitempty"`
	Type                   QuestionType     `json:"type"`
	Answers                []AnswerOption   `json:"answers,omitempty"`
	SubFields              []SubField       `json:"subFields,omitempty"`
	DependsOn              []DependencyRule `json:"dependsOn,omitempty"`
	Placeholder            string           `json:"placeholder,omitempty"`
	HelperText             string           `json:"helperText,omitempty"`
	Accept                 string           `json:"accept,omitempty"`
	MaxFiles               int              `json:"maxFiles,omitempty"`
	EnableVideoCompression bool             `json:"enableVideoCompression,omitempty"`
	Validation             *Validation      `json:"validation,omitempty"`
}

// FileRef points at an uploaded file held by the storage layer.
type FileRef struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	Path        string `json:"path,omitempty"`
	URL         string `json:"url,omitempty"`
	ContentType string `json:"contentType,omitempty"`
}

// StoredAnswer is the mutable per-question record. It is overwritten on
// every user edit and deleted when the user clears the field.
type StoredAnswer struct {
	ID               string                    `json:"id"`
	Text             string                    `json:"text,omitempty"`
	Value            *float64                  `json:"value,omitempty"`
	Selections       []AnswerOption            `json:"selections,omitempty"`
	FieldValues      map[string]string         `json:"fieldValues,omitempty"`
	Files            []FileRef                 `json:"files,omitempty"`
	OriginalFiles    []FileRef                 `json:"originalFiles,omitempty"`
	VideoCompression *VideoCompressionMetadata `json:"videoCompression,omitempty"`
	BlocksProgress   bool                      `json:"blocksProgress,omitempty"`
}

// Blocks reports whether the answer itself or any of its selections is
// flagged as progress-blocking.
func (a *StoredAnswer) Blocks() bool {
	if a == nil {
		return false
	}
	if a.BlocksProgress {
		return true
	}
	for _, sel := range a.Selections {
		if sel.BlocksProgress {
			return true
		}
	}
	return false
}

// HasText reports whether the answer carries non-empty trimmed free text
// or any non-empty sub-field value.
func (a *StoredAnswer) HasText() bool {
	if a == nil {
		return false
	}
	if strings.TrimSpace(a.Text) != "" {
		return true
	}
	for _, v := range a.FieldValues {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}

// SelectedIDs returns the selected option ids: the multi-choice
// selections when present, otherwise the single stored id.
func (a *StoredAnswer) SelectedIDs() []string {
	if a == nil {
		return nil
	}
	if len(a.Selections) > 0 {
		ids := make([]string, len(a.Selections))
		for i, sel := range a.Selections {
			ids[i] = sel.ID
		}
		return ids
	}
	if a.ID != "" {
		return []string{a.ID}
	}
	return nil
}

// ResultEntry is one serialized answer value.
type ResultEntry struct {
	ID         string   `json:"id"`
	SubFieldID string   `json:"subFieldId,omitempty"`
	Value      string   `json:"value,omitempty"`
	Values     []string `json:"values,omitempty"`
	File       *FileRef `json:"file,omitempty"`
}

// Result is the final serialized output, built once at submission time
// from the currently visible and answered questions.
type Result struct {
	Answers         map[string][]ResultEntry `json:"answers"`
	CompletedAt     time.Time                `json:"completedAt"`
	VerificationKey string                   `json:"-"`
}
