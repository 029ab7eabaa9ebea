package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"cuerpofit_backend/internal/model"
	"cuerpofit_backend/internal/repository"
	"cuerpofit_backend/internal/util"
	"cuerpofit_backend/pkg/logger"
	"cuerpofit_backend/pkg/monitoring"

	"go.uber.org/zap"
)

const (
	msgRequired     = "Esta respuesta es obligatoria para continuar."
	msgBlocked      = "Volvé cuando estés listo para retomarlo."
	msgVerification = "No pudimos validar reCAPTCHA. Por favor intentá nuevamente."
)

// CompletionFunc receives the serialized result of a finished
// questionnaire and returns the WhatsApp contact number to hand back to
// the applicant.
type CompletionFunc func(ctx context.Context, sessionID string, result *model.Result) (string, error)

// Session is one applicant's questionnaire run. All mutation goes
// through QuestionnaireService, which serializes access per session.
type Session struct {
	ID                string
	Answers           map[string]*model.StoredAnswer
	Index             int
	ShowClarification bool
	LastError         string
	Submitting        bool
	VerificationKey   string
	Completed         bool
	Whatsapp          string

	mu sync.Mutex
}

// SessionView is the state snapshot handed to the HTTP layer.
type SessionView struct {
	SessionID         string               `json:"sessionId"`
	ShowClarification bool                 `json:"showClarification"`
	Index             int                  `json:"index"`
	Total             int                  `json:"total"`
	Progress          float64              `json:"progress"`
	Question          *model.Question      `json:"question,omitempty"`
	Answer            *model.StoredAnswer  `json:"answer,omitempty"`
	CanGoPrevious     bool                 `json:"canGoPrevious"`
	IsLast            bool                 `json:"isLast"`
	Blocked           bool                 `json:"blocked"`
	Error             string               `json:"error,omitempty"`
	Submitting        bool                 `json:"submitting"`
	Completed         bool                 `json:"completed"`
	Whatsapp          string               `json:"whatsapp,omitempty"`
}

// QuestionnaireService drives the question sequence: answer capture,
// dependency-driven visibility, validation and submission.
type QuestionnaireService struct {
	questions []model.Question
	byID      map[string]*model.Question
	store     *repository.SessionRepository
	verifier  *RecaptchaService
	complete  CompletionFunc
	allowSkip bool

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewQuestionnaireService(questions []model.Question, store *repository.SessionRepository, verifier *RecaptchaService) *QuestionnaireService {
	byID := make(map[string]*model.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}
	return &QuestionnaireService{
		questions: questions,
		byID:      byID,
		store:     store,
		verifier:  verifier,
		sessions:  make(map[string]*Session),
	}
}

func (s *QuestionnaireService) SetCompletionFunc(fn CompletionFunc) {
	s.complete = fn
}

// SetAllowSkip lets advances pass unanswered required questions. Only
// enabled outside release mode, alongside the autofill shortcut.
func (s *QuestionnaireService) SetAllowSkip(allow bool) {
	s.allowSkip = allow
}

func (s *QuestionnaireService) Questions() []model.Question {
	return s.questions
}

// VisibleQuestions is the pure visibility computation: a question with
// no dependency rules is always visible; with rules it is visible iff
// at least one rule is satisfied against the current answers.
func VisibleQuestions(questions []model.Question, answers map[string]*model.StoredAnswer) []model.Question {
	visible := make([]model.Question, 0, len(questions))
	for _, q := range questions {
		if len(q.DependsOn) == 0 {
			visible = append(visible, q)
			continue
		}
		for _, rule := range q.DependsOn {
			if ruleSatisfied(rule, answers) {
				visible = append(visible, q)
				break
			}
		}
	}
	return visible
}

func ruleSatisfied(rule model.DependencyRule, answers map[string]*model.StoredAnswer) bool {
	answer, ok := answers[rule.QuestionID]
	if !ok || answer == nil {
		return false
	}
	if rule.RequiresText {
		return answer.HasText()
	}
	if len(rule.AllowedAnswerIDs) == 0 {
		// presence alone satisfies an empty allow-list
		return true
	}
	for _, selected := range answer.SelectedIDs() {
		for _, allowed := range rule.AllowedAnswerIDs {
			if selected == allowed {
				return true
			}
		}
	}
	return false
}

// CreateSession starts a new session or resumes the one with the given
// id from its durable snapshot.
func (s *QuestionnaireService) CreateSession(ctx context.Context, sessionID string) *SessionView {
	s.mu.Lock()
	if sessionID != "" {
		if existing, ok := s.sessions[sessionID]; ok {
			s.mu.Unlock()
			return s.view(existing)
		}
	}
	if sessionID == "" {
		sessionID = model.GenerateUUID()
	}

	session := &Session{
		ID:                sessionID,
		Answers:           make(map[string]*model.StoredAnswer),
		ShowClarification: true,
	}
	if snapshot, ok := s.store.Load(ctx, sessionID); ok {
		s.restore(session, snapshot)
	}
	s.sessions[sessionID] = session
	s.mu.Unlock()

	monitoring.SessionsStarted.Inc()
	return s.view(session)
}

func (s *QuestionnaireService) session(sessionID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, util.ErrSessionNotFound
	}
	return session, nil
}

// GetState returns the current view without mutating anything.
func (s *QuestionnaireService) GetState(sessionID string) (*SessionView, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return s.view(session), nil
}

// Start dismisses the clarification pre-amble.
func (s *QuestionnaireService) Start(ctx context.Context, sessionID string) (*SessionView, error) {
	return s.mutate(ctx, sessionID, func(session *Session) {
		session.ShowClarification = false
	})
}

// SelectOption overwrites the question's answer with the chosen option.
func (s *QuestionnaireService) SelectOption(ctx context.Context, sessionID, questionID, optionID string) (*SessionView, error) {
	q, ok := s.byID[questionID]
	if !ok {
		return nil, util.ErrUnknownQuestion
	}
	option := findOption(q, optionID)
	if option == nil {
		return nil, util.ErrUnknownOption
	}
	return s.mutate(ctx, sessionID, func(session *Session) {
		value := float64(option.Value)
		session.Answers[questionID] = &model.StoredAnswer{
			ID:             option.ID,
			Text:           option.Text,
			Value:          &value,
			BlocksProgress: option.BlocksProgress,
		}
	})
}

// EditText updates free text, optionally scoped to a sub-field. Empty
// results delete the stored answer entirely.
func (s *QuestionnaireService) EditText(ctx context.Context, sessionID, questionID, subFieldID, text string) (*SessionView, error) {
	q, ok := s.byID[questionID]
	if !ok {
		return nil, util.ErrUnknownQuestion
	}
	if subFieldID != "" && findSubField(q, subFieldID) == nil {
		return nil, util.ErrUnknownQuestion
	}
	return s.mutate(ctx, sessionID, func(session *Session) {
		if subFieldID == "" {
			if strings.TrimSpace(text) == "" {
				delete(session.Answers, questionID)
				return
			}
			session.Answers[questionID] = &model.StoredAnswer{
				ID:   questionID,
				Text: text,
			}
			return
		}

		answer := session.Answers[questionID]
		if answer == nil {
			answer = &model.StoredAnswer{ID: questionID, FieldValues: make(map[string]string)}
		}
		if answer.FieldValues == nil {
			answer.FieldValues = make(map[string]string)
		}
		if strings.TrimSpace(text) == "" {
			delete(answer.FieldValues, subFieldID)
		} else {
			answer.FieldValues[subFieldID] = text
		}

		empty := true
		for _, v := range answer.FieldValues {
			if strings.TrimSpace(v) != "" {
				empty = false
				break
			}
		}
		if empty {
			delete(session.Answers, questionID)
			return
		}
		session.Answers[questionID] = answer
	})
}

// ToggleOption adds the option to the multi-choice selection when
// absent, removes it when present, and recomputes the aggregate text
// and blocking flag from the full selection list.
func (s *QuestionnaireService) ToggleOption(ctx context.Context, sessionID, questionID, optionID string) (*SessionView, error) {
	q, ok := s.byID[questionID]
	if !ok {
		return nil, util.ErrUnknownQuestion
	}
	option := findOption(q, optionID)
	if option == nil {
		return nil, util.ErrUnknownOption
	}
	return s.mutate(ctx, sessionID, func(session *Session) {
		var selections []model.AnswerOption
		if existing := session.Answers[questionID]; existing != nil {
			selections = existing.Selections
		}

		found := false
		next := make([]model.AnswerOption, 0, len(selections)+1)
		for _, sel := range selections {
			if sel.ID == option.ID {
				found = true
				continue
			}
			next = append(next, sel)
		}
		if !found {
			next = append(next, *option)
		}

		if len(next) == 0 {
			delete(session.Answers, questionID)
			return
		}

		texts := make([]string, len(next))
		blocks := false
		for i, sel := range next {
			texts[i] = sel.Text
			if sel.BlocksProgress {
				blocks = true
			}
		}
		session.Answers[questionID] = &model.StoredAnswer{
			ID:             questionID,
			Selections:     next,
			Text:           strings.Join(texts, ", "),
			BlocksProgress: blocks,
		}
	})
}

// AttachFiles stores plain (non-compressed) file uploads, capped at the
// question's configured maximum.
func (s *QuestionnaireService) AttachFiles(ctx context.Context, sessionID, questionID string, files []model.FileRef) (*SessionView, error) {
	q, ok := s.byID[questionID]
	if !ok {
		return nil, util.ErrUnknownQuestion
	}
	return s.mutate(ctx, sessionID, func(session *Session) {
		limited := files
		if q.MaxFiles > 0 && len(limited) > q.MaxFiles {
			limited = limited[:q.MaxFiles]
		}
		if len(limited) == 0 {
			delete(session.Answers, questionID)
			return
		}
		names := make([]string, len(limited))
		for i, f := range limited {
			names[i] = f.Name
		}
		session.Answers[questionID] = &model.StoredAnswer{
			ID:    limited[0].Name,
			Files: limited,
			Text:  strings.Join(names, ", "),
		}
	})
}

// AttachVideoPayload stores a completed compression result: compressed
// file, original file and metadata as one unit.
func (s *QuestionnaireService) AttachVideoPayload(ctx context.Context, sessionID, questionID string, payload *model.VideoCompressionPayload) (*SessionView, error) {
	if _, ok := s.byID[questionID]; !ok {
		return nil, util.ErrUnknownQuestion
	}
	return s.mutate(ctx, sessionID, func(session *Session) {
		meta := payload.Metadata
		session.Answers[questionID] = &model.StoredAnswer{
			ID:               payload.File.Name,
			Files:            []model.FileRef{payload.File},
			OriginalFiles:    []model.FileRef{payload.OriginalFile},
			Text:             payload.File.Name,
			VideoCompression: &meta,
		}
	})
}

// RemoveFileAnswer deletes the stored answer entirely.
func (s *QuestionnaireService) RemoveFileAnswer(ctx context.Context, sessionID, questionID string) (*SessionView, error) {
	if _, ok := s.byID[questionID]; !ok {
		return nil, util.ErrUnknownQuestion
	}
	return s.mutate(ctx, sessionID, func(session *Session) {
		delete(session.Answers, questionID)
	})
}

// Previous steps back one visible question. No validation runs.
func (s *QuestionnaireService) Previous(ctx context.Context, sessionID string) (*SessionView, error) {
	return s.mutate(ctx, sessionID, func(session *Session) {
		if session.Index > 0 {
			session.Index--
		}
	})
}

// Next executes the advance protocol: required check, structural
// completeness, format validation, blocking answers, then either a
// position increment or the final verification + submission.
func (s *QuestionnaireService) Next(ctx context.Context, sessionID, captchaToken string) (*SessionView, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	if session.Completed {
		session.mu.Unlock()
		return nil, util.ErrSessionCompleted
	}
	if session.Submitting {
		session.mu.Unlock()
		return nil, util.ErrSubmissionInFlight
	}

	visible := VisibleQuestions(s.questions, session.Answers)
	clampIndex(session, len(visible))
	if len(visible) == 0 {
		session.mu.Unlock()
		return s.view(session), nil
	}

	q := visible[session.Index]
	answer := session.Answers[q.ID]

	if msg := s.checkAnswer(&q, answer); msg != "" {
		session.LastError = msg
		s.persist(ctx, session)
		session.mu.Unlock()
		return s.view(session), nil
	}

	if session.Index < len(visible)-1 {
		session.Index++
		visible = VisibleQuestions(s.questions, session.Answers)
		clampIndex(session, len(visible))
		session.LastError = ""
		s.persist(ctx, session)
		session.mu.Unlock()
		return s.view(session), nil
	}

	// Last visible question: verify, serialize and submit.
	key := session.VerificationKey
	if key == "" {
		key = s.verifier.Cached(ctx, session.ID)
	}
	if key == "" {
		if captchaToken == "" {
			session.LastError = msgVerification
			session.mu.Unlock()
			return s.view(session), nil
		}
		verified, err := s.verifier.Verify(ctx, session.ID, captchaToken)
		if err != nil {
			session.LastError = err.Error()
			session.mu.Unlock()
			return s.view(session), nil
		}
		key = verified
	}
	session.VerificationKey = key

	result := serializeResult(visible, session.Answers, key)
	session.Submitting = true
	session.mu.Unlock()

	whatsapp, err := s.complete(ctx, session.ID, result)

	session.mu.Lock()
	session.Submitting = false
	if err != nil {
		// Submission stays retryable; the cached verification key is kept.
		session.LastError = err.Error()
		monitoring.SubmissionsCompleted.WithLabelValues("error").Inc()
		logger.Log.Warn("intake submission failed", zap.String("session", session.ID), zap.Error(err))
		session.mu.Unlock()
		return s.view(session), nil
	}

	session.LastError = ""
	session.Completed = true
	session.Whatsapp = whatsapp
	session.VerificationKey = ""
	session.mu.Unlock()

	s.verifier.Clear(ctx, session.ID)
	s.store.Clear(ctx, session.ID)
	monitoring.SubmissionsCompleted.WithLabelValues("success").Inc()
	logger.Log.Info("intake submitted", zap.String("session", session.ID))
	return s.view(session), nil
}

// checkAnswer runs steps 1-4 of the advance protocol and returns the
// user-facing message blocking the advance, or "".
func (s *QuestionnaireService) checkAnswer(q *model.Question, answer *model.StoredAnswer) string {
	if answer == nil {
		if q.Required && !s.allowSkip {
			return msgRequired
		}
		return ""
	}
	if !structurallyComplete(q, answer) {
		return msgRequired
	}
	if err := validateAnswer(q, answer, time.Now()); err != nil {
		return err.Error()
	}
	if answer.Blocks() {
		return msgBlocked
	}
	return ""
}

// structurallyComplete checks type-specific completeness: composites
// need every sub-field, textual types need non-empty trimmed text and
// multi-choice needs at least one selection.
func structurallyComplete(q *model.Question, a *model.StoredAnswer) bool {
	if len(q.SubFields) > 0 {
		for _, sf := range q.SubFields {
			if strings.TrimSpace(a.FieldValues[sf.ID]) == "" {
				return false
			}
		}
		return true
	}
	switch q.Type {
	case model.QuestionText, model.QuestionTextarea, model.QuestionNumber,
		model.QuestionPhone, model.QuestionDate, model.QuestionSelect:
		return strings.TrimSpace(a.Text) != ""
	case model.QuestionMultiChoice:
		return len(a.Selections) > 0
	}
	return true
}

// Autofill synthesizes plausible answers for every question and jumps
// to the last one. Only mounted in debug mode.
func (s *QuestionnaireService) Autofill(ctx context.Context, sessionID string) (*SessionView, error) {
	return s.mutate(ctx, sessionID, func(session *Session) {
		for i, q := range s.questions {
			if q.Type == model.QuestionFile {
				session.Answers[q.ID] = &model.StoredAnswer{
					ID:   q.ID + "-demo-video",
					Text: "demo-video.mp4",
				}
				continue
			}
			if len(q.SubFields) > 0 {
				values := make(map[string]string, len(q.SubFields))
				for _, sf := range q.SubFields {
					values[sf.ID] = "11"
				}
				session.Answers[q.ID] = &model.StoredAnswer{ID: q.ID, FieldValues: values}
				continue
			}
			if len(q.Answers) > 0 {
				first := q.Answers[0]
				for _, option := range q.Answers {
					if !option.BlocksProgress {
						first = option
						break
					}
				}
				answer := &model.StoredAnswer{
					ID:             first.ID,
					Text:           first.Text,
					BlocksProgress: first.BlocksProgress,
				}
				if q.Type == model.QuestionMultiChoice {
					answer.ID = q.ID
					answer.Selections = []model.AnswerOption{first}
				}
				session.Answers[q.ID] = answer
				continue
			}
			if q.Type == model.QuestionDate {
				session.Answers[q.ID] = &model.StoredAnswer{ID: q.ID, Text: "1990-01-15"}
				continue
			}
			if q.Type == model.QuestionNumber {
				text := "80"
				if q.Validation != nil && q.Validation.Min != nil {
					text = formatNumber(*q.Validation.Min)
				}
				session.Answers[q.ID] = &model.StoredAnswer{ID: q.ID, Text: text}
				continue
			}
			text := q.Placeholder
			if text == "" {
				text = "demo"
			}
			session.Answers[q.ID] = &model.StoredAnswer{ID: q.ID + "-autofill-" + formatNumber(float64(i)), Text: text}
		}
		session.ShowClarification = false
		visible := VisibleQuestions(s.questions, session.Answers)
		if len(visible) > 0 {
			session.Index = len(visible) - 1
		}
	})
}

// mutate runs a capture operation under the session lock. Per the
// engine contract it clears the last error, is a no-op while a
// submission is in flight, clamps the position index and persists the
// snapshot afterwards.
func (s *QuestionnaireService) mutate(ctx context.Context, sessionID string, apply func(*Session)) (*SessionView, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.Completed {
		return nil, util.ErrSessionCompleted
	}
	if session.Submitting {
		return s.viewLocked(session), nil
	}

	apply(session)
	session.LastError = ""
	clampIndex(session, len(VisibleQuestions(s.questions, session.Answers)))
	s.persist(ctx, session)
	return s.viewLocked(session), nil
}

// clampIndex keeps the invariant that the index is always a valid
// position in the visible subset (0 when the subset is empty).
func clampIndex(session *Session, visibleCount int) {
	if visibleCount == 0 {
		session.Index = 0
		return
	}
	if session.Index > visibleCount-1 {
		session.Index = visibleCount - 1
	}
	if session.Index < 0 {
		session.Index = 0
	}
}

func (s *QuestionnaireService) view(session *Session) *SessionView {
	session.mu.Lock()
	defer session.mu.Unlock()
	return s.viewLocked(session)
}

func (s *QuestionnaireService) viewLocked(session *Session) *SessionView {
	visible := VisibleQuestions(s.questions, session.Answers)
	clampIndex(session, len(visible))

	view := &SessionView{
		SessionID:         session.ID,
		ShowClarification: session.ShowClarification,
		Index:             session.Index,
		Total:             len(visible),
		CanGoPrevious:     session.Index > 0 && !session.ShowClarification,
		Error:             session.LastError,
		Submitting:        session.Submitting,
		Completed:         session.Completed,
		Whatsapp:          session.Whatsapp,
	}
	if len(visible) > 0 {
		q := visible[session.Index]
		view.Question = &q
		view.Answer = session.Answers[q.ID]
		view.IsLast = session.Index == len(visible)-1
		view.Blocked = session.Answers[q.ID].Blocks()
		view.Progress = float64(session.Index+1) / float64(len(visible)) * 100
	}
	return view
}

// persist writes the durable snapshot. File-bearing answers are
// excluded; failures are swallowed by the repository.
func (s *QuestionnaireService) persist(ctx context.Context, session *Session) {
	snapshot := &repository.PersistedState{
		Answers:              make(map[string]repository.PersistedAnswer, len(session.Answers)),
		CurrentQuestionIndex: session.Index,
		ShowClarification:    session.ShowClarification,
	}
	for id, answer := range session.Answers {
		q, ok := s.byID[id]
		if !ok || q.Type == model.QuestionFile {
			continue
		}
		persisted := repository.PersistedAnswer{
			ID:             answer.ID,
			Text:           answer.Text,
			Value:          answer.Value,
			FieldValues:    answer.FieldValues,
			BlocksProgress: answer.BlocksProgress,
		}
		for _, sel := range answer.Selections {
			persisted.Selections = append(persisted.Selections, sel.ID)
		}
		snapshot.Answers[id] = persisted
	}
	s.store.Save(ctx, session.ID, snapshot)
}

// restore rebuilds in-memory answers from a snapshot, resolving
// selection ids against the current question options.
func (s *QuestionnaireService) restore(session *Session, snapshot *repository.PersistedState) {
	for id, persisted := range snapshot.Answers {
		q, ok := s.byID[id]
		if !ok || q.Type == model.QuestionFile {
			continue
		}
		answer := &model.StoredAnswer{
			ID:             persisted.ID,
			Text:           persisted.Text,
			Value:          persisted.Value,
			FieldValues:    persisted.FieldValues,
			BlocksProgress: persisted.BlocksProgress,
		}
		for _, selID := range persisted.Selections {
			if option := findOption(q, selID); option != nil {
				answer.Selections = append(answer.Selections, *option)
			}
		}
		if !answer.BlocksProgress {
			for _, sel := range answer.Selections {
				if sel.BlocksProgress {
					answer.BlocksProgress = true
					break
				}
			}
		}
		session.Answers[id] = answer
	}
	session.Index = snapshot.CurrentQuestionIndex
	session.ShowClarification = snapshot.ShowClarification
	clampIndex(session, len(VisibleQuestions(s.questions, session.Answers)))
}

// serializeResult builds the final output from the currently visible,
// answered questions.
func serializeResult(visible []model.Question, answers map[string]*model.StoredAnswer, verificationKey string) *model.Result {
	serialized := make(map[string][]model.ResultEntry)
	for _, q := range visible {
		stored := answers[q.ID]
		if stored == nil {
			continue
		}

		if len(stored.Selections) > 0 {
			entries := make([]model.ResultEntry, len(stored.Selections))
			for i, sel := range stored.Selections {
				entries[i] = model.ResultEntry{ID: sel.ID}
			}
			serialized[q.ID] = entries
			continue
		}

		if q.Type == model.QuestionFile {
			var file *model.FileRef
			name := stored.Text
			if len(stored.Files) > 0 {
				f := stored.Files[0]
				file = &f
				name = f.Name
			}
			if name == "" {
				name = q.ID + "-video"
			}
			entry := model.ResultEntry{ID: stored.ID, File: file, Value: name}
			if entry.ID == "" {
				entry.ID = q.ID
			}
			serialized[q.ID] = []model.ResultEntry{entry}
			continue
		}

		if len(q.SubFields) > 0 {
			entries := make([]model.ResultEntry, 0, len(q.SubFields))
			for _, sf := range q.SubFields {
				entries = append(entries, model.ResultEntry{
					ID:         q.ID,
					SubFieldID: sf.ID,
					Value:      stored.FieldValues[sf.ID],
				})
			}
			serialized[q.ID] = entries
			continue
		}

		switch q.Type {
		case model.QuestionText, model.QuestionTextarea, model.QuestionNumber,
			model.QuestionPhone, model.QuestionDate, model.QuestionSelect:
			serialized[q.ID] = []model.ResultEntry{{ID: q.ID, Value: stored.Text}}
		default:
			id := stored.ID
			if id == "" {
				id = q.ID
			}
			serialized[q.ID] = []model.ResultEntry{{ID: id}}
		}
	}

	return &model.Result{
		Answers:         serialized,
		CompletedAt:     time.Now(),
		VerificationKey: verificationKey,
	}
}

func findOption(q *model.Question, optionID string) *model.AnswerOption {
	for i := range q.Answers {
		if q.Answers[i].ID == optionID {
			return &q.Answers[i]
		}
	}
	return nil
}

func findSubField(q *model.Question, subFieldID string) *model.SubField {
	for i := range q.SubFields {
		if q.SubFields[i].ID == subFieldID {
			return &q.SubFields[i]
		}
	}
	return nil
}
