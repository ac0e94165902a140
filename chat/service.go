package chat

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"studyassist/core"
	"studyassist/logging"
	"studyassist/retrieval"
)

// ErrEmptyQuery is returned when a request carries no query text.
var ErrEmptyQuery = errors.New("query text must not be empty")

// Embedder is the chat-side view of the embedding provider.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Generator is the chat-side view of the generation provider.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userMessage string) (string, error)
	GenerateWithHistory(ctx context.Context, systemPrompt string, history []core.Turn, userMessage string) (string, error)
}

// Searcher ranks candidates against a query embedding.
type Searcher interface {
	Search(ctx context.Context, queryVector []float32, topK int) ([]core.ScoredDocument, error)
}

type Request struct {
	Query          string `json:"query"`
	UserID         string `json:"user_id"`
	SessionID      string `json:"session_id"`
	TopK           int    `json:"top_k"`
	IncludeSources bool   `json:"include_sources"`
}

type Response struct {
	Answer         string           `json:"answer"`
	Sources        []core.SourceRef `json:"sources"`
	SessionID      string           `json:"session_id"`
	Confidence     string           `json:"confidence"`
	Intent         string           `json:"intent"`
	ProcessingTime float64          `json:"processing_time"`
}

type Service struct {
	embedder   Embedder
	generator  Generator
	searcher   Searcher
	sessions   SessionStore
	thresholds retrieval.Thresholds
	logger     *logging.Logger
}

func NewService(embedder Embedder, generator Generator, searcher Searcher, sessions SessionStore, thresholds retrieval.Thresholds, logger *logging.Logger) *Service {
	return &Service{
		embedder:   embedder,
		generator:  generator,
		searcher:   searcher,
		sessions:   sessions,
		thresholds: thresholds,
		logger:     logger,
	}
}

// Answer runs the full query pipeline: intent, optional follow-up
// rewrite, embed, rank, classify, expand, generate, memory update.
// Collaborator failures degrade the answer; they never fail the call.
func (s *Service) Answer(ctx context.Context, req Request) (*Response, error) {
	started := time.Now()
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	userID := req.UserID
	if userID == "" {
		userID = "anonymous"
	}

	sessionID := req.SessionID
	if sessionID == "" {
		if active, ok := s.sessions.ActiveSession(userID); ok {
			sessionID = active
		} else {
			sessionID = s.sessions.NewSession(userID)
		}
	}
	turns := s.sessions.Turns(sessionID)
	intent := ClassifyIntent(query, len(turns))

	resp := &Response{SessionID: sessionID, Intent: string(intent), Sources: []core.SourceRef{}}
	defer func() { resp.ProcessingTime = time.Since(started).Seconds() }()

	// Greetings get a canned reply with zero retrieval calls.
	if intent == IntentGreeting {
		resp.Answer = greetingReplies[rand.Intn(len(greetingReplies))]
		s.record(userID, sessionID, query, resp.Answer)
		return resp, nil
	}

	searchQuery := query
	if intent == IntentFollowUp {
		searchQuery = RewriteFollowUp(turns, query)
	}

	vector, err := s.embedder.Embed(ctx, searchQuery)
	if err != nil {
		s.logger.Error("query embedding failed", "session_id", sessionID, "error", err)
		resp.Answer = degradedMessage
		resp.Confidence = retrieval.ConfidenceNone
		return resp, nil
	}

	ranked, err := s.searcher.Search(ctx, vector, req.TopK)
	if err != nil {
		s.logger.Error("candidate search failed", "session_id", sessionID, "error", err)
		resp.Answer = degradedMessage
		resp.Confidence = retrieval.ConfidenceNone
		return resp, nil
	}

	cls := retrieval.Classify(ranked, s.thresholds)
	resp.Confidence = cls.Label

	// Nothing clears the minimum threshold: refuse without generation.
	if cls.Label == retrieval.ConfidenceNone {
		resp.Answer = refusalMessage
		s.record(userID, sessionID, query, resp.Answer)
		return resp, nil
	}

	working := retrieval.Expand(cls.WorkingSet, ranked, s.thresholds)
	contextText := mergeContext(working)
	if contextText == "" {
		resp.Answer = refusalMessage
		s.record(userID, sessionID, query, resp.Answer)
		return resp, nil
	}

	answer, ok := s.generate(ctx, cls.Label, intent, contextText, query, turns)
	if !ok {
		// Degraded terminal state: nothing is committed to memory.
		resp.Answer = degradedMessage
		return resp, nil
	}
	resp.Answer = formatEducational(answer)

	if req.IncludeSources {
		resp.Sources = sourceRefs(working)
	}

	s.sessions.AppendTurn(sessionID, "user", query)
	s.sessions.AppendTurn(sessionID, "assistant", resp.Answer)
	s.record(userID, sessionID, query, resp.Answer)
	return resp, nil
}

// generate picks the strategy for (confidence x intent) and walks the
// fallback chain: the chosen call, then one plain context-grounded
// call, then give up.
func (s *Service) generate(ctx context.Context, confidence string, intent Intent, contextText, query string, turns []core.Turn) (string, bool) {
	system := tutorSystemPrompt
	if intent == IntentClarification || intent == IntentFollowUp {
		system = clarificationSystemPrompt
	}
	userMessage := buildUserMessage(contextText, query, intent == IntentFollowUp)

	var answer string
	var err error
	if confidence == retrieval.ConfidenceHigh {
		answer, err = s.generator.GenerateWithHistory(ctx, system, turns, userMessage)
	} else {
		answer, err = s.generator.Generate(ctx, system, userMessage)
	}
	if err == nil && answer != "" {
		return answer, true
	}
	if err != nil {
		s.logger.Warn("generation failed, retrying without memory", "error", err)
	}

	answer, err = s.generator.Generate(ctx, tutorSystemPrompt, buildUserMessage(contextText, query, false))
	if err != nil || answer == "" {
		if err != nil {
			s.logger.Error("fallback generation failed", "error", err)
		}
		return "", false
	}
	return answer, true
}

func (s *Service) record(userID, sessionID, userMessage, botResponse string) {
	s.sessions.AddRecord(core.ChatRecord{
		UserID:      userID,
		SessionID:   sessionID,
		UserMessage: userMessage,
		BotResponse: botResponse,
	})
}

func sourceRefs(docs []core.ScoredDocument) []core.SourceRef {
	refs := make([]core.SourceRef, 0, len(docs))
	for _, doc := range docs {
		ref := core.SourceRef{
			SourceID:   doc.SourceID,
			SourceType: doc.SourceType,
			Title:      doc.Title,
			Score:      doc.Score,
		}
		if doc.SourceType == core.SourcePDF {
			ref.Location = fmt.Sprintf("page %d", doc.PageNumber)
		} else {
			ref.Location = core.FormatTime(doc.StartTime)
		}
		refs = append(refs, ref)
	}
	return refs
}

// StartSession creates and activates a new session for the user,
// deactivating and evicting the previous active one.
func (s *Service) StartSession(userID string) string {
	return s.sessions.NewSession(userID)
}

// ClearMemory evicts one session's conversation buffer.
func (s *Service) ClearMemory(sessionID string) {
	s.sessions.Clear(sessionID)
}

func (s *Service) History(userID string) []core.ChatRecord { return s.sessions.History(userID) }
func (s *Service) Sessions(userID string) []string         { return s.sessions.Sessions(userID) }
func (s *Service) DeleteSession(userID, sessionID string)  { s.sessions.DeleteSession(userID, sessionID) }
