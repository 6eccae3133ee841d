package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yanwarin/hospital-chatbot/internal/config"
	"github.com/yanwarin/hospital-chatbot/internal/domain"
)

// Completer is the hosted completion surface consumed by the orchestrator.
type Completer interface {
	Available() bool
	Generate(ctx context.Context, history []ChatTurn, message string) (string, error)
}

// Notifier receives ops alerts. May be nil.
type Notifier interface {
	Alert(scope string, err error)
}

// ChatService runs the respond pipeline: load history, call the hosted
// completion, enrich with media, persist both turns.
type ChatService struct {
	sessions  *SessionService
	recommend *RecommendService
	llm       Completer
	notifier  Notifier
}

func NewChatService(sessions *SessionService, recommend *RecommendService, llm Completer, notifier Notifier) *ChatService {
	return &ChatService{
		sessions:  sessions,
		recommend: recommend,
		llm:       llm,
		notifier:  notifier,
	}
}

// ChatResult is the composite response of one turn.
type ChatResult struct {
	Response   string
	SessionKey string
	Media      []domain.MediaItem
}

// Respond handles one user turn. A missing session key is replaced with a
// server-issued one. The context sent to the model is read before the user
// turn is appended, so a turn never sees its own text as history.
// Completion failure is terminal for the request: the assistant turn is
// stored with an error flag and the error propagates with no retry.
// Enrichment and persistence failures are non-fatal.
func (s *ChatService) Respond(ctx context.Context, sessionKey, message string) (*ChatResult, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, domain.ErrEmptyMessage
	}
	if sessionKey == "" {
		sessionKey = uuid.NewString()
	}
	lang := domain.DetectLanguage(message)

	history := s.sessions.FormattedHistory(ctx, sessionKey)
	s.sessions.Append(ctx, sessionKey, domain.RoleUser, message, domain.MessageMeta{Language: lang})

	start := time.Now()
	answer, err := s.llm.Generate(ctx, history, message)
	if err != nil {
		s.sessions.Append(ctx, sessionKey, domain.RoleModel, "", domain.MessageMeta{
			Source:   domain.SourceError,
			Language: lang,
		})
		s.alert("chat completion", err)
		return nil, fmt.Errorf("generate answer: %w", err)
	}
	elapsed := time.Since(start).Milliseconds()

	answer, media := s.recommend.Enrich(ctx, answer, message, config.MaxItemsPerCategory)

	refs := make([]domain.MediaRef, 0, len(media))
	for _, item := range media {
		refs = append(refs, item.Ref())
	}
	s.sessions.Append(ctx, sessionKey, domain.RoleModel, answer, domain.MessageMeta{
		Media:          refs,
		Language:       lang,
		ResponseTimeMs: elapsed,
	})

	return &ChatResult{Response: answer, SessionKey: sessionKey, Media: media}, nil
}

func (s *ChatService) alert(scope string, err error) {
	if s.notifier != nil {
		s.notifier.Alert(scope, err)
	}
}
