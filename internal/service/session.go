package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/yanwarin/hospital-chatbot/internal/domain"
	"github.com/yanwarin/hospital-chatbot/internal/repository"
)

// SessionRepo is the persistence surface the store mirrors to. Implemented
// by *repository.Queries; stubbed in tests.
type SessionRepo interface {
	GetSessionByKey(ctx context.Context, key string) (repository.SessionRow, error)
	CreateSession(ctx context.Context, key, preferredLanguage string) (repository.SessionRow, error)
	TouchSession(ctx context.Context, key string) error
	DeactivateSession(ctx context.Context, key string) error
	AddMessage(ctx context.Context, arg repository.AddMessageParams) error
	GetSessionMessages(ctx context.Context, sessionID int64) ([]repository.MessageRow, error)
	CountActiveSessions(ctx context.Context) (int64, error)
	CountMessages(ctx context.Context) (int64, error)
}

// SessionService owns conversation state keyed by an opaque session key.
// The in-process map serves every read; when a repo is configured it is
// consulted to hydrate unseen keys and mirrored asynchronously on writes.
// Any storage error degrades to the in-memory path for that call only and
// is logged, never surfaced.
type SessionService struct {
	repo   SessionRepo // nil when persistence is disabled
	mem    *memoryStore
	locks  *keyedMutex
	mirror *mirrorQueue

	// Keys whose clear is still in the write-behind queue. While a key is
	// listed here its stored row is stale and must not be hydrated.
	pendingMu     sync.Mutex
	pendingClears map[string]int

	hookMu     sync.Mutex
	onFallback func(op string, err error)
}

func NewSessionService(repo SessionRepo) *SessionService {
	s := &SessionService{
		repo:          repo,
		mem:           newMemoryStore(),
		locks:         newKeyedMutex(),
		pendingClears: make(map[string]int),
	}
	if repo != nil {
		s.mirror = newMirrorQueue(repo)
	}
	return s
}

// SetFallbackHook installs an observer invoked whenever a call degrades to
// the in-memory path. Used for ops alerting; the user-facing contract is
// unchanged.
func (s *SessionService) SetFallbackHook(fn func(op string, err error)) {
	s.hookMu.Lock()
	s.onFallback = fn
	s.hookMu.Unlock()
}

// Close drains the write-behind queue. Call on shutdown.
func (s *SessionService) Close() {
	if s.mirror != nil {
		s.mirror.close()
	}
}

func (s *SessionService) fallback(op string, err error) {
	slog.Warn("session store degraded to in-memory path", "op", op, "error", err)
	s.hookMu.Lock()
	fn := s.onFallback
	s.hookMu.Unlock()
	if fn != nil {
		fn(op, err)
	}
}

// GetOrCreate returns the session for key, creating it lazily on first
// reference. The boolean reports whether this call degraded to the
// in-memory path because of a storage error.
func (s *SessionService) GetOrCreate(ctx context.Context, key string) (*domain.Session, bool) {
	unlock := s.locks.lock(key)
	defer unlock()
	return s.getOrCreateLocked(ctx, key)
}

// getOrCreateLocked must be called with the per-key lock held. A session
// already resident in memory is authoritative for the running process;
// storage is consulted only for unseen keys, since mirroring is
// write-behind and the row may lag.
func (s *SessionService) getOrCreateLocked(ctx context.Context, key string) (*domain.Session, bool) {
	if sess, ok := s.mem.get(key); ok {
		return sess, false
	}
	if s.repo == nil {
		return s.mem.getOrCreate(key), false
	}
	// A clear for this key has not reached storage yet; hydrating the row
	// now would resurrect the cleared messages. Start fresh instead.
	if s.clearInFlight(key) {
		return s.mem.getOrCreate(key), false
	}

	row, err := s.repo.GetSessionByKey(ctx, key)
	if err == pgx.ErrNoRows {
		row, err = s.repo.CreateSession(ctx, key, "")
	}
	if err != nil {
		s.fallback("get_or_create", err)
		return s.mem.getOrCreate(key), true
	}

	sess := &domain.Session{
		Key:               row.SessionKey,
		CreatedAt:         row.CreatedAt,
		LastActiveAt:      row.LastActiveAt,
		Active:            row.IsActive,
		PreferredLanguage: row.PreferredLanguage,
	}
	rows, err := s.repo.GetSessionMessages(ctx, row.ID)
	if err != nil {
		s.fallback("load_messages", err)
		s.mem.put(sess)
		return sess, true
	}
	for _, r := range rows {
		sess.Messages = append(sess.Messages, domain.Message{
			Role:           internalRole(r.Role),
			Content:        r.Content,
			CreatedAt:      r.CreatedAt,
			Media:          refsFromURLs(r.AvailableImages),
			MediaCount:     int(r.ImageCount),
			Source:         r.Source,
			Language:       r.Language,
			ResponseTimeMs: r.ResponseTimeMs,
		})
	}
	s.mem.put(sess)
	return sess, false
}

// Append adds a message to the session, creating it if needed. Appends to
// the same key are serialized; the mirror write is asynchronous and
// best-effort.
func (s *SessionService) Append(ctx context.Context, key, role, content string, meta domain.MessageMeta) {
	unlock := s.locks.lock(key)
	defer unlock()

	sess, _ := s.getOrCreateLocked(ctx, key)
	now := time.Now()
	source := meta.Source
	if source == "" {
		if role == domain.RoleUser {
			source = domain.SourceUser
		} else {
			source = domain.SourceModel
		}
	}
	sess.Messages = append(sess.Messages, domain.Message{
		Role:           role,
		Content:        content,
		CreatedAt:      now,
		Media:          meta.Media,
		MediaCount:     len(meta.Media),
		Source:         source,
		Language:       meta.Language,
		ResponseTimeMs: meta.ResponseTimeMs,
	})
	sess.LastActiveAt = now

	if s.mirror != nil {
		s.mirror.enqueue(mirrorOp{
			kind:     opAppend,
			key:      key,
			language: meta.Language,
			msg: repository.AddMessageParams{
				Role:            storedRole(role),
				Content:         content,
				Language:        meta.Language,
				ResponseTimeMs:  meta.ResponseTimeMs,
				Source:          source,
				AvailableImages: urlsFromRefs(meta.Media),
				ImageCount:      int32(len(meta.Media)),
			},
		})
	}
}

// History returns a defensive copy of the session's messages in append
// order.
func (s *SessionService) History(ctx context.Context, key string) []domain.Message {
	unlock := s.locks.lock(key)
	defer unlock()

	sess, _ := s.getOrCreateLocked(ctx, key)
	out := make([]domain.Message, len(sess.Messages))
	copy(out, sess.Messages)
	return out
}

// FormattedHistory returns the history shaped for the completion call.
func (s *SessionService) FormattedHistory(ctx context.Context, key string) []ChatTurn {
	msgs := s.History(ctx, key)
	turns := make([]ChatTurn, 0, len(msgs))
	for _, m := range msgs {
		if m.Source == domain.SourceError {
			continue
		}
		turns = append(turns, ChatTurn{Role: m.Role, Content: m.Content})
	}
	return turns
}

// Clear removes the in-memory entry unconditionally and soft-deletes the
// stored row, preserving audit history. The soft delete goes through the
// write-behind queue so it lands after any appends still in flight; until
// it does, the key is held in pendingClears so a concurrent read cannot
// hydrate the stale row back into memory.
func (s *SessionService) Clear(ctx context.Context, key string) {
	unlock := s.locks.lock(key)
	defer unlock()

	s.mem.delete(key)
	if s.mirror != nil {
		s.markClearInFlight(key)
		s.mirror.enqueue(mirrorOp{
			kind:    opClear,
			key:     key,
			cleared: func() { s.clearLanded(key) },
		})
	}
}

func (s *SessionService) markClearInFlight(key string) {
	s.pendingMu.Lock()
	s.pendingClears[key]++
	s.pendingMu.Unlock()
}

// clearLanded releases the hydration block once the deactivate has been
// applied. A clear that never lands (dropped after retry) keeps the key
// blocked; the stored row is stale for the rest of the process lifetime.
func (s *SessionService) clearLanded(key string) {
	s.pendingMu.Lock()
	if s.pendingClears[key] > 1 {
		s.pendingClears[key]--
	} else {
		delete(s.pendingClears, key)
	}
	s.pendingMu.Unlock()
}

func (s *SessionService) clearInFlight(key string) bool {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	return s.pendingClears[key] > 0
}

// Stats returns aggregate session and message counts, from storage when
// reachable, else from memory.
func (s *SessionService) Stats(ctx context.Context) (sessions, messages int64) {
	if s.repo != nil {
		sc, err := s.repo.CountActiveSessions(ctx)
		if err == nil {
			mc, merr := s.repo.CountMessages(ctx)
			if merr == nil {
				return sc, mc
			}
			err = merr
		}
		s.fallback("stats", err)
	}
	return s.mem.counts()
}

// SessionSummary is the shape returned by List.
type SessionSummary struct {
	Key          string    `json:"key"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActiveAt time.Time `json:"lastActiveAt"`
	MessageCount int       `json:"messageCount"`
}

// List returns summaries of the sessions resident in this process.
func (s *SessionService) List(ctx context.Context) []SessionSummary {
	keys := s.mem.keys()
	out := make([]SessionSummary, 0, len(keys))
	for _, key := range keys {
		sess, ok := s.mem.get(key)
		if !ok {
			continue
		}
		out = append(out, SessionSummary{
			Key:          sess.Key,
			CreatedAt:    sess.CreatedAt,
			LastActiveAt: sess.LastActiveAt,
			MessageCount: len(sess.Messages),
		})
	}
	return out
}

// storedRole maps the internal "model" role to the persisted "assistant".
func storedRole(role string) string {
	if role == domain.RoleModel {
		return "assistant"
	}
	return role
}

func internalRole(role string) string {
	if role == "assistant" {
		return domain.RoleModel
	}
	return role
}

func urlsFromRefs(refs []domain.MediaRef) []string {
	urls := make([]string, 0, len(refs))
	for _, r := range refs {
		urls = append(urls, r.URL)
	}
	return urls
}

func refsFromURLs(urls []string) []domain.MediaRef {
	if len(urls) == 0 {
		return nil
	}
	refs := make([]domain.MediaRef, 0, len(urls))
	for _, u := range urls {
		refs = append(refs, domain.MediaRef{URL: u, Kind: domain.MediaImage})
	}
	return refs
}

// keyedMutex serializes appends per session key. Entries are never evicted;
// the lock footprint follows the session map's.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()
	m.Lock()
	return m.Unlock
}
