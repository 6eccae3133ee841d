package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yanwarin/hospital-chatbot/internal/domain"
	"github.com/yanwarin/hospital-chatbot/internal/repository"
)

// stubRepo is an in-memory SessionRepo with a switchable failure mode.
type stubRepo struct {
	mu             sync.Mutex
	fail           bool
	nextID         int64
	sessions       map[string]repository.SessionRow
	messages       map[int64][]repository.MessageRow
	deactivated    []string
	deactivateGate chan struct{}
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		sessions: make(map[string]repository.SessionRow),
		messages: make(map[int64][]repository.MessageRow),
	}
}

var errDBDown = errors.New("db down")

func (r *stubRepo) GetSessionByKey(_ context.Context, key string) (repository.SessionRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return repository.SessionRow{}, errDBDown
	}
	row, ok := r.sessions[key]
	if !ok || !row.IsActive {
		return repository.SessionRow{}, pgx.ErrNoRows
	}
	return row, nil
}

func (r *stubRepo) CreateSession(_ context.Context, key, lang string) (repository.SessionRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return repository.SessionRow{}, errDBDown
	}
	if row, ok := r.sessions[key]; ok {
		return row, nil
	}
	r.nextID++
	row := repository.SessionRow{
		ID:                r.nextID,
		SessionKey:        key,
		CreatedAt:         time.Now(),
		LastActiveAt:      time.Now(),
		IsActive:          true,
		PreferredLanguage: lang,
	}
	r.sessions[key] = row
	return row, nil
}

func (r *stubRepo) TouchSession(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errDBDown
	}
	return nil
}

func (r *stubRepo) DeactivateSession(_ context.Context, key string) error {
	r.mu.Lock()
	gate := r.deactivateGate
	r.mu.Unlock()
	if gate != nil {
		<-gate
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errDBDown
	}
	// Mirrors the archival rename: the key is freed, the row survives.
	if row, ok := r.sessions[key]; ok {
		row.IsActive = false
		delete(r.sessions, key)
		r.sessions[fmt.Sprintf("%s:cleared:%d", key, time.Now().UnixMilli())] = row
	}
	r.deactivated = append(r.deactivated, key)
	return nil
}

func (r *stubRepo) AddMessage(_ context.Context, arg repository.AddMessageParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errDBDown
	}
	r.messages[arg.SessionID] = append(r.messages[arg.SessionID], repository.MessageRow{
		SessionID:       arg.SessionID,
		Role:            arg.Role,
		Content:         arg.Content,
		CreatedAt:       time.Now(),
		Language:        arg.Language,
		ResponseTimeMs:  arg.ResponseTimeMs,
		Source:          arg.Source,
		AvailableImages: arg.AvailableImages,
		ImageCount:      arg.ImageCount,
	})
	return nil
}

func (r *stubRepo) GetSessionMessages(_ context.Context, sessionID int64) ([]repository.MessageRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return nil, errDBDown
	}
	return r.messages[sessionID], nil
}

func (r *stubRepo) CountActiveSessions(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return 0, errDBDown
	}
	var n int64
	for _, row := range r.sessions {
		if row.IsActive {
			n++
		}
	}
	return n, nil
}

func (r *stubRepo) CountMessages(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return 0, errDBDown
	}
	var n int64
	for _, msgs := range r.messages {
		n += int64(len(msgs))
	}
	return n, nil
}

func (r *stubRepo) setFail(fail bool) {
	r.mu.Lock()
	r.fail = fail
	r.mu.Unlock()
}

func (r *stubRepo) messageCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, msgs := range r.messages {
		n += len(msgs)
	}
	return n
}

func TestHistoryPreservesAppendOrder(t *testing.T) {
	svc := NewSessionService(nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		svc.Append(ctx, "s1", domain.RoleUser, fmt.Sprintf("msg-%d", i), domain.MessageMeta{})
	}

	history := svc.History(ctx, "s1")
	require.Len(t, history, 5)
	for i, m := range history {
		assert.Equal(t, fmt.Sprintf("msg-%d", i), m.Content)
	}
}

func TestGetOrCreateIsIdempotent(t *testing.T) {
	svc := NewSessionService(nil)
	ctx := context.Background()

	first, _ := svc.GetOrCreate(ctx, "fresh")
	second, _ := svc.GetOrCreate(ctx, "fresh")

	assert.Same(t, first, second)
	sessions, _ := svc.Stats(ctx)
	assert.Equal(t, int64(1), sessions)
}

func TestClearThenGetOrCreateYieldsEmptySession(t *testing.T) {
	svc := NewSessionService(nil)
	ctx := context.Background()

	svc.Append(ctx, "s1", domain.RoleUser, "hello", domain.MessageMeta{})
	svc.Clear(ctx, "s1")

	sess, _ := svc.GetOrCreate(ctx, "s1")
	assert.Empty(t, sess.Messages)
}

func TestHistoryReturnsDefensiveCopy(t *testing.T) {
	svc := NewSessionService(nil)
	ctx := context.Background()

	svc.Append(ctx, "s1", domain.RoleUser, "original", domain.MessageMeta{})

	history := svc.History(ctx, "s1")
	history[0].Content = "mutated"

	again := svc.History(ctx, "s1")
	assert.Equal(t, "original", again[0].Content)
}

func TestFormattedHistorySkipsErrorTurns(t *testing.T) {
	svc := NewSessionService(nil)
	ctx := context.Background()

	svc.Append(ctx, "s1", domain.RoleUser, "question", domain.MessageMeta{})
	svc.Append(ctx, "s1", domain.RoleModel, "", domain.MessageMeta{Source: domain.SourceError})
	svc.Append(ctx, "s1", domain.RoleModel, "answer", domain.MessageMeta{})

	turns := svc.FormattedHistory(ctx, "s1")
	require.Len(t, turns, 2)
	assert.Equal(t, domain.RoleUser, turns[0].Role)
	assert.Equal(t, domain.RoleModel, turns[1].Role)
	assert.Equal(t, "answer", turns[1].Content)
}

// Appends to the same key from concurrent requests are serialized by the
// per-key lock; none may be lost.
func TestConcurrentAppendsAreSerialized(t *testing.T) {
	svc := NewSessionService(nil)
	ctx := context.Background()

	const writers = 20
	const perWriter = 10

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				svc.Append(ctx, "shared", domain.RoleUser, fmt.Sprintf("%d-%d", w, i), domain.MessageMeta{})
			}
		}(w)
	}
	wg.Wait()

	assert.Len(t, svc.History(ctx, "shared"), writers*perWriter)
}

func TestGetOrCreateFallsBackPerCall(t *testing.T) {
	repo := newStubRepo()
	repo.setFail(true)
	svc := NewSessionService(repo)
	defer svc.Close()
	ctx := context.Background()

	sess, degraded := svc.GetOrCreate(ctx, "s1")
	require.NotNil(t, sess)
	assert.True(t, degraded)

	// Fallback is per-call, not sticky: once storage recovers, an unseen
	// key goes through the repo again.
	repo.setFail(false)
	_, degraded = svc.GetOrCreate(ctx, "s2")
	assert.False(t, degraded)
}

func TestFallbackHookObservesDegradation(t *testing.T) {
	repo := newStubRepo()
	repo.setFail(true)
	svc := NewSessionService(repo)
	defer svc.Close()

	var gotOp string
	svc.SetFallbackHook(func(op string, err error) { gotOp = op })

	svc.GetOrCreate(context.Background(), "s1")
	assert.Equal(t, "get_or_create", gotOp)
}

func TestAppendMirrorsWriteBehind(t *testing.T) {
	repo := newStubRepo()
	svc := NewSessionService(repo)
	ctx := context.Background()

	svc.Append(ctx, "s1", domain.RoleUser, "hello", domain.MessageMeta{Language: "en"})
	svc.Append(ctx, "s1", domain.RoleModel, "hi there", domain.MessageMeta{})
	svc.Close() // drains the mirror queue

	require.Equal(t, 2, repo.messageCount())

	repo.mu.Lock()
	defer repo.mu.Unlock()
	row := repo.sessions["s1"]
	msgs := repo.messages[row.ID]
	require.Len(t, msgs, 2)
	assert.Equal(t, "user", msgs[0].Role)
	assert.Equal(t, "user", msgs[0].Source)
	// Internal "model" role is stored as "assistant".
	assert.Equal(t, "assistant", msgs[1].Role)
	assert.Equal(t, "model", msgs[1].Source)
}

func TestMirrorFailureDoesNotAffectCaller(t *testing.T) {
	repo := newStubRepo()
	svc := NewSessionService(repo)
	ctx := context.Background()

	repo.setFail(true)
	svc.Append(ctx, "s1", domain.RoleUser, "hello", domain.MessageMeta{})

	// The in-memory state is committed regardless of the mirror outcome.
	assert.Len(t, svc.History(ctx, "s1"), 1)
	svc.Close()
}

func TestClearSoftDeletesStoredRow(t *testing.T) {
	repo := newStubRepo()
	svc := NewSessionService(repo)
	ctx := context.Background()

	svc.Append(ctx, "s1", domain.RoleUser, "hello", domain.MessageMeta{})
	svc.Clear(ctx, "s1")
	svc.Close() // drain the queue: append then clear, in order

	repo.mu.Lock()
	deactivated := append([]string(nil), repo.deactivated...)
	repo.mu.Unlock()
	assert.Contains(t, deactivated, "s1")

	// A fresh reference to the cleared key yields an empty session; the
	// archived row keeps the old message for audit.
	sess, _ := svc.GetOrCreate(ctx, "s1")
	assert.Empty(t, sess.Messages)
	assert.Equal(t, 1, repo.messageCount())
}

// A read racing a clear must not reload the cleared history from the
// still-active stored row while the deactivate sits in the queue.
func TestClearBlocksStaleHydration(t *testing.T) {
	repo := newStubRepo()
	gate := make(chan struct{})
	repo.mu.Lock()
	repo.deactivateGate = gate
	repo.mu.Unlock()

	svc := NewSessionService(repo)
	ctx := context.Background()

	svc.Append(ctx, "s1", domain.RoleUser, "secret question", domain.MessageMeta{})
	svc.Clear(ctx, "s1")

	// The deactivate is held in flight; the stored row is still active.
	sess, _ := svc.GetOrCreate(ctx, "s1")
	assert.Empty(t, sess.Messages)

	close(gate)
	svc.Close() // append then clear land, in order

	assert.Empty(t, svc.History(ctx, "s1"))
	// The archived row keeps the old message for audit.
	assert.Equal(t, 1, repo.messageCount())
}

func TestHydratesSessionFromStorage(t *testing.T) {
	repo := newStubRepo()
	row, err := repo.CreateSession(context.Background(), "restored", "en")
	require.NoError(t, err)
	require.NoError(t, repo.AddMessage(context.Background(), repository.AddMessageParams{
		SessionID: row.ID, Role: "user", Content: "old question", Source: "user",
	}))
	require.NoError(t, repo.AddMessage(context.Background(), repository.AddMessageParams{
		SessionID: row.ID, Role: "assistant", Content: "old answer", Source: "model",
	}))

	svc := NewSessionService(repo)
	defer svc.Close()

	history := svc.History(context.Background(), "restored")
	require.Len(t, history, 2)
	assert.Equal(t, domain.RoleUser, history[0].Role)
	// Stored "assistant" maps back to the internal "model" role.
	assert.Equal(t, domain.RoleModel, history[1].Role)
}

func TestStatsFallsBackDuringOutage(t *testing.T) {
	repo := newStubRepo()
	svc := NewSessionService(repo)
	defer svc.Close()
	ctx := context.Background()

	svc.Append(ctx, "s1", domain.RoleUser, "hello", domain.MessageMeta{})
	svc.Append(ctx, "s2", domain.RoleUser, "hi", domain.MessageMeta{})

	// Outage: counts must come from the in-memory map instead.
	repo.setFail(true)
	sessions, messages := svc.Stats(ctx)
	assert.Equal(t, int64(2), sessions)
	assert.Equal(t, int64(2), messages)
}

// All caller-visible properties must hold against the in-memory fallback
// during a storage outage, aside from non-durability.
func TestOutageIsInvisibleToCaller(t *testing.T) {
	repo := newStubRepo()
	repo.setFail(true)
	svc := NewSessionService(repo)
	defer svc.Close()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		svc.Append(ctx, "s1", domain.RoleUser, fmt.Sprintf("msg-%d", i), domain.MessageMeta{})
	}
	require.Len(t, svc.History(ctx, "s1"), 3)

	first, _ := svc.GetOrCreate(ctx, "s1")
	second, _ := svc.GetOrCreate(ctx, "s1")
	assert.Same(t, first, second)

	svc.Clear(ctx, "s1")
	sess, _ := svc.GetOrCreate(ctx, "s1")
	assert.Empty(t, sess.Messages)
}
