package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/yanwarin/hospital-chatbot/internal/config"
	"github.com/yanwarin/hospital-chatbot/internal/repository"
)

type opKind int

const (
	opAppend opKind = iota
	opClear
)

// mirrorOp is one write-behind storage operation. Clears travel through the
// same queue as appends so storage applies them in arrival order; otherwise
// a lagging append could resurrect a cleared session. SessionID is resolved
// by the worker so an append never blocks on a session-row lookup.
type mirrorOp struct {
	kind     opKind
	key      string
	language string
	msg      repository.AddMessageParams
	cleared  func() // invoked once a clear has been applied to storage
}

// mirrorQueue mirrors message appends to storage behind a bounded channel.
// A failed write is retried once, then logged and dropped; the in-memory
// state is already committed, so a drop only costs durability.
type mirrorQueue struct {
	repo SessionRepo
	ops  chan mirrorOp
	done chan struct{}
}

func newMirrorQueue(repo SessionRepo) *mirrorQueue {
	q := &mirrorQueue{
		repo: repo,
		ops:  make(chan mirrorOp, config.MirrorQueueSize),
		done: make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *mirrorQueue) enqueue(op mirrorOp) {
	select {
	case q.ops <- op:
	default:
		slog.Warn("mirror queue full, dropping write", "session", op.key)
	}
}

func (q *mirrorQueue) run() {
	defer close(q.done)
	for op := range q.ops {
		err := q.write(op)
		if err != nil {
			time.Sleep(config.MirrorRetryDelay)
			err = q.write(op)
		}
		if err != nil {
			slog.Error("mirror write dropped", "session", op.key, "error", err)
			continue
		}
		if op.cleared != nil {
			op.cleared()
		}
	}
}

func (q *mirrorQueue) write(op mirrorOp) error {
	ctx, cancel := context.WithTimeout(context.Background(), config.MirrorWriteTimeout)
	defer cancel()

	if op.kind == opClear {
		return q.repo.DeactivateSession(ctx, op.key)
	}

	row, err := q.repo.GetSessionByKey(ctx, op.key)
	if err == pgx.ErrNoRows {
		row, err = q.repo.CreateSession(ctx, op.key, op.language)
	}
	if err != nil {
		return err
	}

	msg := op.msg
	msg.SessionID = row.ID
	if err := q.repo.AddMessage(ctx, msg); err != nil {
		return err
	}
	return q.repo.TouchSession(ctx, op.key)
}

// close stops the worker after the queued writes drain.
func (q *mirrorQueue) close() {
	close(q.ops)
	<-q.done
}
