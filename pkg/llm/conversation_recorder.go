package llm

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/models"
	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/repositories"
)

// ConversationRecorder persists LLM conversations.
type ConversationRecorder interface {
	// Record queues a finished conversation for insertion.
	Record(conv *models.LLMConversation)

	// SavePending synchronously inserts a pending record before the LLM call starts.
	SavePending(ctx context.Context, conv *models.LLMConversation) error

	// RecordCompletion queues an update of a pending record after the call returns.
	RecordCompletion(conv *models.LLMConversation)
}

// recordOp represents a database operation for conversation recording.
type recordOp struct {
	conv     *models.LLMConversation
	isUpdate bool // true = update existing record, false = insert new record
}

// writeTimeout bounds each background write so Close cannot hang on a stuck database.
const writeTimeout = 10 * time.Second

// AsyncConversationRecorder writes conversations from a background goroutine so
// that LLM calls never wait on the database.
type AsyncConversationRecorder struct {
	repo   repositories.ConversationRepository
	logger *zap.Logger
	queue  chan recordOp
	done   chan struct{}
}

// NewAsyncConversationRecorder starts the background writer.
// queueSize bounds the buffer; when full, records are dropped with a warning.
func NewAsyncConversationRecorder(
	repo repositories.ConversationRepository,
	logger *zap.Logger,
	queueSize int,
) *AsyncConversationRecorder {
	if queueSize <= 0 {
		queueSize = 100
	}

	r := &AsyncConversationRecorder{
		repo:   repo,
		logger: logger.Named("conversation-recorder"),
		queue:  make(chan recordOp, queueSize),
		done:   make(chan struct{}),
	}

	go r.processQueue()

	return r
}

// Record queues a conversation for insertion. Never blocks.
func (r *AsyncConversationRecorder) Record(conv *models.LLMConversation) {
	r.enqueue(recordOp{conv: conv})
}

// SavePending inserts the record with status pending so in-flight calls can be queried.
func (r *AsyncConversationRecorder) SavePending(ctx context.Context, conv *models.LLMConversation) error {
	conv.Status = models.LLMConversationStatusPending

	if err := r.repo.Save(ctx, conv); err != nil {
		r.logger.Error("Failed to save pending LLM conversation",
			zap.String("run_id", conv.RunID.String()),
			zap.String("model", conv.Model),
			zap.Error(err))
		return err
	}

	r.logger.Debug("Saved pending LLM conversation",
		zap.String("id", conv.ID.String()),
		zap.String("run_id", conv.RunID.String()))
	return nil
}

// RecordCompletion queues the update of a pending record. Never blocks.
func (r *AsyncConversationRecorder) RecordCompletion(conv *models.LLMConversation) {
	r.enqueue(recordOp{conv: conv, isUpdate: true})
}

func (r *AsyncConversationRecorder) enqueue(op recordOp) {
	select {
	case r.queue <- op:
	default:
		r.logger.Warn("Conversation queue full, dropping entry",
			zap.String("id", op.conv.ID.String()),
			zap.Bool("update", op.isUpdate))
	}
}

// Close stops accepting records and waits until the queue is drained.
func (r *AsyncConversationRecorder) Close() {
	close(r.queue)
	<-r.done
}

func (r *AsyncConversationRecorder) processQueue() {
	defer close(r.done)

	for op := range r.queue {
		r.write(op)
	}
}

func (r *AsyncConversationRecorder) write(op recordOp) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	action := "save"
	write := r.repo.Save
	if op.isUpdate {
		action = "update"
		write = r.repo.Update
	}

	if err := write(ctx, op.conv); err != nil {
		r.logger.Error("Failed to "+action+" LLM conversation",
			zap.String("id", op.conv.ID.String()),
			zap.String("status", op.conv.Status),
			zap.Error(err))
		return
	}

	r.logger.Debug("Stored LLM conversation",
		zap.String("id", op.conv.ID.String()),
		zap.String("action", action),
		zap.String("status", op.conv.Status),
		zap.Int("duration_ms", op.conv.DurationMs))
}

var _ ConversationRecorder = (*AsyncConversationRecorder)(nil)
