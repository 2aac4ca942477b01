// Package chat turns one user message into a persisted conversation turn
// pair: it resolves the conversation, picks a model, calls the upstream
// provider and writes both messages in a single transaction.
package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bwengye/bwengye/internal/analytics"
	"github.com/bwengye/bwengye/internal/catalog"
	"github.com/bwengye/bwengye/internal/inference"
	"github.com/bwengye/bwengye/internal/models"
	"github.com/bwengye/bwengye/internal/notify"
	"github.com/bwengye/bwengye/internal/prompt"
	"github.com/bwengye/bwengye/internal/router"
)

// ErrForbidden indicates the conversation does not exist or belongs to
// another user. The two cases are deliberately indistinguishable to the
// caller.
var ErrForbidden = errors.New("chat: conversation not found")

// ErrEmptyMessage indicates the request carried no message content.
var ErrEmptyMessage = errors.New("chat: message is required")

// Request is one inbound chat message.
type Request struct {
	UserID         string
	Message        string
	ConversationID string // empty starts a new conversation
	ModelName      string // optional override; unknown names fall back to routing
}

// Result is the reply for one chat request.
type Result struct {
	Message          string `json:"message"`
	ConversationID   string `json:"conversationId"`
	Model            string `json:"model"`
	TokensUsed       int    `json:"tokensUsed"`
	ProcessingTimeMS int    `json:"processingTime"`
	Saved            bool   `json:"saved"`
}

// Orchestrator runs the chat pipeline. Appends to the same conversation are
// serialized through a per-conversation lock; different conversations
// proceed concurrently.
type Orchestrator struct {
	db       *gorm.DB
	catalog  *catalog.Catalog
	provider inference.Provider
	sink     analytics.Sink
	notifier notify.Notifier
	locks    *convLocks
	out      io.Writer

	preamble     string
	historyLimit int
	titleMaxLen  int
}

// Opts holds parameters for creating an Orchestrator.
type Opts struct {
	DB       *gorm.DB
	Catalog  *catalog.Catalog
	Provider inference.Provider
	Sink     analytics.Sink
	Notifier notify.Notifier
	Out      io.Writer

	SystemPreamble string
	HistoryLimit   int
	TitleMaxLen    int
}

// New creates an Orchestrator.
func New(opts Opts) (*Orchestrator, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("chat: db is required")
	}
	if opts.Catalog == nil {
		return nil, fmt.Errorf("chat: catalog is required")
	}
	if opts.Provider == nil {
		return nil, fmt.Errorf("chat: provider is required")
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.Nop{}
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	historyLimit := opts.HistoryLimit
	if historyLimit <= 0 {
		historyLimit = prompt.DefaultHistoryLimit
	}
	titleMaxLen := opts.TitleMaxLen
	if titleMaxLen <= 0 {
		titleMaxLen = 50
	}
	return &Orchestrator{
		db:           opts.DB,
		catalog:      opts.Catalog,
		provider:     opts.Provider,
		sink:         opts.Sink,
		notifier:     notifier,
		locks:        newConvLocks(),
		out:          out,
		preamble:     opts.SystemPreamble,
		historyLimit: historyLimit,
		titleMaxLen:  titleMaxLen,
	}, nil
}

// Chat handles one user message end to end. When persistence fails after a
// successful upstream call, the reply is still returned with Saved set to
// false rather than discarded.
func (o *Orchestrator) Chat(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, ErrEmptyMessage
	}

	convID := req.ConversationID
	newConv := convID == ""
	if newConv {
		convID = uuid.NewString()
	}

	release := o.locks.acquire(convID)
	defer release()

	if !newConv {
		if err := o.checkOwner(ctx, convID, req.UserID); err != nil {
			return nil, err
		}
	}

	model, decision, err := o.pickModel(ctx, req)
	if err != nil {
		return nil, err
	}

	history, err := o.loadHistory(ctx, convID, newConv)
	if err != nil {
		return nil, err
	}
	turns := prompt.Build(history, req.Message, o.preamble, o.historyLimit)

	start := time.Now()
	reply, err := o.provider.ChatCompletion(ctx, *model, turns)
	if err != nil {
		return nil, fmt.Errorf("chat: completion with %s: %w", model.Name, err)
	}
	processingMS := int(time.Since(start).Milliseconds())

	res := &Result{
		Message:          reply.Content,
		ConversationID:   convID,
		Model:            model.Name,
		TokensUsed:       reply.TokensUsed,
		ProcessingTimeMS: processingMS,
		Saved:            true,
	}

	if err := o.persistTurnPair(ctx, req, convID, newConv, model.Name, reply, processingMS); err != nil {
		res.Saved = false
		fmt.Fprintf(o.out, "chat: persist turn pair for conversation %s: %v\n", convID, err)
		o.notifier.Send(ctx, notify.Alert{
			Title:    "Chat persistence failure",
			Body:     fmt.Sprintf("conversation %s: reply delivered but not saved: %v", convID, err),
			Severity: notify.SeverityError,
		})
	}

	o.emitChatEvent(req, res, decision)

	return res, nil
}

// checkOwner verifies the conversation exists and belongs to the user.
func (o *Orchestrator) checkOwner(ctx context.Context, convID, userID string) error {
	var conv models.Conversation
	err := o.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", convID, userID).
		First(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrForbidden
	}
	if err != nil {
		return fmt.Errorf("chat: load conversation %s: %w", convID, err)
	}
	return nil
}

// pickModel resolves the model for this request. An explicit model name is
// honored when it names an active model; otherwise the request goes through
// routing like any other.
func (o *Orchestrator) pickModel(ctx context.Context, req Request) (*models.AIModel, *router.Decision, error) {
	if req.ModelName != "" {
		m, err := o.catalog.Get(ctx, req.ModelName)
		if err == nil {
			return m, nil, nil
		}
		if !errors.Is(err, catalog.ErrNotFound) {
			return nil, nil, fmt.Errorf("chat: resolve model %s: %w", req.ModelName, err)
		}
		// Unknown or inactive override falls through to routing.
	}

	active, err := o.catalog.ListActive(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("chat: list models: %w", err)
	}
	decision, err := router.Route(router.Task{
		Type:          "chat",
		ContentLength: len(req.Message),
	}, active, catalog.ResolveRoles(active))
	if err != nil {
		return nil, nil, fmt.Errorf("chat: route: %w", err)
	}
	return &decision.Model, decision, nil
}

// loadHistory returns the conversation's recent messages in ascending
// timestamp order, at most the configured history limit.
func (o *Orchestrator) loadHistory(ctx context.Context, convID string, newConv bool) ([]models.Message, error) {
	if newConv {
		return nil, nil
	}
	var recent []models.Message
	err := o.db.WithContext(ctx).
		Where("conversation_id = ?", convID).
		Order("created_at DESC").
		Limit(o.historyLimit).
		Find(&recent).Error
	if err != nil {
		return nil, fmt.Errorf("chat: load history for %s: %w", convID, err)
	}
	for i, j := 0, len(recent)-1; i < j; i, j = i+1, j-1 {
		recent[i], recent[j] = recent[j], recent[i]
	}
	return recent, nil
}

// persistTurnPair writes the user message and assistant reply atomically,
// creating the conversation first when this is its opening turn. Timestamps
// are derived monotonically from the conversation's newest persisted turn,
// never from the wall clock alone, so created_at stays a total order even
// when appends land within the clock's resolution.
func (o *Orchestrator) persistTurnPair(ctx context.Context, req Request, convID string, newConv bool, modelName string, reply *inference.ChatResult, processingMS int) error {
	now := time.Now().UTC()
	return o.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if newConv {
			conv := models.Conversation{
				ID:        convID,
				UserID:    req.UserID,
				Title:     DeriveTitle(req.Message, o.titleMaxLen),
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := tx.Create(&conv).Error; err != nil {
				return fmt.Errorf("create conversation: %w", err)
			}
		}

		userAt := now
		if !newConv {
			var prev models.Message
			err := tx.Where("conversation_id = ?", convID).
				Order("created_at DESC").
				First(&prev).Error
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("read newest turn: %w", err)
			}
			if err == nil && !userAt.After(prev.CreatedAt) {
				userAt = prev.CreatedAt.Add(time.Millisecond)
			}
		}
		assistantAt := userAt.Add(time.Millisecond)

		userMsg := models.Message{
			ID:             uuid.NewString(),
			ConversationID: convID,
			UserID:         req.UserID,
			Role:           models.RoleUser,
			Content:        req.Message,
			CreatedAt:      userAt,
		}
		if err := tx.Create(&userMsg).Error; err != nil {
			return fmt.Errorf("create user message: %w", err)
		}
		assistantMsg := models.Message{
			ID:               uuid.NewString(),
			ConversationID:   convID,
			UserID:           req.UserID,
			Role:             models.RoleAssistant,
			Content:          reply.Content,
			ModelUsed:        modelName,
			TokensUsed:       reply.TokensUsed,
			ProcessingTimeMS: processingMS,
			CreatedAt:        assistantAt,
		}
		if err := tx.Create(&assistantMsg).Error; err != nil {
			return fmt.Errorf("create assistant message: %w", err)
		}
		if !newConv {
			err := tx.Model(&models.Conversation{}).
				Where("id = ?", convID).
				Update("updated_at", now).Error
			if err != nil {
				return fmt.Errorf("touch conversation: %w", err)
			}
		}
		return nil
	})
}

func (o *Orchestrator) emitChatEvent(req Request, res *Result, decision *router.Decision) {
	if o.sink == nil {
		return
	}
	data := map[string]interface{}{
		"conversation_id":    res.ConversationID,
		"model_used":         res.Model,
		"tokens_used":        res.TokensUsed,
		"processing_time_ms": res.ProcessingTimeMS,
		"message_length":     len(req.Message),
		"saved":              res.Saved,
	}
	if decision != nil {
		data["routing_reason"] = decision.Reason
	}
	o.sink.Emit(analytics.Event{
		UserID:    req.UserID,
		EventType: analytics.EventChat,
		Data:      data,
		SessionID: res.ConversationID,
	})
}

// ConversationSummary is one row in a user's conversation listing.
type ConversationSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ListConversations returns the user's conversations, most recently
// active first.
func (o *Orchestrator) ListConversations(ctx context.Context, userID string) ([]ConversationSummary, error) {
	var convs []models.Conversation
	err := o.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&convs).Error
	if err != nil {
		return nil, fmt.Errorf("chat: list conversations: %w", err)
	}
	out := make([]ConversationSummary, 0, len(convs))
	for _, c := range convs {
		out = append(out, ConversationSummary{
			ID:        c.ID,
			Title:     c.Title,
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
		})
	}
	return out, nil
}

// History returns the conversation's full message sequence in ascending
// timestamp order. The conversation must belong to the user.
func (o *Orchestrator) History(ctx context.Context, userID, convID string) ([]models.Message, error) {
	if err := o.checkOwner(ctx, convID, userID); err != nil {
		return nil, err
	}
	var msgs []models.Message
	err := o.db.WithContext(ctx).
		Where("conversation_id = ?", convID).
		Order("created_at ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("chat: load messages for %s: %w", convID, err)
	}
	return msgs, nil
}
