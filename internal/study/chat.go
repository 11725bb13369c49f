// Package study holds the state of the study assistant chat.
package study

import (
	"context"
	"strings"
	"sync"
	"time"

	apperrors "github.com/student-ai-platform/internal/errors"
	"github.com/student-ai-platform/internal/logging"
	"github.com/student-ai-platform/internal/models"
	"github.com/student-ai-platform/internal/notify"
	"github.com/student-ai-platform/internal/types"
)

const (
	// DemoConversationID is the placeholder shown when conversations cannot be loaded
	DemoConversationID = "demo-1"
	// ConversationLimit is how many conversations are listed
	ConversationLimit = 50

	newConversationTitle = "Cuộc trò chuyện mới"
	demoWelcome          = "Xin chào! Tôi là trợ lý AI học tập của bạn. Tôi có thể giúp bạn học về Toán, Văn, Anh, Lý, Hóa, Sinh, Sử, Địa và nhiều môn học khác. Bạn muốn học gì hôm nay?"
	newWelcome           = "Xin chào! Tôi sẵn sàng giúp bạn học tập. Bạn muốn hỏi về gì?"
	apology              = "Xin lỗi, có lỗi xảy ra khi xử lý câu hỏi của bạn. Vui lòng thử lại sau."
)

// API is the study backend surface
type API interface {
	Conversations(ctx context.Context, query models.ConversationQuery) (*models.ConversationList, error)
	Conversation(ctx context.Context, id string) (*models.ConversationDetail, error)
	SendMessage(ctx context.Context, message, conversationID, subject string, difficulty types.Difficulty) (*models.ChatReply, error)
	CreateConversation(ctx context.Context, title, subject string) (*models.Conversation, error)
	DeleteConversation(ctx context.Context, id string) error
}

// Chat is the study assistant conversation list and the active thread
type Chat struct {
	api      API
	notifier *notify.Publisher
	logger   *logging.Logger
	now      func() time.Time

	mu            sync.Mutex
	conversations []models.Conversation
	active        string
	messages      []models.Message
	subject       string
	difficulty    types.Difficulty
	sending       bool
}

// NewChat creates an empty chat at intermediate difficulty
func NewChat(api API, notifier *notify.Publisher) *Chat {
	if notifier == nil {
		notifier = notify.NewPublisher(nil, nil)
	}
	return &Chat{
		api:        api,
		notifier:   notifier,
		logger:     logging.GetGlobalLogger().WithComponent("study"),
		now:        time.Now,
		difficulty: types.DifficultyIntermediate,
	}
}

func (c *Chat) aiMessage(id, content string) models.Message {
	return models.Message{ID: id, Type: types.SenderAI, Content: content, Timestamp: c.now()}
}

// LoadConversations lists the conversations and selects the first one.
// When the backend is unreachable a demo conversation is shown instead.
func (c *Chat) LoadConversations(ctx context.Context) error {
	list, err := c.api.Conversations(ctx, models.ConversationQuery{Limit: ConversationLimit})
	if err != nil {
		c.logger.WithError(err).Warn("Failed to load conversations")
		c.notifier.Error(ctx, notify.StudyLoadConversationsFailed)

		c.mu.Lock()
		c.conversations = []models.Conversation{{
			ID:            DemoConversationID,
			Title:         "Blockchain Fundamentals",
			LastMessageAt: c.now(),
			MessageCount:  3,
		}}
		c.mu.Unlock()
		return c.Select(ctx, DemoConversationID)
	}

	c.mu.Lock()
	c.conversations = append([]models.Conversation(nil), list.Conversations...)
	c.mu.Unlock()

	if len(list.Conversations) == 0 {
		return nil
	}
	return c.Select(ctx, list.Conversations[0].ID)
}

// Select makes id the active conversation and loads its messages
func (c *Chat) Select(ctx context.Context, id string) error {
	if id == DemoConversationID {
		c.mu.Lock()
		c.active = id
		c.messages = []models.Message{c.aiMessage("1", demoWelcome)}
		c.mu.Unlock()
		return nil
	}

	detail, err := c.api.Conversation(ctx, id)
	if err != nil {
		c.logger.WithError(err).WithField("conversation", id).Warn("Failed to load messages")
		c.notifier.Error(ctx, notify.StudyLoadMessagesFailed)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = id
	c.messages = append([]models.Message(nil), detail.Messages...)
	for _, conv := range c.conversations {
		if conv.ID == id && conv.Subject != "" {
			c.subject = conv.Subject
		}
	}
	return nil
}

// Send asks the assistant a question in the active conversation. A demo or
// missing conversation makes the backend start a new one, which becomes active.
// On failure an apology is appended and the error returned.
func (c *Chat) Send(ctx context.Context, text string) (models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Message{}, apperrors.NewValidationError("message", "message is empty")
	}

	c.mu.Lock()
	if c.sending {
		c.mu.Unlock()
		return models.Message{}, apperrors.NewValidationError("message", "a message is already being sent")
	}
	c.sending = true
	c.messages = append(c.messages, models.Message{Type: types.SenderUser, Content: text, Timestamp: c.now()})
	active, subject, difficulty := c.active, c.subject, c.difficulty
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.sending = false
		c.mu.Unlock()
	}()

	target := active
	if target == DemoConversationID {
		target = ""
	}

	reply, err := c.api.SendMessage(ctx, text, target, subject, difficulty)
	if err != nil {
		c.logger.WithError(err).Warn("Failed to send study message")
		c.notifier.Error(ctx, notify.StudySendFailed)
		c.mu.Lock()
		c.messages = append(c.messages, c.aiMessage("", apology))
		c.mu.Unlock()
		return models.Message{}, err
	}

	ai := reply.AIResponse
	msg := models.Message{
		ID:        ai.ID,
		Type:      types.SenderAI,
		Content:   ai.Content,
		Timestamp: ai.Timestamp,
		Metadata: &models.MessageMetadata{
			SubjectDetected:   ai.SubjectDetected,
			Confidence:        ai.Confidence,
			FollowUpQuestions: ai.FollowUpQuestions,
			RelatedTopics:     ai.RelatedTopics,
			ProcessingTime:    ai.ProcessingTime,
		},
	}

	c.mu.Lock()
	c.messages = append(c.messages, msg)
	if ai.SubjectDetected != "" {
		c.subject = ai.SubjectDetected
	}
	for i := range c.conversations {
		if c.conversations[i].ID == reply.ConversationID {
			c.conversations[i].MessageCount += 2
			c.conversations[i].LastMessageAt = c.now()
		}
	}
	created := active == "" || active == DemoConversationID
	if created {
		c.active = reply.ConversationID
	}
	c.mu.Unlock()

	if created {
		c.reloadList(ctx)
	}
	return msg, nil
}

// reloadList refreshes the conversation list without changing the active thread
func (c *Chat) reloadList(ctx context.Context) {
	list, err := c.api.Conversations(ctx, models.ConversationQuery{Limit: ConversationLimit})
	if err != nil {
		c.logger.WithError(err).Warn("Failed to reload conversations")
		return
	}
	c.mu.Lock()
	c.conversations = append([]models.Conversation(nil), list.Conversations...)
	c.mu.Unlock()
}

// NewConversation creates a conversation for the current subject and makes it active
func (c *Chat) NewConversation(ctx context.Context) (*models.Conversation, error) {
	c.mu.Lock()
	subject := c.subject
	c.mu.Unlock()

	conv, err := c.api.CreateConversation(ctx, newConversationTitle, subject)
	if err != nil {
		c.logger.WithError(err).Warn("Failed to create conversation")
		c.notifier.Error(ctx, notify.StudyCreateFailed)
		return nil, err
	}

	c.mu.Lock()
	c.conversations = append([]models.Conversation{*conv}, c.conversations...)
	c.active = conv.ID
	c.messages = []models.Message{c.aiMessage("1", newWelcome)}
	c.mu.Unlock()

	c.notifier.Success(ctx, notify.StudyCreated)
	return conv, nil
}

// DeleteConversation removes id. The demo conversation and the last remaining
// conversation cannot be deleted. Deleting the active one selects the next.
func (c *Chat) DeleteConversation(ctx context.Context, id string) error {
	refuse := func(key notify.Key, reason string) error {
		c.notifier.Error(ctx, key)
		return apperrors.NewValidationError("conversation", reason)
	}

	c.mu.Lock()
	count := len(c.conversations)
	c.mu.Unlock()

	switch {
	case id == "" || id == "undefined":
		return refuse(notify.StudyInvalidID, "invalid conversation id")
	case id == DemoConversationID:
		return refuse(notify.StudyDeleteDemo, "the demo conversation cannot be deleted")
	case count <= 1:
		return refuse(notify.StudyDeleteLast, "the last conversation cannot be deleted")
	}

	if err := c.api.DeleteConversation(ctx, id); err != nil {
		c.logger.WithError(err).WithField("conversation", id).Warn("Failed to delete conversation")
		c.notifier.Error(ctx, notify.StudyDeleteFailed)
		return err
	}

	c.mu.Lock()
	remaining := make([]models.Conversation, 0, len(c.conversations))
	for _, conv := range c.conversations {
		if conv.ID != id {
			remaining = append(remaining, conv)
		}
	}
	c.conversations = remaining
	next := ""
	if c.active == id && len(remaining) > 0 {
		next = remaining[0].ID
	}
	c.mu.Unlock()

	c.notifier.Success(ctx, notify.StudyDeleted)
	if next != "" {
		// the deletion succeeded; a failed load is already reported
		_ = c.Select(ctx, next)
	}
	return nil
}

// SetSubject sets the subject hint sent with questions
func (c *Chat) SetSubject(subject string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subject = subject
}

// SetDifficulty sets the answer level
func (c *Chat) SetDifficulty(d types.Difficulty) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.difficulty = d
}

// Subject returns the current subject hint
func (c *Chat) Subject() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subject
}

// Active returns the active conversation id
func (c *Chat) Active() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Messages returns the messages of the active conversation
func (c *Chat) Messages() []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Message(nil), c.messages...)
}

// Conversations returns the listed conversations
func (c *Chat) Conversations() []models.Conversation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Conversation(nil), c.conversations...)
}
