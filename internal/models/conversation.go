package models

import (
	"time"

	"github.com/student-ai-platform/internal/types"
)

// Conversation is a study chat thread
type Conversation struct {
	ID            string    `json:"_id"`
	Title         string    `json:"title"`
	Subject       string    `json:"subject,omitempty"`
	MessageCount  int       `json:"messageCount"`
	LastMessageAt time.Time `json:"lastMessageAt"`
	CreatedAt     time.Time `json:"createdAt,omitempty"`
}

// MessageMetadata is the AI annotation attached to an answer
type MessageMetadata struct {
	SubjectDetected   string   `json:"subject_detected,omitempty"`
	Confidence        float64  `json:"confidence,omitempty"`
	FollowUpQuestions []string `json:"follow_up_questions,omitempty"`
	RelatedTopics     []string `json:"related_topics,omitempty"`
	ProcessingTime    float64  `json:"processing_time,omitempty"`
}

// Message is a single chat message
type Message struct {
	ID        string           `json:"id"`
	Type      types.Sender     `json:"type"`
	Content   string           `json:"content"`
	Timestamp time.Time        `json:"timestamp"`
	Metadata  *MessageMetadata `json:"metadata,omitempty"`
}

// ConversationDetail is a conversation with its messages
type ConversationDetail struct {
	Conversation Conversation `json:"conversation"`
	Messages     []Message    `json:"messages"`
}

// AIResponse is the answer produced for a study question
type AIResponse struct {
	ID                string       `json:"id"`
	Type              types.Sender `json:"type"`
	Content           string       `json:"content"`
	Timestamp         time.Time    `json:"timestamp"`
	SubjectDetected   string       `json:"subject_detected,omitempty"`
	Confidence        float64      `json:"confidence,omitempty"`
	FollowUpQuestions []string     `json:"follow_up_questions,omitempty"`
	RelatedTopics     []string     `json:"related_topics,omitempty"`
	ProcessingTime    float64      `json:"processing_time,omitempty"`
	// Error is set when the backend stored an apology instead of an answer
	Error bool `json:"error,omitempty"`
}

// ChatReply is the data returned when a study question is sent
type ChatReply struct {
	ConversationID string     `json:"conversation_id"`
	UserMessage    Message    `json:"user_message"`
	AIResponse     AIResponse `json:"ai_response"`
}

// ConversationQuery pages the conversation listing; zero values are omitted
type ConversationQuery struct {
	Limit   int
	Offset  int
	Subject string
}

// ConversationList is a page of conversations
type ConversationList struct {
	Conversations []Conversation `json:"conversations"`
	Pagination    Pagination     `json:"pagination"`
}

// ConversationUpdate carries the editable conversation fields
type ConversationUpdate struct {
	Title   string `json:"title,omitempty"`
	Subject string `json:"subject,omitempty"`
}

// StudyStats aggregates study chat activity
type StudyStats struct {
	TotalConversations         int            `json:"totalConversations"`
	TotalMessages              int            `json:"totalMessages"`
	AvgMessagesPerConversation float64        `json:"avgMessagesPerConversation"`
	Subjects                   []string       `json:"subjects,omitempty"`
	MessagesByType             map[string]int `json:"messagesByType,omitempty"`
	RecentActivity             int            `json:"recentActivity"`
	ActiveSubjects             int            `json:"activeSubjects"`
}

// SearchHit is a stored message matching a search
type SearchHit struct {
	ID        string       `json:"_id"`
	Type      types.Sender `json:"type"`
	Content   string       `json:"content"`
	CreatedAt time.Time    `json:"createdAt"`
}

// MessageSearch is the result of a message search
type MessageSearch struct {
	Query   string      `json:"query"`
	Results []SearchHit `json:"results"`
	Count   int         `json:"count"`
}
