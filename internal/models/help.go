package models

// FAQItem is a help center question
type FAQItem struct {
	ID       int      `json:"id"`
	Category string   `json:"category"`
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Tags     []string `json:"tags,omitempty"`
}

// FAQList is a filtered page of questions
type FAQList struct {
	FAQs  []FAQItem `json:"faqs"`
	Total int       `json:"total"`
}

// FAQQuery filters the FAQ listing; zero values are omitted
type FAQQuery struct {
	Category string
	Search   string
	Limit    int
}

// Guide is a help center walkthrough
type Guide struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Duration    string   `json:"duration,omitempty"`
	URL         string   `json:"url,omitempty"`
	Topics      []string `json:"topics,omitempty"`
}

// GuideList is the guide listing
type GuideList struct {
	Guides []Guide `json:"guides"`
	Total  int     `json:"total"`
}

// SupportOption is one support channel
type SupportOption struct {
	ID           int    `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Type         string `json:"type"`
	Contact      string `json:"contact"`
	Available    bool   `json:"available"`
	ResponseTime string `json:"responseTime"`
}

// SupportInfo lists the available support channels
type SupportInfo struct {
	Options []SupportOption `json:"options"`
	Total   int             `json:"total"`
}

// ServiceStatus is the health of one platform component
type ServiceStatus struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

// SystemStatus reports platform component health
type SystemStatus struct {
	Overall     string          `json:"overall"`
	Services    []ServiceStatus `json:"services"`
	LastUpdated string          `json:"lastUpdated,omitempty"`
}

// ContactRequest is a support ticket
type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
}

// ContactReceipt acknowledges a submitted ticket
type ContactReceipt struct {
	ID               int64  `json:"id"`
	Message          string `json:"message"`
	ExpectedResponse string `json:"expectedResponse"`
}

// HelpSearchResult merges FAQ and guide matches
type HelpSearchResult struct {
	FAQs   []FAQItem `json:"faqs"`
	Guides []Guide   `json:"guides"`
	Total  int       `json:"total"`
}

// HelpTopic is a frequently viewed help topic
type HelpTopic struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Views    int    `json:"views"`
}

// HelpStats summarizes support activity
type HelpStats struct {
	TotalFAQs        int    `json:"totalFAQs"`
	TotalGuides      int    `json:"totalGuides"`
	AvgResponseTime  string `json:"avgResponseTime"`
	SatisfactionRate string `json:"satisfactionRate"`
	ResolvedTickets  int    `json:"resolvedTickets"`
	ActiveUsers      int    `json:"activeUsers"`
}

// DashboardOverview is the landing page summary; its sections are owned by the backend
type DashboardOverview map[string]interface{}

// Activity is a recent user action
type Activity struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Timestamp   string `json:"timestamp"`
}
