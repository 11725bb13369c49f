// Package models provides the client-side data models for the portal.
package models

import "time"

// User is the authenticated account profile returned by the backend
type User struct {
	ID            string          `json:"id,omitempty"`
	WalletAddress string          `json:"walletAddress"`
	Email         string          `json:"email,omitempty"`
	Name          string          `json:"name,omitempty"`
	Preferences   UserPreferences `json:"preferences"`
	Stats         UserStats       `json:"stats"`
	IsActive      bool            `json:"isActive"`
	CreatedAt     time.Time       `json:"createdAt"`
	LastLogin     *time.Time      `json:"lastLogin,omitempty"`
}

// UserPreferences holds the display preferences of a user
type UserPreferences struct {
	Theme         string `json:"theme,omitempty"`
	Language      string `json:"language,omitempty"`
	Notifications struct {
		Email bool `json:"email"`
		Push  bool `json:"push"`
	} `json:"notifications"`
}

// UserStats holds per-user activity counters
type UserStats struct {
	TotalTransactions  int        `json:"totalTransactions"`
	TotalAnalyses      int        `json:"totalAnalyses"`
	TotalConversations int        `json:"totalConversations"`
	LastActiveDate     *time.Time `json:"lastActiveDate,omitempty"`
}

// ProfileUpdate carries the editable profile fields
type ProfileUpdate struct {
	Email       string           `json:"email,omitempty"`
	Name        string           `json:"name,omitempty"`
	Preferences *UserPreferences `json:"preferences,omitempty"`
}

// LoginResult is the data returned by a successful wallet login
type LoginResult struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// ProfileResult wraps the user returned by profile endpoints
type ProfileResult struct {
	User *User `json:"user"`
}

// TokenInfo is the identity behind a verified token
type TokenInfo struct {
	UserID        string `json:"userId"`
	WalletAddress string `json:"walletAddress"`
}

// AccountStats extends the user counters with account age
type AccountStats struct {
	UserStats
	MemberSince time.Time  `json:"memberSince"`
	LastLogin   *time.Time `json:"lastLogin,omitempty"`
	AccountAge  int        `json:"accountAge"`
}
