package model

import (
	"time"
)

// TripMessage is a chat message posted into a trip by a group member.
//
// IDs are ULIDs, so lexicographic order is creation order. The consensus
// engine relies on that when comparing against LastProcessedMessageID.
type TripMessage struct {
	ID        string    `json:"id"`
	TripID    string    `json:"trip_id"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`

	// Consumed marks the message as already folded into the trip's
	// consensus record.
	Consumed bool `json:"consumed,omitempty"`
}

// PostMessageRequest is the request to post a new trip message.
type PostMessageRequest struct {
	Text string `json:"text"`
}

// ListMessagesResponse is the response for listing trip messages.
type ListMessagesResponse struct {
	Messages []TripMessage `json:"messages"`
	Total    int           `json:"total"`
	HasMore  bool          `json:"has_more"`
}
