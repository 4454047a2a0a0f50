// Package model defines data structures for the trip-planning platform.
package model

import (
	"time"
)

// Trip represents a shared trip being planned by a group.
type Trip struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	OwnerID      string    `json:"owner_id"`
	Members      []string  `json:"members,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count,omitempty"`
	Deleted      bool      `json:"deleted,omitempty"`
}

// CreateTripRequest is the request to create a new trip.
type CreateTripRequest struct {
	Name    string   `json:"name"`
	Members []string `json:"members,omitempty"`
}

// UpdateTripRequest is the request to update a trip.
type UpdateTripRequest struct {
	Name    string   `json:"name,omitempty"`
	Members []string `json:"members,omitempty"`
}

// ListTripsResponse is the response for listing trips.
type ListTripsResponse struct {
	Trips   []Trip `json:"trips"`
	Total   int    `json:"total"`
	HasMore bool   `json:"has_more"`
}
