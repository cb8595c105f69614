package models

import (
	"time"

	"github.com/google/uuid"
)

// MessageRole identifies the author of a conversation message.
type MessageRole string

const (
	RoleUser   MessageRole = "user"
	RoleModel  MessageRole = "model"
	RoleSystem MessageRole = "system"
)

// SearchSource is a single web grounding citation attached to a model reply.
type SearchSource struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// ChartType enumerates the chart renderings the frontend supports.
type ChartType string

const (
	ChartBar  ChartType = "bar"
	ChartLine ChartType = "line"
	ChartArea ChartType = "area"
)

// ChartData is the visualization spec the model appends as a fenced JSON
// block. Field names match the wire format the model is instructed to emit.
type ChartData struct {
	Type     ChartType        `json:"type"`
	Title    string           `json:"title"`
	Data     []map[string]any `json:"data"` // rows keyed by "name" plus numeric series
	DataKeys []string         `json:"dataKeys"`
}

// Message is a single entry in a session's conversation.
// Sources and ChartData are only ever populated on model-role messages.
type Message struct {
	ID        uuid.UUID      `json:"id"`
	Role      MessageRole    `json:"role"`
	Content   string         `json:"content"`
	Timestamp time.Time      `json:"timestamp"`
	Sources   []SearchSource `json:"sources,omitempty"`
	ChartData *ChartData     `json:"chart_data,omitempty"`
}
