package model

import (
	"fmt"

	"github.com/luco5826/dsp/pkg/utils"
	"github.com/pkg/errors"
)

type Operation string

const (
	OpCreate Operation = "CREATE"
	OpDelete Operation = "DELETE"
	OpUpdate Operation = "UPDATE"
)

type SubStatus string

const (
	StatusActive   SubStatus = "active"
	StatusInactive SubStatus = "inactive"
	StatusPublic   SubStatus = "public"
	StatusPrivate  SubStatus = "private"
	StatusNone     SubStatus = "none"
)

// SelectionEvent is the message delivered on task topics. Only the latest
// event per topic is retained for late subscribers.
type SelectionEvent struct {
	Operation Operation `json:"operation"`
	Status    SubStatus `json:"status"`
	UserID    *int64    `json:"userId,omitempty"`
	UserName  string    `json:"userName,omitempty"`
	TaskID    int64     `json:"taskId"`
	Payload   *Task     `json:"payload,omitempty"`
}

func (e *SelectionEvent) Validate() error {
	switch e.Operation {
	case OpCreate, OpDelete, OpUpdate:
	default:
		return errors.Errorf("unknown operation %q", e.Operation)
	}
	switch e.Status {
	case StatusActive, StatusInactive, StatusPublic, StatusPrivate, StatusNone:
	default:
		return errors.Errorf("unknown status %q", e.Status)
	}
	if e.TaskID == 0 {
		return errors.New("event has no task id")
	}
	return nil
}

func (e *SelectionEvent) Marshal() ([]byte, error) {
	return utils.Json.Marshal(e)
}

// ParseSelectionEvent decodes and validates a topic-channel message.
func ParseSelectionEvent(data []byte) (*SelectionEvent, error) {
	var e SelectionEvent
	if err := utils.Json.Unmarshal(data, &e); err != nil {
		return nil, errors.Wrap(err, "malformed selection event")
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}

type PresenceType string

const (
	PresenceLogin  PresenceType = "login"
	PresenceLogout PresenceType = "logout"
	PresenceUpdate PresenceType = "update"
)

// PresenceMessage travels on the broadcast channel only.
type PresenceMessage struct {
	Type     PresenceType `json:"type"`
	UserID   int64        `json:"userId"`
	UserName string       `json:"userName"`
	TaskID   *int64       `json:"taskId,omitempty"`
	TaskName string       `json:"taskName,omitempty"`
}

func (m *PresenceMessage) Validate() error {
	switch m.Type {
	case PresenceLogin, PresenceLogout, PresenceUpdate:
	default:
		return errors.Errorf("unknown presence type %q", m.Type)
	}
	if m.UserID == 0 {
		return errors.New("presence message has no user id")
	}
	return nil
}

func (m *PresenceMessage) Marshal() ([]byte, error) {
	return utils.Json.Marshal(m)
}

func ParsePresenceMessage(data []byte) (*PresenceMessage, error) {
	var m PresenceMessage
	if err := utils.Json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, "malformed presence message")
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// PublicTopic announces newly created or now-public tasks.
const PublicTopic = "tasks:public"

// TaskTopic is the per-task mutation and lock-state stream.
func TaskTopic(id int64) string {
	return fmt.Sprintf("task:%d", id)
}
