package domain

import (
	"time"
)

type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// ChangeEvent is the ephemeral notification published after a feed
// mutation commits. Post carries the full snapshot for create/update
// and is nil for delete, where PostID identifies the removed post.
// Events are delivered to subscribers connected at publish time only;
// there is no backlog or replay.
type ChangeEvent struct {
	Action    Action    `json:"action"`
	Post      *Post     `json:"post,omitempty"`
	PostID    string    `json:"postId,omitempty"`
	EmittedAt time.Time `json:"emittedAt"`
}
