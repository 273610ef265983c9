package domain

import "time"

// Turn is one message in a conversation. Turns are never modified once stored.
type Turn struct {
	TurnID    string    `json:"turn_id"`
	SessionID string    `json:"session_id"`
	Seq       int64     `json:"seq"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// NewTurn builds a Turn, rejecting roles outside the Role enum.
func NewTurn(role Role, content string) (Turn, error) {
	r, err := ParseRole(string(role))
	if err != nil {
		return Turn{}, err
	}
	return Turn{
		Role:      r,
		Content:   content,
		CreatedAt: time.Now(),
	}, nil
}

// Session is a logical conversation identity. Its remote chat handle lives in the
// service layer; only the identity is stored.
type Session struct {
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
}
