package model

// UserInfo is the display form of a user embedded in responses.
type UserInfo struct {
	Username string  `json:"username"`
	Nickname *string `json:"nickname,omitempty"`
	Avatar   string  `json:"avatar,omitempty"`
}

// Actor is the user performing an operation. It is always passed explicitly,
// never read from ambient state.
type Actor struct {
	ID     uint   `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}
