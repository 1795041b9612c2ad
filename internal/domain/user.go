package domain

// User is a chat user known to the store. Created on first contact,
// never mutated afterwards.
type User struct {
	ID     int64
	ChatID int64
}
