package models

import "time"

// ConversationTurn is one question/answer exchange plus the chunks used as evidence.
// Sources are always drawn from the chunks actually retrieved for the question.
type ConversationTurn struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Sources   []Chunk   `json:"sources"`
}
