package models

import "time"

type Note struct {
	ID        string      `json:"_id"`
	TaskID    string      `json:"task"`
	Content   string      `json:"content"`
	CreatedBy UserSummary `json:"createdBy"`
	CreatedAt time.Time   `json:"createdAt"`
}
