package schema

import "time"

// TokenEvent is a timeline entry owned by exactly one token.
type TokenEvent struct {
	TokenID     uint64    `gorm:"notNull;index" json:"token_id"`
	Title       string    `gorm:"type:varchar(255);notNull" json:"title"`
	Description *string   `gorm:"type:text" json:"description"`
	Date        time.Time `gorm:"notNull" json:"date"`
	Type        string    `gorm:"type:varchar(255);notNull;default:''" json:"type"` // Launch, Listing, Partnership, ...
	Base
}
