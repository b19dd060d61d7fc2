package schema

// TokenMedia is a gallery item owned by exactly one token.
type TokenMedia struct {
	TokenID uint64  `gorm:"notNull;index" json:"token_id"`
	URL     string  `gorm:"type:varchar(1024);notNull" json:"url"`
	Type    string  `gorm:"type:varchar(255);notNull;default:'image'" json:"type"` // image or video
	Caption *string `gorm:"type:varchar(1024)" json:"caption"`
	Base
}
