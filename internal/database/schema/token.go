package schema

import "time"

type Token struct {
	Slug            string     `gorm:"type:varchar(255);notNull;uniqueIndex:idx_tokens_slug" json:"slug"`                     // url slug, derived from name
	Name            string     `gorm:"type:varchar(255);notNull" json:"name"`                                                 // display name
	Symbol          string     `gorm:"type:varchar(255);notNull" json:"symbol"`                                               // ticker symbol
	Description     *string    `gorm:"type:text" json:"description"`                                                          // short description
	Lore            *string    `gorm:"type:text" json:"lore"`                                                                 // community lore
	OriginStory     *string    `gorm:"type:text" json:"origin_story"`                                                         // origin story
	ContractAddress string     `gorm:"type:varchar(255);notNull;uniqueIndex:idx_tokens_contract_chain" json:"contract_address"` // on-chain mint address
	Chain           string     `gorm:"type:varchar(255);notNull;uniqueIndex:idx_tokens_contract_chain" json:"chain"`          // chain label
	LogoURL         *string    `gorm:"type:varchar(1024)" json:"logo_url"`
	TwitterURL      *string    `gorm:"type:varchar(1024)" json:"twitter_url"`
	TelegramURL     *string    `gorm:"type:varchar(1024)" json:"telegram_url"`
	WebsiteURL      *string    `gorm:"type:varchar(1024)" json:"website_url"`
	Attributes      JSONMap    `gorm:"type:json" json:"attributes"`          // metadata trait map
	LaunchDate      *time.Time `gorm:"" json:"launch_date"`                  // initial launch date
	LaunchPrice     *float64   `gorm:"type:decimal(30,18)" json:"launch_price"`
	CurrentPrice    *float64   `gorm:"type:decimal(30,18)" json:"current_price"`
	MarketCap       *float64   `gorm:"type:decimal(30,2)" json:"market_cap"`
	Volume24h       *float64   `gorm:"type:decimal(30,2)" json:"volume_24h"`
	Sentiment       *string    `gorm:"type:varchar(255)" json:"sentiment"`
	IsPumpFun       bool       `gorm:"notNull;default:false" json:"is_pump_fun"`  // sourced from the PumpFun launch platform
	Migrated        bool       `gorm:"notNull;default:false" json:"migrated"`     // graduated to a DEX
	MigrationDate   *time.Time `gorm:"index" json:"migration_date"`               // when the token migrated, watermark source
	MigrationDex    *string    `gorm:"type:varchar(255)" json:"migration_dex"`    // destination DEX label
	Published       bool       `gorm:"notNull;default:false" json:"published"`    // gates public visibility

	Events  []TokenEvent `gorm:"foreignKey:TokenID;constraint:OnDelete:CASCADE" json:"events,omitempty"`
	Gallery []TokenMedia `gorm:"foreignKey:TokenID;constraint:OnDelete:CASCADE" json:"gallery,omitempty"`
	Base
}
