package model

// Organization is the tenant boundary. Every item, lot, ledger event, batch,
// and user hangs off exactly one organization, and every query is scoped by
// it.
type Organization struct {
	BaseModel
	Name     string `gorm:"type:varchar(255);uniqueIndex;not null" json:"name" validate:"required"`
	Timezone string `gorm:"type:varchar(64);default:'UTC'" json:"timezone"`

	// TrackInventory is the org-level default for new items. Items created
	// while this is false start life untracked ("infinite" stock).
	TrackInventory bool `gorm:"default:true" json:"track_inventory"`
}
