package model

import "time"

// Category is the curated list of issue labels shown in the submission form.
// Free-text labels outside this list are still accepted; matching compares
// normalized strings, not category ids.
type Category struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Label     string    `gorm:"not null;uniqueIndex;size:100" json:"label"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Category) TableName() string {
	return "categories"
}
