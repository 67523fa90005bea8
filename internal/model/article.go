package model

import "time"

// Article is the persisted aggregate row. Slugs are unique among articles
// that are not deleted.
type Article struct {
	ID             string    `gorm:"primaryKey;size:36"`
	Slug           string    `gorm:"size:25;not null;uniqueIndex:idx_articles_live_slug,where:state <> -1"`
	Author         string    `gorm:"size:64;not null"`
	CategoryID     string    `gorm:"size:64;not null"`
	State          int       `gorm:"not null"`
	VersionHistory string    `gorm:"type:text;not null"`
	Revision       int64     `gorm:"not null"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`
}

func (Article) TableName() string { return "articles" }

type Category struct {
	ID          string `gorm:"primaryKey;size:64" json:"id"`
	DisplayName string `gorm:"size:128;not null" json:"display_name"`
}

func (Category) TableName() string { return "categories" }
