package model

import "time"

// ArticleRM is the query row of one live article. Its timestamps come from
// the events, so replaying the stream rebuilds identical rows.
type ArticleRM struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id"`
	Slug            string    `gorm:"size:25;not null;index" json:"slug"`
	CategoryID      string    `gorm:"size:64;not null;index" json:"category_id"`
	CategoryName    string    `gorm:"size:128" json:"category_name"`
	Author          string    `gorm:"size:64;not null;index" json:"author"`
	State           int       `gorm:"not null;index" json:"state"`
	CurrentVersion  string    `gorm:"size:64;not null" json:"current_version"`
	Title           string    `gorm:"type:text;not null" json:"title"`
	Tags            []string  `gorm:"serializer:json;type:text" json:"tags"`
	RenderedSummary string    `gorm:"type:text" json:"rendered_summary"`
	RenderedContent string    `gorm:"type:text" json:"rendered_content"`
	CreatedAt       time.Time `gorm:"autoCreateTime:false" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime:false;index" json:"updated_at"`
}

func (ArticleRM) TableName() string { return "articles_rm" }

// ArticleVersionRM keeps the raw fields of every version so a revert can
// render them again.
type ArticleVersionRM struct {
	ArticleID   string    `gorm:"primaryKey;size:36" json:"article_id"`
	Version     string    `gorm:"primaryKey;size:64" json:"version"`
	PrevVersion *string   `gorm:"size:64" json:"prev_version"`
	Title       string    `gorm:"type:text;not null" json:"title"`
	Summary     string    `gorm:"type:text;not null" json:"summary"`
	Body        string    `gorm:"type:text;not null" json:"body"`
	Tags        []string  `gorm:"serializer:json;type:text" json:"tags"`
	CreatedAt   time.Time `json:"created_at"`
}

func (ArticleVersionRM) TableName() string { return "article_versions_rm" }

// All lists every table model, in migration order.
func All() []interface{} {
	return []interface{}{
		&Article{},
		&Category{},
		&OutboxEvent{},
		&ArticleRM{},
		&ArticleVersionRM{},
	}
}
