package models

import "time"

// Comment is the flat persisted record. ParentID is nil for root comments.
// It never goes over the wire; WireComment is the JSON shape.
type Comment struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"-"`
	Text      string    `gorm:"type:text;not null" json:"-"`
	CreatedAt time.Time `gorm:"not null;index" json:"-"`
	ParentID  *string   `gorm:"type:varchar(36);index" json:"-"`

	// Only declared so the migrator emits the self-referencing foreign key.
	Replies []Comment `gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE;" json:"-"`
}

func (Comment) TableName() string {
	return "comments"
}

// IsRoot reports whether the record has no parent reference.
func (c Comment) IsRoot() bool {
	return c.ParentID == nil || *c.ParentID == ""
}
