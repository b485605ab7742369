package model

import "time"

// RelationshipType 关系类型
type RelationshipType string

const (
	RelationParent  RelationshipType = "parent"
	RelationChild   RelationshipType = "child"
	RelationSpouse  RelationshipType = "spouse"
	RelationSibling RelationshipType = "sibling"
)

// Valid 是否为已知的关系类型
func (t RelationshipType) Valid() bool {
	switch t {
	case RelationParent, RelationChild, RelationSpouse, RelationSibling:
		return true
	}
	return false
}

// Relationship 关系事实，与成员表上的父母/配偶字段相互独立
type Relationship struct {
	ID               uint             `gorm:"primaryKey" json:"id"`
	PersonID         uint             `gorm:"not null;index;uniqueIndex:idx_relationships_unique,priority:1" json:"person_id"`
	RelatedPersonID  uint             `gorm:"not null;index;uniqueIndex:idx_relationships_unique,priority:2" json:"related_person_id"`
	RelationshipType RelationshipType `gorm:"size:20;not null;index;uniqueIndex:idx_relationships_unique,priority:3" json:"relationship_type"`
	CreatedAt        time.Time        `json:"created_at"`

	Person        *Person `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	RelatedPerson *Person `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// TableName 表名
func (Relationship) TableName() string {
	return "relationships"
}

// RelationshipInput 创建关系的输入
type RelationshipInput struct {
	PersonID         uint             `json:"person_id"`
	RelatedPersonID  uint             `json:"related_person_id"`
	RelationshipType RelationshipType `json:"relationship_type"`
}

// PairInput 成对关系（父子、兄弟姐妹、配偶）的输入
type PairInput struct {
	ParentID  uint `json:"parent_id"`
	ChildID   uint `json:"child_id"`
	PersonID1 uint `json:"person_id_1"`
	PersonID2 uint `json:"person_id_2"`
}

// RelatedPerson 关系及对方成员的基本信息
type RelatedPerson struct {
	ID               uint             `json:"id"`
	PersonID         uint             `json:"person_id"`
	RelatedPersonID  uint             `json:"related_person_id"`
	RelationshipType RelationshipType `json:"relationship_type"`
	CreatedAt        time.Time        `json:"created_at"`
	Name             string           `json:"name"`
	Gender           Gender           `json:"gender"`
	BirthDate        *string          `json:"birth_date"`
	Photo            *string          `json:"photo"`
}

// RelationshipStats 关系统计
type RelationshipStats struct {
	Total  int64                      `json:"total"`
	ByType map[RelationshipType]int64 `json:"by_type"`
}
