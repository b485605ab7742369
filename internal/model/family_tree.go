package model

import "time"

// FamilyTree 家谱模型
type FamilyTree struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	Description  *string   `gorm:"type:text" json:"description"`
	RootPersonID *uint     `json:"root_person_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// 查询时计算的只读字段
	RootPersonName *string `gorm:"->;-:migration" json:"root_person_name"`
	MemberCount    int64   `gorm:"->;-:migration" json:"member_count"`
}

// TableName 表名
func (FamilyTree) TableName() string {
	return "family_trees"
}

// FamilyTreeInput 创建家谱的输入
type FamilyTreeInput struct {
	Name         string  `json:"name"`
	Description  *string `json:"description"`
	RootPersonID *uint   `json:"root_person_id"`
}

// FamilyTreePatch 部分更新家谱
type FamilyTreePatch struct {
	Name         Optional[string] `json:"name"`
	Description  Optional[string] `json:"description"`
	RootPersonID Optional[uint]   `json:"root_person_id"`
}

// Columns 转换为待更新的列
func (p *FamilyTreePatch) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	p.Name.Put(cols, "name")
	p.Description.Put(cols, "description")
	p.RootPersonID.Put(cols, "root_person_id")
	return cols
}

// CloneRequest 复制家谱请求
type CloneRequest struct {
	Name string `json:"name"`
}
