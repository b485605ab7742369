package model

import (
	"time"
)

// Gender 性别
type Gender string

const (
	GenderUnset  Gender = ""
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// DefaultFamilyTreeID 默认家谱ID，迁移时创建且不可删除
const DefaultFamilyTreeID uint = 1

// Person 家族成员模型
type Person struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	Name        string  `gorm:"size:100;not null;index" json:"name"`
	Gender      Gender  `gorm:"size:10;not null;default:''" json:"gender"`
	BirthDate   *string `gorm:"size:10" json:"birth_date"`
	DeathDate   *string `gorm:"size:10" json:"death_date"`
	IsAlive     bool    `gorm:"not null" json:"is_alive"`
	PhoneNumber *string `gorm:"size:50" json:"phone_number"`
	Email       *string `gorm:"size:200" json:"email"`
	Address     *string `gorm:"type:text" json:"address"`
	Occupation  *string `gorm:"size:100" json:"occupation"`
	Notes       *string `gorm:"type:text" json:"notes"`
	Photo       *string `gorm:"size:500" json:"photo"`
	Generation  int     `gorm:"not null;index" json:"generation"`

	// 关系字段
	FatherID     *uint `gorm:"index" json:"father_id"`
	MotherID     *uint `gorm:"index" json:"mother_id"`
	SpouseID     *uint `gorm:"index" json:"spouse_id"`
	FamilyTreeID uint  `gorm:"not null;index" json:"family_tree_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 仅用于建表时生成外键约束
	FatherRef  *Person     `gorm:"foreignKey:FatherID;constraint:OnDelete:SET NULL" json:"-"`
	MotherRef  *Person     `gorm:"foreignKey:MotherID;constraint:OnDelete:SET NULL" json:"-"`
	SpouseRef  *Person     `gorm:"foreignKey:SpouseID;constraint:OnDelete:SET NULL" json:"-"`
	FamilyTree *FamilyTree `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// TableName 表名
func (Person) TableName() string {
	return "persons"
}

// IsMale 是否为男性
func (p *Person) IsMale() bool {
	return p.Gender == GenderMale
}

// HasParent 是否记录了父亲或母亲
func (p *Person) HasParent() bool {
	return p.FatherID != nil || p.MotherID != nil
}

// IsChildOf 判断是否为指定成员的子女
func (p *Person) IsChildOf(id uint) bool {
	return (p.FatherID != nil && *p.FatherID == id) || (p.MotherID != nil && *p.MotherID == id)
}

// PersonInput 创建成员的输入
type PersonInput struct {
	Name         string  `json:"name"`
	Gender       Gender  `json:"gender"`
	BirthDate    *string `json:"birth_date"`
	DeathDate    *string `json:"death_date"`
	IsAlive      *bool   `json:"is_alive"`
	PhoneNumber  *string `json:"phone_number"`
	Email        *string `json:"email"`
	Address      *string `json:"address"`
	Occupation   *string `json:"occupation"`
	Notes        *string `json:"notes"`
	Photo        *string `json:"photo"`
	Generation   *int    `json:"generation"`
	FatherID     *uint   `json:"father_id"`
	MotherID     *uint   `json:"mother_id"`
	SpouseID     *uint   `json:"spouse_id"`
	FamilyTreeID *uint   `json:"family_tree_id"`
}

// PersonPatch 部分更新成员，未出现的字段保持不变，显式null则清空
type PersonPatch struct {
	Name         Optional[string] `json:"name"`
	Gender       Optional[Gender] `json:"gender"`
	BirthDate    Optional[string] `json:"birth_date"`
	DeathDate    Optional[string] `json:"death_date"`
	IsAlive      Optional[bool]   `json:"is_alive"`
	PhoneNumber  Optional[string] `json:"phone_number"`
	Email        Optional[string] `json:"email"`
	Address      Optional[string] `json:"address"`
	Occupation   Optional[string] `json:"occupation"`
	Notes        Optional[string] `json:"notes"`
	Photo        Optional[string] `json:"photo"`
	Generation   Optional[int]    `json:"generation"`
	FatherID     Optional[uint]   `json:"father_id"`
	MotherID     Optional[uint]   `json:"mother_id"`
	SpouseID     Optional[uint]   `json:"spouse_id"`
	FamilyTreeID Optional[uint]   `json:"family_tree_id"`
}

// Columns 转换为待更新的列，不包含spouse_id（由配偶逻辑单独维护）
func (p *PersonPatch) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	p.Name.Put(cols, "name")
	p.Gender.Put(cols, "gender")
	p.BirthDate.Put(cols, "birth_date")
	p.DeathDate.Put(cols, "death_date")
	p.IsAlive.Put(cols, "is_alive")
	p.PhoneNumber.Put(cols, "phone_number")
	p.Email.Put(cols, "email")
	p.Address.Put(cols, "address")
	p.Occupation.Put(cols, "occupation")
	p.Notes.Put(cols, "notes")
	p.Photo.Put(cols, "photo")
	p.Generation.Put(cols, "generation")
	p.FatherID.Put(cols, "father_id")
	p.MotherID.Put(cols, "mother_id")
	p.FamilyTreeID.Put(cols, "family_tree_id")
	return cols
}

// ParentsPatch 设置父母
type ParentsPatch struct {
	FatherID Optional[uint] `json:"father_id"`
	MotherID Optional[uint] `json:"mother_id"`
}

// Columns 转换为待更新的列
func (p *ParentsPatch) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	p.FatherID.Put(cols, "father_id")
	p.MotherID.Put(cols, "mother_id")
	return cols
}

// PersonFilter 成员列表过滤条件
type PersonFilter struct {
	FamilyTreeID *uint
	Generation   *int
	IsAlive      *bool
	Gender       *Gender
	Search       string
}

// Family 成员及其直系亲属
type Family struct {
	Person
	Father   *Person  `json:"father"`
	Mother   *Person  `json:"mother"`
	Spouse   *Person  `json:"spouse"`
	Children []Person `json:"children"`
	Siblings []Person `json:"siblings"`
}

// TreePerson 带子女ID列表的成员
type TreePerson struct {
	Person
	ChildrenIDs []uint `json:"children_ids"`
}

// Statistics 成员统计
type Statistics struct {
	Total       int64 `json:"total"`
	Alive       int64 `json:"alive"`
	Deceased    int64 `json:"deceased"`
	Male        int64 `json:"male"`
	Female      int64 `json:"female"`
	Generations int64 `json:"generations"`
}
