package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"familytree_go/internal/model"
)

// FamilyTreeRepository 家谱数据访问
type FamilyTreeRepository struct {
	db *DB
}

// NewFamilyTreeRepository 创建家谱仓储
func NewFamilyTreeRepository(db *DB) *FamilyTreeRepository {
	return &FamilyTreeRepository{db: db}
}

// withCounts 附带根成员名称与成员数量
func withCounts(db *gorm.DB) *gorm.DB {
	return db.Model(&model.FamilyTree{}).
		Select("family_trees.*, rp.name AS root_person_name, " +
			"(SELECT COUNT(*) FROM persons p WHERE p.family_tree_id = family_trees.id) AS member_count").
		Joins("LEFT JOIN persons rp ON rp.id = family_trees.root_person_id")
}

// List 获取所有家谱，新建的在前
func (r *FamilyTreeRepository) List(ctx context.Context) ([]model.FamilyTree, error) {
	trees := make([]model.FamilyTree, 0)
	err := withCounts(r.db.WithContext(ctx)).
		Order("family_trees.created_at DESC, family_trees.id DESC").
		Find(&trees).Error
	if err != nil {
		return nil, err
	}
	return trees, nil
}

// GetByID 根据ID获取家谱
func (r *FamilyTreeRepository) GetByID(ctx context.Context, id uint) (*model.FamilyTree, error) {
	return findTree(r.db.WithContext(ctx), id)
}

// Exists 家谱是否存在
func (r *FamilyTreeRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.FamilyTree{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

// Create 创建家谱
func (r *FamilyTreeRepository) Create(ctx context.Context, input *model.FamilyTreeInput) (*model.FamilyTree, error) {
	tree := model.FamilyTree{
		Name:         input.Name,
		Description:  input.Description,
		RootPersonID: input.RootPersonID,
	}
	if err := r.db.WithContext(ctx).Create(&tree).Error; err != nil {
		return nil, err
	}
	return r.GetByID(ctx, tree.ID)
}

// Update 部分更新家谱
func (r *FamilyTreeRepository) Update(ctx context.Context, id uint, patch *model.FamilyTreePatch) (*model.FamilyTree, error) {
	db := r.db.WithContext(ctx)
	if _, err := findTree(db, id); err != nil {
		return nil, err
	}
	if cols := patch.Columns(); len(cols) > 0 {
		if err := db.Model(&model.FamilyTree{}).Where("id = ?", id).Updates(cols).Error; err != nil {
			return nil, err
		}
	}
	return findTree(db, id)
}

// Delete 删除家谱，成员由外键级联删除
func (r *FamilyTreeRepository) Delete(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&model.FamilyTree{}, id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Clone 深度复制家谱及其成员，重新映射父母与配偶关系
func (r *FamilyTreeRepository) Clone(ctx context.Context, id uint, newName string) (*model.FamilyTree, error) {
	var clonedID uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var source model.FamilyTree
		if err := tx.First(&source, id).Error; err != nil {
			return notFound(err)
		}

		// 1. 新家谱
		cloned := model.FamilyTree{Name: strings.TrimSpace(newName)}
		if cloned.Name == "" {
			cloned.Name = source.Name + " (copy)"
		}
		if source.Description != nil {
			desc := *source.Description + " (copy)"
			cloned.Description = &desc
		}
		if err := tx.Create(&cloned).Error; err != nil {
			return err
		}
		clonedID = cloned.ID

		var members []model.Person
		if err := tx.Where("family_tree_id = ?", id).Order("id ASC").Find(&members).Error; err != nil {
			return err
		}

		// 2. 复制成员字段，关系字段暂为空
		idMap := make(map[uint]uint, len(members))
		for _, m := range members {
			c := m
			c.ID = 0
			c.FatherID, c.MotherID, c.SpouseID = nil, nil, nil
			c.FamilyTreeID = cloned.ID
			c.CreatedAt, c.UpdatedAt = time.Time{}, time.Time{}
			if err := tx.Create(&c).Error; err != nil {
				return err
			}
			idMap[m.ID] = c.ID
		}

		// 3. 按映射恢复父母与配偶，映射不到的保持为空
		for _, m := range members {
			cols := make(map[string]interface{})
			remap(cols, "father_id", m.FatherID, idMap)
			remap(cols, "mother_id", m.MotherID, idMap)
			remap(cols, "spouse_id", m.SpouseID, idMap)
			if len(cols) == 0 {
				continue
			}
			if err := tx.Model(&model.Person{}).Where("id = ?", idMap[m.ID]).Updates(cols).Error; err != nil {
				return err
			}
		}

		// 4. 根成员
		if source.RootPersonID != nil {
			if newRoot, ok := idMap[*source.RootPersonID]; ok {
				if err := tx.Model(&model.FamilyTree{}).Where("id = ?", cloned.ID).
					Update("root_person_id", newRoot).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, clonedID)
}

func findTree(db *gorm.DB, id uint) (*model.FamilyTree, error) {
	var tree model.FamilyTree
	if err := withCounts(db).Where("family_trees.id = ?", id).Take(&tree).Error; err != nil {
		return nil, notFound(err)
	}
	return &tree, nil
}

func remap(cols map[string]interface{}, column string, old *uint, idMap map[uint]uint) {
	if old == nil {
		return
	}
	if id, ok := idMap[*old]; ok {
		cols[column] = id
	}
}
