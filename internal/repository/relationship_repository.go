package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"familytree_go/internal/model"
)

// RelationshipRepository 关系数据访问
type RelationshipRepository struct {
	db *DB
}

// NewRelationshipRepository 创建关系仓储
func NewRelationshipRepository(db *DB) *RelationshipRepository {
	return &RelationshipRepository{db: db}
}

// List 获取所有关系，新建的在前
func (r *RelationshipRepository) List(ctx context.Context) ([]model.Relationship, error) {
	rels := make([]model.Relationship, 0)
	if err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&rels).Error; err != nil {
		return nil, err
	}
	return rels, nil
}

// GetByID 根据ID获取关系
func (r *RelationshipRepository) GetByID(ctx context.Context, id uint) (*model.Relationship, error) {
	var rel model.Relationship
	if err := r.db.WithContext(ctx).First(&rel, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &rel, nil
}

// ByPerson 获取成员作为任一方参与的关系
func (r *RelationshipRepository) ByPerson(ctx context.Context, personID uint) ([]model.Relationship, error) {
	rels := make([]model.Relationship, 0)
	err := r.db.WithContext(ctx).
		Where("person_id = ? OR related_person_id = ?", personID, personID).
		Order("id ASC").Find(&rels).Error
	if err != nil {
		return nil, err
	}
	return rels, nil
}

// ByType 获取成员指定类型的关系
func (r *RelationshipRepository) ByType(ctx context.Context, personID uint, relType model.RelationshipType) ([]model.Relationship, error) {
	rels := make([]model.Relationship, 0)
	err := r.db.WithContext(ctx).
		Where("person_id = ? AND relationship_type = ?", personID, relType).
		Order("id ASC").Find(&rels).Error
	if err != nil {
		return nil, err
	}
	return rels, nil
}

// Related 获取成员的关系及对方成员信息
func (r *RelationshipRepository) Related(ctx context.Context, personID uint) ([]model.RelatedPerson, error) {
	out := make([]model.RelatedPerson, 0)
	err := r.db.WithContext(ctx).Table("relationships AS r").
		Select("r.id, r.person_id, r.related_person_id, r.relationship_type, r.created_at, "+
			"p.name, p.gender, p.birth_date, p.photo").
		Joins("JOIN persons p ON p.id = r.related_person_id").
		Where("r.person_id = ?", personID).
		Order("r.id ASC").
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Create 创建关系，已存在时返回现有记录
func (r *RelationshipRepository) Create(ctx context.Context, personID, relatedID uint, relType model.RelationshipType) (*model.Relationship, error) {
	var rel *model.Relationship
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		rel, err = createFact(tx, personID, relatedID, relType)
		return err
	})
	return rel, err
}

// CreateParentChild 创建双向父子关系
func (r *RelationshipRepository) CreateParentChild(ctx context.Context, parentID, childID uint) ([]model.Relationship, error) {
	return r.createPair(ctx, parentID, childID, model.RelationChild, model.RelationParent)
}

// CreateSibling 创建双向兄弟姐妹关系
func (r *RelationshipRepository) CreateSibling(ctx context.Context, personID1, personID2 uint) ([]model.Relationship, error) {
	return r.createPair(ctx, personID1, personID2, model.RelationSibling, model.RelationSibling)
}

// CreateSpouse 创建双向配偶关系
func (r *RelationshipRepository) CreateSpouse(ctx context.Context, personID1, personID2 uint) ([]model.Relationship, error) {
	return r.createPair(ctx, personID1, personID2, model.RelationSpouse, model.RelationSpouse)
}

// createPair a->b 为 forward，b->a 为 backward，两条记录在同一事务中写入
func (r *RelationshipRepository) createPair(ctx context.Context, a, b uint, forward, backward model.RelationshipType) ([]model.Relationship, error) {
	out := make([]model.Relationship, 0, 2)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		first, err := createFact(tx, a, b, forward)
		if err != nil {
			return err
		}
		second, err := createFact(tx, b, a, backward)
		if err != nil {
			return err
		}
		out = append(out, *first, *second)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete 根据ID删除关系
func (r *RelationshipRepository) Delete(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&model.Relationship{}, id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeleteByDetails 根据三元组删除关系
func (r *RelationshipRepository) DeleteByDetails(ctx context.Context, personID, relatedID uint, relType model.RelationshipType) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("person_id = ? AND related_person_id = ? AND relationship_type = ?", personID, relatedID, relType).
		Delete(&model.Relationship{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeleteByPerson 删除成员参与的所有关系，返回删除数量
func (r *RelationshipRepository) DeleteByPerson(ctx context.Context, personID uint) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("person_id = ? OR related_person_id = ?", personID, personID).
		Delete(&model.Relationship{})
	return res.RowsAffected, res.Error
}

// Statistics 按类型统计关系数量
func (r *RelationshipRepository) Statistics(ctx context.Context) (*model.RelationshipStats, error) {
	var rows []struct {
		RelationshipType model.RelationshipType
		Count            int64
	}
	err := r.db.WithContext(ctx).Model(&model.Relationship{}).
		Select("relationship_type, COUNT(*) AS count").
		Group("relationship_type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	stats := &model.RelationshipStats{ByType: make(map[model.RelationshipType]int64, len(rows))}
	for _, row := range rows {
		stats.ByType[row.RelationshipType] = row.Count
		stats.Total += row.Count
	}
	return stats, nil
}

// createFact 冲突时不插入，随后按三元组读回记录
func createFact(tx *gorm.DB, personID, relatedID uint, relType model.RelationshipType) (*model.Relationship, error) {
	rel := model.Relationship{PersonID: personID, RelatedPersonID: relatedID, RelationshipType: relType}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rel).Error; err != nil {
		return nil, err
	}

	var stored model.Relationship
	err := tx.Where("person_id = ? AND related_person_id = ? AND relationship_type = ?", personID, relatedID, relType).
		First(&stored).Error
	if err != nil {
		return nil, err
	}
	return &stored, nil
}
