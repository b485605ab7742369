package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"familytree_go/internal/model"
)

// PersonRepository 成员数据访问
type PersonRepository struct {
	db *DB
}

// NewPersonRepository 创建成员仓储
func NewPersonRepository(db *DB) *PersonRepository {
	return &PersonRepository{db: db}
}

// List 按条件查询成员，按世代、出生日期排序
func (r *PersonRepository) List(ctx context.Context, filter model.PersonFilter) ([]model.Person, error) {
	q := r.db.WithContext(ctx).Model(&model.Person{})
	if filter.FamilyTreeID != nil {
		q = q.Where("family_tree_id = ?", *filter.FamilyTreeID)
	}
	if filter.Generation != nil {
		q = q.Where("generation = ?", *filter.Generation)
	}
	if filter.IsAlive != nil {
		q = q.Where("is_alive = ?", *filter.IsAlive)
	}
	if filter.Gender != nil {
		q = q.Where("gender = ?", *filter.Gender)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("(LOWER(name) LIKE ? OR LOWER(phone_number) LIKE ? OR LOWER(email) LIKE ?)", like, like, like)
	}

	persons := make([]model.Person, 0)
	if err := q.Order("generation ASC, birth_date ASC, id ASC").Find(&persons).Error; err != nil {
		return nil, err
	}
	return persons, nil
}

// GetByID 根据ID获取成员
func (r *PersonRepository) GetByID(ctx context.Context, id uint) (*model.Person, error) {
	return findPerson(r.db.WithContext(ctx), id)
}

// GetFamily 获取成员及其父母、配偶、子女、兄弟姐妹
func (r *PersonRepository) GetFamily(ctx context.Context, id uint) (*model.Family, error) {
	db := r.db.WithContext(ctx)
	person, err := findPerson(db, id)
	if err != nil {
		return nil, err
	}

	family := &model.Family{
		Person:   *person,
		Children: make([]model.Person, 0),
		Siblings: make([]model.Person, 0),
	}
	if family.Father, err = findOptional(db, person.FatherID); err != nil {
		return nil, err
	}
	if family.Mother, err = findOptional(db, person.MotherID); err != nil {
		return nil, err
	}
	if family.Spouse, err = findOptional(db, person.SpouseID); err != nil {
		return nil, err
	}

	// 子女
	if err := db.Where("father_id = ? OR mother_id = ?", id, id).
		Order("birth_date ASC, id ASC").Find(&family.Children).Error; err != nil {
		return nil, err
	}

	// 兄弟姐妹：共享父亲或母亲
	if person.HasParent() {
		conds := make([]string, 0, 2)
		args := make([]interface{}, 0, 2)
		if person.FatherID != nil {
			conds = append(conds, "father_id = ?")
			args = append(args, *person.FatherID)
		}
		if person.MotherID != nil {
			conds = append(conds, "mother_id = ?")
			args = append(args, *person.MotherID)
		}
		if err := db.Where("id <> ?", id).
			Where("("+strings.Join(conds, " OR ")+")", args...).
			Order("birth_date ASC, id ASC").Find(&family.Siblings).Error; err != nil {
			return nil, err
		}
	}

	return family, nil
}

// Create 创建成员，指定配偶时在同一事务中建立双向配偶关系
func (r *PersonRepository) Create(ctx context.Context, person *model.Person) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(person).Error; err != nil {
			return err
		}
		if person.SpouseID != nil {
			return setSpouse(tx, person.ID, *person.SpouseID)
		}
		return nil
	})
}

// Update 部分更新成员
func (r *PersonRepository) Update(ctx context.Context, id uint, patch *model.PersonPatch) (*model.Person, error) {
	var updated *model.Person
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findPerson(tx, id); err != nil {
			return err
		}

		if cols := patch.Columns(); len(cols) > 0 {
			if err := tx.Model(&model.Person{}).Where("id = ?", id).Updates(cols).Error; err != nil {
				return err
			}
		}

		// 配偶变更
		if patch.SpouseID.Set {
			var err error
			if patch.SpouseID.Null {
				err = removeSpouse(tx, id)
			} else {
				err = setSpouse(tx, id, patch.SpouseID.Value)
			}
			if err != nil {
				return err
			}
		}

		var err error
		updated, err = findPerson(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete 删除成员，先清除配偶的反向引用
func (r *PersonRepository) Delete(ctx context.Context, id uint) (bool, error) {
	deleted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		person, err := findPerson(tx, id)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		if person.SpouseID != nil {
			if err := tx.Model(&model.Person{}).Where("id = ?", *person.SpouseID).
				Update("spouse_id", nil).Error; err != nil {
				return err
			}
		}

		// 以该成员为根的家谱不再指向已删除的成员
		if err := tx.Model(&model.FamilyTree{}).Where("root_person_id = ?", id).
			Update("root_person_id", nil).Error; err != nil {
			return err
		}

		res := tx.Delete(&model.Person{}, id)
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected > 0
		return nil
	})
	return deleted, err
}

// SetSpouse 双向设置配偶
func (r *PersonRepository) SetSpouse(ctx context.Context, personID, spouseID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return setSpouse(tx, personID, spouseID)
	})
}

// RemoveSpouse 双向解除配偶
func (r *PersonRepository) RemoveSpouse(ctx context.Context, personID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return removeSpouse(tx, personID)
	})
}

// SetParents 设置父母
func (r *PersonRepository) SetParents(ctx context.Context, id uint, patch *model.ParentsPatch) (*model.Person, error) {
	var updated *model.Person
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findPerson(tx, id); err != nil {
			return err
		}
		if cols := patch.Columns(); len(cols) > 0 {
			if err := tx.Model(&model.Person{}).Where("id = ?", id).Updates(cols).Error; err != nil {
				return err
			}
		}
		var err error
		updated, err = findPerson(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// TreeData 获取成员列表并附带子女ID
func (r *PersonRepository) TreeData(ctx context.Context, treeID *uint) ([]model.TreePerson, error) {
	persons, err := r.List(ctx, model.PersonFilter{FamilyTreeID: treeID})
	if err != nil {
		return nil, err
	}

	children := make(map[uint][]uint, len(persons))
	for _, p := range persons {
		if p.FatherID != nil {
			children[*p.FatherID] = append(children[*p.FatherID], p.ID)
		}
		if p.MotherID != nil && (p.FatherID == nil || *p.MotherID != *p.FatherID) {
			children[*p.MotherID] = append(children[*p.MotherID], p.ID)
		}
	}

	out := make([]model.TreePerson, 0, len(persons))
	for _, p := range persons {
		ids := children[p.ID]
		if ids == nil {
			ids = make([]uint, 0)
		}
		out = append(out, model.TreePerson{Person: p, ChildrenIDs: ids})
	}
	return out, nil
}

// Statistics 成员统计
func (r *PersonRepository) Statistics(ctx context.Context, treeID *uint) (*model.Statistics, error) {
	q := r.db.WithContext(ctx).Model(&model.Person{})
	if treeID != nil {
		q = q.Where("family_tree_id = ?", *treeID)
	}

	var stats model.Statistics
	err := q.Select(`COUNT(*) AS total,
		COALESCE(SUM(CASE WHEN is_alive THEN 1 ELSE 0 END), 0) AS alive,
		COALESCE(SUM(CASE WHEN gender = 'male' THEN 1 ELSE 0 END), 0) AS male,
		COALESCE(SUM(CASE WHEN gender = 'female' THEN 1 ELSE 0 END), 0) AS female,
		COALESCE(MAX(generation), 0) AS generations`).
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	stats.Deceased = stats.Total - stats.Alive
	return &stats, nil
}

func findPerson(db *gorm.DB, id uint) (*model.Person, error) {
	var person model.Person
	if err := db.First(&person, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &person, nil
}

func findOptional(db *gorm.DB, id *uint) (*model.Person, error) {
	if id == nil {
		return nil, nil
	}
	person, err := findPerson(db, *id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return person, err
}

// setSpouse 两侧spouse_id在同一事务中写入；任一ID为空时不做处理
func setSpouse(tx *gorm.DB, personID, spouseID uint) error {
	if personID == 0 || spouseID == 0 {
		return nil
	}
	if err := tx.Model(&model.Person{}).Where("id = ?", personID).
		Update("spouse_id", spouseID).Error; err != nil {
		return err
	}
	return tx.Model(&model.Person{}).Where("id = ?", spouseID).
		Update("spouse_id", personID).Error
}

func removeSpouse(tx *gorm.DB, personID uint) error {
	person, err := findPerson(tx, personID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if person.SpouseID == nil {
		return nil
	}
	return tx.Model(&model.Person{}).Where("id IN ?", []uint{personID, *person.SpouseID}).
		Update("spouse_id", nil).Error
}
