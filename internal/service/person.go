package service

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"familytree_go/internal/model"
	"familytree_go/internal/repository"
)

const personNotFound = "person not found"

// PersonService 成员服务
type PersonService struct {
	persons *repository.PersonRepository
	trees   *repository.FamilyTreeRepository
	log     *zap.Logger
	metrics *Metrics
}

// NewPersonService 创建成员服务实例
func NewPersonService(persons *repository.PersonRepository, trees *repository.FamilyTreeRepository, log *zap.Logger, metrics *Metrics) *PersonService {
	return &PersonService{persons: persons, trees: trees, log: log, metrics: metrics}
}

// List 按条件查询成员
func (s *PersonService) List(ctx context.Context, filter model.PersonFilter) ([]model.Person, error) {
	if filter.Gender != nil {
		if err := NewValidator().Gender(*filter.Gender, "gender").Validate(); err != nil {
			return nil, err
		}
	}
	persons, err := s.persons.List(ctx, filter)
	if err != nil {
		return nil, DatabaseError(err)
	}
	return persons, nil
}

// Get 根据ID获取成员
func (s *PersonService) Get(ctx context.Context, id uint) (*model.Person, error) {
	person, err := s.persons.GetByID(ctx, id)
	if err != nil {
		return nil, storageError(err, personNotFound).WithContext("person.id", id)
	}
	return person, nil
}

// Family 获取成员的家庭关系
func (s *PersonService) Family(ctx context.Context, id uint) (*model.Family, error) {
	family, err := s.persons.GetFamily(ctx, id)
	if err != nil {
		return nil, storageError(err, personNotFound).WithContext("person.id", id)
	}
	return family, nil
}

// Create 创建成员
func (s *PersonService) Create(ctx context.Context, input *model.PersonInput) (person *model.Person, err error) {
	ctx, span := startSpan(ctx, "PersonService.Create")
	defer func() { endSpan(span, err) }()

	// 验证输入
	v := NewValidator().
		Required(input.Name, "name").
		Gender(input.Gender, "gender").
		Date(input.BirthDate, "birth_date").
		Date(input.DeathDate, "death_date").
		Email(input.Email, "email")
	if input.Generation != nil {
		v.Generation(*input.Generation, "generation")
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}

	p := &model.Person{
		Name:         input.Name,
		Gender:       input.Gender,
		BirthDate:    input.BirthDate,
		DeathDate:    input.DeathDate,
		IsAlive:      true,
		PhoneNumber:  input.PhoneNumber,
		Email:        input.Email,
		Address:      input.Address,
		Occupation:   input.Occupation,
		Notes:        input.Notes,
		Photo:        input.Photo,
		Generation:   1,
		FatherID:     nonZero(input.FatherID),
		MotherID:     nonZero(input.MotherID),
		SpouseID:     nonZero(input.SpouseID),
		FamilyTreeID: model.DefaultFamilyTreeID,
	}
	if input.IsAlive != nil {
		p.IsAlive = *input.IsAlive
	}
	if input.Generation != nil {
		p.Generation = *input.Generation
	}
	if input.FamilyTreeID != nil && *input.FamilyTreeID != 0 {
		p.FamilyTreeID = *input.FamilyTreeID
	}

	if err := s.ensureTree(ctx, p.FamilyTreeID); err != nil {
		return nil, err
	}
	if err := s.ensurePersons(ctx, map[string]*uint{
		"father_id": p.FatherID,
		"mother_id": p.MotherID,
		"spouse_id": p.SpouseID,
	}); err != nil {
		return nil, err
	}

	if err := s.persons.Create(ctx, p); err != nil {
		s.log.Error("create person failed", zap.Error(err))
		return nil, DatabaseError(err)
	}
	span.SetAttributes(attribute.Int64("person.id", int64(p.ID)))
	s.log.Info("person created", zap.Uint("id", p.ID), zap.Uint("family_tree_id", p.FamilyTreeID))
	s.metrics.ObserveMutation("person", "create")

	return s.Get(ctx, p.ID)
}

// Update 部分更新成员
func (s *PersonService) Update(ctx context.Context, id uint, patch *model.PersonPatch) (person *model.Person, err error) {
	ctx, span := startSpan(ctx, "PersonService.Update", attribute.Int64("person.id", int64(id)))
	defer func() { endSpan(span, err) }()

	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	// 性别为null视为未设置
	if patch.Gender.Set && patch.Gender.Null {
		patch.Gender = model.Some(model.GenderUnset)
	}

	v := NewValidator().
		Check(!(patch.Name.Set && patch.Name.Null), "name cannot be null").
		Check(!(patch.IsAlive.Set && patch.IsAlive.Null), "is_alive cannot be null").
		Check(!(patch.Generation.Set && patch.Generation.Null), "generation cannot be null").
		Check(!(patch.FamilyTreeID.Set && patch.FamilyTreeID.Null), "family_tree_id cannot be null").
		Check(patch.SpouseID.Ptr() == nil || *patch.SpouseID.Ptr() != id, "a person cannot be their own spouse").
		Check(patch.FatherID.Ptr() == nil || *patch.FatherID.Ptr() != id, "a person cannot be their own father").
		Check(patch.MotherID.Ptr() == nil || *patch.MotherID.Ptr() != id, "a person cannot be their own mother")
	if patch.Name.HasValue() {
		v.Required(patch.Name.Value, "name")
	}
	if patch.Gender.HasValue() {
		v.Gender(patch.Gender.Value, "gender")
	}
	v.Date(patch.BirthDate.Ptr(), "birth_date").
		Date(patch.DeathDate.Ptr(), "death_date").
		Email(patch.Email.Ptr(), "email")
	if patch.Generation.HasValue() {
		v.Generation(patch.Generation.Value, "generation")
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}

	if patch.FamilyTreeID.HasValue() {
		if err := s.ensureTree(ctx, patch.FamilyTreeID.Value); err != nil {
			return nil, err
		}
	}
	if err := s.ensurePersons(ctx, map[string]*uint{
		"father_id": patch.FatherID.Ptr(),
		"mother_id": patch.MotherID.Ptr(),
		"spouse_id": patch.SpouseID.Ptr(),
	}); err != nil {
		return nil, err
	}

	person, err = s.persons.Update(ctx, id, patch)
	if err != nil {
		return nil, storageError(err, personNotFound)
	}
	s.log.Info("person updated", zap.Uint("id", id))
	s.metrics.ObserveMutation("person", "update")
	return person, nil
}

// Delete 删除成员
func (s *PersonService) Delete(ctx context.Context, id uint) (err error) {
	ctx, span := startSpan(ctx, "PersonService.Delete", attribute.Int64("person.id", int64(id)))
	defer func() { endSpan(span, err) }()

	deleted, err := s.persons.Delete(ctx, id)
	if err != nil {
		s.log.Error("delete person failed", zap.Uint("id", id), zap.Error(err))
		return DatabaseError(err)
	}
	if !deleted {
		return NotFoundError(personNotFound).WithContext("person.id", id)
	}
	s.log.Info("person deleted", zap.Uint("id", id))
	s.metrics.ObserveMutation("person", "delete")
	return nil
}

// SetSpouse 设置配偶
func (s *PersonService) SetSpouse(ctx context.Context, id, spouseID uint) (*model.Person, error) {
	if err := NewValidator().
		RequiredID(spouseID, "spouse_id").
		Check(spouseID != id, "a person cannot be their own spouse").
		Validate(); err != nil {
		return nil, err
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.ensurePersons(ctx, map[string]*uint{"spouse_id": &spouseID}); err != nil {
		return nil, err
	}

	if err := s.persons.SetSpouse(ctx, id, spouseID); err != nil {
		return nil, DatabaseError(err)
	}
	s.log.Info("spouse set", zap.Uint("id", id), zap.Uint("spouse_id", spouseID))
	s.metrics.ObserveMutation("person", "set_spouse")
	return s.Get(ctx, id)
}

// RemoveSpouse 解除配偶
func (s *PersonService) RemoveSpouse(ctx context.Context, id uint) (*model.Person, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.persons.RemoveSpouse(ctx, id); err != nil {
		return nil, DatabaseError(err)
	}
	s.log.Info("spouse removed", zap.Uint("id", id))
	s.metrics.ObserveMutation("person", "remove_spouse")
	return s.Get(ctx, id)
}

// SetParents 设置父母
func (s *PersonService) SetParents(ctx context.Context, id uint, patch *model.ParentsPatch) (*model.Person, error) {
	if err := NewValidator().
		Check(patch.FatherID.Ptr() == nil || *patch.FatherID.Ptr() != id, "a person cannot be their own father").
		Check(patch.MotherID.Ptr() == nil || *patch.MotherID.Ptr() != id, "a person cannot be their own mother").
		Validate(); err != nil {
		return nil, err
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.ensurePersons(ctx, map[string]*uint{
		"father_id": patch.FatherID.Ptr(),
		"mother_id": patch.MotherID.Ptr(),
	}); err != nil {
		return nil, err
	}

	person, err := s.persons.SetParents(ctx, id, patch)
	if err != nil {
		return nil, storageError(err, personNotFound)
	}
	s.log.Info("parents set", zap.Uint("id", id))
	s.metrics.ObserveMutation("person", "set_parents")
	return person, nil
}

// Statistics 成员统计
func (s *PersonService) Statistics(ctx context.Context, treeID *uint) (*model.Statistics, error) {
	stats, err := s.persons.Statistics(ctx, treeID)
	if err != nil {
		return nil, DatabaseError(err)
	}
	return stats, nil
}

// ensureTree 家谱必须存在
func (s *PersonService) ensureTree(ctx context.Context, treeID uint) error {
	ok, err := s.trees.Exists(ctx, treeID)
	if err != nil {
		return DatabaseError(err)
	}
	if !ok {
		return ValidationError(fmt.Sprintf("family tree %d does not exist", treeID))
	}
	return nil
}

// ensurePersons 引用的成员必须存在
func (s *PersonService) ensurePersons(ctx context.Context, refs map[string]*uint) error {
	v := NewValidator()
	for _, field := range []string{"father_id", "mother_id", "spouse_id"} {
		id, ok := refs[field]
		if !ok || id == nil {
			continue
		}
		_, err := s.persons.GetByID(ctx, *id)
		if err == nil {
			continue
		}
		if storageError(err, personNotFound).HasCode(ErrNotFound) {
			v.Check(false, fmt.Sprintf("%s %d does not exist", field, *id))
			continue
		}
		return DatabaseError(err)
	}
	return v.Validate()
}

func nonZero(id *uint) *uint {
	if id == nil || *id == 0 {
		return nil
	}
	return id
}
