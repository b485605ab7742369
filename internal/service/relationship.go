package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"familytree_go/internal/model"
	"familytree_go/internal/repository"
)

const relationshipNotFound = "relationship not found"

// RelationshipService 关系服务
type RelationshipService struct {
	relations *repository.RelationshipRepository
	persons   *repository.PersonRepository
	log       *zap.Logger
	metrics   *Metrics
}

// NewRelationshipService 创建关系服务实例
func NewRelationshipService(relations *repository.RelationshipRepository, persons *repository.PersonRepository, log *zap.Logger, metrics *Metrics) *RelationshipService {
	return &RelationshipService{relations: relations, persons: persons, log: log, metrics: metrics}
}

// List 获取所有关系
func (s *RelationshipService) List(ctx context.Context) ([]model.Relationship, error) {
	rels, err := s.relations.List(ctx)
	if err != nil {
		return nil, DatabaseError(err)
	}
	return rels, nil
}

// ByPerson 获取成员参与的关系
func (s *RelationshipService) ByPerson(ctx context.Context, personID uint) ([]model.Relationship, error) {
	rels, err := s.relations.ByPerson(ctx, personID)
	if err != nil {
		return nil, DatabaseError(err)
	}
	return rels, nil
}

// ByType 获取成员指定类型的关系
func (s *RelationshipService) ByType(ctx context.Context, personID uint, relType model.RelationshipType) ([]model.Relationship, error) {
	if err := NewValidator().RelationshipType(relType, "type").Validate(); err != nil {
		return nil, err
	}
	rels, err := s.relations.ByType(ctx, personID, relType)
	if err != nil {
		return nil, DatabaseError(err)
	}
	return rels, nil
}

// Related 获取成员的关系及对方信息
func (s *RelationshipService) Related(ctx context.Context, personID uint) ([]model.RelatedPerson, error) {
	related, err := s.relations.Related(ctx, personID)
	if err != nil {
		return nil, DatabaseError(err)
	}
	return related, nil
}

// Statistics 关系统计
func (s *RelationshipService) Statistics(ctx context.Context) (*model.RelationshipStats, error) {
	stats, err := s.relations.Statistics(ctx)
	if err != nil {
		return nil, DatabaseError(err)
	}
	return stats, nil
}

// Create 创建单条关系，重复时返回已有记录
func (s *RelationshipService) Create(ctx context.Context, input *model.RelationshipInput) (*model.Relationship, error) {
	if err := NewValidator().
		RequiredID(input.PersonID, "person_id").
		RequiredID(input.RelatedPersonID, "related_person_id").
		RelationshipType(input.RelationshipType, "relationship_type").
		Validate(); err != nil {
		return nil, err
	}
	if err := s.ensurePair(ctx, input.PersonID, input.RelatedPersonID); err != nil {
		return nil, err
	}

	rel, err := s.relations.Create(ctx, input.PersonID, input.RelatedPersonID, input.RelationshipType)
	if err != nil {
		return nil, DatabaseError(err)
	}
	s.log.Info("relationship created", zap.Uint("id", rel.ID), zap.String("type", string(rel.RelationshipType)))
	s.metrics.ObserveMutation("relationship", "create")
	return rel, nil
}

// CreateParentChild 创建父子关系对
func (s *RelationshipService) CreateParentChild(ctx context.Context, parentID, childID uint) ([]model.Relationship, error) {
	if err := NewValidator().
		RequiredID(parentID, "parent_id").
		RequiredID(childID, "child_id").
		Validate(); err != nil {
		return nil, err
	}
	return s.createPair(ctx, parentID, childID, "parent_child", s.relations.CreateParentChild)
}

// CreateSibling 创建兄弟姐妹关系对
func (s *RelationshipService) CreateSibling(ctx context.Context, personID1, personID2 uint) ([]model.Relationship, error) {
	if err := requirePair(personID1, personID2); err != nil {
		return nil, err
	}
	return s.createPair(ctx, personID1, personID2, "sibling", s.relations.CreateSibling)
}

// CreateSpouse 创建配偶关系对
func (s *RelationshipService) CreateSpouse(ctx context.Context, personID1, personID2 uint) ([]model.Relationship, error) {
	if err := requirePair(personID1, personID2); err != nil {
		return nil, err
	}
	return s.createPair(ctx, personID1, personID2, "spouse", s.relations.CreateSpouse)
}

// Delete 根据ID删除关系
func (s *RelationshipService) Delete(ctx context.Context, id uint) error {
	deleted, err := s.relations.Delete(ctx, id)
	if err != nil {
		return DatabaseError(err)
	}
	if !deleted {
		return NotFoundError(relationshipNotFound)
	}
	s.metrics.ObserveMutation("relationship", "delete")
	return nil
}

// DeleteByDetails 根据三元组删除关系
func (s *RelationshipService) DeleteByDetails(ctx context.Context, input *model.RelationshipInput) error {
	if err := NewValidator().
		RequiredID(input.PersonID, "person_id").
		RequiredID(input.RelatedPersonID, "related_person_id").
		RelationshipType(input.RelationshipType, "relationship_type").
		Validate(); err != nil {
		return err
	}
	deleted, err := s.relations.DeleteByDetails(ctx, input.PersonID, input.RelatedPersonID, input.RelationshipType)
	if err != nil {
		return DatabaseError(err)
	}
	if !deleted {
		return NotFoundError(relationshipNotFound)
	}
	s.metrics.ObserveMutation("relationship", "delete")
	return nil
}

// DeleteByPerson 删除成员参与的全部关系
func (s *RelationshipService) DeleteByPerson(ctx context.Context, personID uint) (int64, error) {
	n, err := s.relations.DeleteByPerson(ctx, personID)
	if err != nil {
		return 0, DatabaseError(err)
	}
	s.log.Info("relationships deleted", zap.Uint("person_id", personID), zap.Int64("count", n))
	s.metrics.ObserveMutation("relationship", "delete_by_person")
	return n, nil
}

type pairFunc func(ctx context.Context, a, b uint) ([]model.Relationship, error)

func (s *RelationshipService) createPair(ctx context.Context, a, b uint, kind string, create pairFunc) ([]model.Relationship, error) {
	if err := s.ensurePair(ctx, a, b); err != nil {
		return nil, err
	}
	rels, err := create(ctx, a, b)
	if err != nil {
		return nil, DatabaseError(err)
	}
	s.log.Info("relationship pair created", zap.String("kind", kind), zap.Uint("a", a), zap.Uint("b", b))
	s.metrics.ObserveMutation("relationship", "create_"+kind)
	return rels, nil
}

// ensurePair 两端成员必须存在且不相同
func (s *RelationshipService) ensurePair(ctx context.Context, a, b uint) error {
	v := NewValidator().Check(a != b, "a person cannot be related to themselves")
	for _, id := range []uint{a, b} {
		_, err := s.persons.GetByID(ctx, id)
		if err == nil {
			continue
		}
		if storageError(err, personNotFound).HasCode(ErrNotFound) {
			v.Check(false, fmt.Sprintf("person %d does not exist", id))
			continue
		}
		return DatabaseError(err)
	}
	return v.Validate()
}

func requirePair(a, b uint) error {
	return NewValidator().
		RequiredID(a, "person_id_1").
		RequiredID(b, "person_id_2").
		Validate()
}
