package service

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"familytree_go/internal/model"
	"familytree_go/internal/repository"
)

const treeNotFound = "family tree not found"

// FamilyTreeService 家谱服务
type FamilyTreeService struct {
	trees   *repository.FamilyTreeRepository
	persons *repository.PersonRepository
	log     *zap.Logger
	metrics *Metrics
}

// NewFamilyTreeService 创建家谱服务实例
func NewFamilyTreeService(trees *repository.FamilyTreeRepository, persons *repository.PersonRepository, log *zap.Logger, metrics *Metrics) *FamilyTreeService {
	return &FamilyTreeService{trees: trees, persons: persons, log: log, metrics: metrics}
}

// List 获取所有家谱
func (s *FamilyTreeService) List(ctx context.Context) ([]model.FamilyTree, error) {
	trees, err := s.trees.List(ctx)
	if err != nil {
		return nil, DatabaseError(err)
	}
	return trees, nil
}

// Get 根据ID获取家谱
func (s *FamilyTreeService) Get(ctx context.Context, id uint) (*model.FamilyTree, error) {
	tree, err := s.trees.GetByID(ctx, id)
	if err != nil {
		return nil, storageError(err, treeNotFound).WithContext("family_tree.id", id)
	}
	return tree, nil
}

// Members 获取家谱成员，支持成员列表的过滤条件
func (s *FamilyTreeService) Members(ctx context.Context, id uint, filter model.PersonFilter) ([]model.Person, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	filter.FamilyTreeID = &id
	persons, err := s.persons.List(ctx, filter)
	if err != nil {
		return nil, DatabaseError(err)
	}
	return persons, nil
}

// Create 创建家谱
func (s *FamilyTreeService) Create(ctx context.Context, input *model.FamilyTreeInput) (*model.FamilyTree, error) {
	if err := NewValidator().Required(input.Name, "name").Validate(); err != nil {
		return nil, err
	}
	input.RootPersonID = nonZero(input.RootPersonID)
	if err := s.ensureRoot(ctx, input.RootPersonID); err != nil {
		return nil, err
	}

	tree, err := s.trees.Create(ctx, input)
	if err != nil {
		return nil, DatabaseError(err)
	}
	s.log.Info("family tree created", zap.Uint("id", tree.ID), zap.String("name", tree.Name))
	s.metrics.ObserveMutation("family_tree", "create")
	return tree, nil
}

// Update 部分更新家谱
func (s *FamilyTreeService) Update(ctx context.Context, id uint, patch *model.FamilyTreePatch) (*model.FamilyTree, error) {
	v := NewValidator().Check(!(patch.Name.Set && patch.Name.Null), "name cannot be null")
	if patch.Name.HasValue() {
		v.Required(patch.Name.Value, "name")
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.ensureRoot(ctx, patch.RootPersonID.Ptr()); err != nil {
		return nil, err
	}

	tree, err := s.trees.Update(ctx, id, patch)
	if err != nil {
		return nil, storageError(err, treeNotFound)
	}
	s.log.Info("family tree updated", zap.Uint("id", id))
	s.metrics.ObserveMutation("family_tree", "update")
	return tree, nil
}

// Delete 删除家谱及其成员，默认家谱不可删除
func (s *FamilyTreeService) Delete(ctx context.Context, id uint) error {
	if id == model.DefaultFamilyTreeID {
		return ForbiddenError("the default family tree cannot be deleted")
	}
	deleted, err := s.trees.Delete(ctx, id)
	if err != nil {
		s.log.Error("delete family tree failed", zap.Uint("id", id), zap.Error(err))
		return DatabaseError(err)
	}
	if !deleted {
		return NotFoundError(treeNotFound).WithContext("family_tree.id", id)
	}
	s.log.Info("family tree deleted", zap.Uint("id", id))
	s.metrics.ObserveMutation("family_tree", "delete")
	return nil
}

// Statistics 家谱成员统计
func (s *FamilyTreeService) Statistics(ctx context.Context, id uint) (*model.Statistics, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	stats, err := s.persons.Statistics(ctx, &id)
	if err != nil {
		return nil, DatabaseError(err)
	}
	return stats, nil
}

// Clone 复制家谱
func (s *FamilyTreeService) Clone(ctx context.Context, id uint, name string) (tree *model.FamilyTree, err error) {
	ctx, span := startSpan(ctx, "FamilyTreeService.Clone", attribute.Int64("family_tree.id", int64(id)))
	defer func() { endSpan(span, err) }()

	tree, err = s.trees.Clone(ctx, id, name)
	if err != nil {
		return nil, storageError(err, treeNotFound)
	}
	span.SetAttributes(attribute.Int64("clone.id", int64(tree.ID)), attribute.Int64("clone.members", tree.MemberCount))
	s.log.Info("family tree cloned",
		zap.Uint("source_id", id),
		zap.Uint("id", tree.ID),
		zap.Int64("members", tree.MemberCount),
	)
	s.metrics.ObserveMutation("family_tree", "clone")
	return tree, nil
}

// ensureRoot 根成员必须存在
func (s *FamilyTreeService) ensureRoot(ctx context.Context, rootID *uint) error {
	if rootID == nil {
		return nil
	}
	if _, err := s.persons.GetByID(ctx, *rootID); err != nil {
		if storageError(err, personNotFound).HasCode(ErrNotFound) {
			return ValidationError(fmt.Sprintf("root_person_id %d does not exist", *rootID))
		}
		return DatabaseError(err)
	}
	return nil
}
