package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"familytree_go/internal/model"
	"familytree_go/internal/repository"
	"familytree_go/internal/tree"
)

// TreeService 家谱视图服务：扁平数据、以成员为根的子图、分代布局
type TreeService struct {
	persons *repository.PersonRepository
	log     *zap.Logger
}

// NewTreeService 创建家谱视图服务实例
func NewTreeService(persons *repository.PersonRepository, log *zap.Logger) *TreeService {
	return &TreeService{persons: persons, log: log}
}

// TreeData 范围内所有成员及其子女ID
func (s *TreeService) TreeData(ctx context.Context, treeID *uint) ([]model.TreePerson, error) {
	data, err := s.persons.TreeData(ctx, treeID)
	if err != nil {
		return nil, DatabaseError(err)
	}
	return data, nil
}

// Subgraph 以成员为根的有界子图，范围限定在根成员所在家谱
func (s *TreeService) Subgraph(ctx context.Context, rootID uint, depth int) (result []model.Person, err error) {
	ctx, span := startSpan(ctx, "TreeService.Subgraph",
		attribute.Int64("root.id", int64(rootID)), attribute.Int("depth", depth))
	defer func() { endSpan(span, err) }()

	people, err := s.scopeOf(ctx, rootID)
	if err != nil {
		return nil, err
	}
	return tree.Traverse(people, rootID, depth), nil
}

// scopeOf 根成员所在家谱的全部成员
func (s *TreeService) scopeOf(ctx context.Context, rootID uint) ([]model.Person, error) {
	root, err := s.persons.GetByID(ctx, rootID)
	if err != nil {
		return nil, storageError(err, personNotFound)
	}
	people, err := s.persons.List(ctx, model.PersonFilter{FamilyTreeID: &root.FamilyTreeID})
	if err != nil {
		return nil, DatabaseError(err)
	}
	return people, nil
}

// Generation 指定世代的成员
func (s *TreeService) Generation(ctx context.Context, generation int, treeID *uint) ([]model.Person, error) {
	people, err := s.persons.List(ctx, model.PersonFilter{FamilyTreeID: treeID, Generation: &generation})
	if err != nil {
		return nil, DatabaseError(err)
	}
	return people, nil
}

// Layout 构建分代布局；指定根成员时只包含其子图并标记根成员
func (s *TreeService) Layout(ctx context.Context, treeID *uint, rootID *uint, depth int) (layout *tree.Layout, err error) {
	ctx, span := startSpan(ctx, "TreeService.Layout")
	defer func() { endSpan(span, err) }()

	var people []model.Person
	if rootID != nil {
		people, err = s.scopeOf(ctx, *rootID)
		if err != nil {
			return nil, err
		}
		// 保持世代顺序，只保留子图中的成员
		reached := make(map[uint]bool)
		for _, p := range tree.Traverse(people, *rootID, depth) {
			reached[p.ID] = true
		}
		kept := people[:0]
		for _, p := range people {
			if reached[p.ID] {
				kept = append(kept, p)
			}
		}
		people = kept
	} else {
		people, err = s.persons.List(ctx, model.PersonFilter{FamilyTreeID: treeID})
		if err != nil {
			return nil, DatabaseError(err)
		}
	}

	layout = tree.Build(people, rootID)
	if len(layout.UnrenderedIDs) > 0 {
		s.log.Debug("layout left persons unreachable", zap.Int("count", len(layout.UnrenderedIDs)))
	}
	span.SetAttributes(attribute.Int("persons", len(people)))
	return layout, nil
}
