// Package tree 从扁平的成员列表构建分代家谱布局，并提供以某成员为根的有界遍历。
package tree

import (
	"familytree_go/internal/model"
)

// 夫妻节点的样式类
const (
	ClassHasChildren = "has-children"
	ClassNoChildren  = "no-children"
)

// Layout 家谱布局
type Layout struct {
	RootGeneration int    `json:"root_generation"`
	RootID         *uint  `json:"root_id"`
	Level          *Level `json:"level"`
	// 从最早世代出发无法到达的成员
	UnrenderedIDs []uint `json:"unrendered_ids"`
}

// Level 世代层级
type Level struct {
	Generation int     `json:"generation"`
	Units      []*Unit `json:"units"`
}

// Unit 家庭单元：一对夫妻及其子女
type Unit struct {
	Couple   Couple             `json:"couple"`
	Children *ChildrenContainer `json:"children,omitempty"`
}

// Couple 夫妻，已输出过的成员对应位置为空
type Couple struct {
	Husband *Node  `json:"husband"`
	Wife    *Node  `json:"wife"`
	Class   string `json:"class"`
}

// ChildrenContainer 子女容器，每个子女包装为一个嵌套的家庭单元
type ChildrenContainer struct {
	Multiple bool    `json:"multiple"`
	Wrappers []*Unit `json:"wrappers"`
}

// Node 布局中的成员节点
type Node struct {
	model.Person
	IsRoot bool `json:"is_root"`
}

// Persons 布局中按输出顺序排列的成员ID
func (l *Layout) Persons() []uint {
	ids := make([]uint, 0)
	if l.Level == nil {
		return ids
	}
	for _, u := range l.Level.Units {
		ids = u.collect(ids)
	}
	return ids
}

func (u *Unit) collect(ids []uint) []uint {
	if u.Couple.Husband != nil {
		ids = append(ids, u.Couple.Husband.ID)
	}
	if u.Couple.Wife != nil {
		ids = append(ids, u.Couple.Wife.ID)
	}
	if u.Children != nil {
		for _, w := range u.Children.Wrappers {
			ids = w.collect(ids)
		}
	}
	return ids
}

// couple 分组时的夫妻，尚未输出
type couple struct {
	husband *model.Person
	wife    *model.Person
}

// builder 构建状态：成员索引与全局已输出集合
type builder struct {
	people   []model.Person
	byID     map[uint]*model.Person
	rendered map[uint]bool
	rootID   uint
}

// Build 构建家谱布局，rootID 非空时标记根成员
func Build(people []model.Person, rootID *uint) *Layout {
	b := &builder{
		people:   people,
		byID:     make(map[uint]*model.Person, len(people)),
		rendered: make(map[uint]bool, len(people)),
	}
	for i := range people {
		b.byID[people[i].ID] = &people[i]
	}
	if rootID != nil {
		b.rootID = *rootID
	}

	layout := &Layout{RootID: rootID, UnrenderedIDs: make([]uint, 0)}
	if len(people) == 0 {
		return layout
	}

	// 最早世代作为起点
	rootGen := people[0].Generation
	for _, p := range people[1:] {
		if p.Generation < rootGen {
			rootGen = p.Generation
		}
	}
	roots := make([]*model.Person, 0)
	for i := range people {
		if people[i].Generation == rootGen {
			roots = append(roots, &people[i])
		}
	}

	level := &Level{Generation: rootGen, Units: make([]*Unit, 0)}
	for _, c := range b.groupCouples(roots) {
		level.Units = append(level.Units, b.render(c))
	}
	layout.RootGeneration = rootGen
	layout.Level = level

	for _, p := range people {
		if !b.rendered[p.ID] {
			layout.UnrenderedIDs = append(layout.UnrenderedIDs, p.ID)
		}
	}
	return layout
}

// groupCouples 将一批成员按夫妻分组，配偶可以不在本批次中
func (b *builder) groupCouples(batch []*model.Person) []couple {
	couples := make([]couple, 0, len(batch))
	processed := make(map[uint]bool, len(batch))

	for _, p := range batch {
		if processed[p.ID] || b.rendered[p.ID] {
			continue
		}
		spouse := b.spouseOf(p)
		c := b.pair(p, spouse)
		if spouse != nil {
			processed[spouse.ID] = true
		}
		processed[p.ID] = true
		couples = append(couples, c)
	}
	return couples
}

// pair 男性放在丈夫位，其余放在妻子位，配偶占另一位
func (b *builder) pair(p, spouse *model.Person) couple {
	if p.IsMale() {
		return couple{husband: p, wife: spouse}
	}
	return couple{husband: spouse, wife: p}
}

// render 输出夫妻并递归输出子女
func (b *builder) render(c couple) *Unit {
	children := b.childrenOf(c)

	unit := &Unit{Couple: Couple{Class: ClassNoChildren}}
	if len(children) > 0 {
		unit.Couple.Class = ClassHasChildren
	}
	unit.Couple.Husband = b.emit(c.husband)
	unit.Couple.Wife = b.emit(c.wife)

	if len(children) == 0 {
		return unit
	}

	container := &ChildrenContainer{Multiple: len(children) > 1, Wrappers: make([]*Unit, 0, len(children))}
	for _, child := range children {
		// 轮到该子女时再检查，之前的递归可能已经输出过
		if b.rendered[child.ID] {
			continue
		}
		container.Wrappers = append(container.Wrappers, b.render(b.pair(child, b.spouseOf(child))))
	}
	unit.Children = container
	return unit
}

// emit 每个成员全局只输出一次
func (b *builder) emit(p *model.Person) *Node {
	if p == nil || b.rendered[p.ID] {
		return nil
	}
	b.rendered[p.ID] = true
	return &Node{Person: *p, IsRoot: b.rootID != 0 && p.ID == b.rootID}
}

func (b *builder) spouseOf(p *model.Person) *model.Person {
	if p.SpouseID == nil {
		return nil
	}
	return b.byID[*p.SpouseID]
}

// childrenOf 父亲或母亲为夫妻任一方的成员
func (b *builder) childrenOf(c couple) []*model.Person {
	children := make([]*model.Person, 0)
	for i := range b.people {
		p := &b.people[i]
		if (c.husband != nil && p.IsChildOf(c.husband.ID)) || (c.wife != nil && p.IsChildOf(c.wife.ID)) {
			children = append(children, p)
		}
	}
	return children
}
