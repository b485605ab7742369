package tree

import "familytree_go/internal/model"

// DefaultDepth 默认遍历深度
const DefaultDepth = 3

// walker 遍历状态
type walker struct {
	byID     map[uint]*model.Person
	children map[uint][]uint
	visited  map[uint]bool
	out      []model.Person
}

// Traverse 从 rootID 出发收集相连的成员。
//
// depth 只限制向祖先方向的步数：访问父母消耗一层，访问子女恢复一层，
// 配偶保持当前层数。因此后代方向实际上不受限制。
// rootID 不在 people 中时返回空列表。
func Traverse(people []model.Person, rootID uint, depth int) []model.Person {
	w := &walker{
		byID:     make(map[uint]*model.Person, len(people)),
		children: make(map[uint][]uint),
		visited:  make(map[uint]bool),
		out:      make([]model.Person, 0),
	}
	for i := range people {
		p := &people[i]
		w.byID[p.ID] = p
		if p.FatherID != nil {
			w.children[*p.FatherID] = append(w.children[*p.FatherID], p.ID)
		}
		if p.MotherID != nil && (p.FatherID == nil || *p.MotherID != *p.FatherID) {
			w.children[*p.MotherID] = append(w.children[*p.MotherID], p.ID)
		}
	}

	w.visit(rootID, depth)
	return w.out
}

func (w *walker) visit(id uint, budget int) {
	if w.visited[id] {
		return
	}
	p, ok := w.byID[id]
	if !ok {
		return
	}
	w.visited[id] = true
	w.out = append(w.out, *p)

	// 父母
	if budget > 0 {
		if p.FatherID != nil {
			w.visit(*p.FatherID, budget-1)
		}
		if p.MotherID != nil {
			w.visit(*p.MotherID, budget-1)
		}
	}

	// 子女
	for _, child := range w.children[id] {
		w.visit(child, budget+1)
	}

	// 配偶
	if p.SpouseID != nil {
		w.visit(*p.SpouseID, budget)
	}
}
