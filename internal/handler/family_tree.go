package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"familytree_go/internal/model"
	"familytree_go/internal/tree"
)

// ListFamilyTrees GET /familytrees
func (h *Handler) ListFamilyTrees(c *gin.Context) {
	trees, err := h.trees.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	list(c, trees, nil)
}

// GetFamilyTree GET /familytrees/:id
func (h *Handler) GetFamilyTree(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	ft, err := h.trees.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	success(c, http.StatusOK, gin.H{"data": ft})
}

// CreateFamilyTree POST /familytrees
func (h *Handler) CreateFamilyTree(c *gin.Context) {
	var input model.FamilyTreeInput
	if err := bindJSON(c, &input); err != nil {
		h.fail(c, err)
		return
	}
	ft, err := h.trees.Create(c.Request.Context(), &input)
	if err != nil {
		h.fail(c, err)
		return
	}
	success(c, http.StatusCreated, gin.H{"message": "family tree created", "data": ft})
}

// UpdateFamilyTree PUT /familytrees/:id
func (h *Handler) UpdateFamilyTree(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	var patch model.FamilyTreePatch
	if err := bindJSON(c, &patch); err != nil {
		h.fail(c, err)
		return
	}
	ft, err := h.trees.Update(c.Request.Context(), id, &patch)
	if err != nil {
		h.fail(c, err)
		return
	}
	success(c, http.StatusOK, gin.H{"message": "family tree updated", "data": ft})
}

// DeleteFamilyTree DELETE /familytrees/:id
func (h *Handler) DeleteFamilyTree(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.trees.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	success(c, http.StatusOK, gin.H{"message": "family tree deleted"})
}

// FamilyTreeMembers GET /familytrees/:id/members
func (h *Handler) FamilyTreeMembers(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	filter, err := personFilter(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	members, err := h.trees.Members(c.Request.Context(), id, filter)
	if err != nil {
		h.fail(c, err)
		return
	}
	list(c, members, nil)
}

// FamilyTreeStatistics GET /familytrees/:id/statistics
func (h *Handler) FamilyTreeStatistics(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	stats, err := h.trees.Statistics(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	success(c, http.StatusOK, gin.H{"data": stats})
}

// FamilyTreeData GET /familytrees/:id/tree
func (h *Handler) FamilyTreeData(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	if _, err := h.trees.Get(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	data, err := h.views.TreeData(c.Request.Context(), &id)
	if err != nil {
		h.fail(c, err)
		return
	}
	list(c, data, gin.H{"family_tree_id": id})
}

// FamilyTreeLayout GET /familytrees/:id/layout
func (h *Handler) FamilyTreeLayout(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	rootID, err := queryID(c, "root_id")
	if err != nil {
		h.fail(c, err)
		return
	}
	depth, err := queryDepth(c, tree.DefaultDepth)
	if err != nil {
		h.fail(c, err)
		return
	}
	if _, err := h.trees.Get(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	layout, err := h.views.Layout(c.Request.Context(), &id, rootID, depth)
	if err != nil {
		h.fail(c, err)
		return
	}
	success(c, http.StatusOK, gin.H{"data": layout})
}

// CloneFamilyTree POST /familytrees/:id/clone
func (h *Handler) CloneFamilyTree(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	var req model.CloneRequest
	if c.Request.ContentLength != 0 {
		if err := bindJSON(c, &req); err != nil {
			h.fail(c, err)
			return
		}
	}
	ft, err := h.trees.Clone(c.Request.Context(), id, req.Name)
	if err != nil {
		h.fail(c, err)
		return
	}
	success(c, http.StatusCreated, gin.H{"message": "family tree cloned", "data": ft})
}
