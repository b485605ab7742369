package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"familytree_go/internal/service"
	"familytree_go/internal/tree"
)

// TreeData GET /tree
func (h *Handler) TreeData(c *gin.Context) {
	treeID, err := queryID(c, "family_tree_id")
	if err != nil {
		h.fail(c, err)
		return
	}
	data, err := h.views.TreeData(c.Request.Context(), treeID)
	if err != nil {
		h.fail(c, err)
		return
	}
	list(c, data, nil)
}

// TreeLayout GET /tree/layout
func (h *Handler) TreeLayout(c *gin.Context) {
	treeID, err := queryID(c, "family_tree_id")
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
	layout, err := h.views.Layout(c.Request.Context(), treeID, rootID, depth)
	if err != nil {
		h.fail(c, err)
		return
	}
	success(c, http.StatusOK, gin.H{"data": layout})
}

// Subgraph GET /tree/:id
func (h *Handler) Subgraph(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	depth, err := queryDepth(c, tree.DefaultDepth)
	if err != nil {
		h.fail(c, err)
		return
	}
	people, err := h.views.Subgraph(c.Request.Context(), id, depth)
	if err != nil {
		h.fail(c, err)
		return
	}
	list(c, people, gin.H{"root_id": id, "depth": depth})
}

// Generation GET /tree/generation/:gen
func (h *Handler) Generation(c *gin.Context) {
	gen, err := strconv.Atoi(c.Param("gen"))
	if err != nil {
		h.fail(c, service.ValidationError("invalid gen"))
		return
	}
	treeID, err := queryID(c, "family_tree_id")
	if err != nil {
		h.fail(c, err)
		return
	}
	people, err := h.views.Generation(c.Request.Context(), gen, treeID)
	if err != nil {
		h.fail(c, err)
		return
	}
	list(c, people, gin.H{"generation": gen})
}
