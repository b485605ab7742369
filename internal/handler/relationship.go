package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"familytree_go/internal/model"
)

// ListRelationships GET /relations
func (h *Handler) ListRelationships(c *gin.Context) {
	rels, err := h.relations.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	list(c, rels, nil)
}

// RelationshipStats GET /relations/stats
func (h *Handler) RelationshipStats(c *gin.Context) {
	stats, err := h.relations.Statistics(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	success(c, http.StatusOK, gin.H{"data": stats})
}

// PersonRelationships GET /relations/person/:id
func (h *Handler) PersonRelationships(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	rels, err := h.relations.ByPerson(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	list(c, rels, nil)
}

// RelatedPersons GET /relations/person/:id/detailed
func (h *Handler) RelatedPersons(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	related, err := h.relations.Related(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	list(c, related, nil)
}

// PersonRelationshipsByType GET /relations/person/:id/type/:type
func (h *Handler) PersonRelationshipsByType(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	relType := model.RelationshipType(c.Param("type"))
	rels, err := h.relations.ByType(c.Request.Context(), id, relType)
	if err != nil {
		h.fail(c, err)
		return
	}
	list(c, rels, gin.H{"relationship_type": relType})
}

// CreateRelationship POST /relations
func (h *Handler) CreateRelationship(c *gin.Context) {
	var input model.RelationshipInput
	if err := bindJSON(c, &input); err != nil {
		h.fail(c, err)
		return
	}
	rel, err := h.relations.Create(c.Request.Context(), &input)
	if err != nil {
		h.fail(c, err)
		return
	}
	success(c, http.StatusCreated, gin.H{"message": "relationship created", "data": rel})
}

// CreateParentChild POST /relations/parent-child
func (h *Handler) CreateParentChild(c *gin.Context) {
	var input model.PairInput
	if err := bindJSON(c, &input); err != nil {
		h.fail(c, err)
		return
	}
	rels, err := h.relations.CreateParentChild(c.Request.Context(), input.ParentID, input.ChildID)
	if err != nil {
		h.fail(c, err)
		return
	}
	success(c, http.StatusCreated, gin.H{"message": "parent-child relationship created", "data": rels})
}

// CreateSibling POST /relations/sibling
func (h *Handler) CreateSibling(c *gin.Context) {
	var input model.PairInput
	if err := bindJSON(c, &input); err != nil {
		h.fail(c, err)
		return
	}
	rels, err := h.relations.CreateSibling(c.Request.Context(), input.PersonID1, input.PersonID2)
	if err != nil {
		h.fail(c, err)
		return
	}
	success(c, http.StatusCreated, gin.H{"message": "sibling relationship created", "data": rels})
}

// CreateSpouseRelationship POST /relations/spouse
func (h *Handler) CreateSpouseRelationship(c *gin.Context) {
	var input model.PairInput
	if err := bindJSON(c, &input); err != nil {
		h.fail(c, err)
		return
	}
	rels, err := h.relations.CreateSpouse(c.Request.Context(), input.PersonID1, input.PersonID2)
	if err != nil {
		h.fail(c, err)
		return
	}
	success(c, http.StatusCreated, gin.H{"message": "spouse relationship created", "data": rels})
}

// DeleteRelationship DELETE /relations/:id
func (h *Handler) DeleteRelationship(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.relations.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	success(c, http.StatusOK, gin.H{"message": "relationship deleted"})
}

// DeleteRelationshipByDetails DELETE /relations
func (h *Handler) DeleteRelationshipByDetails(c *gin.Context) {
	var input model.RelationshipInput
	if err := bindJSON(c, &input); err != nil {
		h.fail(c, err)
		return
	}
	if err := h.relations.DeleteByDetails(c.Request.Context(), &input); err != nil {
		h.fail(c, err)
		return
	}
	success(c, http.StatusOK, gin.H{"message": "relationship deleted"})
}

// DeletePersonRelationships DELETE /relations/person/:id
func (h *Handler) DeletePersonRelationships(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	n, err := h.relations.DeleteByPerson(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	success(c, http.StatusOK, gin.H{"message": "relationships deleted", "count": n})
}
