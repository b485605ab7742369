package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"familytree_go/internal/model"
)

// ListPersons GET /persons
func (h *Handler) ListPersons(c *gin.Context) {
	filter, err := personFilter(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	persons, err := h.persons.List(c.Request.Context(), filter)
	if err != nil {
		h.fail(c, err)
		return
	}
	list(c, persons, nil)
}

// PersonStats GET /persons/stats
func (h *Handler) PersonStats(c *gin.Context) {
	treeID, err := queryID(c, "family_tree_id")
	if err != nil {
		h.fail(c, err)
		return
	}
	stats, err := h.persons.Statistics(c.Request.Context(), treeID)
	if err != nil {
		h.fail(c, err)
		return
	}
	success(c, http.StatusOK, gin.H{"data": stats})
}

// GetPerson GET /persons/:id
func (h *Handler) GetPerson(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	person, err := h.persons.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	success(c, http.StatusOK, gin.H{"data": person})
}

// GetFamily GET /persons/:id/family
func (h *Handler) GetFamily(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	family, err := h.persons.Family(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	success(c, http.StatusOK, gin.H{"data": family})
}

// CreatePerson POST /persons
func (h *Handler) CreatePerson(c *gin.Context) {
	var input model.PersonInput
	if err := bindJSON(c, &input); err != nil {
		h.fail(c, err)
		return
	}
	person, err := h.persons.Create(c.Request.Context(), &input)
	if err != nil {
		h.fail(c, err)
		return
	}
	success(c, http.StatusCreated, gin.H{"message": "person created", "data": person})
}

// UpdatePerson PUT /persons/:id
func (h *Handler) UpdatePerson(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	var patch model.PersonPatch
	if err := bindJSON(c, &patch); err != nil {
		h.fail(c, err)
		return
	}
	person, err := h.persons.Update(c.Request.Context(), id, &patch)
	if err != nil {
		h.fail(c, err)
		return
	}
	success(c, http.StatusOK, gin.H{"message": "person updated", "data": person})
}

// DeletePerson DELETE /persons/:id
func (h *Handler) DeletePerson(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.persons.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	success(c, http.StatusOK, gin.H{"message": "person deleted"})
}

type spouseRequest struct {
	SpouseID uint `json:"spouse_id"`
}

// SetSpouse POST /persons/:id/spouse
func (h *Handler) SetSpouse(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	var req spouseRequest
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	person, err := h.persons.SetSpouse(c.Request.Context(), id, req.SpouseID)
	if err != nil {
		h.fail(c, err)
		return
	}
	success(c, http.StatusOK, gin.H{"message": "spouse set", "data": person})
}

// RemoveSpouse DELETE /persons/:id/spouse
func (h *Handler) RemoveSpouse(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	person, err := h.persons.RemoveSpouse(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	success(c, http.StatusOK, gin.H{"message": "spouse removed", "data": person})
}

// SetParents POST /persons/:id/parents
func (h *Handler) SetParents(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	var patch model.ParentsPatch
	if err := bindJSON(c, &patch); err != nil {
		h.fail(c, err)
		return
	}
	person, err := h.persons.SetParents(c.Request.Context(), id, &patch)
	if err != nil {
		h.fail(c, err)
		return
	}
	success(c, http.StatusOK, gin.H{"message": "parents set", "data": person})
}
