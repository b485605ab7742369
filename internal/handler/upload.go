package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"familytree_go/internal/service"
)

// UploadPhoto POST /upload，表单字段photo
func (h *Handler) UploadPhoto(c *gin.Context) {
	file, err := c.FormFile("photo")
	if err != nil {
		h.fail(c, service.ValidationError("no file uploaded"))
		return
	}
	uploaded, err := h.uploads.UploadFile(file)
	if err != nil {
		h.fail(c, err)
		return
	}
	success(c, http.StatusOK, gin.H{"message": "file uploaded", "data": uploaded})
}

// UploadPhotos POST /upload/multiple，表单字段photos
func (h *Handler) UploadPhotos(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil || len(form.File["photos"]) == 0 {
		h.fail(c, service.ValidationError("no files uploaded"))
		return
	}
	files, err := h.uploads.UploadFiles(form.File["photos"])
	if err != nil {
		h.fail(c, err)
		return
	}
	success(c, http.StatusOK, gin.H{
		"message": fmt.Sprintf("%d files uploaded", len(files)),
		"count":   len(files),
		"data":    files,
	})
}

// ListUploads GET /upload/list
func (h *Handler) ListUploads(c *gin.Context) {
	files, err := h.uploads.List()
	if err != nil {
		h.fail(c, err)
		return
	}
	list(c, files, nil)
}

// DeleteUpload DELETE /upload/:filename
func (h *Handler) DeleteUpload(c *gin.Context) {
	if err := h.uploads.DeleteFile(c.Param("filename")); err != nil {
		h.fail(c, err)
		return
	}
	success(c, http.StatusOK, gin.H{"message": "file deleted"})
}
