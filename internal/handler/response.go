package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"familytree_go/internal/model"
	"familytree_go/internal/service"
)

// success 成功响应
func success(c *gin.Context, status int, body gin.H) {
	if body == nil {
		body = gin.H{}
	}
	body["success"] = true
	c.JSON(status, body)
}

// list 列表响应，附带数量
func list[T any](c *gin.Context, items []T, extra gin.H) {
	body := gin.H{"count": len(items), "data": items}
	for k, v := range extra {
		body[k] = v
	}
	success(c, http.StatusOK, body)
}

// fail 错误响应，服务端错误记录日志
func (h *Handler) fail(c *gin.Context, err error) {
	appErr := service.AsAppError(err)
	status := appErr.HTTPStatus()
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Any("context", appErr.Context),
			zap.Error(err),
		)
	} else if len(appErr.Context) > 0 {
		h.log.Debug("request rejected",
			zap.String("path", c.FullPath()),
			zap.Int("status", status),
			zap.Any("context", appErr.Context),
		)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": appErr.Public()})
}

// bindJSON 解析请求体
func bindJSON(c *gin.Context, dst interface{}) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return service.NewError(service.ErrValidation, "invalid request body", err)
	}
	return nil
}

// paramID 路径中的正整数ID
func paramID(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, service.ValidationError("invalid " + name)
	}
	return uint(id), nil
}

// queryID 可选的ID查询参数
func queryID(c *gin.Context, name string) (*uint, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return nil, service.ValidationError("invalid " + name)
	}
	v := uint(id)
	return &v, nil
}

// queryInt 可选的整数查询参数
func queryInt(c *gin.Context, name string) (*int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, service.ValidationError("invalid " + name)
	}
	return &n, nil
}

// queryDepth 遍历深度，缺省使用def
func queryDepth(c *gin.Context, def int) (int, error) {
	depth, err := queryInt(c, "depth")
	if err != nil {
		return 0, err
	}
	if depth == nil {
		return def, nil
	}
	if *depth < 0 {
		return 0, service.ValidationError("depth must not be negative")
	}
	return *depth, nil
}

// personFilter 成员列表的查询条件
func personFilter(c *gin.Context) (model.PersonFilter, error) {
	var (
		filter model.PersonFilter
		err    error
	)
	if filter.FamilyTreeID, err = queryID(c, "family_tree_id"); err != nil {
		return filter, err
	}
	if filter.Generation, err = queryInt(c, "generation"); err != nil {
		return filter, err
	}
	if raw, ok := c.GetQuery("is_alive"); ok {
		alive := raw == "true" || raw == "1"
		filter.IsAlive = &alive
	}
	if raw := strings.TrimSpace(c.Query("gender")); raw != "" {
		gender := model.Gender(raw)
		filter.Gender = &gender
	}
	filter.Search = c.Query("search")
	return filter, nil
}
