// Package handler 提供 /api 下的 REST 接口
package handler

import (
	"time"

	"go.uber.org/zap"

	"familytree_go/internal/service"
)

// Handler 聚合各业务服务的HTTP处理器
type Handler struct {
	persons   *service.PersonService
	trees     *service.FamilyTreeService
	relations *service.RelationshipService
	views     *service.TreeService
	uploads   *service.UploadService
	log       *zap.Logger
	started   time.Time
}

// Services 处理器依赖的服务
type Services struct {
	Persons   *service.PersonService
	Trees     *service.FamilyTreeService
	Relations *service.RelationshipService
	Views     *service.TreeService
	Uploads   *service.UploadService
}

// New 创建处理器
func New(s Services, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		persons:   s.Persons,
		trees:     s.Trees,
		relations: s.Relations,
		views:     s.Views,
		uploads:   s.Uploads,
		log:       log,
		started:   time.Now(),
	}
}
