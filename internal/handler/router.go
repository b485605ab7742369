package handler

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"familytree_go/internal/middleware"
	"familytree_go/internal/service"
)

// RouterOptions 路由依赖的横切组件，均可为空
type RouterOptions struct {
	Auth        *service.Auth
	Limiter     service.Limiter
	Metrics     *service.Metrics
	Gatherer    prometheus.Gatherer
	ServiceName string
	Tracing     bool
	UploadDir   string
	StaticDir   string
}

// NewRouter 创建gin引擎并注册全部路由
func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(h.log), middleware.RequestLogger(h.log))
	if opts.Tracing {
		r.Use(otelgin.Middleware(opts.ServiceName))
	}
	if opts.Metrics != nil {
		r.Use(middleware.Metrics(opts.Metrics))
	}
	if opts.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}
	if opts.UploadDir != "" {
		r.Static("/uploads", opts.UploadDir)
	}

	api := r.Group("/api")
	if opts.Limiter != nil {
		api.Use(middleware.RateLimit(opts.Limiter, opts.Metrics, h.log))
	}
	SetupRoutes(api, h, middleware.AuthMiddleware(opts.Auth))

	r.NoRoute(noRoute(opts.StaticDir))
	return r
}

// SetupRoutes 注册 /api 下的路由，写操作经过auth
func SetupRoutes(api *gin.RouterGroup, h *Handler, auth gin.HandlerFunc) {
	api.GET("/health", h.Health)

	persons := api.Group("/persons")
	{
		persons.GET("", h.ListPersons)
		persons.GET("/stats", h.PersonStats)
		persons.GET("/:id", h.GetPerson)
		persons.GET("/:id/family", h.GetFamily)
		persons.POST("", auth, h.CreatePerson)
		persons.PUT("/:id", auth, h.UpdatePerson)
		persons.DELETE("/:id", auth, h.DeletePerson)
		persons.POST("/:id/spouse", auth, h.SetSpouse)
		persons.DELETE("/:id/spouse", auth, h.RemoveSpouse)
		persons.POST("/:id/parents", auth, h.SetParents)
	}

	trees := api.Group("/familytrees")
	{
		trees.GET("", h.ListFamilyTrees)
		trees.GET("/:id", h.GetFamilyTree)
		trees.GET("/:id/members", h.FamilyTreeMembers)
		trees.GET("/:id/statistics", h.FamilyTreeStatistics)
		trees.GET("/:id/tree", h.FamilyTreeData)
		trees.GET("/:id/layout", h.FamilyTreeLayout)
		trees.POST("", auth, h.CreateFamilyTree)
		trees.PUT("/:id", auth, h.UpdateFamilyTree)
		trees.DELETE("/:id", auth, h.DeleteFamilyTree)
		trees.POST("/:id/clone", auth, h.CloneFamilyTree)
	}

	relations := api.Group("/relations")
	{
		relations.GET("", h.ListRelationships)
		relations.GET("/stats", h.RelationshipStats)
		relations.GET("/person/:id", h.PersonRelationships)
		relations.GET("/person/:id/detailed", h.RelatedPersons)
		relations.GET("/person/:id/type/:type", h.PersonRelationshipsByType)
		relations.POST("", auth, h.CreateRelationship)
		relations.POST("/parent-child", auth, h.CreateParentChild)
		relations.POST("/sibling", auth, h.CreateSibling)
		relations.POST("/spouse", auth, h.CreateSpouseRelationship)
		relations.DELETE("", auth, h.DeleteRelationshipByDetails)
		relations.DELETE("/:id", auth, h.DeleteRelationship)
		relations.DELETE("/person/:id", auth, h.DeletePersonRelationships)
	}

	tree := api.Group("/tree")
	{
		tree.GET("", h.TreeData)
		tree.GET("/layout", h.TreeLayout)
		tree.GET("/generation/:gen", h.Generation)
		tree.GET("/:id", h.Subgraph)
	}

	upload := api.Group("/upload")
	{
		upload.GET("/list", h.ListUploads)
		upload.POST("", auth, h.UploadPhoto)
		upload.POST("/multiple", auth, h.UploadPhotos)
		upload.DELETE("/:filename", auth, h.DeleteUpload)
	}
}

// noRoute 接口返回JSON 404，其余路径尝试静态页面
func noRoute(staticDir string) gin.HandlerFunc {
	var files http.Handler
	if staticDir != "" {
		if info, err := os.Stat(staticDir); err == nil && info.IsDir() {
			files = http.FileServer(http.Dir(staticDir))
		}
	}
	return func(c *gin.Context) {
		if files == nil || strings.HasPrefix(c.Request.URL.Path, "/api/") || c.Request.Method != http.MethodGet {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "route not found"})
			return
		}
		files.ServeHTTP(c.Writer, c.Request)
	}
}
