package api

import (
	"Inkwell/internal/api/config"
	"Inkwell/internal/api/middleware"
	"Inkwell/internal/pkg/consts"
	"Inkwell/internal/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRouter(group *HandlersGroup, serverCfg config.ServerConfig, logCfg config.LogConfig) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"localhost"})
	r.MaxMultipartMemory = consts.MaxImageSize

	// TraceId & 资源 ID & Logger & CORS
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.AuditMiddleware())
	r.Use(middleware.CORSMiddleware(serverCfg.AllowOrigins))
	logger.SetupGin(r, logCfg.Index, logCfg.Token)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"code":    200,
				"message": "pong",
				"data":    nil,
			})
		})

		authGroup := apiGroup.Group("")
		authGroup.Use(middleware.AuthMiddleware())

		authGroup.GET("/dashboard/summary", group.PostHandler.Summary)

		postGroup := authGroup.Group("/posts")
		{
			postGroup.GET("", group.PostHandler.ListPosts)
			postGroup.GET("/:post_id", group.PostHandler.GetPost)
			postGroup.DELETE("/:post_id", group.PostHandler.DeletePost)
			postGroup.PUT("/:post_id/publish", group.PostHandler.SetPublishState)
			postGroup.GET("/:post_id/tags", group.PostHandler.ListPostTags)
			postGroup.PUT("/:post_id/tags", group.PostHandler.ReplacePostTags)
			postGroup.POST("/:post_id/draft", group.DraftHandler.OpenPost)
		}

		tagGroup := authGroup.Group("/tags")
		{
			tagGroup.GET("", group.TagHandler.ListTags)
			tagGroup.POST("", group.TagHandler.CreateTag)

			// 需要 admin 角色
			tagGroup.DELETE("/:tag_id", middleware.CheckRoles(consts.RoleAdmin), group.TagHandler.DeleteTag)
		}

		categoryGroup := authGroup.Group("/categories")
		{
			categoryGroup.GET("", group.CategoryHandler.ListCategories)
			categoryGroup.POST("", middleware.CheckRoles(consts.RoleAdmin), group.CategoryHandler.CreateCategory)
		}

		draftGroup := authGroup.Group("/drafts")
		{
			draftGroup.POST("", group.DraftHandler.OpenNew)
			draftGroup.GET("/:draft_id", group.DraftHandler.Get)
			draftGroup.PATCH("/:draft_id", group.DraftHandler.Patch)
			draftGroup.DELETE("/:draft_id", group.DraftHandler.Discard)
			draftGroup.GET("/:draft_id/tags/search", group.DraftHandler.SearchTags)
			draftGroup.POST("/:draft_id/tags/:tag_id", group.DraftHandler.AddTag)
			draftGroup.DELETE("/:draft_id/tags/:tag_id", group.DraftHandler.RemoveTag)
			draftGroup.POST("/:draft_id/editor", group.DraftHandler.Exec)
			draftGroup.POST("/:draft_id/editor/image", group.DraftHandler.UploadImage)
			draftGroup.PUT("/:draft_id/publish", group.DraftHandler.TogglePublish)
			draftGroup.POST("/:draft_id/submit", group.DraftHandler.Submit)
		}
	}

	return r
}
