package wire

import (
	"Inkwell/internal/api"
	"Inkwell/internal/api/config"
	"Inkwell/internal/api/handler"
	"Inkwell/internal/pkg/editor"
	"Inkwell/internal/pkg/kafka"
	"Inkwell/internal/pkg/minio"
	"Inkwell/internal/repository"
	"Inkwell/internal/service"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router    *gin.Engine
	DB        *gorm.DB
	Publisher kafka.PostEventPublisher
}

// Infra 外部依赖，Redis / MinIO 可以为空
type Infra struct {
	DB        *gorm.DB
	Redis     *redis.Client
	Storage   *minio.Storage
	Publisher kafka.PostEventPublisher
}

func BuildApplication(infra Infra, cfg *config.Config) (*ApplicationContainer, error) {
	postRepo := repository.NewPostRepository(infra.DB)
	postTagRepo := repository.NewPostTagRepository(infra.DB)
	tagRepo := repository.NewTagRepository(infra.DB)
	categoryRepo := repository.NewCategoryRepository(infra.DB)

	var draftRepo repository.DraftRepo
	if infra.Redis != nil {
		draftRepo = repository.NewDraftRepository(infra.Redis)
	} else {
		draftRepo = repository.NewMemoryDraftRepository()
	}

	// 未配置对象存储时上传返回 ErrUpload
	var uploader editor.Uploader
	imagePrefix := ""
	if infra.Storage != nil {
		uploader = infra.Storage
		imagePrefix = infra.Storage.PathPrefix()
	}

	postService := service.NewPostService(postRepo, postTagRepo, categoryRepo, infra.Publisher)
	tagService := service.NewTagService(tagRepo)
	categoryService := service.NewCategoryService(categoryRepo)
	draftService := service.NewDraftService(
		draftRepo,
		postService,
		tagService,
		uploader,
		service.NewSubmitGuard(time.Duration(cfg.Draft.SubmitLock)*time.Second),
		service.DraftOptions{
			TTL:         time.Duration(cfg.Draft.TTL) * time.Minute,
			HistorySize: cfg.Draft.HistorySize,
			ImagePrefix: imagePrefix,
		},
	)

	handlers := &api.HandlersGroup{
		PostHandler:     handler.NewPostHandler(postService),
		TagHandler:      handler.NewTagHandler(tagService),
		CategoryHandler: handler.NewCategoryHandler(categoryService),
		DraftHandler:    handler.NewDraftHandler(draftService),
	}

	router := api.SetupRouter(handlers, cfg.Server, cfg.Log)

	return &ApplicationContainer{
		Router:    router,
		DB:        infra.DB,
		Publisher: infra.Publisher,
	}, nil
}
