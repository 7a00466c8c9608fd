package cli

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/lshigami/examhub/config"
	"github.com/lshigami/examhub/database"
	_ "github.com/lshigami/examhub/docs"
	adminctrl "github.com/lshigami/examhub/internal/controller/admin"
	userctrl "github.com/lshigami/examhub/internal/controller/user"
	"github.com/lshigami/examhub/internal/cache"
	"github.com/lshigami/examhub/internal/repository"
	"github.com/lshigami/examhub/internal/service"
	"github.com/lshigami/examhub/internal/storage"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run migrations and start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			app := fx.New(
				fx.Supply(cfg),
				coreModule,
				fx.Provide(
					adminctrl.NewAdminExamController,
					adminctrl.NewImportController,
					adminctrl.NewQuestionController,
					adminctrl.NewGradingController,
					userctrl.NewUserTestController,
					NewGinEngine,
				),
				fx.Invoke(database.AutoMigrate),
				fx.Invoke(RegisterRoutesAndStartServer),
			)
			if err := app.Start(cmd.Context()); err != nil {
				log.Error().Err(err).Msg("Failed to start application")
				return err
			}
			<-app.Done()
			log.Info().Msg("Application shutting down gracefully...")
			stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			return app.Stop(stopCtx)
		},
	}
}

// coreModule provides everything below the HTTP layer.
var coreModule = fx.Options(
	fx.Provide(
		database.NewDatabase,
		repository.NewStore,
		NewRedisClient,
		NewAnswerKeyStore,
		storage.NewOsMediaStore,
		func(m *storage.MediaStore) service.MediaStorage { return m },
		func(m *storage.MediaStore) service.MediaReader { return m },
	),
	fx.Provide(
		service.NewScoreConverterService,
		service.NewImportService,
		service.NewExamAssemblyService,
		service.NewStructureService,
		service.NewQuestionBankService,
		service.NewTestSubmissionService,
		service.NewUserTestService,
		service.NewGeminiLLMService,
		service.NewGradingService,
	),
)

// NewRedisClient returns nil when REDIS_ADDR is empty; answer keys then stay in memory.
func NewRedisClient(lc fx.Lifecycle, cfg *config.Config) *redis.Client {
	if cfg.Redis.Addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		},
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
	return client
}

func NewAnswerKeyStore(cfg *config.Config, store repository.Store, client *redis.Client) cache.AnswerKeyStore {
	loader := cache.NewExamLoader(store.Repos().Exams)
	if client != nil {
		log.Info().Str("addr", cfg.Redis.Addr).Dur("ttl", cfg.AnswerKeyTTL).Msg("Answer keys cached in Redis")
		return cache.NewRedisStore(client, loader, cfg.AnswerKeyTTL)
	}
	log.Info().Dur("ttl", cfg.AnswerKeyTTL).Msg("Answer keys cached in process memory")
	return cache.NewMemoryStore(loader, cfg.AnswerKeyTTL)
}

func NewGinEngine(cfg *config.Config) *gin.Engine {
	if cfg.Server.GinMode != "" {
		gin.SetMode(cfg.Server.GinMode)
	}

	r := gin.New()
	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		log.Info().
			Str("client_ip", param.ClientIP).
			Str("method", param.Method).
			Str("path", param.Path).
			Int("status_code", param.StatusCode).
			Dur("latency", param.Latency).
			Str("user_agent", param.Request.UserAgent()).
			Str("error_message", param.ErrorMessage).
			Msg("gin_request")
		return ""
	}))
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "Location"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// URL: http://localhost:PORT/swagger/index.html
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	return r
}

// RegisterRoutesAndStartServer configures API routes and manages server lifecycle.
func RegisterRoutesAndStartServer(
	lc fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	db *gorm.DB,
	media *storage.MediaStore,
	examCtrl *adminctrl.AdminExamController,
	importCtrl *adminctrl.ImportController,
	questionCtrl *adminctrl.QuestionController,
	gradingCtrl *adminctrl.GradingController,
	userCtrl *userctrl.UserTestController,
) {
	router.StaticFS(media.URLPrefix(), media.HTTPFs())

	adminAPIGroup := router.Group("/api/v1/admin")
	{
		imports := adminAPIGroup.Group("/imports")
		imports.POST("", importCtrl.ImportQuestions)
		imports.GET("/template/:type", importCtrl.DownloadTemplate)
		imports.GET("/logs", importCtrl.ListImportLogs)

		questions := adminAPIGroup.Group("/questions")
		questions.GET("", questionCtrl.ListQuestions)
		questions.GET("/:question_id", questionCtrl.GetQuestion)
		questions.DELETE("/:question_id", questionCtrl.DeleteQuestion)
		adminAPIGroup.GET("/resources/:type/:resource_id/questions", questionCtrl.ResourceQuestions)
		adminAPIGroup.DELETE("/resources/:type/:resource_id", questionCtrl.DeleteResource)

		structures := adminAPIGroup.Group("/structures")
		structures.POST("", examCtrl.CreateStructure)
		structures.GET("", examCtrl.ListStructures)
		structures.POST("/yaml", examCtrl.LoadStructures)

		exams := adminAPIGroup.Group("/exams")
		exams.POST("", examCtrl.CreateExam)
		exams.GET("", examCtrl.ListExams)
		exams.GET("/:exam_id", examCtrl.GetExam)
		exams.POST("/:exam_id/instantiate", examCtrl.InstantiateStructure)
		exams.POST("/:exam_id/parts", examCtrl.AddPart)
		exams.GET("/:exam_id/available-questions", examCtrl.AvailableQuestions)

		parts := adminAPIGroup.Group("/parts")
		parts.DELETE("/:part_id", examCtrl.DeletePart)
		parts.POST("/:part_id/questions", examCtrl.AddQuestion)
		parts.POST("/:part_id/resource-groups", examCtrl.AddResourceGroup)
		parts.DELETE("/:part_id/questions/:question_id", examCtrl.RemoveQuestion)

		attempts := adminAPIGroup.Group("/attempts")
		attempts.GET("", gradingCtrl.ListAttempts)
		attempts.GET("/pending", gradingCtrl.PendingAttempts)
		attempts.POST("/:attempt_id/grade", gradingCtrl.GradeAttempt)
		attempts.POST("/:attempt_id/suggestions", gradingCtrl.SuggestGrades)
	}

	userAPIGroup := router.Group("/api/v1")
	{
		userAPIGroup.GET("/exams", userCtrl.ListExams)
		userAPIGroup.GET("/exams/:exam_id", userCtrl.GetExam)
		userAPIGroup.POST("/exams/:exam_id/attempts", userCtrl.SubmitExam)
		userAPIGroup.GET("/attempts/:attempt_id", userCtrl.GetAttempt)
		userAPIGroup.GET("/students/:student_id/attempts", userCtrl.GetStudentAttempts)
	}

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("examhub API server starting on port %s", cfg.Server.Port)
			log.Info().Msgf("Swagger UI available at http://localhost:%s/swagger/index.html", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("Server ListenAndServe failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Server shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return err
			}
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})
}
