package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron"

	config "github.com/polrydian/polrydian-api/configs"
	"github.com/polrydian/polrydian-api/internal/api/handlers"
	"github.com/polrydian/polrydian-api/internal/api/middleware"
	job "github.com/polrydian/polrydian-api/internal/jobs"
	"github.com/polrydian/polrydian-api/internal/platform"
	"github.com/polrydian/polrydian-api/internal/queue"
	"github.com/polrydian/polrydian-api/internal/ratelimit"
	"github.com/polrydian/polrydian-api/internal/repository"
	"github.com/polrydian/polrydian-api/internal/service"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file loaded", "error", err)
	}

	cfg := config.LoadConfig()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		fatal("Failed to connect to database", err)
	}

	if err := db.PingContext(ctx); err != nil {
		fatal("Database is unreachable", err)
	}

	if err := repository.Migrate(ctx, db); err != nil {
		fatal("Failed to apply migrations", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	var rdb *redis.Client
	if cfg.RateLimitBackend == config.RateLimitRedis {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisURI})
		defer rdb.Close()
	}

	rateStore, err := ratelimit.NewStore(cfg.RateLimitBackend, db, rdb)
	if err != nil {
		fatal("Failed to configure rate limiting", err)
	}
	if mem, ok := rateStore.(*ratelimit.MemoryStore); ok {
		go mem.StartCleanup(ctx, 10*time.Minute, config.SyncWindowMinutes*time.Minute)
	}

	httpClient := platform.NewHTTPClient(cfg.HTTPTimeout)

	credentialRepo := repository.NewCredentialRepository(db)
	socialPostRepo := repository.NewSocialPostRepository(db)
	articleRepo := repository.NewLinkedInArticleRepository(db)
	securityEventRepo := repository.NewSecurityEventRepository(db)
	userRoleRepo := repository.NewUserRoleRepository(db)
	tokenCryptoRepo := repository.NewTokenCryptoRepository(db)

	securityLogger := service.NewSecurityLogger(securityEventRepo)
	tokenCipher := service.NewTokenCipher(*cfg, tokenCryptoRepo, securityLogger)
	credentialService := service.NewCredentialService(credentialRepo, tokenCipher, securityLogger)
	userService := service.NewUserService(userRoleRepo)
	linkedInService := service.NewLinkedInService(*cfg, httpClient, credentialService)
	instagramService := service.NewInstagramService(cfg.Instagram, httpClient, credentialService)
	platformService := service.NewPlatformService(*cfg, linkedInService, instagramService, credentialService)
	contentService := service.NewContentService(socialPostRepo, articleRepo, securityLogger)
	emailService := service.NewEmailService(cfg.Resend, httpClient)
	mailer := service.NewMailer(cfg.Resend, queue.NewDispatcher(client))
	economicService := service.NewEconomicService(cfg.FredAPIKey, cfg.FredAPIURL, httpClient)

	var mirror service.MediaMirror
	if cfg.R2.Enabled() {
		mirror = service.NewMediaMirror(service.NewR2Service(cfg.R2), httpClient)
	} else {
		slog.Info("R2 is not configured, media will not be mirrored")
	}

	syncService := service.NewSyncService(
		userRoleRepo,
		ratelimit.NewLimiter(rateStore),
		credentialService,
		[]platform.ContentClient{
			platform.NewLinkedInClient(cfg.LinkedIn.APIURL, cfg.LinkedIn.APIVersion, httpClient),
			platform.NewInstagramClient(cfg.Instagram.APIURL, httpClient),
		},
		service.NewReconciler(socialPostRepo, articleRepo),
		mirror,
		securityLogger,
	)

	app := fiber.New(middleware.TrustProxies(fiber.Config{
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			slog.Error("request failed", "path", c.Path(), "error", err)
			code := fiber.StatusInternalServerError
			msg := service.ErrUnhandled.Error()
			if e, ok := err.(*fiber.Error); ok {
				code, msg = e.Code, e.Message
			}
			return c.Status(code).JSON(fiber.Map{"error": msg})
		},
	}, cfg.TrustedProxies))

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURL,
		AllowMethods:     "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	authMiddleware := middleware.NewAuthMiddleware(*cfg, userService, securityLogger)

	public := app.Group("/public", limiter.New(limiter.Config{
		Max:          config.ThrottleMaxRequests,
		Expiration:   config.ThrottleWindow,
		KeyGenerator: middleware.ClientIP,
	}))
	publicHandler := handlers.NewPublicHandler(contentService, mailer, economicService)
	public.Get("/posts", publicHandler.Posts)
	public.Get("/articles", publicHandler.Articles)
	public.Post("/contact", publicHandler.Contact)
	public.Get("/economic/:series", publicHandler.EconomicSeries)

	platformHandler := handlers.NewPlatformHandler(platformService, *cfg)
	app.Get("/platform/:platform/callback", platformHandler.CallbackHandler)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	user := handlers.NewUserHandler(userService, securityLogger)
	api.Get("/user/info", user.GetUserInfo)

	// Sync enforces the admin role itself so refusals are audited as sync attempts.
	sync := handlers.NewSyncHandler(syncService, securityLogger)
	api.Post("/sync", sync.Sync)

	admin := api.Group("/admin", authMiddleware.RequireAdmin())

	admin.Get("/platforms", platformHandler.ListSocialAccounts)
	admin.Get("/platforms/:platform/connect", platformHandler.AddSocialAccount)
	admin.Delete("/platforms/:platform", platformHandler.DeleteSocialAccount)

	content := handlers.NewContentHandler(contentService)
	admin.Get("/content/posts", content.ListPosts)
	admin.Patch("/content/posts/:id", content.ReviewPost)
	admin.Get("/content/articles", content.ListArticles)
	admin.Patch("/content/articles/:id", content.ReviewArticle)

	admin.Get("/security/events", user.ListSecurityEvents)

	// cron jobs
	expiryJob := job.NewTokenExpiryJob(credentialRepo, instagramService, mailer, securityLogger)

	c := cron.New()
	if err := c.AddFunc(cfg.ExpiryCheckSchedule, expiryJob.CheckTokens); err != nil {
		fatal("Invalid expiry check schedule", err)
	}
	c.Start()

	// queue
	queueW := queue.NewQueue(emailService)

	server := asynq.NewServer(redisConn, asynq.Config{
		Concurrency: 10,
	})
	mux := asynq.NewServeMux()
	queueW.Register(mux)

	slog.Info("Starting the Asynq server...")
	if err := server.Start(mux); err != nil {
		fatal("Could not start Asynq server", err)
	}

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			fatal("Failed to start server", err)
		}
	}()
	slog.Info("Server is running", "port", cfg.Port)

	gracefulShutdown(app, server, c, db)
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, server *asynq.Server, c *cron.Cron, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	slog.Info("Shutting down server...")

	c.Stop()
	server.Shutdown()

	if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
		slog.Error("Failed to shut down server", "error", err)
	}

	closeDB(db)
	slog.Info("Server shutdown complete.")
}
