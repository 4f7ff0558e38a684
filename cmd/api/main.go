package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"regexp"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"faceattend/internal/attendance"
	"faceattend/internal/auth"
	"faceattend/internal/config"
	"faceattend/internal/httpmiddleware"
	"faceattend/internal/metrics"
	"faceattend/internal/profile"
	"faceattend/internal/queue"
	"faceattend/internal/rekog"
	"faceattend/internal/storage"
	"faceattend/internal/store"
	"faceattend/internal/verify"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

// dataURLPrefix strips the "data:image/...;base64," header from uploaded
// capture photos; raw base64 is accepted too.
var dataURLPrefix = regexp.MustCompile(`^data:image/.+;base64,`)

func runHTTP(cfg config.App) error {
	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		if db == nil {
			return fmt.Errorf("open database: %w", err)
		}
		log.Printf("warning: db not reachable: %v", err)
	}
	defer func() { _ = db.Close() }()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "faceattend:verify")
	}

	profiles := profile.NewRepository(db.Client)
	events := attendance.NewRepository(db.Client)
	recorder := attendance.NewRecorder(events, cfg.DedupWindow)
	comparer := rekog.New(cfg.AWSRegion, cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey)
	photos := storage.New(cfg.AWSRegion, cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey)
	pipeline := verify.NewPipeline(profiles, comparer, recorder, cfg.AttendBucket, cfg.ProfileBucket)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := redisClient.Healthy(c.Request.Context())
		dbHealthy := db != nil
		status := http.StatusOK
		if !redisHealthy || !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
	})

	r.POST("/v1/admins/register", func(c *gin.Context) {
		var req struct {
			AdminID string `json:"admin_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if err := profiles.UpsertAdmin(c.Request.Context(), req.AdminID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		tokens, err := auth.Issue(req.AdminID, cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL, cfg.RefreshTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
			return
		}

		_ = profiles.SaveRefreshToken(c.Request.Context(), req.AdminID, tokens.RefreshToken, tokens.RefreshExp)

		c.JSON(http.StatusCreated, gin.H{
			"access_token":  tokens.AccessToken,
			"refresh_token": tokens.RefreshToken,
			"expires_at":    tokens.AccessExp.Unix(),
		})
	})

	authGroup := r.Group("/v1", auth.AdminAuth(cfg.JWTSigningKey, cfg.JWTIssuer))

	authGroup.POST("/profiles", func(c *gin.Context) {
		var req struct {
			ProfileID    string `json:"profile_id" binding:"required"`
			ProfileName  string `json:"profile_name" binding:"required"`
			ProfileImage string `json:"profile_image" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		p := profile.Profile{
			ProfileID:    req.ProfileID,
			ProfileName:  req.ProfileName,
			ProfileImage: req.ProfileImage,
			AdminID:      auth.AdminID(c),
		}
		if err := profiles.Create(c.Request.Context(), p); err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, p)
	})

	authGroup.PUT("/profiles/:id", func(c *gin.Context) {
		var req struct {
			ProfileName  string `json:"profile_name" binding:"required"`
			ProfileImage string `json:"profile_image" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		err := profiles.Update(c.Request.Context(), auth.AdminID(c), c.Param("id"), req.ProfileName, req.ProfileImage)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"profile_id": c.Param("id")})
	})

	authGroup.GET("/profiles", func(c *gin.Context) {
		list, err := profiles.ListByAdmin(c.Request.Context(), auth.AdminID(c))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if list == nil {
			list = []profile.Profile{}
		}
		c.JSON(http.StatusOK, list)
	})

	authGroup.GET("/attendance", func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
		list, err := events.ListByAdmin(c.Request.Context(), auth.AdminID(c), limit, offset)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if list == nil {
			list = []attendance.Event{}
		}
		c.JSON(http.StatusOK, gin.H{"events": list})
	})

	// Upload a captured photo and verify it. The photo lands in the capture
	// bucket under <admin>/attendance_<profile>_<timestamp>.jpg, which is the
	// grammar the pipeline decodes.
	authGroup.POST("/attendance/photos", func(c *gin.Context) {
		var req struct {
			ProfileID string `json:"profile_id" binding:"required"`
			Image     string `json:"image" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		data, err := base64.StdEncoding.DecodeString(dataURLPrefix.ReplaceAllString(req.Image, ""))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "image must be base64 encoded"})
			return
		}

		adminID := auth.AdminID(c)
		reqID := uuid.NewString()
		ts := time.Now().UTC().Format("2006-01-02_15-04-05")
		key := fmt.Sprintf("%s/attendance_%s_%s.jpg", adminID, req.ProfileID, ts)

		photoURL, err := photos.Upload(c.Request.Context(), cfg.AttendBucket, key, data, "image/jpeg")
		if err != nil {
			metrics.Uploads.WithLabelValues("error").Inc()
			log.Printf("[%s] capture upload failed: %v", reqID, err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "photo upload failed"})
			return
		}
		metrics.Uploads.WithLabelValues("ok").Inc()
		log.Printf("[%s] capture uploaded to %s", reqID, photoURL)

		if cfg.VerifyAsync {
			if err := q.Publish(c.Request.Context(), queue.Message{Type: "verify", Body: []byte(photoURL)}); err != nil {
				log.Printf("[%s] queue publish failed: %v", reqID, err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "verification enqueue failed"})
				return
			}
			c.JSON(http.StatusAccepted, gin.H{"status": "queued", "path": photoURL})
			return
		}

		result := pipeline.Run(c.Request.Context(), photoURL)
		c.JSON(http.StatusOK, gin.H{
			"statusCode": result.StatusCode,
			"status":     result.Status,
			"message":    result.Body,
		})
	})

	// Short-lived signed URL for viewing a stored photo. The buckets are
	// private; browsers get access through these links only.
	authGroup.GET("/photos/url", func(c *gin.Context) {
		raw := c.Query("path")
		if raw == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "path query parameter required"})
			return
		}
		bucket := cfg.ProfileBucket
		if c.Query("bucket") == "capture" {
			bucket = cfg.AttendBucket
		}
		url, err := photos.PresignGet(c.Request.Context(), bucket, storage.ObjectKey(raw), 15*time.Minute)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "presign failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"url": url})
	})

	// Direct pipeline invocation for already-uploaded captures.
	authGroup.POST("/verify", func(c *gin.Context) {
		var req struct {
			Path string `json:"path" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		result := pipeline.Run(c.Request.Context(), req.Path)
		c.JSON(result.StatusCode, result)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

// CORS middleware for browser requests
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
