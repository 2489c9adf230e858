package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"recipe-gallery/internal/domain"
	"recipe-gallery/internal/repository"
	"recipe-gallery/internal/service"
	"recipe-gallery/internal/storage"
)

const authCookieName = "admin-token"

// Handler wires HTTP routes to domain services.
type Handler struct {
	recipes       service.RecipeService
	images        service.ImageService
	auth          service.AuthService
	storage       storage.Service
	bucket        string
	uploadsPrefix string
	logger        *logrus.Logger
}

func NewHandler(
	recipes service.RecipeService,
	images service.ImageService,
	auth service.AuthService,
	store storage.Service,
	bucket, uploadsPrefix string,
	logger *logrus.Logger,
) *Handler {
	return &Handler{
		recipes:       recipes,
		images:        images,
		auth:          auth,
		storage:       store,
		bucket:        bucket,
		uploadsPrefix: uploadsPrefix,
		logger:        logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())

	api := router.Group("/api")
	{
		api.GET("/recipes", h.listRecipes)
		api.GET("/recipes/:id", h.getRecipe)
		api.POST("/auth/login", h.login)
		api.POST("/auth/logout", h.logout)
		api.GET("/auth/check", h.checkAuth)
		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})

		// every mutating route passes the session guard, no exceptions
		admin := api.Group("", h.requireAuth())
		{
			admin.POST("/recipes", h.createRecipe)
			admin.PUT("/recipes/:id", h.updateRecipe)
			admin.DELETE("/recipes/:id", h.deleteRecipe)
			admin.POST("/upload", h.uploadImage)
			admin.GET("/uploads", h.listUploads)
		}
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (h *Handler) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(authCookieName)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		if err := h.auth.ParseToken(token); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}
		c.Next()
	}
}

type loginRequest struct {
	Password string `json:"password" binding:"required"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Password is required"})
		return
	}

	if !h.auth.VerifyPassword(req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid password"})
		return
	}

	token, err := h.auth.IssueToken()
	if err != nil {
		h.logger.WithError(err).Error("issue session token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(authCookieName, token, int(h.auth.TokenTTL().Seconds()), "/", "", true, true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(authCookieName, "", -1, "/", "", true, true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) checkAuth(c *gin.Context) {
	token, err := c.Cookie(authCookieName)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"authenticated": h.auth.Authenticate(token)})
}

func (h *Handler) listRecipes(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "12"))

	var categories []domain.Category
	for _, raw := range strings.Split(c.Query("categories"), ",") {
		if trimmed := strings.TrimSpace(raw); trimmed != "" {
			categories = append(categories, domain.Category(trimmed))
		}
	}

	result, err := h.recipes.List(c.Request.Context(), service.ListParams{
		Search:     c.Query("search"),
		Categories: categories,
		Page:       page,
		Limit:      limit,
	})
	if err != nil {
		h.logger.WithError(err).Error("list recipes")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch recipes"})
		return
	}

	recipes := make([]RecipeResponse, len(result.Items))
	for i := range result.Items {
		recipes[i] = recipeToResponse(result.Items[i])
	}

	c.JSON(http.StatusOK, gin.H{
		"recipes":    recipes,
		"total":      result.Total,
		"page":       result.Page,
		"limit":      result.Limit,
		"totalPages": result.TotalPages,
	})
}

func (h *Handler) getRecipe(c *gin.Context) {
	recipe, err := h.recipes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Recipe not found"})
			return
		}
		h.logger.WithError(err).Error("get recipe")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch recipe"})
		return
	}

	c.JSON(http.StatusOK, recipeToResponse(*recipe))
}

type recipeDraftRequest struct {
	Title       string              `json:"title"`
	Difficulty  domain.Difficulty   `json:"difficulty"`
	Categories  []domain.Category   `json:"categories"`
	Description string              `json:"description"`
	Ingredients []domain.Ingredient `json:"ingredients"`
	Steps       []string            `json:"steps"`
	Notes       *string             `json:"notes"`
	ImageURL    string              `json:"image_url"`
}

func (h *Handler) createRecipe(c *gin.Context) {
	var req recipeDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	recipe, err := h.recipes.Create(c.Request.Context(), domain.Recipe{
		Title:       req.Title,
		Difficulty:  req.Difficulty,
		Categories:  req.Categories,
		Description: req.Description,
		Ingredients: req.Ingredients,
		Steps:       req.Steps,
		Notes:       req.Notes,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		var vErr *service.ValidationError
		if errors.As(err, &vErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Error()})
			return
		}
		h.logger.WithError(err).Error("create recipe")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create recipe"})
		return
	}

	c.JSON(http.StatusCreated, recipeToResponse(*recipe))
}

type recipeUpdateRequest struct {
	Title       *string             `json:"title"`
	Difficulty  *domain.Difficulty  `json:"difficulty"`
	Categories  []domain.Category   `json:"categories"`
	Description *string             `json:"description"`
	Ingredients []domain.Ingredient `json:"ingredients"`
	Steps       []string            `json:"steps"`
	Notes       *string             `json:"notes"`
	ImageURL    *string             `json:"image_url"`
}

func (h *Handler) updateRecipe(c *gin.Context) {
	var req recipeUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	recipe, err := h.recipes.Update(c.Request.Context(), c.Param("id"), domain.RecipeUpdate{
		Title:       req.Title,
		Difficulty:  req.Difficulty,
		Categories:  req.Categories,
		Description: req.Description,
		Ingredients: req.Ingredients,
		Steps:       req.Steps,
		Notes:       req.Notes,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		var vErr *service.ValidationError
		switch {
		case errors.As(err, &vErr):
			c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Error()})
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Recipe not found"})
		default:
			h.logger.WithError(err).Error("update recipe")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update recipe"})
		}
		return
	}

	c.JSON(http.StatusOK, recipeToResponse(*recipe))
}

func (h *Handler) deleteRecipe(c *gin.Context) {
	if err := h.recipes.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Recipe not found"})
			return
		}
		h.logger.WithError(err).Error("delete recipe")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete recipe"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) uploadImage(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.logger.WithError(err).Error("open uploaded file")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.logger.WithError(err).Error("read uploaded file")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read file"})
		return
	}

	stored, err := h.images.Ingest(c.Request.Context(), data, fileHeader.Header.Get("Content-Type"), fileHeader.Filename)
	if err != nil {
		var vErr *service.ValidationError
		if errors.As(err, &vErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Error()})
			return
		}
		h.logger.WithError(err).WithField("filename", fileHeader.Filename).Error("store uploaded image")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload image"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":  stored.URL,
		"path": stored.Key,
	})
}

func (h *Handler) listUploads(c *gin.Context) {
	if h.storage == nil || h.bucket == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Storage service not configured"})
		return
	}

	objects, err := h.storage.ListObjects(c.Request.Context(), h.bucket, h.uploadsPrefix)
	if err != nil {
		h.logger.WithError(err).Error("list stored images")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list uploads"})
		return
	}

	resp := make([]StorageObjectResponse, len(objects))
	for i := range objects {
		resp[i] = objectToResponse(objects[i])
	}
	c.JSON(http.StatusOK, resp)
}

type RecipeResponse struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Difficulty  domain.Difficulty   `json:"difficulty"`
	Categories  []domain.Category   `json:"categories"`
	Description string              `json:"description"`
	Ingredients []domain.Ingredient `json:"ingredients"`
	Steps       []string            `json:"steps"`
	Notes       *string             `json:"notes"`
	ImageURL    string              `json:"image_url"`
	CreatedAt   string              `json:"created_at"`
	UpdatedAt   string              `json:"updated_at"`
}

type StorageObjectResponse struct {
	Key          string  `json:"key"`
	Size         int64   `json:"size"`
	LastModified *string `json:"last_modified,omitempty"`
}

func recipeToResponse(recipe domain.Recipe) RecipeResponse {
	return RecipeResponse{
		ID:          recipe.ID,
		Title:       recipe.Title,
		Difficulty:  recipe.Difficulty,
		Categories:  recipe.Categories,
		Description: recipe.Description,
		Ingredients: recipe.Ingredients,
		Steps:       recipe.Steps,
		Notes:       recipe.Notes,
		ImageURL:    recipe.ImageURL,
		CreatedAt:   recipe.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   recipe.UpdatedAt.Format(time.RFC3339),
	}
}

func objectToResponse(obj storage.ObjectInfo) StorageObjectResponse {
	resp := StorageObjectResponse{
		Key:  obj.Key,
		Size: obj.Size,
	}
	if obj.LastModified != nil && !obj.LastModified.IsZero() {
		v := obj.LastModified.Format(time.RFC3339)
		resp.LastModified = &v
	}
	return resp
}
