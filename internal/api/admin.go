package api

import (
	"booknet/internal/domain"     // Domain models
	"booknet/internal/events"     // Domain events
	"booknet/internal/repository" // User store
	"booknet/internal/response"   // Error envelope
	"booknet/internal/utils"      // Cache helpers
	"context"                     // Cache invalidation context
	"fmt"                         // Cache key formatting
	"net/http"                    // HTTP status codes
	"strconv"                     // Query parsing
	"time"                        // Cache TTL

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging
)

// Admin user list cache
const (
	userListCachePrefix = "admin:users:"
	userListCacheTTL    = 30 * time.Second
	defaultPageSize     = 20
	maxPageSize         = 100
)

// UserListResponse is the paged user list returned to admins
type UserListResponse struct {
	Success    bool          `json:"success"`     // Always true
	Users      []domain.User `json:"users"`       // List of users
	Page       int           `json:"page"`        // Current page
	PageSize   int           `json:"page_size"`   // Page size
	Total      int64         `json:"total"`       // Total number of users
	TotalPages int           `json:"total_pages"` // Total pages
	Cached     bool          `json:"cached"`      // Served from Redis
}

// invalidateUserList drops every cached page of the admin user list
func invalidateUserList(ctx context.Context, rdb redis.Cmdable) {
	if err := utils.DeleteCachePattern(ctx, rdb, userListCachePrefix+"*"); err != nil {
		logrus.WithError(err).Warn("failed to invalidate user list cache")
	}
}

// pagination reads page and page_size, falling back to defaults on bad input
func pagination(c *gin.Context) (int, int) {
	page := 1                   // Default page number
	pageSize := defaultPageSize // Default page size
	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v // Set page if valid
		}
	}
	// Check and set page size within limits
	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= maxPageSize {
			pageSize = v // Set page size
		}
	}
	return page, pageSize
}

// ListUsersHandler returns one page of users with their profiles
func ListUsersHandler(users repository.UserRepository, rdb redis.Cmdable) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		page, pageSize := pagination(c)
		cacheKey := fmt.Sprintf("%spage=%d:size=%d", userListCachePrefix, page, pageSize)

		var cached UserListResponse
		found, err := utils.GetCache(ctx, rdb, cacheKey, &cached)
		if err != nil {
			logrus.WithError(err).WithField("key", cacheKey).Warn("user list cache read failed")
		}
		if found {
			cached.Cached = true // Indicate response is from cache
			c.JSON(http.StatusOK, cached)
			return
		}

		list, total, err := users.List(ctx, page, pageSize)
		if err != nil {
			response.Error(c, err)
			return
		}
		resp := UserListResponse{
			Success:    true,
			Users:      list,
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: int((total + int64(pageSize) - 1) / int64(pageSize)), // Calculate total pages
		}
		if resp.Users == nil {
			resp.Users = []domain.User{}
		}
		// Cache the response for future requests
		if err := utils.SetCache(ctx, rdb, cacheKey, resp, userListCacheTTL); err != nil {
			logrus.WithError(err).WithField("key", cacheKey).Warn("user list cache write failed")
		}
		c.JSON(http.StatusOK, resp)
	}
}

// GetUserHandler returns one user with its profile
func GetUserHandler(users repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := users.FindWithProfile(c.Request.Context(), c.Param("id"))
		if err != nil {
			response.Error(c, err) // 404 when absent
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
	}
}

// DeleteUserHandler removes a user with its profile and cart, then drops the cached lists
func DeleteUserHandler(users repository.UserRepository, rdb redis.Cmdable, publisher events.Publisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		id := c.Param("id")
		if err := users.Delete(ctx, id); err != nil {
			response.Error(c, err) // 404 when absent
			return
		}
		invalidateUserList(ctx, rdb)
		events.PublishBestEffort(ctx, publisher, events.UserDeleted, events.UserEvent{UserID: id, OccurredAt: time.Now().UTC()})
		logrus.WithField("user_id", id).Info("user deleted")
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "User deleted successfully"})
	}
}
