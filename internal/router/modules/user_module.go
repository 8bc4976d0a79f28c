package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kunalverma25/users-api/internal/container"
	handlers "github.com/kunalverma25/users-api/internal/interface/http"
	"github.com/kunalverma25/users-api/internal/interface/middleware"
)

// Module wires the user resource routes:
// POST/GET /users, GET/PUT/PATCH/DELETE /users/:id,
// POST /users/:id/avatar, GET /users/search

type Module struct {
	Handler *handlers.UserHandler
}

func New(h *handlers.UserHandler) *Module {
	return &Module{Handler: h}
}

func (m *Module) Register(rg *gin.RouterGroup) {
	// Per-IP limiters; writes get a tighter quota. Private IPs bypass.
	writeLimiter := middleware.RateLimit(container.GetRedis(), 60, time.Minute, middleware.KeyByIPAndPath(), middleware.AllowPrivateIP())
	readLimiter := middleware.RateLimit(container.GetRedis(), 300, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP())

	users := rg.Group("/users")
	{
		users.POST("", writeLimiter, m.Handler.Create)
		users.GET("", readLimiter, m.Handler.List)
		users.GET("/search", readLimiter, m.Handler.Search)
		users.GET("/:id", readLimiter, m.Handler.Retrieve)
		users.PUT("/:id", writeLimiter, m.Handler.Update)
		users.PATCH("/:id", writeLimiter, m.Handler.PartialUpdate)
		users.DELETE("/:id", writeLimiter, m.Handler.Destroy)
		users.POST("/:id/avatar", writeLimiter, m.Handler.UploadAvatar)
	}
}
