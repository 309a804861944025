package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// Register mounts every API route. Stored images are served read-only
// under /images.
func (h *Handler) Register(e *echo.Echo) {
	e.PUT("/auth/signup", h.Signup)
	e.POST("/auth/login", h.Login)
	e.GET("/auth/status", h.GetStatus)
	e.PATCH("/auth/status", h.UpdateStatus)

	e.GET("/feed/posts", h.GetPosts)
	e.POST("/feed/post", h.CreatePost)
	e.GET("/feed/post/:postId", h.GetPost)
	e.PUT("/feed/post/:postId", h.UpdatePost)
	e.DELETE("/feed/post/:postId", h.DeletePost)
	e.GET("/feed/events", h.StreamEvents)

	e.Static("/images", h.Media.Root())
}

// PublicRoute reports whether a request may pass the auth gate without a
// token. Reads and the event stream are deliberately open; every
// mutation except signup/login requires an identity.
func PublicRoute(c echo.Context) bool {
	if strings.HasPrefix(c.Path(), "/images") {
		return true
	}

	switch c.Path() {
	case "/auth/signup", "/auth/login", "/feed/posts", "/feed/events":
		return true
	case "/feed/post/:postId":
		return c.Request().Method == http.MethodGet
	}

	return c.Request().Method == http.MethodOptions
}
