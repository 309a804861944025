package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/labstack/echo/v4"
	"github.com/microcosm-cc/bluemonday"

	"postfeed/auth"
	"postfeed/domain"
)

type postView struct {
	domain.Post
	ContentHTML string `json:"contentHtml,omitempty"`
}

func (h *Handler) GetPosts(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))

	posts, total, err := h.Store.ListPosts(c.Request().Context(), page)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"posts":      posts,
		"totalItems": total,
	})
}

func (h *Handler) GetPost(c echo.Context) error {
	post, err := h.Store.GetPost(c.Request().Context(), c.Param("postId"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"post": postView{Post: *post, ContentHTML: safeMd(post.Content)},
	})
}

func (h *Handler) CreatePost(c echo.Context) error {
	asset, err := h.acceptUpload(c)
	if err != nil {
		return err
	}

	post, err := h.Store.CreatePost(c.Request().Context(), auth.FromContext(c),
		c.FormValue("title"), c.FormValue("content"), asset)
	if err != nil {
		// Store rejected the mutation, so the already stored upload is
		// an orphan and goes straight back out.
		if asset != nil {
			h.Media.Release(asset.StorageKey)
		}
		return err
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Post created successfully!",
		"post":    post,
	})
}

func (h *Handler) UpdatePost(c echo.Context) error {
	asset, err := h.acceptUpload(c)
	if err != nil {
		return err
	}

	post, err := h.Store.UpdatePost(c.Request().Context(), auth.FromContext(c),
		c.Param("postId"), c.FormValue("title"), c.FormValue("content"), asset)
	if err != nil {
		if asset != nil {
			h.Media.Release(asset.StorageKey)
		}
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{"post": post})
}

func (h *Handler) DeletePost(c echo.Context) error {
	err := h.Store.DeletePost(c.Request().Context(), auth.FromContext(c), c.Param("postId"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Deleted post"})
}

// acceptUpload hands the image part, if any, to the media store. A
// missing part and a rejected mime type both come back as a nil asset;
// the store decides whether that is acceptable for the operation. A
// body that cannot be parsed at all is the client's error, not a
// missing file.
func (h *Handler) acceptUpload(c echo.Context) (*domain.MediaAsset, error) {
	file, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Could not read upload.")
	}

	src, err := file.Open()
	if err != nil {
		return nil, domain.Storage("upload read", err)
	}
	defer src.Close()

	return h.Media.Accept(src, file.Header.Get(echo.HeaderContentType), file.Filename)
}

func mdToHTML(md string) []byte {
	extensions := parser.CommonExtensions | parser.AutoHeadingIDs | parser.NoEmptyLineBeforeBlock
	p := parser.NewWithExtensions(extensions)
	doc := p.Parse([]byte(md))

	htmlFlags := html.CommonFlags | html.HrefTargetBlank
	opts := html.RendererOptions{Flags: htmlFlags}
	renderer := html.NewRenderer(opts)

	return markdown.Render(doc, renderer)
}

func safeMd(content string) string {
	maybeUnsafeHTML := mdToHTML(content)
	return string(bluemonday.UGCPolicy().SanitizeBytes(maybeUnsafeHTML))
}
