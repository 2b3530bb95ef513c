package controller

import (
	"ctchen222/bookshelf/internal/api/middleware"
	"ctchen222/bookshelf/internal/api/response"
	"ctchen222/bookshelf/internal/api/service"
	"log/slog"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
)

// BookController handles catalog HTTP requests.
type BookController struct {
	bookService service.BookService
}

// NewBookController creates a new BookController.
func NewBookController(bookService service.BookService) *BookController {
	return &BookController{bookService: bookService}
}

// ListBooks returns the public catalog.
func (bc *BookController) ListBooks(c *gin.Context) {
	books, err := bc.bookService.ListBooks(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessResponse(c, books)
}

// DownloadPDF charges the authenticated account and streams the book's file
// as an attachment.
func (bc *BookController) DownloadPDF(c *gin.Context) {
	ctx := c.Request.Context()
	accountID := middleware.AccountID(c)

	d, err := bc.bookService.Download(ctx, accountID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer d.Content.Close()

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": d.Filename})
	if disposition == "" {
		disposition = "attachment"
	}

	c.DataFromReader(http.StatusOK, d.Size, "application/pdf", d.Content, map[string]string{
		"Content-Disposition": disposition,
	})
	if err := c.Errors.Last(); err != nil {
		// Headers are already sent; the tokens stay spent.
		slog.WarnContext(ctx, "PDF transfer interrupted", "account.id", accountID, "error", err)
	}
}
