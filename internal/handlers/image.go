package handlers

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/dkazancev/product_catalog/internal/logging"
)

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

type ImageHandler struct {
	Products  *ProductHandler
	UploadDir string
}

func (h *ImageHandler) Upload(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "image_upload")

	productID := c.Param("id")

	// Look the product up before anything touches the disk: a bad id must
	// not leave an orphaned file in the upload dir.
	if _, err := h.Products.Svc.GetProduct(ctx, productID); err != nil {
		l.Warn("image_upload_failed", "error", err)
		return mapError(err)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		l.Warn("image_upload_failed", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}

	contentType := fileHeader.Header.Get("Content-Type")
	ext, ok := imageExtensions[contentType]
	if !ok {
		l.Warn("image_upload_failed", "status", 400, "reason", "bad_content_type", "content_type", contentType)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid file type, only JPEG and PNG are allowed")
	}

	src, err := fileHeader.Open()
	if err != nil {
		l.Error("image_upload_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	defer src.Close()

	if err := os.MkdirAll(h.UploadDir, 0o755); err != nil {
		l.Error("image_upload_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	filename := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(h.UploadDir, filename))
	if err != nil {
		l.Error("image_upload_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		l.Error("image_upload_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	imageURL := "/images/" + filename
	prod, err := h.Products.Svc.SetProductImage(ctx, productID, imageURL)
	if err != nil {
		l.Warn("image_upload_failed", "error", err)
		return mapError(err)
	}

	l.Info("image_upload_success", "product_id", prod.ID, "filename", filename)
	return c.JSON(http.StatusOK, echo.Map{
		"message":   "file uploaded successfully",
		"image_url": imageURL,
	})
}

func (h *ImageHandler) Serve(c echo.Context) error {
	filename := c.Param("filename")
	if filename != filepath.Base(filename) || strings.HasPrefix(filename, ".") {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid filename")
	}

	path := filepath.Join(h.UploadDir, filename)
	if _, err := os.Stat(path); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "image not found")
	}

	return c.File(path)
}
