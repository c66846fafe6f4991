package handlers

import (
	"fmt"
	"net/http"

	"procurement_flow_go/services"

	"github.com/labstack/echo/v4"
)

// UploadAttachment handles POST /api/cases/:id/attachments (multipart "file", "label", "notes")
func (h *Handler) UploadAttachment(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return services.NewValidationError("file", "is required")
	}
	if err := services.ValidateAttachmentUpload(fileHeader); err != nil {
		return err
	}

	file, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Failed to read uploaded file")
	}
	defer file.Close()

	att, err := h.Cases.AddAttachment(c.Request().Context(), a, c.Param("id"), services.AttachmentInput{
		Label:       c.FormValue("label"),
		Notes:       c.FormValue("notes"),
		FileName:    fileHeader.Filename,
		ContentType: services.DetectContentType(fileHeader),
		Size:        fileHeader.Size,
		Body:        file,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, att)
}

// AttachmentURL handles GET /api/cases/:id/attachments/:attId/url
func (h *Handler) AttachmentURL(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	url, err := h.Cases.AttachmentURL(c.Request().Context(), a, c.Param("id"), c.Param("attId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"url":        url,
		"expires_in": int(services.SignedURLExpiry.Seconds()),
	})
}

// DownloadAttachment handles GET /api/cases/:id/attachments/:attId/download
func (h *Handler) DownloadAttachment(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	att, body, err := h.Cases.OpenAttachment(c.Request().Context(), a, c.Param("id"), c.Param("attId"))
	if err != nil {
		return err
	}
	defer body.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", att.FileName))
	return c.Stream(http.StatusOK, att.MimeType, body)
}
