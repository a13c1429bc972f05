package http

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/squadcards/cardforge-backend/internal/domain"
	"github.com/squadcards/cardforge-backend/internal/service"
	"github.com/squadcards/cardforge-backend/internal/util"
)

type CardImportHandler struct {
	service       *service.CardImportService
	cards         *service.CardService
	maxUploadSize int64
}

func RegisterCardImports(e *echo.Echo, auth *service.AuthService, svc *service.CardImportService, cards *service.CardService, maxUpload int64) {
	handler := &CardImportHandler{
		service:       svc,
		cards:         cards,
		maxUploadSize: maxUpload,
	}

	group := e.Group("/api/v1/admin/card-imports", RequireAuth(auth), RequireEditor())
	group.GET("/template", handler.template)
	group.POST("", handler.create)
	group.GET("/:id", handler.getJob)
	group.GET("/:id/errors", handler.downloadErrors)
}

func (h *CardImportHandler) template(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="card-import-template.csv"`)
	return c.Blob(http.StatusOK, "text/csv", []byte(h.service.Template()+"\n"))
}

// create runs one synchronous import. The upload arrives as multipart with a
// "file" part and an optional "photos" ZIP whose images are matched onto
// accepted cards by name.
func (h *CardImportHandler) create(c echo.Context) error {
	user, ok := CurrentUser(c)
	if !ok || user == nil {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}

	file, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("import file is required"))
	}
	data, err := h.readUpload(file)
	if err != nil {
		return h.writeError(c, err)
	}

	var photoData []byte
	if photos, err := c.FormFile("photos"); err == nil && photos != nil {
		photoData, err = h.readUpload(photos)
		if err != nil {
			return h.writeError(c, err)
		}
	}

	var updates []domain.ImportProgress
	record := func(p domain.ImportProgress) { updates = append(updates, p) }

	ctx := c.Request().Context()
	var (
		job    *domain.CardImportJob
		result *domain.ImportResult
	)
	if importFormat(file.Filename, c.FormValue("format")) == domain.ImportFormatJSON {
		job, result, err = h.service.ImportJSON(ctx, user.ID, file.Filename, data, record)
	} else {
		job, result, err = h.service.ImportCSV(ctx, user.ID, file.Filename, data, record)
	}
	if err != nil {
		return h.writeError(c, err)
	}

	if len(photoData) > 0 {
		entries, err := service.ReadPhotoArchive(photoData)
		if err != nil {
			return h.writeError(c, err)
		}
		matched := service.MatchPhotos(result.Accepted, service.BuildPhotoLibrary(entries))
		result.Accepted, err = h.cards.AttachMatchedPhotos(ctx, matched)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, util.Error("could not attach photos"))
		}
	}

	resp := util.Envelope{
		"job":      job,
		"accepted": result.Accepted,
		"errors":   result.Errors,
		"warnings": result.Warnings,
	}
	if len(updates) > 0 {
		resp["progress"] = updates[len(updates)-1]
	}
	return c.JSON(http.StatusAccepted, resp)
}

func (h *CardImportHandler) getJob(c echo.Context) error {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid job id"))
	}
	job, err := h.service.GetJob(c.Request().Context(), jobID)
	if err != nil {
		return c.JSON(http.StatusNotFound, util.Error("import job not found"))
	}
	return c.JSON(http.StatusOK, util.Data("job", job))
}

func (h *CardImportHandler) downloadErrors(c echo.Context) error {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid job id"))
	}
	job, err := h.service.GetJob(c.Request().Context(), jobID)
	if err != nil {
		return c.JSON(http.StatusNotFound, util.Error("import job not found"))
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	_ = writer.Write([]string{"row_number", "error", "raw_input"})
	for _, row := range job.Rows {
		if row.Status != domain.ImportRowStatusFailed {
			continue
		}
		errMsg := ""
		if row.ErrorMessage != nil {
			errMsg = *row.ErrorMessage
		}
		raw := ""
		if row.RawInput != nil {
			raw = *row.RawInput
		}
		_ = writer.Write([]string{strconv.Itoa(row.RowNumber), errMsg, raw})
	}
	writer.Flush()

	if err := writer.Error(); err != nil {
		return c.JSON(http.StatusInternalServerError, util.Error("could not generate csv"))
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="card-import-errors.csv"`)
	return c.Blob(http.StatusOK, "text/csv", buf.Bytes())
}

func (h *CardImportHandler) readUpload(file *multipart.FileHeader) ([]byte, error) {
	src, err := file.Open()
	if err != nil {
		return nil, errUploadUnreadable
	}
	defer src.Close()

	limit := h.maxUploadSize
	if limit <= 0 {
		limit = 5 * 1024 * 1024
	}
	data, err := io.ReadAll(io.LimitReader(src, limit+1))
	if err != nil {
		return nil, errUploadUnreadable
	}
	if int64(len(data)) > limit {
		return nil, errUploadTooLarge
	}
	return data, nil
}

func (h *CardImportHandler) writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrImportEmptyFile),
		errors.Is(err, service.ErrPhotoArchiveUnreadable),
		errors.Is(err, errUploadUnreadable):
		return c.JSON(http.StatusBadRequest, util.Error(err.Error()))
	case errors.Is(err, service.ErrImportInvalidHeaders),
		errors.Is(err, service.ErrImportBadShape):
		return c.JSON(http.StatusUnprocessableEntity, util.Error(err.Error()))
	case errors.Is(err, service.ErrImportTooLarge),
		errors.Is(err, service.ErrImportRowLimitExceeded),
		errors.Is(err, errUploadTooLarge):
		return c.JSON(http.StatusRequestEntityTooLarge, util.Error(err.Error()))
	default:
		return c.JSON(http.StatusInternalServerError, util.Error("internal error"))
	}
}

// importFormat resolves the payload format, preferring an explicit form value
// over the upload's file extension.
func importFormat(filename, explicit string) domain.ImportFormat {
	switch strings.ToLower(strings.TrimSpace(explicit)) {
	case "json":
		return domain.ImportFormatJSON
	case "csv":
		return domain.ImportFormatCSV
	}
	if strings.EqualFold(filepath.Ext(filename), ".json") {
		return domain.ImportFormatJSON
	}
	return domain.ImportFormatCSV
}
