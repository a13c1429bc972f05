package http

import (
	"database/sql"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/squadcards/cardforge-backend/internal/domain"
	"github.com/squadcards/cardforge-backend/internal/repository/ports"
	"github.com/squadcards/cardforge-backend/internal/service"
	"github.com/squadcards/cardforge-backend/internal/util"
)

type CardHandler struct {
	cards         *service.CardService
	exports       *service.ExportService
	maxUploadSize int64
}

func RegisterCards(e *echo.Echo, auth *service.AuthService, cards *service.CardService, exports *service.ExportService, maxUpload int64) {
	handler := &CardHandler{
		cards:         cards,
		exports:       exports,
		maxUploadSize: maxUpload,
	}

	public := e.Group("/api/v1/cards")
	public.GET("", handler.list)
	public.GET("/:id", handler.get)
	public.GET("/:id/export", handler.exportCard)
	public.POST("/generate-skills", handler.generateSkills)

	editor := e.Group("/api/v1/cards", RequireAuth(auth), RequireEditor())
	editor.POST("", handler.create)
	editor.PUT("/:id", handler.update)
	editor.DELETE("/:id", handler.remove)
	editor.POST("/:id/photo", handler.uploadPhoto)
	editor.POST("/:id/logo", handler.uploadLogo)
	editor.POST("/export/zip", handler.exportBundle)
}

func (h *CardHandler) list(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	filter := ports.CardListFilter{Search: strings.TrimSpace(c.QueryParam("search"))}
	for _, raw := range strings.Split(c.QueryParam("position"), ",") {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		filter.Positions = append(filter.Positions, domain.NormalizePosition(raw))
	}
	if raw := strings.TrimSpace(c.QueryParam("theme")); raw != "" {
		theme := domain.NormalizeTheme(raw)
		filter.Theme = &theme
	}

	cards, err := h.cards.List(c.Request().Context(), limit, offset, filter)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, util.Error("could not list cards"))
	}
	return c.JSON(http.StatusOK, util.Data("cards", cards))
}

func (h *CardHandler) get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid card id"))
	}
	card, err := h.cards.Get(c.Request().Context(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data("card", card))
}

func (h *CardHandler) create(c echo.Context) error {
	user, ok := CurrentUser(c)
	if !ok || user == nil {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}

	var input service.CardInput
	if err := c.Bind(&input); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}

	card, err := h.cards.Create(c.Request().Context(), user.ID, input)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusCreated, util.Data("card", card))
}

func (h *CardHandler) update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid card id"))
	}

	var input service.CardInput
	if err := c.Bind(&input); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}

	card, err := h.cards.Update(c.Request().Context(), id, input)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data("card", card))
}

func (h *CardHandler) remove(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid card id"))
	}
	if err := h.cards.Delete(c.Request().Context(), id); err != nil {
		return h.writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CardHandler) uploadPhoto(c echo.Context) error {
	return h.uploadImage(c, "photo")
}

func (h *CardHandler) uploadLogo(c echo.Context) error {
	return h.uploadImage(c, "logo")
}

// uploadImage reads one multipart image and routes it through the partial
// update path, which re-encodes and stores it.
func (h *CardHandler) uploadImage(c echo.Context, field string) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid card id"))
	}

	file, err := c.FormFile(field)
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error(field+" file is required"))
	}
	data, err := h.readUpload(file)
	if err != nil {
		return h.writeError(c, err)
	}

	input := service.CardInput{}
	if field == "logo" {
		input.Logo = data
	} else {
		input.Photo = data
	}

	card, err := h.cards.Update(c.Request().Context(), id, input)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data("card", card))
}

func (h *CardHandler) generateSkills(c echo.Context) error {
	var req struct {
		Seed string `json:"seed"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}
	skills := h.cards.GenerateSkills(req.Seed)
	return c.JSON(http.StatusOK, util.Envelope{
		"skills": skills,
		"rating": domain.AggregateRating(skills),
	})
}

func (h *CardHandler) exportCard(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid card id"))
	}
	card, err := h.cards.Get(c.Request().Context(), id)
	if err != nil {
		return h.writeError(c, err)
	}

	format := strings.ToLower(strings.TrimSpace(c.QueryParam("format")))
	switch format {
	case "", "png":
		data, err := h.exports.ExportPNG(c.Request().Context(), *card)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, util.Error("could not render card"))
		}
		c.Response().Header().Set(echo.HeaderContentDisposition, attachment(card.Name, "png"))
		return c.Blob(http.StatusOK, "image/png", data)
	case "pdf":
		data, err := h.exports.ExportPDF(c.Request().Context(), *card)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, util.Error("could not render card"))
		}
		c.Response().Header().Set(echo.HeaderContentDisposition, attachment(card.Name, "pdf"))
		return c.Blob(http.StatusOK, "application/pdf", data)
	default:
		return c.JSON(http.StatusBadRequest, util.Error("format must be png or pdf"))
	}
}

func (h *CardHandler) exportBundle(c echo.Context) error {
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}
	if len(req.IDs) == 0 {
		return c.JSON(http.StatusBadRequest, util.Error("ids is required"))
	}

	cards := make([]domain.Card, 0, len(req.IDs))
	for _, raw := range req.IDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, util.Error("ids must be valid UUIDs"))
		}
		card, err := h.cards.Get(c.Request().Context(), id)
		if err != nil {
			return h.writeError(c, err)
		}
		cards = append(cards, *card)
	}

	data, err := h.exports.ExportZIP(c.Request().Context(), cards)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, util.Error("could not build archive"))
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, attachment("cards", "zip"))
	return c.Blob(http.StatusOK, "application/zip", data)
}

func (h *CardHandler) readUpload(file *multipart.FileHeader) ([]byte, error) {
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

var (
	errUploadUnreadable = errors.New("unable to read upload")
	errUploadTooLarge   = errors.New("upload exceeds size limit")
)

func (h *CardHandler) writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return c.JSON(http.StatusNotFound, util.Error("card not found"))
	case errors.Is(err, service.ErrCardInvalid):
		return c.JSON(http.StatusUnprocessableEntity, util.Error(err.Error()))
	case errors.Is(err, errUploadUnreadable):
		return c.JSON(http.StatusBadRequest, util.Error(err.Error()))
	case errors.Is(err, errUploadTooLarge):
		return c.JSON(http.StatusRequestEntityTooLarge, util.Error(err.Error()))
	default:
		return c.JSON(http.StatusInternalServerError, util.Error("internal error"))
	}
}

func attachment(stem, ext string) string {
	name := strings.ToLower(strings.TrimSpace(stem))
	name = strings.ReplaceAll(name, " ", "_")
	if name == "" {
		name = "card"
	}
	return `attachment; filename="` + name + "." + ext + `"`
}
