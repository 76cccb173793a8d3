package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"menuqr/internal/middleware"
	"menuqr/internal/models"
	"menuqr/internal/services"
)

type QRHandler struct {
	Service *services.QRService
}

func NewQRHandler(service *services.QRService) *QRHandler {
	return &QRHandler{Service: service}
}

type createQRRequest struct {
	URL    string `json:"url" binding:"required"`
	Format string `json:"format" binding:"omitempty,oneof=png svg pdf"`
}

type updateQRRequest struct {
	URL    *string `json:"url"`
	Format *string `json:"format" binding:"omitempty,oneof=png svg pdf"`
}

// ===== CRUD =====

// @Summary  Создать QR-код
// @Tags     QR
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    body body     createQRRequest true "Целевой URL и формат"
// @Success  201  {object} services.QRView
// @Failure  400  {object} map[string]interface{}
// @Router   /admin/qr [post]
func (h *QRHandler) Create(c *gin.Context) {
	var req createQRRequest
	if !bindJSON(c, &req) {
		return
	}
	view, err := h.Service.CreateQRCode(c.Request.Context(), services.QRInput{URL: req.URL, Format: req.Format})
	if err != nil {
		respondError(c, "[qr][create]", err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// @Summary  Список QR-кодов
// @Tags     QR
// @Produce  json
// @Security BearerAuth
// @Param    page query    int false "Страница (с 1)"
// @Param    size query    int false "Размер страницы (до 100)"
// @Success  200  {object} services.QRPage
// @Router   /admin/qr [get]
func (h *QRHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	res, err := h.Service.ListQRCodes(c.Request.Context(), page, size)
	if err != nil {
		respondError(c, "[qr][list]", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// @Summary  Статистика сканирований
// @Tags     QR
// @Produce  json
// @Security BearerAuth
// @Success  200 {object} models.QRStats
// @Router   /admin/qr/stats [get]
func (h *QRHandler) Stats(c *gin.Context) {
	st, err := h.Service.GetQRCodeStats(c.Request.Context())
	if err != nil {
		respondError(c, "[qr][stats]", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary  QR-код по id
// @Tags     QR
// @Produce  json
// @Security BearerAuth
// @Param    id  path     string true "id"
// @Success  200 {object} services.QRView
// @Failure  404 {object} map[string]string
// @Router   /admin/qr/{id} [get]
func (h *QRHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	view, err := h.Service.GetQRCode(c.Request.Context(), id)
	if err != nil {
		respondLookupError(c, "[qr][get]", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// @Summary      Изменить QR-код
// @Description  Смена url или формата перегенерирует файл под новым ключом
// @Tags         QR
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path     string          true "id"
// @Param        body body     updateQRRequest true "Изменяемые поля"
// @Success      200  {object} services.QRView
// @Failure      400  {object} map[string]interface{}
// @Failure      404  {object} map[string]string
// @Router       /admin/qr/{id} [put]
func (h *QRHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req updateQRRequest
	if !bindJSON(c, &req) {
		return
	}
	view, err := h.Service.UpdateQRCode(c.Request.Context(), id, services.QRUpdate{URL: req.URL, Format: req.Format})
	if err != nil {
		respondLookupError(c, "[qr][update]", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// @Summary  Удалить QR-код
// @Tags     QR
// @Security BearerAuth
// @Param    id  path string true "id"
// @Success  204
// @Failure  404 {object} map[string]string
// @Router   /admin/qr/{id} [delete]
func (h *QRHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.Service.DeleteQRCode(c.Request.Context(), id); err != nil {
		respondLookupError(c, "[qr][delete]", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ===== Файлы и публичный редирект =====

// ServeFile streams the artifact behind a signed token, taken from ?token=
// or from the Authorization header. ?download=1 switches to attachment.
//
// @Summary  Файл QR-кода по подписанной ссылке
// @Tags     QR
// @Produce  png
// @Produce  image/svg+xml
// @Produce  application/pdf
// @Param    key      path  string true  "imageKey"
// @Param    token    query string false "Подпись ссылки"
// @Param    download query bool   false "Скачать как вложение"
// @Success  200
// @Failure  403 {object} map[string]string
// @Failure  404 {object} map[string]string
// @Router   /admin/qr/file/{key} [get]
func (h *QRHandler) ServeFile(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = middleware.BearerToken(c)
	}
	f, err := h.Service.OpenFile(c.Request.Context(), c.Param("key"), token)
	if err != nil {
		respondLookupError(c, "[qr][file]", err)
		return
	}
	disposition := "inline"
	if c.Query("download") == "1" || c.Query("download") == "true" {
		disposition = "attachment"
	}
	c.Header("Content-Disposition", fmt.Sprintf(`%s; filename="%s"`, disposition, f.Name))
	c.Header("Cache-Control", "private, max-age=60")
	c.Data(http.StatusOK, f.ContentType, f.Data)
}

// @Summary  Публичный редирект по QR-коду
// @Tags     QR
// @Param    slug path string true "slug"
// @Success  302
// @Failure  404 {object} map[string]string
// @Router   /qr/{slug} [get]
func (h *QRHandler) Redirect(c *gin.Context) {
	target, err := h.Service.ResolveRedirect(c.Request.Context(), c.Param("slug"), models.ScanMeta{
		UserAgent: c.Request.UserAgent(),
		Referer:   c.Request.Referer(),
	})
	if err != nil {
		respondLookupError(c, "[qr][redirect]", err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Redirect(http.StatusFound, target)
}
