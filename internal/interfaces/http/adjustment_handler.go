package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/precios-api/internal/application/dto"
	appricing "github.com/jhoicas/precios-api/internal/application/pricing"
	"github.com/jhoicas/precios-api/internal/domain/entity"
)

// AdjustmentHandler maneja las peticiones HTTP del motor de ajustes (protegido).
type AdjustmentHandler struct {
	apply    *appricing.ApplyPermanentUseCase
	temporal *appricing.TemporalUseCase
	revert   *appricing.RevertUseCase
	simulate *appricing.SimulateUseCase
	query    *appricing.QueryUseCase
}

// NewAdjustmentHandler construye el handler.
func NewAdjustmentHandler(
	apply *appricing.ApplyPermanentUseCase,
	temporal *appricing.TemporalUseCase,
	revert *appricing.RevertUseCase,
	simulate *appricing.SimulateUseCase,
	query *appricing.QueryUseCase,
) *AdjustmentHandler {
	return &AdjustmentHandler{apply: apply, temporal: temporal, revert: revert, simulate: simulate, query: query}
}

// Apply godoc
// @Summary      Aplicar ajuste permanente de precios
// @Tags         adjustments
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ApplyAdjustmentRequest  true  "Lote de productos y porcentaje"
// @Success      201   {object}  dto.AdjustmentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/adjustments [post]
func (h *AdjustmentHandler) Apply(c *fiber.Ctx) error {
	var in dto.ApplyAdjustmentRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	record, err := h.apply.Execute(c.Context(), appricing.AdjustmentInput{
		ProductIDs:  in.ProductIDs,
		Percentage:  in.Percentage,
		IsIncrease:  in.IsIncrease,
		Description: in.Description,
		UserID:      GetUserID(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToAdjustmentResponse(record))
}

// CreateTemporal godoc
// @Summary      Programar ajuste temporal (no muta precios)
// @Tags         adjustments
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateTemporalRequest  true  "Lote, porcentaje y ventana de vigencia"
// @Success      201   {object}  dto.AdjustmentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/adjustments/temporal [post]
func (h *AdjustmentHandler) CreateTemporal(c *fiber.Ctx) error {
	var in dto.CreateTemporalRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	record, err := h.temporal.Create(c.Context(), appricing.TemporalInput{
		AdjustmentInput: appricing.AdjustmentInput{
			ProductIDs:  in.ProductIDs,
			Percentage:  in.Percentage,
			IsIncrease:  in.IsIncrease,
			Description: in.Description,
			UserID:      GetUserID(c),
		},
		TemporalType: in.TemporalType,
		ValidFrom:    in.ValidFrom,
		ValidTo:      in.ValidTo,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToAdjustmentResponse(record))
}

// Activate godoc
// @Summary      Activar ajuste temporal programado
// @Tags         adjustments
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del ajuste"
// @Success      200  {object}  dto.AdjustmentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/adjustments/temporal/{id}/activate [post]
func (h *AdjustmentHandler) Activate(c *fiber.Ctx) error {
	record, err := h.temporal.Activate(c.Context(), c.Params("id"), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ToAdjustmentResponse(record))
}

// Finalize godoc
// @Summary      Finalizar ajuste temporal activo (restaura precios)
// @Tags         adjustments
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del ajuste"
// @Success      200  {object}  dto.AdjustmentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/adjustments/temporal/{id}/finalize [post]
func (h *AdjustmentHandler) Finalize(c *fiber.Ctx) error {
	record, err := h.temporal.Finalize(c.Context(), c.Params("id"), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ToAdjustmentResponse(record))
}

// Revert godoc
// @Summary      Revertir ajuste permanente (restaura snapshots)
// @Tags         adjustments
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del ajuste"
// @Success      200  {object}  dto.AdjustmentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/adjustments/{id}/revert [post]
func (h *AdjustmentHandler) Revert(c *fiber.Ctx) error {
	record, err := h.revert.Execute(c.Context(), c.Params("id"), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ToAdjustmentResponse(record))
}

// Simulate godoc
// @Summary      Vista previa de un ajuste, sin efectos
// @Tags         adjustments
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SimulateRequest  true  "Lote y porcentaje"
// @Success      200   {object}  dto.SimulationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/adjustments/simulate [post]
func (h *AdjustmentHandler) Simulate(c *fiber.Ctx) error {
	var in dto.SimulateRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	lines, err := h.simulate.Execute(in.ProductIDs, in.Percentage, in.IsIncrease)
	if err != nil {
		return respondError(c, err)
	}
	out := dto.SimulationResponse{Items: make([]dto.SimulationLineResponse, 0, len(lines))}
	for _, l := range lines {
		out.Items = append(out.Items, dto.SimulationLineResponse{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Before:      dto.ToPriceSetResponse(l.Before),
			After:       dto.ToPriceSetResponse(l.After),
		})
	}
	return c.JSON(out)
}

// History godoc
// @Summary      Historial de ajustes (más recientes primero)
// @Tags         adjustments
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int     false  "Límite"   default(20)
// @Param        offset  query  int     false  "Offset"   default(0)
// @Param        state   query  string  false  "Filtrar temporales por estado (SCHEDULED|ACTIVE|FINISHED)"
// @Success      200     {object}  dto.AdjustmentListResponse
// @Router       /api/adjustments [get]
func (h *AdjustmentHandler) History(c *fiber.Ctx) error {
	var page dto.PageRequest
	page.Limit = c.QueryInt("limit", 20)
	page.Offset = c.QueryInt("offset", 0)
	page.DefaultPage()

	if state := c.Query("state"); state != "" {
		items, err := h.query.ByState(state)
		if err != nil {
			return respondError(c, err)
		}
		items = pageSlice(items, page)
		return c.JSON(toListResponse(items, dto.PageResponse{Limit: page.Limit, Offset: page.Offset}))
	}

	items, err := h.query.History(page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toListResponse(items, dto.PageResponse{Limit: page.Limit, Offset: page.Offset}))
}

// pageSlice aplica limit/offset a un listado resuelto en memoria (el filtro
// por estado no pagina en la consulta).
func pageSlice(items []*entity.Adjustment, page dto.PageRequest) []*entity.Adjustment {
	if page.Offset >= len(items) {
		return nil
	}
	items = items[page.Offset:]
	if page.Limit < len(items) {
		items = items[:page.Limit]
	}
	return items
}

// GetByID godoc
// @Summary      Obtener un ajuste con sus snapshots
// @Tags         adjustments
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del ajuste"
// @Success      200  {object}  dto.AdjustmentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/adjustments/{id} [get]
func (h *AdjustmentHandler) GetByID(c *fiber.Ctx) error {
	record, err := h.query.GetByID(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ToAdjustmentResponse(record))
}

func toListResponse(items []*entity.Adjustment, page dto.PageResponse) dto.AdjustmentListResponse {
	out := dto.AdjustmentListResponse{
		Items: make([]dto.AdjustmentResponse, 0, len(items)),
		Page:  page,
	}
	for _, a := range items {
		out.Items = append(out.Items, dto.ToAdjustmentResponse(a))
	}
	return out
}
