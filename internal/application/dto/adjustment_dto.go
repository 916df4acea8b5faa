package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/precios-api/internal/domain/entity"
)

// ApplyAdjustmentRequest cuerpo para aplicar un ajuste permanente.
type ApplyAdjustmentRequest struct {
	ProductIDs  []string        `json:"product_ids"`
	Percentage  decimal.Decimal `json:"percentage"`
	IsIncrease  bool            `json:"is_increase"`
	Description string          `json:"description"`
}

// CreateTemporalRequest cuerpo para programar un ajuste temporal.
type CreateTemporalRequest struct {
	ProductIDs   []string        `json:"product_ids"`
	Percentage   decimal.Decimal `json:"percentage"`
	IsIncrease   bool            `json:"is_increase"`
	Description  string          `json:"description"`
	TemporalType string          `json:"temporal_type"` // ej. "Black Friday"
	ValidFrom    time.Time       `json:"valid_from"`
	ValidTo      time.Time       `json:"valid_to"`
}

// SimulateRequest cuerpo para la vista previa sin efectos.
type SimulateRequest struct {
	ProductIDs []string        `json:"product_ids"`
	Percentage decimal.Decimal `json:"percentage"`
	IsIncrease bool            `json:"is_increase"`
}

// PriceSetResponse los tres precios de un producto.
type PriceSetResponse struct {
	Cost decimal.Decimal `json:"cost"`
	Cash decimal.Decimal `json:"cash"`
	List decimal.Decimal `json:"list"`
}

// SnapshotResponse precios antes/después de un producto dentro de un ajuste.
type SnapshotResponse struct {
	ProductID   string           `json:"product_id"`
	ProductName string           `json:"product_name"`
	Before      PriceSetResponse `json:"before"`
	After       PriceSetResponse `json:"after"`
}

// AdjustmentResponse representación de un registro de ajuste.
type AdjustmentResponse struct {
	ID           string             `json:"id"`
	AppliedAt    time.Time          `json:"applied_at"`
	AppliedBy    string             `json:"applied_by"`
	Percentage   decimal.Decimal    `json:"percentage"`
	IsIncrease   bool               `json:"is_increase"`
	Description  string             `json:"description,omitempty"`
	IsTemporal   bool               `json:"is_temporal"`
	TemporalType string             `json:"temporal_type,omitempty"`
	ValidFrom    *time.Time         `json:"valid_from,omitempty"`
	ValidTo      *time.Time         `json:"valid_to,omitempty"`
	State        string             `json:"state,omitempty"`
	Snapshots    []SnapshotResponse `json:"snapshots"`
	Reverted     bool               `json:"reverted"`
	RevertedAt   *time.Time         `json:"reverted_at,omitempty"`
	RevertedBy   string             `json:"reverted_by,omitempty"`
}

// AdjustmentListResponse listado paginado de ajustes.
type AdjustmentListResponse struct {
	Items []AdjustmentResponse `json:"items"`
	Page  PageResponse         `json:"page"`
}

// SimulationLineResponse una línea de la vista previa.
type SimulationLineResponse struct {
	ProductID   string           `json:"product_id"`
	ProductName string           `json:"product_name"`
	Before      PriceSetResponse `json:"before"`
	After       PriceSetResponse `json:"after"`
}

// SimulationResponse resultado completo de la simulación.
type SimulationResponse struct {
	Items []SimulationLineResponse `json:"items"`
}

// ToPriceSetResponse convierte el value object del dominio.
func ToPriceSetResponse(p entity.PriceSet) PriceSetResponse {
	return PriceSetResponse{Cost: p.Cost, Cash: p.Cash, List: p.List}
}

// ToAdjustmentResponse convierte la entidad a su representación HTTP.
func ToAdjustmentResponse(a *entity.Adjustment) AdjustmentResponse {
	snaps := make([]SnapshotResponse, 0, len(a.Snapshots))
	for _, s := range a.Snapshots {
		snaps = append(snaps, SnapshotResponse{
			ProductID:   s.ProductID,
			ProductName: s.ProductName,
			Before:      ToPriceSetResponse(s.Before),
			After:       ToPriceSetResponse(s.After),
		})
	}
	return AdjustmentResponse{
		ID:           a.ID,
		AppliedAt:    a.AppliedAt,
		AppliedBy:    a.AppliedBy,
		Percentage:   a.Percentage,
		IsIncrease:   a.IsIncrease,
		Description:  a.Description,
		IsTemporal:   a.IsTemporal,
		TemporalType: a.TemporalType,
		ValidFrom:    a.ValidFrom,
		ValidTo:      a.ValidTo,
		State:        a.State,
		Snapshots:    snaps,
		Reverted:     a.Reverted,
		RevertedAt:   a.RevertedAt,
		RevertedBy:   a.RevertedBy,
	}
}
