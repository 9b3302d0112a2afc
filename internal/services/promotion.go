package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"posventa/internal/models"
)

// freePromotionLimit caps what an unlicensed install can do: at most this
// many promotions, each covering a single product.
const freePromotionLimit = 3

var (
	ErrPromotionTitle    = errors.New("El título de la promoción es requerido")
	ErrPromotionNoItems  = errors.New("La promoción debe incluir al menos un producto")
	ErrPromotionDiscount = errors.New("El descuento debe ser un porcentaje válido entre 0 y 100")
	ErrPromotionNotFound = errors.New("Promoción no encontrada")
)

// LimitError is returned when the free tier blocks a creation. It carries the
// upsell fields the frontend renders.
type LimitError struct {
	Title      string
	Message    string
	Suggestion string
	Status     int
}

func (e *LimitError) Error() string { return e.Message }

// ConflictError reports products that already belong to another promotion.
type ConflictError struct {
	Conflicts []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf(
		"Los siguientes productos ya están en otras promociones: %s. Un producto no puede estar en múltiples promociones simultáneamente.",
		strings.Join(e.Conflicts, ", "))
}

type PromotionItemInput struct {
	ProductoID          uint    `json:"producto_id" validate:"required"`
	DescuentoPorcentaje float64 `json:"descuento_porcentaje" validate:"required,gt=0,lte=100"`
}

type PromotionInput struct {
	Titulo string               `json:"titulo" validate:"required"`
	Items  []PromotionItemInput `json:"items" validate:"required,min=1,dive"`
}

// PromotionSummary is a listing row with the product count.
type PromotionSummary struct {
	ID             uint   `json:"id"`
	Titulo         string `json:"titulo"`
	CreatedAt      string `json:"created_at"`
	ProductosCount int    `json:"productos_count"`
}

// PromotionDetail is a promotion with resolved product names and prices.
type PromotionDetail struct {
	models.Promotion
	Items []PromotionItemDetail `json:"items"`
}

type PromotionItemDetail struct {
	ID                  uint    `json:"id"`
	ProductoID          uint    `json:"producto_id"`
	DescuentoPorcentaje float64 `json:"descuento_porcentaje"`
	ProductoNombre      string  `json:"producto_nombre"`
	PrecioOriginal      float64 `json:"precio_original"`
}

type PromotionService struct {
	DB      *gorm.DB
	License *LicenseService
	OpLog   *OpLogService
}

func NewPromotionService(db *gorm.DB, license *LicenseService, oplog *OpLogService) *PromotionService {
	return &PromotionService{DB: db, License: license, OpLog: oplog}
}

// Create validates the free-tier limits, rejects products already promoted
// elsewhere, and inserts the promotion with its items in one transaction.
func (s *PromotionService) Create(in PromotionInput) (uint, error) {
	if strings.TrimSpace(in.Titulo) == "" {
		return 0, ErrPromotionTitle
	}
	if len(in.Items) == 0 {
		return 0, ErrPromotionNoItems
	}

	if s.License == nil || !s.License.IsLicensed() {
		var count int64
		if err := s.DB.Model(&models.Promotion{}).Count(&count).Error; err != nil {
			return 0, err
		}
		if count >= freePromotionLimit {
			return 0, &LimitError{
				Title:      "Límite alcanzado",
				Message:    "Sin licencia, solo puede tener hasta 3 promociones activas.",
				Suggestion: "Active una licencia para crear más promociones.",
				Status:     403,
			}
		}
		if len(in.Items) != 1 {
			return 0, &LimitError{
				Title:      "Límite de promoción",
				Message:    "En modo gratuito, cada promoción solo puede incluir 1 producto.",
				Suggestion: "Active una licencia para crear promociones con múltiples productos.",
				Status:     400,
			}
		}
	}

	for _, item := range in.Items {
		if item.DescuentoPorcentaje <= 0 || item.DescuentoPorcentaje > 100 {
			return 0, ErrPromotionDiscount
		}
	}

	productIDs := make([]uint, 0, len(in.Items))
	for _, item := range in.Items {
		productIDs = append(productIDs, item.ProductoID)
	}
	var existing []struct {
		ProductoNombre  string
		PromocionTitulo string
	}
	err := s.DB.Table("promocion_items pi").
		Select("p.nombre as producto_nombre, prom.titulo as promocion_titulo").
		Joins("JOIN productos p ON pi.producto_id = p.id").
		Joins("JOIN promociones prom ON pi.promocion_id = prom.id").
		Where("pi.producto_id IN ?", productIDs).
		Scan(&existing).Error
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		conflicts := make([]string, 0, len(existing))
		for _, ep := range existing {
			conflicts = append(conflicts, fmt.Sprintf("%q (ya en promoción: %q)", ep.ProductoNombre, ep.PromocionTitulo))
		}
		return 0, &ConflictError{Conflicts: conflicts}
	}

	promo := models.Promotion{Titulo: strings.TrimSpace(in.Titulo)}
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&promo).Error; err != nil {
			return err
		}
		for _, item := range in.Items {
			pi := models.PromotionItem{
				PromocionID:         promo.ID,
				ProductoID:          item.ProductoID,
				DescuentoPorcentaje: item.DescuentoPorcentaje,
			}
			if err := tx.Create(&pi).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if s.OpLog != nil {
		discounts := make([]string, 0, len(in.Items))
		for _, item := range in.Items {
			discounts = append(discounts, fmt.Sprintf("%g%%", item.DescuentoPorcentaje))
		}
		s.OpLog.Record("PROMOCION_CREADA",
			fmt.Sprintf("Promoción creada: %s (%d productos)", promo.Titulo, len(in.Items)),
			"Sistema", "promociones", promo.ID, nil,
			map[string]any{
				"titulo":     promo.Titulo,
				"productos":  len(in.Items),
				"descuentos": strings.Join(discounts, ", "),
			})
	}
	return promo.ID, nil
}

// List returns every promotion with its product count, newest first.
func (s *PromotionService) List() ([]PromotionSummary, error) {
	var rows []PromotionSummary
	err := s.DB.Table("promociones p").
		Select("p.id, p.titulo, p.created_at, COUNT(pi.id) as productos_count").
		Joins("LEFT JOIN promocion_items pi ON p.id = pi.promocion_id").
		Group("p.id, p.titulo, p.created_at").
		Order("p.created_at DESC").
		Scan(&rows).Error
	return rows, err
}

// Get resolves one promotion with product names and current prices.
func (s *PromotionService) Get(id uint) (*PromotionDetail, error) {
	var promo models.Promotion
	if err := s.DB.First(&promo, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPromotionNotFound
		}
		return nil, err
	}
	var items []PromotionItemDetail
	err := s.DB.Table("promocion_items pi").
		Select("pi.id, pi.producto_id, pi.descuento_porcentaje, pr.nombre as producto_nombre, pr.precio as precio_original").
		Joins("JOIN productos pr ON pi.producto_id = pr.id").
		Where("pi.promocion_id = ?", id).
		Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return &PromotionDetail{Promotion: promo, Items: items}, nil
}

// Delete removes a promotion and its items.
func (s *PromotionService) Delete(id uint) error {
	var promo models.Promotion
	if err := s.DB.First(&promo, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPromotionNotFound
		}
		return err
	}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("promocion_id = ?", id).Delete(&models.PromotionItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Promotion{}, id).Error
	})
}

// CleanResult reports what a duplicate cleanup removed.
type CleanResult struct {
	Cleaned          int           `json:"cleaned"`
	AffectedProducts int           `json:"affected_products"`
	Details          []CleanDetail `json:"details,omitempty"`
}

type CleanDetail struct {
	Producto         string `json:"producto"`
	PromocionesAntes int    `json:"promociones_antes"`
	MantenidoEn      string `json:"mantenido_en"`
}

// CleanDuplicates removes products that drifted into multiple promotions,
// keeping each product only in its oldest promotion.
func (s *PromotionService) CleanDuplicates() (*CleanResult, error) {
	var duplicates []struct {
		ProductoID     uint
		ProductoNombre string
		Count          int
	}
	err := s.DB.Table("promocion_items pi").
		Select("pi.producto_id, p.nombre as producto_nombre, COUNT(pi.promocion_id) as count").
		Joins("JOIN productos p ON pi.producto_id = p.id").
		Group("pi.producto_id, p.nombre").
		Having("COUNT(pi.promocion_id) > 1").
		Order("p.nombre").
		Scan(&duplicates).Error
	if err != nil {
		return nil, err
	}
	if len(duplicates) == 0 {
		return &CleanResult{}, nil
	}

	result := &CleanResult{AffectedProducts: len(duplicates)}
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		for _, dup := range duplicates {
			var items []models.PromotionItem
			if err := tx.Where("producto_id = ?", dup.ProductoID).Order("promocion_id").Find(&items).Error; err != nil {
				return err
			}
			if len(items) < 2 {
				continue
			}
			var keptTitle string
			var keep models.Promotion
			if tx.First(&keep, items[0].PromocionID).Error == nil {
				keptTitle = keep.Titulo
			}
			for _, item := range items[1:] {
				if err := tx.Where("promocion_id = ? AND producto_id = ?", item.PromocionID, dup.ProductoID).
					Delete(&models.PromotionItem{}).Error; err != nil {
					return err
				}
				result.Cleaned++
			}
			result.Details = append(result.Details, CleanDetail{
				Producto:         dup.ProductoNombre,
				PromocionesAntes: dup.Count,
				MantenidoEn:      keptTitle,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.OpLog != nil && result.Cleaned > 0 {
		s.OpLog.Record("PROMOCIONES_LIMPIADAS",
			fmt.Sprintf("Se limpiaron %d productos duplicados de promociones", result.Cleaned),
			"Sistema", "promociones", 0, nil,
			map[string]any{
				"productos_afectados": result.AffectedProducts,
				"items_removidos":     result.Cleaned,
			})
	}
	return result, nil
}
