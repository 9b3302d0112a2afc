package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"posventa/internal/models"
	"posventa/internal/money"
	"posventa/internal/payment"
)

var ErrNegativeInitial = errors.New("El dinero inicial debe ser un número positivo")
var ErrNegativeCounted = errors.New("El dinero contado debe ser un número positivo")

// RegisterSummary is the result of a preview or a legacy close. The window it
// covers starts at the later of the day's start and the day's last closing,
// so consecutive closings on one day never double-count a sale.
type RegisterSummary struct {
	Success        bool               `json:"success"`
	DineroInicial  float64            `json:"dinero_inicial"`
	DineroContado  float64            `json:"dinero_contado"`
	Total          float64            `json:"total"`
	TotalEsperado  float64            `json:"total_esperado"`
	Diferencia     float64            `json:"diferencia"`
	CantidadVentas int                `json:"cantidad_ventas"`
	Ventas         []SaleView         `json:"ventas"`
	PaymentTotals  map[string]float64 `json:"payment_totals,omitempty"`
	Fecha          string             `json:"fecha"`
	Preview        bool               `json:"preview,omitempty"`
}

// ConfirmInput persists the figures a preview produced, after the operator
// validated them.
type ConfirmInput struct {
	Fecha          string  `json:"fecha"`
	DineroInicial  float64 `json:"dinero_inicial"`
	Total          float64 `json:"total"`
	TotalEsperado  float64 `json:"total_esperado"`
	Diferencia     float64 `json:"diferencia"`
	CantidadVentas int     `json:"cantidad_ventas"`
}

type RegisterService struct {
	DB    *gorm.DB
	Sales *SaleService
	OpLog *OpLogService
}

func NewRegisterService(db *gorm.DB, sales *SaleService, oplog *OpLogService) *RegisterService {
	return &RegisterService{DB: db, Sales: sales, OpLog: oplog}
}

// window determines which sales belong to this closing: same calendar day as
// fecha, restricted to after the last closing of that day if one exists.
func (s *RegisterService) window(fecha string) (condition string, arg any, err error) {
	var last models.RegisterClosing
	e := s.DB.Where("DATE(fecha) = DATE(?)", fecha).
		Order("fecha DESC").
		First(&last).Error
	if e == nil {
		return "datetime(created_at) > datetime(?)", last.Fecha, nil
	}
	if errors.Is(e, gorm.ErrRecordNotFound) {
		return "DATE(created_at) = DATE(?)", fecha, nil
	}
	return "", nil, e
}

func (s *RegisterService) summarize(fecha string, dineroInicial float64) (*RegisterSummary, error) {
	if fecha == "" {
		fecha = time.Now().Format(time.RFC3339)
	}
	condition, arg, err := s.window(fecha)
	if err != nil {
		return nil, err
	}

	var agg struct {
		Total    float64
		Cantidad int
	}
	err = s.DB.Model(&models.Sale{}).
		Select("COALESCE(SUM(total), 0) as total, COUNT(*) as cantidad").
		Where(condition, arg).
		Scan(&agg).Error
	if err != nil {
		return nil, err
	}

	var sales []models.Sale
	if err := s.DB.Where(condition, arg).Order("created_at").Find(&sales).Error; err != nil {
		return nil, err
	}
	views := make([]SaleView, 0, len(sales))
	paymentTotals := map[string]float64{}
	for _, sale := range sales {
		var lines []SaleLineView
		err := s.DB.Table("venta_items vi").
			Select("vi.producto_id, p.nombre, vi.cantidad, vi.precio_unitario, vi.precio_original, vi.descuento_porcentaje, vi.subtotal").
			Joins("JOIN productos p ON vi.producto_id = p.id").
			Where("vi.venta_id = ?", sale.ID).
			Order("vi.id").
			Scan(&lines).Error
		if err != nil {
			return nil, err
		}
		views = append(views, SaleView{
			ID:            sale.ID,
			NumeroFactura: sale.NumeroFactura,
			Fecha:         sale.CreatedAt,
			Total:         sale.Total,
			MetodoPago:    payment.Decode(sale.MetodoPago),
			Vuelto:        sale.Vuelto,
			Items:         lines,
		})
		payment.SumByMethod(paymentTotals, sale.MetodoPago, sale.Total)
	}

	totalVentas := money.Round2(agg.Total)
	return &RegisterSummary{
		Success:        true,
		DineroInicial:  dineroInicial,
		Total:          totalVentas,
		TotalEsperado:  money.Sum([]float64{dineroInicial, totalVentas}),
		CantidadVentas: agg.Cantidad,
		Ventas:         views,
		PaymentTotals:  paymentTotals,
		Fecha:          fecha,
	}, nil
}

// Preview computes the closing without persisting. Counted equals expected,
// so the difference is always zero here.
func (s *RegisterService) Preview(fecha string, dineroInicial float64) (*RegisterSummary, error) {
	if dineroInicial < 0 {
		return nil, ErrNegativeInitial
	}
	sum, err := s.summarize(fecha, dineroInicial)
	if err != nil {
		return nil, err
	}
	sum.DineroContado = sum.TotalEsperado
	sum.Diferencia = 0
	sum.Preview = true
	return sum, nil
}

// Confirm stores a closing from previously previewed figures.
func (s *RegisterService) Confirm(in ConfirmInput) error {
	fecha, err := parseFecha(in.Fecha)
	if err != nil {
		return err
	}
	closing := models.RegisterClosing{
		Fecha:          fecha,
		DineroInicial:  in.DineroInicial,
		TotalVentas:    in.Total,
		TotalEsperado:  in.TotalEsperado,
		Diferencia:     in.Diferencia,
		CantidadVentas: in.CantidadVentas,
	}
	return s.DB.Create(&closing).Error
}

// Close computes and persists a closing in one step. Only the literal "auto"
// counts exactly the expected amount; an absent or empty dineroContado is a
// count of zero, so the whole expected total shows up as the difference.
func (s *RegisterService) Close(fecha string, dineroInicial float64, dineroContado string) (*RegisterSummary, error) {
	if dineroInicial < 0 {
		return nil, ErrNegativeInitial
	}
	sum, err := s.summarize(fecha, dineroInicial)
	if err != nil {
		return nil, err
	}

	var counted float64
	switch dineroContado {
	case "auto":
		counted = sum.TotalEsperado
	case "":
		counted = 0
	default:
		var parsed float64
		if _, err := fmt.Sscanf(dineroContado, "%f", &parsed); err != nil || parsed < 0 {
			return nil, ErrNegativeCounted
		}
		counted = parsed
	}
	sum.DineroContado = counted
	sum.Diferencia = money.Round2(sum.TotalEsperado - counted)
	sum.PaymentTotals = nil

	closing := models.RegisterClosing{
		Fecha:          time.Now(),
		DineroInicial:  sum.DineroInicial,
		TotalVentas:    sum.Total,
		TotalEsperado:  sum.TotalEsperado,
		Diferencia:     sum.Diferencia,
		CantidadVentas: sum.CantidadVentas,
	}
	if err := s.DB.Create(&closing).Error; err != nil {
		return nil, err
	}

	if s.OpLog != nil {
		s.OpLog.Record("CIERRE_CAJA",
			fmt.Sprintf("Cierre de caja realizado - Total: %s", money.Format(sum.TotalEsperado)),
			"Sistema", "cierres_caja", closing.ID, nil,
			map[string]any{
				"dinero_inicial":  sum.DineroInicial,
				"total_ventas":    sum.Total,
				"total_esperado":  sum.TotalEsperado,
				"diferencia":      sum.Diferencia,
				"cantidad_ventas": sum.CantidadVentas,
			})
	}
	return sum, nil
}

// History lists every closing, newest first.
func (s *RegisterService) History() ([]models.RegisterClosing, error) {
	var closings []models.RegisterClosing
	err := s.DB.Order("fecha DESC").Find(&closings).Error
	return closings, err
}

func parseFecha(raw string) (time.Time, error) {
	if raw == "" {
		return time.Now(), nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("fecha inválida: %s", raw)
}
