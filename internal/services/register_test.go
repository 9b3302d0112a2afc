package services

import (
	"errors"
	"testing"
	"time"

	"posventa/internal/models"
)

func TestRegisterPreviewDoesNotPersist(t *testing.T) {
	db := setupTestDB(t)
	p := seedProduct(t, db, "P1", 100, 20)
	sales := NewSaleService(db, nil)
	svc := NewRegisterService(db, sales, nil)

	if _, err := sales.Create(SaleInput{Items: []SaleItemInput{{ID: p.ID, Precio: 100, Cantidad: 3}}}); err != nil {
		t.Fatalf("create sale: %v", err)
	}

	sum, err := svc.Preview("", 500)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if !sum.Preview {
		t.Fatal("expected preview flag")
	}
	if sum.Total != 300 {
		t.Fatalf("total = %v, want 300", sum.Total)
	}
	if sum.TotalEsperado != 800 {
		t.Fatalf("esperado = %v, want 800", sum.TotalEsperado)
	}
	if sum.DineroContado != sum.TotalEsperado || sum.Diferencia != 0 {
		t.Fatalf("preview must balance: contado=%v diferencia=%v", sum.DineroContado, sum.Diferencia)
	}
	if sum.CantidadVentas != 1 {
		t.Fatalf("cantidad = %d, want 1", sum.CantidadVentas)
	}
	if sum.PaymentTotals["EFECTIVO"] != 300 {
		t.Fatalf("payment totals = %v", sum.PaymentTotals)
	}

	var count int64
	db.Model(&models.RegisterClosing{}).Count(&count)
	if count != 0 {
		t.Fatalf("preview must not persist, found %d closings", count)
	}
}

func TestRegisterPreviewRejectsNegativeInitial(t *testing.T) {
	db := setupTestDB(t)
	svc := NewRegisterService(db, NewSaleService(db, nil), nil)
	if _, err := svc.Preview("", -1); !errors.Is(err, ErrNegativeInitial) {
		t.Fatalf("expected ErrNegativeInitial, got %v", err)
	}
}

func TestRegisterClosePersistsAndStartsNewWindow(t *testing.T) {
	db := setupTestDB(t)
	p := seedProduct(t, db, "P1", 100, 50)
	sales := NewSaleService(db, nil)
	svc := NewRegisterService(db, sales, nil)

	if _, err := sales.Create(SaleInput{Items: []SaleItemInput{{ID: p.ID, Precio: 100, Cantidad: 2}}}); err != nil {
		t.Fatalf("sale: %v", err)
	}

	sum, err := svc.Close("", 1000, "auto")
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if sum.Total != 200 || sum.TotalEsperado != 1200 || sum.Diferencia != 0 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	var count int64
	db.Model(&models.RegisterClosing{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected 1 closing, got %d", count)
	}

	// Sales recorded before the closing are outside the next window.
	// Backdate the existing sale to make the boundary unambiguous.
	db.Model(&models.Sale{}).Where("1=1").Update("created_at", time.Now().Add(-time.Hour))
	db.Model(&models.RegisterClosing{}).Where("1=1").Update("fecha", time.Now().Add(-30*time.Minute))

	if _, err := sales.Create(SaleInput{Items: []SaleItemInput{{ID: p.ID, Precio: 100, Cantidad: 1}}}); err != nil {
		t.Fatalf("sale 2: %v", err)
	}
	sum2, err := svc.Preview("", 0)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if sum2.Total != 100 || sum2.CantidadVentas != 1 {
		t.Fatalf("second window should only see the new sale: %+v", sum2)
	}
}

func TestRegisterCloseManualCountedDifference(t *testing.T) {
	db := setupTestDB(t)
	p := seedProduct(t, db, "P1", 100, 10)
	sales := NewSaleService(db, nil)
	svc := NewRegisterService(db, sales, nil)

	if _, err := sales.Create(SaleInput{Items: []SaleItemInput{{ID: p.ID, Precio: 100, Cantidad: 1}}}); err != nil {
		t.Fatalf("sale: %v", err)
	}
	sum, err := svc.Close("", 0, "80")
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if sum.DineroContado != 80 {
		t.Fatalf("contado = %v, want 80", sum.DineroContado)
	}
	if sum.Diferencia != 20 {
		t.Fatalf("diferencia = %v, want 20", sum.Diferencia)
	}
}

func TestRegisterCloseAbsentCountedMeansZero(t *testing.T) {
	db := setupTestDB(t)
	p := seedProduct(t, db, "P1", 100, 10)
	sales := NewSaleService(db, nil)
	svc := NewRegisterService(db, sales, nil)

	if _, err := sales.Create(SaleInput{Items: []SaleItemInput{{ID: p.ID, Precio: 100, Cantidad: 1}}}); err != nil {
		t.Fatalf("sale: %v", err)
	}
	// No count supplied: the drawer counts as empty and the whole expected
	// total becomes the difference.
	sum, err := svc.Close("", 50, "")
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if sum.DineroContado != 0 {
		t.Fatalf("contado = %v, want 0", sum.DineroContado)
	}
	if sum.TotalEsperado != 150 || sum.Diferencia != 150 {
		t.Fatalf("esperado/diferencia = %v/%v, want 150/150", sum.TotalEsperado, sum.Diferencia)
	}

	var closing models.RegisterClosing
	if err := db.First(&closing).Error; err != nil {
		t.Fatalf("load closing: %v", err)
	}
	if closing.Diferencia != 150 {
		t.Fatalf("persisted diferencia = %v, want 150", closing.Diferencia)
	}
}

func TestRegisterConfirmStoresFigures(t *testing.T) {
	db := setupTestDB(t)
	svc := NewRegisterService(db, NewSaleService(db, nil), nil)

	err := svc.Confirm(ConfirmInput{
		Fecha:          time.Now().Format(time.RFC3339),
		DineroInicial:  500,
		Total:          300,
		TotalEsperado:  800,
		Diferencia:     0,
		CantidadVentas: 3,
	})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	var closing models.RegisterClosing
	if err := db.First(&closing).Error; err != nil {
		t.Fatalf("load closing: %v", err)
	}
	if closing.TotalEsperado != 800 || closing.CantidadVentas != 3 {
		t.Fatalf("unexpected closing: %+v", closing)
	}
}

func TestRegisterHistoryNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	svc := NewRegisterService(db, NewSaleService(db, nil), nil)

	old := models.RegisterClosing{Fecha: time.Now().Add(-48 * time.Hour), DineroInicial: 1}
	recent := models.RegisterClosing{Fecha: time.Now(), DineroInicial: 2}
	db.Create(&old)
	db.Create(&recent)

	closings, err := svc.History()
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(closings) != 2 || closings[0].DineroInicial != 2 {
		t.Fatalf("unexpected order: %+v", closings)
	}
}
