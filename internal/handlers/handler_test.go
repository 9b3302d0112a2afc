package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"posventa/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = db.AutoMigrate(
		&models.Product{}, &models.Sale{}, &models.SaleItem{},
		&models.RegisterClosing{},
		&models.Supplier{}, &models.SupplierOrder{}, &models.OrderItem{},
		&models.Promotion{}, &models.PromotionItem{},
		&models.License{}, &models.OperationLog{}, &models.ConfigEntry{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, codigo string, precio float64, stock int) models.Product {
	t.Helper()
	p := models.Product{Codigo: codigo, Nombre: "Producto " + codigo, Precio: precio, Stock: stock, Categoria: "Test"}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return p
}

func encodeBody(t *testing.T, payload any) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		t.Fatalf("encode body: %v", err)
	}
	return buf
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}
