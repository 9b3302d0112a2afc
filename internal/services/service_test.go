package services

import (
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"posventa/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Use a unique in-memory database per test to avoid cross-test collisions.
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
	if err := db.Create(&models.ConfigEntry{Clave: "logging_enabled", Valor: "true"}).Error; err != nil {
		t.Fatalf("config: %v", err)
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

func seedActiveLicense(t *testing.T, db *gorm.DB) {
	t.Helper()
	exp := time.Now().AddDate(0, 1, 0)
	lic := models.License{ClaveLicencia: "111111", Estado: "activa", FechaExpiracion: &exp}
	if err := db.Create(&lic).Error; err != nil {
		t.Fatalf("seed license: %v", err)
	}
}

func writeCodePool(t *testing.T, codes []string) string {
	t.Helper()
	raw, err := json.Marshal(map[string][]string{"activation_codes": codes})
	if err != nil {
		t.Fatalf("marshal pool: %v", err)
	}
	path := filepath.Join(t.TempDir(), "sysdata.dat")
	if err := os.WriteFile(path, []byte(base64.StdEncoding.EncodeToString(raw)), 0o644); err != nil {
		t.Fatalf("write pool: %v", err)
	}
	return path
}
