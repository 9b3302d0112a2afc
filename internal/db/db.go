package db

import (
	"errors"
	"fmt"
	"strings"

	migrate "github.com/golang-migrate/migrate/v4"
	// The following blank imports register the sqlite3 driver and file source for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"posventa/internal/models"
)

// NormalizeDSN turns a bare file path into a sqlite DSN with the pragmas the
// store needs: WAL journaling so reads do not block the sale transaction, a
// busy timeout instead of immediate SQLITE_BUSY, and enforced foreign keys.
// DSNs that already carry parameters (including the file:...?mode=memory form
// the tests use) pass through untouched.
func NormalizeDSN(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.Trim(s, "\"'")
	if s == "" || strings.Contains(s, "?") {
		return s
	}
	return s + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"
}

// Options controls connection behavior.
type Options struct {
	DSN           string
	RunMigrations bool
	Seed          bool
	Debug         bool
}

// Connect opens the sqlite store and brings the schema up to date, either via
// SQL migrations or the AutoMigrate fallback.
func Connect(opts Options) (*gorm.DB, error) {
	dsn := NormalizeDSN(opts.DSN)
	if dsn == "" {
		return nil, errors.New("la ruta de la base de datos está vacía")
	}
	logLevel := logger.Silent
	if opts.Debug {
		logLevel = logger.Info
	}
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logLevel)})
	if err != nil {
		return nil, fmt.Errorf("abrir base de datos: %w", err)
	}
	if pingErr := gdb.Exec("SELECT 1").Error; pingErr != nil {
		return nil, fmt.Errorf("db ping failed: %w", pingErr)
	}

	if opts.RunMigrations {
		if err := runSQLMigrations(dsn); err != nil {
			return nil, fmt.Errorf("sql migrations failed: %w", err)
		}
	} else {
		if err := AutoMigrate(gdb); err != nil {
			return nil, err
		}
	}

	for _, table := range []string{"productos", "ventas", "licencia", "configuracion"} {
		if !gdb.Migrator().HasTable(table) {
			return nil, errors.New("missing table after migration: " + table)
		}
	}

	if err := ensureDefaults(gdb); err != nil {
		return nil, err
	}
	if opts.Seed {
		seed(gdb)
	}
	return gdb, nil
}

// AutoMigrate creates or updates every table of the schema.
func AutoMigrate(gdb *gorm.DB) error {
	modelsToMigrate := []interface{}{
		&models.Product{}, &models.Sale{}, &models.SaleItem{},
		&models.RegisterClosing{},
		&models.Supplier{}, &models.SupplierOrder{}, &models.OrderItem{},
		&models.Promotion{}, &models.PromotionItem{},
		&models.License{}, &models.OperationLog{}, &models.ConfigEntry{},
	}
	for _, m := range modelsToMigrate {
		if migErr := gdb.AutoMigrate(m); migErr != nil {
			return fmt.Errorf("automigrate %T: %w", m, migErr)
		}
	}
	return nil
}

// ensureDefaults inserts the configuration rows the services read at runtime.
func ensureDefaults(gdb *gorm.DB) error {
	var existing models.ConfigEntry
	err := gdb.Where("clave = ?", "logging_enabled").First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		entry := models.ConfigEntry{
			Clave:       "logging_enabled",
			Valor:       "true",
			Descripcion: "Habilita el registro de operaciones",
		}
		return gdb.Create(&entry).Error
	}
	return err
}

func seed(gdb *gorm.DB) {
	var count int64
	gdb.Model(&models.Product{}).Count(&count)
	if count > 0 {
		return
	}
	samples := []models.Product{
		{Codigo: "PROD001", Nombre: "Coca Cola 500ml", Descripcion: "Bebida gaseosa", Precio: 850, Stock: 50, Categoria: "Bebidas"},
		{Codigo: "PROD002", Nombre: "Agua Mineral 1.5L", Descripcion: "Agua sin gas", Precio: 600, Stock: 40, Categoria: "Bebidas"},
		{Codigo: "PROD003", Nombre: "Papas Fritas 150g", Descripcion: "Snack salado", Precio: 1200, Stock: 30, Categoria: "Snacks"},
		{Codigo: "PROD004", Nombre: "Galletitas Dulces", Descripcion: "Paquete surtido", Precio: 950, Stock: 25, Categoria: "Galletitas"},
		{Codigo: "PROD005", Nombre: "Pan Lactal", Descripcion: "Bolsa 500g", Precio: 1800, Stock: 15, Categoria: "Panadería"},
		{Codigo: "PROD006", Nombre: "Leche Entera 1L", Descripcion: "Sachet", Precio: 1100, Stock: 20, Categoria: "Lácteos"},
		{Codigo: "PROD007", Nombre: "Yerba Mate 500g", Descripcion: "Con palo", Precio: 2500, Stock: 18, Categoria: "Almacén"},
		{Codigo: "PROD008", Nombre: "Azúcar 1kg", Descripcion: "Refinada", Precio: 1300, Stock: 22, Categoria: "Almacén"},
	}
	for _, p := range samples {
		if err := gdb.Create(&p).Error; err != nil {
			logrus.WithError(err).WithField("codigo", p.Codigo).Warn("no se pudo insertar producto de ejemplo")
		}
	}
	logrus.Infof("productos de ejemplo insertados: %d", len(samples))
}

// runSQLMigrations executes migrations in ./migrations using golang-migrate file source.
func runSQLMigrations(dsn string) error {
	m, err := migrate.New("file://migrations", "sqlite3://"+dsn)
	if err != nil {
		return err
	}
	if err = m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}
