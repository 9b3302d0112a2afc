package services

import (
	"testing"
	"time"

	"posventa/internal/models"
)

func drainOpLog(t *testing.T, svc *OpLogService) {
	t.Helper()
	svc.Start()
	svc.Record("VENTA", "Venta de prueba", "Sistema", "ventas", 1, nil, map[string]any{"total": 100})
	svc.Close()
}

func TestOpLogRecordsWhenLicensedAndEnabled(t *testing.T) {
	db := setupTestDB(t)
	seedActiveLicense(t, db)
	drainOpLog(t, NewOpLogService(db))

	var entries []models.OperationLog
	db.Find(&entries)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].TipoOperacion != "VENTA" || entries[0].DatosNuevos == "" {
		t.Fatalf("unexpected entry: %+v", entries[0])
	}
}

func TestOpLogSkipsWithoutLicense(t *testing.T) {
	db := setupTestDB(t)
	drainOpLog(t, NewOpLogService(db))

	var count int64
	db.Model(&models.OperationLog{}).Count(&count)
	if count != 0 {
		t.Fatalf("unlicensed install must not log, found %d entries", count)
	}
}

func TestOpLogSkipsWhenLoggingDisabled(t *testing.T) {
	db := setupTestDB(t)
	seedActiveLicense(t, db)
	db.Model(&models.ConfigEntry{}).Where("clave = ?", "logging_enabled").Update("valor", "false")
	drainOpLog(t, NewOpLogService(db))

	var count int64
	db.Model(&models.OperationLog{}).Count(&count)
	if count != 0 {
		t.Fatalf("disabled logging must skip writes, found %d entries", count)
	}
}

func TestOpLogRecentNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	seedActiveLicense(t, db)
	svc := NewOpLogService(db)
	svc.Start()
	svc.Record("PRODUCTO_CREADO", "Primero", "Sistema", "productos", 1, nil, nil)
	svc.Record("PRODUCTO_EDITADO", "Segundo", "Sistema", "productos", 1, nil, nil)
	svc.Close()

	entries, err := svc.Recent(0)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
}

func TestOpLogClear(t *testing.T) {
	db := setupTestDB(t)
	seedActiveLicense(t, db)
	svc := NewOpLogService(db)
	drainOpLog(t, svc)

	removed, err := svc.Clear()
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	var count int64
	db.Model(&models.OperationLog{}).Count(&count)
	if count != 0 {
		t.Fatalf("log should be empty, found %d", count)
	}
}

func TestOpLogRecordWithoutStartDoesNotBlock(t *testing.T) {
	db := setupTestDB(t)
	svc := NewOpLogService(db)
	// Fill the queue past its buffer; every call must return immediately.
	for i := 0; i < 300; i++ {
		svc.Record("VENTA", "desbordada", "Sistema", "ventas", uint(i), nil, nil)
	}
}

func TestOpLogRecordAfterCloseIsDropped(t *testing.T) {
	db := setupTestDB(t)
	seedActiveLicense(t, db)
	svc := NewOpLogService(db)
	svc.Start()
	svc.Close()

	// Must not panic, and must not write.
	svc.Record("VENTA", "tarde", "Sistema", "ventas", 1, nil, nil)
	var count int64
	db.Model(&models.OperationLog{}).Count(&count)
	if count != 0 {
		t.Fatalf("entry recorded after close: %d", count)
	}
}

func TestOpLogPrunesToRetention(t *testing.T) {
	db := setupTestDB(t)
	seedActiveLicense(t, db)

	base := time.Now().Add(-2 * time.Hour)
	backlog := make([]models.OperationLog, 0, opLogRetention+5)
	for i := 0; i < opLogRetention+5; i++ {
		backlog = append(backlog, models.OperationLog{
			TipoOperacion: "VENTA",
			Descripcion:   "histórica",
			CreatedAt:     base.Add(time.Duration(i) * time.Second),
		})
	}
	if err := db.CreateInBatches(backlog, 200).Error; err != nil {
		t.Fatalf("seed backlog: %v", err)
	}

	svc := NewOpLogService(db)
	svc.Start()
	svc.Record("VENTA", "nueva", "Sistema", "ventas", 1, nil, nil)
	svc.Close()

	var count int64
	db.Model(&models.OperationLog{}).Count(&count)
	if count != opLogRetention {
		t.Fatalf("count = %d, want %d after prune", count, opLogRetention)
	}
	// The rows that fell off are the oldest ones.
	var oldest int64
	db.Model(&models.OperationLog{}).Where("created_at < ?", base.Add(6*time.Second)).Count(&oldest)
	if oldest != 0 {
		t.Fatalf("oldest rows should be pruned first, %d remain", oldest)
	}
	var newest int64
	db.Model(&models.OperationLog{}).Where("descripcion = ?", "nueva").Count(&newest)
	if newest != 1 {
		t.Fatalf("newest entry should survive the prune, found %d", newest)
	}
}
