package services

import (
	"errors"
	"strings"
	"testing"

	"posventa/internal/models"
)

func TestPromotionCreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	seedActiveLicense(t, db)
	p1 := seedProduct(t, db, "P1", 100, 10)
	p2 := seedProduct(t, db, "P2", 200, 10)
	svc := NewPromotionService(db, NewLicenseService(db, "", nil), nil)

	id, err := svc.Create(PromotionInput{
		Titulo: "Verano",
		Items: []PromotionItemInput{
			{ProductoID: p1.ID, DescuentoPorcentaje: 10},
			{ProductoID: p2.ID, DescuentoPorcentaje: 25},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	detail, err := svc.Get(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if detail.Titulo != "Verano" || len(detail.Items) != 2 {
		t.Fatalf("unexpected detail: %+v", detail)
	}
	if detail.Items[0].ProductoNombre == "" || detail.Items[0].PrecioOriginal == 0 {
		t.Fatalf("items should resolve product data: %+v", detail.Items[0])
	}
}

func TestPromotionCreateRejectsProductAlreadyPromoted(t *testing.T) {
	db := setupTestDB(t)
	seedActiveLicense(t, db)
	p := seedProduct(t, db, "P1", 100, 10)
	svc := NewPromotionService(db, NewLicenseService(db, "", nil), nil)

	if _, err := svc.Create(PromotionInput{Titulo: "Primera", Items: []PromotionItemInput{{ProductoID: p.ID, DescuentoPorcentaje: 10}}}); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := svc.Create(PromotionInput{Titulo: "Segunda", Items: []PromotionItemInput{{ProductoID: p.ID, DescuentoPorcentaje: 20}}})
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if !strings.Contains(conflict.Error(), "Primera") {
		t.Fatalf("conflict should name the existing promotion: %v", conflict)
	}
}

func TestPromotionFreeTierCaps(t *testing.T) {
	db := setupTestDB(t)
	svc := NewPromotionService(db, NewLicenseService(db, "", nil), nil)

	// Single item per promotion without license
	p1 := seedProduct(t, db, "P1", 100, 10)
	p2 := seedProduct(t, db, "P2", 100, 10)
	_, err := svc.Create(PromotionInput{Titulo: "Doble", Items: []PromotionItemInput{
		{ProductoID: p1.ID, DescuentoPorcentaje: 10},
		{ProductoID: p2.ID, DescuentoPorcentaje: 10},
	}})
	var limitErr *LimitError
	if !errors.As(err, &limitErr) || limitErr.Status != 400 {
		t.Fatalf("expected item-count LimitError(400), got %v", err)
	}

	// Up to three promotions allowed
	for i, p := range []models.Product{p1, p2, seedProduct(t, db, "P3", 100, 10)} {
		if _, err := svc.Create(PromotionInput{
			Titulo: strings.Repeat("x", i+1),
			Items:  []PromotionItemInput{{ProductoID: p.ID, DescuentoPorcentaje: 10}},
		}); err != nil {
			t.Fatalf("promotion %d: %v", i+1, err)
		}
	}
	p4 := seedProduct(t, db, "P4", 100, 10)
	_, err = svc.Create(PromotionInput{Titulo: "Cuarta", Items: []PromotionItemInput{{ProductoID: p4.ID, DescuentoPorcentaje: 10}}})
	if !errors.As(err, &limitErr) || limitErr.Status != 403 {
		t.Fatalf("expected promotion-count LimitError(403), got %v", err)
	}
}

func TestPromotionValidation(t *testing.T) {
	db := setupTestDB(t)
	seedActiveLicense(t, db)
	p := seedProduct(t, db, "P1", 100, 10)
	svc := NewPromotionService(db, NewLicenseService(db, "", nil), nil)

	if _, err := svc.Create(PromotionInput{Titulo: "  ", Items: []PromotionItemInput{{ProductoID: p.ID, DescuentoPorcentaje: 10}}}); !errors.Is(err, ErrPromotionTitle) {
		t.Fatalf("expected ErrPromotionTitle, got %v", err)
	}
	if _, err := svc.Create(PromotionInput{Titulo: "Sin items"}); !errors.Is(err, ErrPromotionNoItems) {
		t.Fatalf("expected ErrPromotionNoItems, got %v", err)
	}
	if _, err := svc.Create(PromotionInput{Titulo: "Mal descuento", Items: []PromotionItemInput{{ProductoID: p.ID, DescuentoPorcentaje: 150}}}); !errors.Is(err, ErrPromotionDiscount) {
		t.Fatalf("expected ErrPromotionDiscount, got %v", err)
	}
}

func TestPromotionDeleteRemovesItems(t *testing.T) {
	db := setupTestDB(t)
	seedActiveLicense(t, db)
	p := seedProduct(t, db, "P1", 100, 10)
	svc := NewPromotionService(db, NewLicenseService(db, "", nil), nil)

	id, err := svc.Create(PromotionInput{Titulo: "Borrar", Items: []PromotionItemInput{{ProductoID: p.ID, DescuentoPorcentaje: 10}}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Delete(id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	var items int64
	db.Model(&models.PromotionItem{}).Count(&items)
	if items != 0 {
		t.Fatalf("items should be gone, found %d", items)
	}
	if err := svc.Delete(id); !errors.Is(err, ErrPromotionNotFound) {
		t.Fatalf("expected ErrPromotionNotFound, got %v", err)
	}
}

func TestPromotionCleanDuplicatesKeepsOldest(t *testing.T) {
	db := setupTestDB(t)
	p := seedProduct(t, db, "P1", 100, 10)
	svc := NewPromotionService(db, NewLicenseService(db, "", nil), nil)

	// Force the duplicate state directly; Create prevents it.
	first := models.Promotion{Titulo: "Vieja"}
	second := models.Promotion{Titulo: "Nueva"}
	db.Create(&first)
	db.Create(&second)
	db.Create(&models.PromotionItem{PromocionID: first.ID, ProductoID: p.ID, DescuentoPorcentaje: 10})
	db.Create(&models.PromotionItem{PromocionID: second.ID, ProductoID: p.ID, DescuentoPorcentaje: 20})

	result, err := svc.CleanDuplicates()
	if err != nil {
		t.Fatalf("clean: %v", err)
	}
	if result.Cleaned != 1 || result.AffectedProducts != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	var remaining []models.PromotionItem
	db.Find(&remaining)
	if len(remaining) != 1 || remaining[0].PromocionID != first.ID {
		t.Fatalf("oldest promotion should keep the product: %+v", remaining)
	}
}

func TestPromotionListCounts(t *testing.T) {
	db := setupTestDB(t)
	seedActiveLicense(t, db)
	p1 := seedProduct(t, db, "P1", 100, 10)
	p2 := seedProduct(t, db, "P2", 100, 10)
	svc := NewPromotionService(db, NewLicenseService(db, "", nil), nil)

	if _, err := svc.Create(PromotionInput{Titulo: "Dos productos", Items: []PromotionItemInput{
		{ProductoID: p1.ID, DescuentoPorcentaje: 10},
		{ProductoID: p2.ID, DescuentoPorcentaje: 15},
	}}); err != nil {
		t.Fatalf("create: %v", err)
	}
	rows, err := svc.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 || rows[0].ProductosCount != 2 {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}
