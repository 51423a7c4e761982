package assets

import (
	"bytes"
	"context"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"fibertrack/infrastructure/apperr"
	"fibertrack/infrastructure/audit"
	"fibertrack/infrastructure/sqlite"
	"fibertrack/models"
)

func openTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sqlite.OpenDB(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("runtime caller unavailable")
	}
	migrationsDir := filepath.Join(filepath.Dir(file), "..", "..", "infrastructure", "sqlite", "migrations")
	if err := sqlite.ApplyMigrations(context.Background(), db, migrationsDir); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return db
}

func testActor() models.User {
	return models.User{ID: 0, Username: "admin"}
}

func createTestAsset(t *testing.T, db *sqlite.DB, serial string) models.Asset {
	t.Helper()
	asset, err := CreateAsset(context.Background(), db, audit.NewService(), testActor(), CreateAssetInput{
		Type:         models.AssetONT,
		Model:        "ONT-100",
		SerialNumber: serial,
		Pincode:      "560001",
	})
	if err != nil {
		t.Fatalf("create asset: %v", err)
	}
	return asset
}

func TestCreateAssetDefaultsToAvailable(t *testing.T) {
	db := openTestDB(t)

	asset := createTestAsset(t, db, "SN-CREATE-1")
	if asset.Status != models.AssetAvailable {
		t.Fatalf("expected available, got %q", asset.Status)
	}
	if asset.ID == 0 {
		t.Fatalf("expected id assigned")
	}
}

func TestCreateAssetRejectsDuplicateSerial(t *testing.T) {
	db := openTestDB(t)
	createTestAsset(t, db, "SN-DUP-1")

	_, err := CreateAsset(context.Background(), db, audit.NewService(), testActor(), CreateAssetInput{
		Type:         models.AssetRouter,
		Model:        "RTR-200",
		SerialNumber: "SN-DUP-1",
		Pincode:      "560002",
	})
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestUpdateAssetGuards(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	auditSvc := audit.NewService()
	asset := createTestAsset(t, db, "SN-UPD-1")

	assigned := models.AssetAssigned
	if _, err := UpdateAsset(ctx, db, auditSvc, testActor(), asset.ID, UpdateAssetInput{Status: &assigned}); apperr.KindOf(err) != apperr.KindInvalidState {
		t.Fatalf("expected invalid state for manual assignment, got %v", err)
	}

	faulty := models.AssetFaulty
	updated, err := UpdateAsset(ctx, db, auditSvc, testActor(), asset.ID, UpdateAssetInput{Status: &faulty})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != models.AssetFaulty {
		t.Fatalf("expected faulty, got %q", updated.Status)
	}

	// Assigned assets are frozen.
	if _, err := db.W.NewUpdate().
		Model((*models.Asset)(nil)).
		Set("status = ?", models.AssetAssigned).
		Where("id = ?", asset.ID).
		Exec(ctx); err != nil {
		t.Fatalf("force assign: %v", err)
	}
	newModel := "ONT-200"
	if _, err := UpdateAsset(ctx, db, auditSvc, testActor(), asset.ID, UpdateAssetInput{Model: &newModel}); apperr.KindOf(err) != apperr.KindInvalidState {
		t.Fatalf("expected invalid state editing assigned asset, got %v", err)
	}
}

func TestDeleteAssetGuards(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	auditSvc := audit.NewService()
	asset := createTestAsset(t, db, "SN-DEL-1")

	if _, err := db.W.NewUpdate().
		Model((*models.Asset)(nil)).
		Set("status = ?", models.AssetAssigned).
		Where("id = ?", asset.ID).
		Exec(ctx); err != nil {
		t.Fatalf("force assign: %v", err)
	}
	if err := DeleteAsset(ctx, db, auditSvc, testActor(), asset.ID); apperr.KindOf(err) != apperr.KindInvalidState {
		t.Fatalf("expected invalid state deleting assigned asset, got %v", err)
	}

	if _, err := db.W.NewUpdate().
		Model((*models.Asset)(nil)).
		Set("status = ?", models.AssetAvailable).
		Where("id = ?", asset.ID).
		Exec(ctx); err != nil {
		t.Fatalf("unassign: %v", err)
	}
	if err := DeleteAsset(ctx, db, auditSvc, testActor(), asset.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := GetAsset(ctx, db, asset.ID); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestBulkCreateAssets(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	auditSvc := audit.NewService()

	inputs := []CreateAssetInput{
		{Type: models.AssetONT, Model: "ONT-100", SerialNumber: "SN-B1", Pincode: "560001"},
		{Type: models.AssetONT, Model: "ONT-100", SerialNumber: "SN-B2", Pincode: "560001"},
		{Type: models.AssetRouter, Model: "RTR-200", SerialNumber: "SN-B3", Pincode: "560002"},
	}
	summary, err := BulkCreateAssets(ctx, db, auditSvc, testActor(), inputs)
	if err != nil {
		t.Fatalf("bulk create: %v", err)
	}
	if summary.Imported != 3 || summary.OntCount != 2 || summary.RouterCount != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	var auditCount int
	if err := db.R.NewRaw(`SELECT COUNT(*) FROM audit_logs WHERE action_type = 'CREATE'`).Scan(ctx, &auditCount); err != nil {
		t.Fatalf("count audits: %v", err)
	}
	if auditCount != 1 {
		t.Fatalf("expected one summary audit row, got %d", auditCount)
	}
}

func TestBulkCreateRejectsInFileDuplicates(t *testing.T) {
	db := openTestDB(t)

	inputs := []CreateAssetInput{
		{Type: models.AssetONT, Model: "ONT-100", SerialNumber: "SN-X", Pincode: "560001"},
		{Type: models.AssetONT, Model: "ONT-100", SerialNumber: "SN-X", Pincode: "560001"},
	}
	_, err := BulkCreateAssets(context.Background(), db, audit.NewService(), testActor(), inputs)
	if apperr.KindOf(err) != apperr.KindInvalidState {
		t.Fatalf("expected invalid state for in-file duplicate, got %v", err)
	}
}

func TestBulkCreateRejectsExistingSerials(t *testing.T) {
	db := openTestDB(t)
	createTestAsset(t, db, "SN-EXIST")

	inputs := []CreateAssetInput{
		{Type: models.AssetONT, Model: "ONT-100", SerialNumber: "SN-EXIST", Pincode: "560001"},
		{Type: models.AssetONT, Model: "ONT-100", SerialNumber: "SN-NEW", Pincode: "560001"},
	}
	_, err := BulkCreateAssets(context.Background(), db, audit.NewService(), testActor(), inputs)
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}

	// The whole batch must be rejected.
	var count int
	if err := db.R.NewRaw(`SELECT COUNT(*) FROM assets WHERE serial_number = 'SN-NEW'`).Scan(context.Background(), &count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected SN-NEW not inserted, got %d rows", count)
	}
}

func TestSwapAssetsTransfersBindings(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	auditSvc := audit.NewService()

	oldAsset := createTestAsset(t, db, "SN-OLD")
	newAsset := createTestAsset(t, db, "SN-NEW")

	customer := models.Customer{Name: "Asha Rao", Address: "12 Fiber Lane", Pincode: "560001", Plan: "100mbps", Status: models.CustomerActive}
	if _, err := db.W.NewInsert().Model(&customer).Exec(ctx); err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	splitter := models.Splitter{Model: "1x4", Status: models.SplitterOperational, MaxPorts: 4, UsedPorts: 1}
	if _, err := db.W.NewInsert().Model(&splitter).Exec(ctx); err != nil {
		t.Fatalf("seed splitter: %v", err)
	}
	port := models.Port{Status: models.PortOccupied, CustomerID: &customer.ID, SplitterID: splitter.ID}
	if _, err := db.W.NewInsert().Model(&port).Exec(ctx); err != nil {
		t.Fatalf("seed port: %v", err)
	}
	if _, err := db.W.NewUpdate().
		Model((*models.Asset)(nil)).
		Set("status = ?", models.AssetAssigned).
		Set("assigned_to_customer_id = ?", customer.ID).
		Set("port_id = ?", port.ID).
		Where("id = ?", oldAsset.ID).
		Exec(ctx); err != nil {
		t.Fatalf("assign old asset: %v", err)
	}
	openRow := models.AssetAssignment{AssetID: oldAsset.ID, CustomerID: customer.ID, BearingStatus: models.BearingHeld, DateOfIssue: customer.CreatedAt}
	if _, err := db.W.NewInsert().Model(&openRow).Exec(ctx); err != nil {
		t.Fatalf("seed assignment: %v", err)
	}

	swapped, err := SwapAssets(ctx, db, auditSvc, testActor(), SwapInput{OldAssetID: oldAsset.ID, NewAssetID: newAsset.ID})
	if err != nil {
		t.Fatalf("swap: %v", err)
	}
	if swapped.Status != models.AssetAssigned {
		t.Fatalf("expected new asset assigned, got %q", swapped.Status)
	}
	if swapped.AssignedToCustomerID == nil || *swapped.AssignedToCustomerID != customer.ID {
		t.Fatalf("expected customer transferred, got %v", swapped.AssignedToCustomerID)
	}
	if swapped.PortID == nil || *swapped.PortID != port.ID {
		t.Fatalf("expected port transferred, got %v", swapped.PortID)
	}

	released, err := GetAsset(ctx, db, oldAsset.ID)
	if err != nil {
		t.Fatalf("load old asset: %v", err)
	}
	if released.Status != models.AssetAvailable || released.AssignedToCustomerID != nil || released.PortID != nil {
		t.Fatalf("expected old asset released, got %+v", released)
	}

	var openOld int
	if err := db.R.NewRaw(`SELECT COUNT(*) FROM asset_assignments WHERE asset_id = ? AND date_of_return IS NULL`, oldAsset.ID).Scan(ctx, &openOld); err != nil {
		t.Fatalf("count old open: %v", err)
	}
	if openOld != 0 {
		t.Fatalf("expected old assignment closed, got %d open", openOld)
	}
	var openNew int
	if err := db.R.NewRaw(`SELECT COUNT(*) FROM asset_assignments WHERE asset_id = ? AND date_of_return IS NULL`, newAsset.ID).Scan(ctx, &openNew); err != nil {
		t.Fatalf("count new open: %v", err)
	}
	if openNew != 1 {
		t.Fatalf("expected one open assignment for the new asset, got %d", openNew)
	}
}

func TestSwapAssetsGuards(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	auditSvc := audit.NewService()

	first := createTestAsset(t, db, "SN-G1")
	second := createTestAsset(t, db, "SN-G2")

	// Old asset must be assigned.
	_, err := SwapAssets(ctx, db, auditSvc, testActor(), SwapInput{OldAssetID: first.ID, NewAssetID: second.ID})
	if apperr.KindOf(err) != apperr.KindInvalidState {
		t.Fatalf("expected invalid state, got %v", err)
	}

	// Type mismatch.
	router, err := CreateAsset(ctx, db, auditSvc, testActor(), CreateAssetInput{
		Type: models.AssetRouter, Model: "RTR-200", SerialNumber: "SN-G3", Pincode: "560001",
	})
	if err != nil {
		t.Fatalf("create router: %v", err)
	}
	if _, err := db.W.NewUpdate().
		Model((*models.Asset)(nil)).
		Set("status = ?", models.AssetAssigned).
		Where("id = ?", first.ID).
		Exec(ctx); err != nil {
		t.Fatalf("assign first: %v", err)
	}
	if _, err := SwapAssets(ctx, db, auditSvc, testActor(), SwapInput{OldAssetID: first.ID, NewAssetID: router.ID}); apperr.KindOf(err) != apperr.KindInvalidState {
		t.Fatalf("expected invalid state for type mismatch, got %v", err)
	}

	if _, err := SwapAssets(ctx, db, auditSvc, testActor(), SwapInput{OldAssetID: 9999, NewAssetID: second.ID}); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAssetHistoryOrdering(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	asset := createTestAsset(t, db, "SN-HIST")

	customer := models.Customer{Name: "Ravi Iyer", Address: "9 Splice Rd", Pincode: "560002", Plan: "300mbps", Status: models.CustomerActive}
	if _, err := db.W.NewInsert().Model(&customer).Exec(ctx); err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	if _, err := db.W.ExecContext(ctx, `
INSERT INTO asset_assignments (asset_id, customer_id, bearing_status, date_of_issue, date_of_return)
VALUES (?, ?, 'returned', '2026-01-01T00:00:00Z', '2026-02-01T00:00:00Z'),
       (?, ?, 'bearing', '2026-03-01T00:00:00Z', NULL)`,
		asset.ID, customer.ID, asset.ID, customer.ID); err != nil {
		t.Fatalf("seed history: %v", err)
	}

	history, err := GetAssetHistory(ctx, db, asset.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(history))
	}
	if history[0].BearingStatus != models.BearingHeld {
		t.Fatalf("expected newest row first, got %+v", history[0])
	}
}

func TestParseAssetsCSV(t *testing.T) {
	input := strings.NewReader("type,model,serial_number,pincode\nONT,ONT-100,SN-C1,560001\nRouter,RTR-200,SN-C2,560002\n")
	inputs, err := parseAssetsCSV(input)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(inputs) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(inputs))
	}
	if inputs[0].Type != models.AssetONT || inputs[0].SerialNumber != "SN-C1" {
		t.Fatalf("unexpected first row: %+v", inputs[0])
	}

	if _, err := parseAssetsCSV(strings.NewReader("sku,description\nX,Y\n")); apperr.KindOf(err) != apperr.KindInvalidState {
		t.Fatalf("expected invalid state for bad header, got %v", err)
	}
}

func TestRenderAssetLabelsPDF(t *testing.T) {
	db := openTestDB(t)
	asset := createTestAsset(t, db, "SN-PDF-1")

	pdfBytes, err := renderAssetLabelsPDF([]models.Asset{asset}, time.Now())
	if err != nil {
		t.Fatalf("render labels: %v", err)
	}
	if !bytes.HasPrefix(pdfBytes, []byte("%PDF")) {
		t.Fatalf("expected a PDF document, got %q", pdfBytes[:min(8, len(pdfBytes))])
	}

	if _, err := renderAssetLabelsPDF(nil, time.Now()); err == nil {
		t.Fatalf("expected error for empty label set")
	}
}
