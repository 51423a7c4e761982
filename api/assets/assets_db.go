package assets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"fibertrack/infrastructure/apperr"
	"fibertrack/infrastructure/audit"
	"fibertrack/infrastructure/sqlite"
	"fibertrack/models"
)

// ListAssets filters by type and status; both are optional.
func ListAssets(ctx context.Context, db *sqlite.DB, assetType models.AssetType, status models.AssetStatus) ([]models.Asset, error) {
	var list []models.Asset
	q := db.R.NewSelect().Model(&list).OrderExpr("id ASC")
	if assetType != "" {
		q = q.Where("type = ?", assetType)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.Asset{}
	}
	return list, nil
}

// GetAsset loads one asset by id.
func GetAsset(ctx context.Context, db *sqlite.DB, id int64) (models.Asset, error) {
	var asset models.Asset
	err := db.R.NewSelect().Model(&asset).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Asset{}, apperr.NotFound("asset %d not found", id)
		}
		return models.Asset{}, err
	}
	return asset, nil
}

// GetAssetHistory returns the full assignment trail, newest first.
func GetAssetHistory(ctx context.Context, db *sqlite.DB, assetID int64) ([]models.AssetAssignment, error) {
	if _, err := GetAsset(ctx, db, assetID); err != nil {
		return nil, err
	}
	var history []models.AssetAssignment
	err := db.R.NewSelect().
		Model(&history).
		Where("asset_id = ?", assetID).
		OrderExpr("date_of_issue DESC, id DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	if history == nil {
		history = []models.AssetAssignment{}
	}
	return history, nil
}

// CreateAsset registers one asset. Serial numbers are globally unique.
func CreateAsset(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, actor models.User, in CreateAssetInput) (models.Asset, error) {
	if err := validateAssetInput(in); err != nil {
		return models.Asset{}, err
	}

	var created models.Asset
	err := db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := checkSerialFree(ctx, tx, in.SerialNumber); err != nil {
			return err
		}

		created = models.Asset{
			Type:         in.Type,
			Model:        in.Model,
			SerialNumber: in.SerialNumber,
			Status:       models.AssetAvailable,
			Pincode:      in.Pincode,
		}
		if _, err := tx.NewInsert().Model(&created).Exec(ctx); err != nil {
			return err
		}

		desc := fmt.Sprintf("User '%s' created new %s: '%s' (SN: %s).", actor.Username, created.Type, created.Model, created.SerialNumber)
		return auditSvc.Record(ctx, tx, actor, models.AuditCreate, desc)
	})
	if err != nil {
		return models.Asset{}, err
	}
	return created, nil
}

// BulkCreateAssets imports a batch in one transaction with a single
// summary audit row. The batch is all-or-nothing: any duplicate serial,
// in the file or in the database, rejects the whole upload.
func BulkCreateAssets(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, actor models.User, inputs []CreateAssetInput) (BulkImportSummary, error) {
	if len(inputs) == 0 {
		return BulkImportSummary{}, apperr.InvalidState("no assets to import")
	}

	seen := make(map[string]struct{}, len(inputs))
	serials := make([]string, 0, len(inputs))
	for _, in := range inputs {
		if err := validateAssetInput(in); err != nil {
			return BulkImportSummary{}, err
		}
		if _, dup := seen[in.SerialNumber]; dup {
			return BulkImportSummary{}, apperr.InvalidState("duplicate serial number in upload: %s", in.SerialNumber)
		}
		seen[in.SerialNumber] = struct{}{}
		serials = append(serials, in.SerialNumber)
	}

	var summary BulkImportSummary
	err := db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		var existing []string
		err := tx.NewSelect().
			Model((*models.Asset)(nil)).
			Column("serial_number").
			Where("serial_number IN (?)", bun.In(serials)).
			Scan(ctx, &existing)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return apperr.Conflict("serial numbers already exist: %s", strings.Join(existing, ", "))
		}

		batch := make([]models.Asset, 0, len(inputs))
		for _, in := range inputs {
			batch = append(batch, models.Asset{
				Type:         in.Type,
				Model:        in.Model,
				SerialNumber: in.SerialNumber,
				Status:       models.AssetAvailable,
				Pincode:      in.Pincode,
			})
			switch in.Type {
			case models.AssetONT:
				summary.OntCount++
			case models.AssetRouter:
				summary.RouterCount++
			}
		}
		if _, err := tx.NewInsert().Model(&batch).Exec(ctx); err != nil {
			return err
		}
		summary.Imported = len(batch)
		summary.Assets = batch

		desc := fmt.Sprintf("User '%s' bulk imported %d assets (%d ONTs, %d Routers).",
			actor.Username, summary.Imported, summary.OntCount, summary.RouterCount)
		return auditSvc.Record(ctx, tx, actor, models.AuditCreate, desc)
	})
	if err != nil {
		return BulkImportSummary{}, err
	}
	return summary, nil
}

// UpdateAsset edits an unassigned asset. Assignment only ever happens
// through provisioning, so assigned assets are frozen and the assigned
// status cannot be set by hand.
func UpdateAsset(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, actor models.User, assetID int64, in UpdateAssetInput) (models.Asset, error) {
	var updated models.Asset
	err := db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		asset, err := loadAsset(ctx, tx, assetID)
		if err != nil {
			return err
		}
		if asset.Status == models.AssetAssigned {
			return apperr.InvalidState("cannot edit an asset that is currently assigned to a customer")
		}

		if in.Model != nil && *in.Model != "" {
			asset.Model = *in.Model
		}
		if in.Pincode != nil && *in.Pincode != "" {
			asset.Pincode = *in.Pincode
		}
		if in.Status != nil {
			if *in.Status == models.AssetAssigned {
				return apperr.InvalidState("cannot manually set status to 'assigned'")
			}
			asset.Status = *in.Status
		}

		if _, err := tx.NewUpdate().Model(&asset).Column("model", "pincode", "status").WherePK().Exec(ctx); err != nil {
			return err
		}

		desc := fmt.Sprintf("User '%s' updated asset %d. New status: %s.", actor.Username, asset.ID, asset.Status)
		if err := auditSvc.Record(ctx, tx, actor, models.AuditUpdate, desc); err != nil {
			return err
		}
		updated = asset
		return nil
	})
	if err != nil {
		return models.Asset{}, err
	}
	return updated, nil
}

// DeleteAsset removes an unassigned asset.
func DeleteAsset(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, actor models.User, assetID int64) error {
	return db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		asset, err := loadAsset(ctx, tx, assetID)
		if err != nil {
			return err
		}
		if asset.Status == models.AssetAssigned {
			return apperr.InvalidState("cannot delete an asset that is currently assigned to a customer")
		}

		desc := fmt.Sprintf("User '%s' deleted %s: '%s' (SN: %s).", actor.Username, asset.Type, asset.Model, asset.SerialNumber)
		if err := auditSvc.Record(ctx, tx, actor, models.AuditDelete, desc); err != nil {
			return err
		}

		_, err = tx.NewDelete().Model(&asset).WherePK().Exec(ctx)
		return err
	})
}

// SwapAssets replaces failed hardware in the field: the customer and
// port bindings move from the old asset to the new one, the old open
// assignment is closed, a fresh one is opened, and the old asset goes
// back to available stock.
func SwapAssets(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, actor models.User, in SwapInput) (models.Asset, error) {
	var result models.Asset
	err := db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		oldAsset, err := loadAsset(ctx, tx, in.OldAssetID)
		if err != nil {
			return err
		}
		newAsset, err := loadAsset(ctx, tx, in.NewAssetID)
		if err != nil {
			return err
		}

		if oldAsset.Status != models.AssetAssigned {
			return apperr.InvalidState("old asset is not currently assigned")
		}
		if newAsset.Status != models.AssetAvailable {
			return apperr.InvalidState("new asset is not available")
		}
		if oldAsset.Type != newAsset.Type {
			return apperr.InvalidState("cannot swap assets of different types")
		}

		customerID := oldAsset.AssignedToCustomerID
		portID := oldAsset.PortID
		now := time.Now().UTC()

		if _, err := tx.NewUpdate().
			Model((*models.AssetAssignment)(nil)).
			Set("date_of_return = ?", now).
			Set("bearing_status = ?", models.BearingReturned).
			Where("asset_id = ?", oldAsset.ID).
			Where("date_of_return IS NULL").
			Exec(ctx); err != nil {
			return err
		}

		oldAsset.Status = models.AssetAvailable
		oldAsset.AssignedToCustomerID = nil
		oldAsset.PortID = nil
		if _, err := tx.NewUpdate().Model(&oldAsset).Column("status", "assigned_to_customer_id", "port_id").WherePK().Exec(ctx); err != nil {
			return err
		}

		newAsset.Status = models.AssetAssigned
		newAsset.AssignedToCustomerID = customerID
		newAsset.PortID = portID
		if _, err := tx.NewUpdate().Model(&newAsset).Column("status", "assigned_to_customer_id", "port_id").WherePK().Exec(ctx); err != nil {
			return err
		}

		if customerID != nil {
			assignment := models.AssetAssignment{
				AssetID:       newAsset.ID,
				CustomerID:    *customerID,
				BearingStatus: models.BearingHeld,
				DateOfIssue:   now,
			}
			if _, err := tx.NewInsert().Model(&assignment).Exec(ctx); err != nil {
				return err
			}
		}

		desc := fmt.Sprintf("User '%s' swapped %s: '%s' -> '%s' for customer %s.",
			actor.Username, oldAsset.Type, oldAsset.SerialNumber, newAsset.SerialNumber, customerRef(customerID))
		if err := auditSvc.Record(ctx, tx, actor, models.AuditUpdate, desc); err != nil {
			return err
		}

		result = newAsset
		return nil
	})
	if err != nil {
		return models.Asset{}, err
	}
	return result, nil
}

func customerRef(id *int64) string {
	if id == nil {
		return "unknown"
	}
	return fmt.Sprintf("%d", *id)
}

func validateAssetInput(in CreateAssetInput) error {
	if in.Type != models.AssetONT && in.Type != models.AssetRouter {
		return apperr.InvalidState("asset type must be ONT or Router")
	}
	if strings.TrimSpace(in.Model) == "" {
		return apperr.InvalidState("asset model is required")
	}
	if strings.TrimSpace(in.SerialNumber) == "" {
		return apperr.InvalidState("serial number is required")
	}
	return nil
}

func checkSerialFree(ctx context.Context, tx bun.Tx, serial string) error {
	exists, err := tx.NewSelect().
		Model((*models.Asset)(nil)).
		Where("serial_number = ?", serial).
		Exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return apperr.Conflict("asset with serial number '%s' already exists", serial)
	}
	return nil
}

func loadAsset(ctx context.Context, tx bun.Tx, id int64) (models.Asset, error) {
	var asset models.Asset
	err := tx.NewSelect().Model(&asset).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Asset{}, apperr.NotFound("asset %d not found", id)
		}
		return models.Asset{}, err
	}
	return asset, nil
}
