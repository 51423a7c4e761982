package customers

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

// ProvisionCustomer onboards a new customer in one write transaction:
// it binds the lowest-id free port on the chosen splitter, assigns the
// selected ONT and router, opens assignment history for both, and
// records one audit row. Any failure rolls back every mutation; no
// partial provisioning is ever observable.
func ProvisionCustomer(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, actor models.User, in ProvisionInput) (models.Customer, error) {
	if err := validateProvisionInput(in); err != nil {
		return models.Customer{}, err
	}

	var created models.Customer
	err := db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		var splitter models.Splitter
		if err := tx.NewSelect().Model(&splitter).Where("id = ?", in.SplitterID).Scan(ctx); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperr.NotFound("splitter %d not found", in.SplitterID)
			}
			return err
		}

		var port models.Port
		err := tx.NewSelect().
			Model(&port).
			Where("splitter_id = ?", in.SplitterID).
			Where("status = ?", models.PortFree).
			OrderExpr("id ASC").
			Limit(1).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperr.Conflict("no free ports available for splitter %d", in.SplitterID)
			}
			return err
		}

		ont, err := loadAvailableAsset(ctx, tx, in.OntAssetID, models.AssetONT)
		if err != nil {
			return err
		}
		router, err := loadAvailableAsset(ctx, tx, in.RouterAssetID, models.AssetRouter)
		if err != nil {
			return err
		}

		created = models.Customer{
			Name:    in.Name,
			Address: in.Address,
			Pincode: in.Pincode,
			Plan:    in.Plan,
			Status:  models.CustomerPending,
		}
		if _, err := tx.NewInsert().Model(&created).Exec(ctx); err != nil {
			return err
		}

		port.Status = models.PortOccupied
		port.CustomerID = &created.ID
		if _, err := tx.NewUpdate().Model(&port).Column("status", "customer_id").WherePK().Exec(ctx); err != nil {
			return err
		}

		splitter.UsedPorts++
		if _, err := tx.NewUpdate().Model(&splitter).Column("used_ports").WherePK().Exec(ctx); err != nil {
			return err
		}

		// The ONT links to the port; the router binds the customer only.
		ont.Status = models.AssetAssigned
		ont.AssignedToCustomerID = &created.ID
		ont.PortID = &port.ID
		if _, err := tx.NewUpdate().Model(ont).Column("status", "assigned_to_customer_id", "port_id").WherePK().Exec(ctx); err != nil {
			return err
		}

		router.Status = models.AssetAssigned
		router.AssignedToCustomerID = &created.ID
		if _, err := tx.NewUpdate().Model(router).Column("status", "assigned_to_customer_id").WherePK().Exec(ctx); err != nil {
			return err
		}

		issuedAt := time.Now().UTC()
		assignments := []models.AssetAssignment{
			{AssetID: ont.ID, CustomerID: created.ID, BearingStatus: models.BearingHeld, DateOfIssue: issuedAt},
			{AssetID: router.ID, CustomerID: created.ID, BearingStatus: models.BearingHeld, DateOfIssue: issuedAt},
		}
		if _, err := tx.NewInsert().Model(&assignments).Exec(ctx); err != nil {
			return err
		}

		desc := fmt.Sprintf("User '%s' created and provisioned customer '%s' (ID: %d).", actor.Username, created.Name, created.ID)
		return auditSvc.Record(ctx, tx, actor, models.AuditCreate, desc)
	})
	if err != nil {
		return models.Customer{}, err
	}
	return created, nil
}

func validateProvisionInput(in ProvisionInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return apperr.InvalidState("customer name is required")
	}
	if strings.TrimSpace(in.Address) == "" {
		return apperr.InvalidState("customer address is required")
	}
	if strings.TrimSpace(in.Plan) == "" {
		return apperr.InvalidState("customer plan is required")
	}
	if in.SplitterID <= 0 || in.OntAssetID <= 0 || in.RouterAssetID <= 0 {
		return apperr.InvalidState("splitter_id, ont_asset_id and router_asset_id are required")
	}
	return nil
}

func loadAvailableAsset(ctx context.Context, tx bun.Tx, assetID int64, assetType models.AssetType) (*models.Asset, error) {
	var asset models.Asset
	err := tx.NewSelect().Model(&asset).Where("id = ?", assetID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.Conflict("%s asset (ID: %d) is not available or is not a %s", assetType, assetID, assetType)
		}
		return nil, err
	}
	if asset.Type != assetType || asset.Status != models.AssetAvailable {
		return nil, apperr.Conflict("%s asset (ID: %d) is not available or is not a %s", assetType, assetID, assetType)
	}
	return &asset, nil
}

// DeactivateCustomer reverses provisioning. It is idempotent: an already
// inactive customer is returned unchanged. Each bound resource is freed
// independently if present; partial state (a port without assets, or
// assets without a port) is tolerated, not an error.
func DeactivateCustomer(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, actor models.User, customerID int64) (models.Customer, error) {
	var result models.Customer
	err := db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		var customer models.Customer
		if err := tx.NewSelect().Model(&customer).Where("id = ?", customerID).Scan(ctx); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperr.NotFound("customer %d not found", customerID)
			}
			return err
		}
		if customer.Status == models.CustomerInactive {
			result = customer
			return nil
		}

		port, err := findOccupiedPort(ctx, tx, customerID)
		if err != nil {
			return err
		}
		ont, err := findAssignedAsset(ctx, tx, customerID, models.AssetONT)
		if err != nil {
			return err
		}
		router, err := findAssignedAsset(ctx, tx, customerID, models.AssetRouter)
		if err != nil {
			return err
		}

		customer.Status = models.CustomerInactive
		if _, err := tx.NewUpdate().Model(&customer).Column("status").WherePK().Exec(ctx); err != nil {
			return err
		}

		if port != nil {
			port.Status = models.PortFree
			port.CustomerID = nil
			if _, err := tx.NewUpdate().Model(port).Column("status", "customer_id").WherePK().Exec(ctx); err != nil {
				return err
			}
			// Floor at zero so a drifted counter can never go negative.
			if _, err := tx.NewUpdate().
				Model((*models.Splitter)(nil)).
				Set("used_ports = MAX(0, used_ports - 1)").
				Where("id = ?", port.SplitterID).
				Exec(ctx); err != nil {
				return err
			}
		}

		returnedAt := time.Now().UTC()
		for _, asset := range []*models.Asset{ont, router} {
			if asset == nil {
				continue
			}
			asset.Status = models.AssetAvailable
			asset.AssignedToCustomerID = nil
			asset.PortID = nil
			if _, err := tx.NewUpdate().Model(asset).Column("status", "assigned_to_customer_id", "port_id").WherePK().Exec(ctx); err != nil {
				return err
			}
			if err := closeOpenAssignments(ctx, tx, asset.ID, returnedAt); err != nil {
				return err
			}
		}

		desc := fmt.Sprintf("User '%s' deactivated customer '%s' (ID: %d).", actor.Username, customer.Name, customer.ID)
		if err := auditSvc.Record(ctx, tx, actor, models.AuditUpdate, desc); err != nil {
			return err
		}

		result = customer
		return nil
	})
	if err != nil {
		return models.Customer{}, err
	}
	return result, nil
}

func findOccupiedPort(ctx context.Context, tx bun.Tx, customerID int64) (*models.Port, error) {
	var port models.Port
	err := tx.NewSelect().
		Model(&port).
		Where("customer_id = ?", customerID).
		Where("status = ?", models.PortOccupied).
		OrderExpr("id ASC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &port, nil
}

func findAssignedAsset(ctx context.Context, tx bun.Tx, customerID int64, assetType models.AssetType) (*models.Asset, error) {
	var asset models.Asset
	err := tx.NewSelect().
		Model(&asset).
		Where("assigned_to_customer_id = ?", customerID).
		Where("type = ?", assetType).
		Where("status = ?", models.AssetAssigned).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &asset, nil
}

// closeOpenAssignments matches open history rows with an explicit
// date_of_return IS NULL predicate.
func closeOpenAssignments(ctx context.Context, tx bun.Tx, assetID int64, returnedAt time.Time) error {
	_, err := tx.NewUpdate().
		Model((*models.AssetAssignment)(nil)).
		Set("date_of_return = ?", returnedAt).
		Set("bearing_status = ?", models.BearingReturned).
		Where("asset_id = ?", assetID).
		Where("date_of_return IS NULL").
		Exec(ctx)
	return err
}
