package customers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fibertrack/infrastructure/apperr"
	"fibertrack/infrastructure/sqlite"
	"fibertrack/models"
)

// ListCustomers returns customers, optionally filtered by status. A
// Pending listing feeds the deployment planner, so it excludes customers
// that already have an open task; a Failed task leaves the customer
// schedulable again.
func ListCustomers(ctx context.Context, db *sqlite.DB, status models.CustomerStatus) ([]models.Customer, error) {
	var list []models.Customer
	q := db.R.NewSelect().Model(&list).OrderExpr("id ASC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if status == models.CustomerPending {
		q = q.Where("id NOT IN (SELECT customer_id FROM deployment_tasks WHERE status != ?)", models.TaskFailed)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.Customer{}
	}
	return list, nil
}

// GetCustomer loads one customer by id.
func GetCustomer(ctx context.Context, db *sqlite.DB, id int64) (models.Customer, error) {
	var customer models.Customer
	err := db.R.NewSelect().Model(&customer).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Customer{}, apperr.NotFound("customer %d not found", id)
		}
		return models.Customer{}, err
	}
	return customer, nil
}

// GetProvisioningDetails resolves the resources currently bound to a
// customer: the occupied port with its splitter and FDH, plus the
// assigned ONT and router. Missing pieces are returned as nil rather
// than treated as errors.
func GetProvisioningDetails(ctx context.Context, db *sqlite.DB, customerID int64) (ProvisioningDetails, error) {
	if _, err := GetCustomer(ctx, db, customerID); err != nil {
		return ProvisioningDetails{}, err
	}

	var details ProvisioningDetails

	var port models.Port
	err := db.R.NewSelect().
		Model(&port).
		Relation("Splitter").
		Relation("Splitter.FDH").
		Where("pt.customer_id = ?", customerID).
		Where("pt.status = ?", models.PortOccupied).
		OrderExpr("pt.id ASC").
		Limit(1).
		Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return ProvisioningDetails{}, err
	}
	if err == nil {
		details.Port = &PortDetail{PortID: port.ID, Splitter: port.Splitter}
	}

	var assets []models.Asset
	err = db.R.NewSelect().
		Model(&assets).
		Where("assigned_to_customer_id = ?", customerID).
		Where("status = ?", models.AssetAssigned).
		Scan(ctx)
	if err != nil {
		return ProvisioningDetails{}, err
	}
	for i := range assets {
		switch assets[i].Type {
		case models.AssetONT:
			details.OntAsset = &assets[i]
		case models.AssetRouter:
			details.RouterAsset = &assets[i]
		}
	}
	return details, nil
}

// GetDeactivationDetails is the support agent's pre-flight view: the
// customer plus everything deactivation would release.
func GetDeactivationDetails(ctx context.Context, db *sqlite.DB, customerID int64) (DeactivationDetails, error) {
	customer, err := GetCustomer(ctx, db, customerID)
	if err != nil {
		return DeactivationDetails{}, err
	}
	provisioning, err := GetProvisioningDetails(ctx, db, customerID)
	if err != nil {
		return DeactivationDetails{}, err
	}
	return DeactivationDetails{Customer: customer, Provisioning: provisioning}, nil
}

func readAuditDescription(actor models.User, what string) string {
	return fmt.Sprintf("User '%s' viewed %s.", actor.Username, what)
}
