package network

import (
	"context"
	"database/sql"
	"errors"

	"fibertrack/infrastructure/apperr"
	"fibertrack/infrastructure/sqlite"
	"fibertrack/models"
)

// ListFDHs returns every hub cabinet, optionally scoped to a pincode.
func ListFDHs(ctx context.Context, db *sqlite.DB, pincode string) ([]models.FDH, error) {
	var list []models.FDH
	q := db.R.NewSelect().Model(&list).OrderExpr("id ASC")
	if pincode != "" {
		q = q.Where("pincode = ?", pincode)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.FDH{}
	}
	return list, nil
}

// ListSplitters returns a hub's splitters. With openPortsOnly set, only
// splitters that still have capacity are returned; the planner uses
// this to find somewhere to land a new customer.
func ListSplitters(ctx context.Context, db *sqlite.DB, fdhID int64, openPortsOnly bool) ([]models.Splitter, error) {
	exists, err := db.R.NewSelect().Model((*models.FDH)(nil)).Where("id = ?", fdhID).Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperr.NotFound("fdh %d not found", fdhID)
	}

	var list []models.Splitter
	q := db.R.NewSelect().Model(&list).Where("fdh_id = ?", fdhID).OrderExpr("id ASC")
	if openPortsOnly {
		q = q.Where("used_ports < max_ports").Where("status = ?", models.SplitterOperational)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.Splitter{}
	}
	return list, nil
}

// ListPorts returns a splitter's ports in id order.
func ListPorts(ctx context.Context, db *sqlite.DB, splitterID int64) ([]models.Port, error) {
	var splitter models.Splitter
	err := db.R.NewSelect().Model(&splitter).Where("id = ?", splitterID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("splitter %d not found", splitterID)
		}
		return nil, err
	}

	var list []models.Port
	if err := db.R.NewSelect().Model(&list).Where("splitter_id = ?", splitterID).OrderExpr("id ASC").Scan(ctx); err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.Port{}
	}
	return list, nil
}
