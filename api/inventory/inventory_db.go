package inventory

import (
	"context"

	"fibertrack/infrastructure/sqlite"
	"fibertrack/models"
)

// Snapshot is everything deployable in one service area: the hub
// cabinets, their splitters, and the unassigned hardware stock.
type Snapshot struct {
	Pincode         string            `json:"pincode"`
	FDHs            []models.FDH      `json:"fdhs"`
	Splitters       []models.Splitter `json:"splitters"`
	AvailableAssets []models.Asset    `json:"available_assets"`
}

// GetSnapshot assembles the inventory view. An empty pincode means the
// whole network; an unknown pincode is not an error, it is an area with
// nothing in it yet.
func GetSnapshot(ctx context.Context, db *sqlite.DB, pincode string) (Snapshot, error) {
	snap := Snapshot{
		Pincode:         pincode,
		FDHs:            []models.FDH{},
		Splitters:       []models.Splitter{},
		AvailableAssets: []models.Asset{},
	}

	fdhQuery := db.R.NewSelect().Model(&snap.FDHs).OrderExpr("id ASC")
	if pincode != "" {
		fdhQuery = fdhQuery.Where("pincode = ?", pincode)
	}
	if err := fdhQuery.Scan(ctx); err != nil {
		return Snapshot{}, err
	}

	if pincode == "" || len(snap.FDHs) > 0 {
		splitterQuery := db.R.NewSelect().Model(&snap.Splitters).OrderExpr("id ASC")
		if pincode != "" {
			splitterQuery = splitterQuery.Where("fdh_id IN (SELECT id FROM fdhs WHERE pincode = ?)", pincode)
		}
		if err := splitterQuery.Scan(ctx); err != nil {
			return Snapshot{}, err
		}
	}

	assetQuery := db.R.NewSelect().
		Model(&snap.AvailableAssets).
		Where("status = ?", models.AssetAvailable).
		OrderExpr("id ASC")
	if pincode != "" {
		assetQuery = assetQuery.Where("pincode = ?", pincode)
	}
	if err := assetQuery.Scan(ctx); err != nil {
		return Snapshot{}, err
	}

	return snap, nil
}
