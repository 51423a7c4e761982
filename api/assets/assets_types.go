package assets

import "fibertrack/models"

// CreateAssetInput registers one piece of hardware. New assets always
// start available; assignment happens through provisioning.
type CreateAssetInput struct {
	Type         models.AssetType `json:"type"`
	Model        string           `json:"model"`
	SerialNumber string           `json:"serial_number"`
	Pincode      string           `json:"pincode"`
}

// UpdateAssetInput is a partial edit. Status may move between the
// non-assigned states only.
type UpdateAssetInput struct {
	Model   *string             `json:"model,omitempty"`
	Pincode *string             `json:"pincode,omitempty"`
	Status  *models.AssetStatus `json:"status,omitempty"`
}

// SwapInput replaces a customer's hardware in the field.
type SwapInput struct {
	OldAssetID int64 `json:"old_asset_id"`
	NewAssetID int64 `json:"new_asset_id"`
}

// BulkImportSummary reports what a CSV upload created.
type BulkImportSummary struct {
	Imported    int            `json:"imported"`
	OntCount    int            `json:"ont_count"`
	RouterCount int            `json:"router_count"`
	Assets      []models.Asset `json:"assets"`
}
