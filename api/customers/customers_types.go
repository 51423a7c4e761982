package customers

import "fibertrack/models"

// ProvisionInput carries the new customer's fields plus the resources
// chosen by the planner.
type ProvisionInput struct {
	Name          string `json:"name"`
	Address       string `json:"address"`
	Pincode       string `json:"pincode"`
	Plan          string `json:"plan"`
	SplitterID    int64  `json:"splitter_id"`
	OntAssetID    int64  `json:"ont_asset_id"`
	RouterAssetID int64  `json:"router_asset_id"`
}

// PortDetail is an occupied port with its splitter and FDH resolved.
type PortDetail struct {
	PortID   int64            `json:"port_id"`
	Splitter *models.Splitter `json:"splitter,omitempty"`
}

// ProvisioningDetails is the resource snapshot bound to a customer.
type ProvisioningDetails struct {
	Port        *PortDetail   `json:"port,omitempty"`
	OntAsset    *models.Asset `json:"ont_asset,omitempty"`
	RouterAsset *models.Asset `json:"router_asset,omitempty"`
}

// DeactivationDetails pairs the customer with its provisioning snapshot.
type DeactivationDetails struct {
	Customer     models.Customer     `json:"customer"`
	Provisioning ProvisioningDetails `json:"provisioning"`
}
