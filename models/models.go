package models

import (
	"time"

	"github.com/uptrace/bun"
)

// CustomerStatus drives workflow eligibility.
type CustomerStatus string

const (
	CustomerActive   CustomerStatus = "Active"
	CustomerInactive CustomerStatus = "Inactive"
	CustomerPending  CustomerStatus = "Pending"
)

// SplitterStatus is the operational state of a passive splitter.
type SplitterStatus string

const (
	SplitterOperational SplitterStatus = "operational"
	SplitterFaulty      SplitterStatus = "faulty"
	SplitterRetired     SplitterStatus = "retired"
)

// AssetType distinguishes customer-premises hardware.
type AssetType string

const (
	AssetONT    AssetType = "ONT"
	AssetRouter AssetType = "Router"
)

// AssetStatus is the inventory state of a physical asset.
type AssetStatus string

const (
	AssetAssigned  AssetStatus = "assigned"
	AssetAvailable AssetStatus = "available"
	AssetFaulty    AssetStatus = "faulty"
	AssetRetired   AssetStatus = "retired"
)

// BearingStatus marks whether an assignment row is open or closed.
type BearingStatus string

const (
	BearingHeld     BearingStatus = "bearing"
	BearingReturned BearingStatus = "returned"
)

// PortStatus is free or occupied; customer_id is set iff occupied.
type PortStatus string

const (
	PortFree     PortStatus = "free"
	PortOccupied PortStatus = "occupied"
)

// TaskStatus is derived from the three checklist steps during normal flow.
type TaskStatus string

const (
	TaskScheduled  TaskStatus = "Scheduled"
	TaskInProgress TaskStatus = "InProgress"
	TaskCompleted  TaskStatus = "Completed"
	TaskFailed     TaskStatus = "Failed"
)

// AuditAction classifies audit log entries.
type AuditAction string

const (
	AuditCreate AuditAction = "CREATE"
	AuditRead   AuditAction = "READ"
	AuditUpdate AuditAction = "UPDATE"
	AuditDelete AuditAction = "DELETE"
)

// User represents an authenticated app user.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int64      `bun:"id,pk,autoincrement" json:"id"`
	Username     string     `bun:"username,unique,notnull" json:"username"`
	PasswordHash string     `bun:"password_hash,notnull" json:"-"`
	Role         string     `bun:"role,notnull" json:"role"`
	LastLogin    *time.Time `bun:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt    time.Time  `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

// Warehouse is a storage location for unassigned assets.
type Warehouse struct {
	bun.BaseModel `bun:"table:warehouses,alias:w"`

	ID      int64  `bun:"id,pk,autoincrement" json:"id"`
	Address string `bun:"address,notnull" json:"address"`
	Pincode string `bun:"pincode,notnull" json:"pincode"`
}

// FDH is a fiber distribution hub cabinet owning splitters.
type FDH struct {
	bun.BaseModel `bun:"table:fdhs,alias:f"`

	ID        int64    `bun:"id,pk,autoincrement" json:"id"`
	Model     string   `bun:"model,notnull" json:"model"`
	Pincode   string   `bun:"pincode,notnull" json:"pincode"`
	Latitude  *float64 `bun:"latitude" json:"latitude,omitempty"`
	Longitude *float64 `bun:"longitude" json:"longitude,omitempty"`
}

// Splitter fans one fiber into max_ports customer-facing ports.
//
// UsedPorts is a stored counter; it is only ever mutated in the same
// transaction as the corresponding port status change.
type Splitter struct {
	bun.BaseModel `bun:"table:splitters,alias:sp"`

	ID        int64          `bun:"id,pk,autoincrement" json:"id"`
	Model     string         `bun:"model,notnull" json:"model"`
	Status    SplitterStatus `bun:"status,notnull" json:"status"`
	MaxPorts  int64          `bun:"max_ports,notnull" json:"max_ports"`
	UsedPorts int64          `bun:"used_ports,notnull,default:0" json:"used_ports"`
	FdhID     *int64         `bun:"fdh_id" json:"fdh_id,omitempty"`

	FDH *FDH `bun:"rel:belongs-to,join:fdh_id=id" json:"fdh,omitempty"`
}

// Port is a single customer-facing connection point on a splitter.
type Port struct {
	bun.BaseModel `bun:"table:ports,alias:pt"`

	ID         int64      `bun:"id,pk,autoincrement" json:"id"`
	Status     PortStatus `bun:"status,notnull" json:"status"`
	CustomerID *int64     `bun:"customer_id" json:"customer_id,omitempty"`
	SplitterID int64      `bun:"splitter_id,notnull" json:"splitter_id"`

	Splitter *Splitter `bun:"rel:belongs-to,join:splitter_id=id" json:"splitter,omitempty"`
}

// Customer is a subscriber moving Pending -> Active -> Inactive.
type Customer struct {
	bun.BaseModel `bun:"table:customers,alias:c"`

	ID        int64          `bun:"id,pk,autoincrement" json:"id"`
	Name      string         `bun:"name,notnull" json:"name"`
	Address   string         `bun:"address,notnull" json:"address"`
	Pincode   string         `bun:"pincode,notnull" json:"pincode"`
	Plan      string         `bun:"plan,notnull" json:"plan"`
	Status    CustomerStatus `bun:"status,notnull" json:"status"`
	CreatedAt time.Time      `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

// Asset is a serialized piece of hardware (ONT or router).
type Asset struct {
	bun.BaseModel `bun:"table:assets,alias:a"`

	ID                   int64       `bun:"id,pk,autoincrement" json:"id"`
	Type                 AssetType   `bun:"type,notnull" json:"type"`
	Model                string      `bun:"model,notnull" json:"model"`
	SerialNumber         string      `bun:"serial_number,unique,notnull" json:"serial_number"`
	Status               AssetStatus `bun:"status,notnull" json:"status"`
	Pincode              string      `bun:"pincode,notnull" json:"pincode"`
	AssignedToCustomerID *int64      `bun:"assigned_to_customer_id" json:"assigned_to_customer_id,omitempty"`
	StoredAtWarehouseID  *int64      `bun:"stored_at_warehouse_id" json:"stored_at_warehouse_id,omitempty"`
	// Only ONTs link to a port; routers bind the customer but no port.
	PortID *int64 `bun:"port_id" json:"port_id,omitempty"`
}

// AssetAssignment is append-only bearing history. At most one open row
// (date_of_return NULL) exists per asset at any time.
type AssetAssignment struct {
	bun.BaseModel `bun:"table:asset_assignments,alias:aa"`

	ID            int64         `bun:"id,pk,autoincrement" json:"id"`
	AssetID       int64         `bun:"asset_id,notnull" json:"asset_id"`
	CustomerID    int64         `bun:"customer_id,notnull" json:"customer_id"`
	BearingStatus BearingStatus `bun:"bearing_status,notnull" json:"bearing_status"`
	DateOfIssue   time.Time     `bun:"date_of_issue,notnull" json:"date_of_issue"`
	DateOfReturn  *time.Time    `bun:"date_of_return" json:"date_of_return,omitempty"`
}

// DeploymentTask is a technician checklist; status is derived from the
// three steps except for the externally-set Failed state.
type DeploymentTask struct {
	bun.BaseModel `bun:"table:deployment_tasks,alias:dt"`

	ID            int64      `bun:"id,pk,autoincrement" json:"id"`
	CustomerID    int64      `bun:"customer_id,notnull" json:"customer_id"`
	UserID        int64      `bun:"user_id,notnull" json:"user_id"`
	Status        TaskStatus `bun:"status,notnull" json:"status"`
	Step1         bool       `bun:"step_1,notnull,default:false" json:"step_1"`
	Step2         bool       `bun:"step_2,notnull,default:false" json:"step_2"`
	Step3         bool       `bun:"step_3,notnull,default:false" json:"step_3"`
	ScheduledDate time.Time  `bun:"scheduled_date,notnull" json:"scheduled_date"`
	Notes         string     `bun:"notes" json:"notes"`
	CreatedAt     time.Time  `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`

	Customer *Customer `bun:"rel:belongs-to,join:customer_id=id" json:"customer,omitempty"`
	User     *User     `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
}

// AuditLog captures immutable history for sensitive operations.
type AuditLog struct {
	bun.BaseModel `bun:"table:audit_logs,alias:al"`

	ID          int64       `bun:"id,pk,autoincrement" json:"id"`
	UserID      *int64      `bun:"user_id" json:"user_id,omitempty"`
	ActionType  AuditAction `bun:"action_type,notnull" json:"action_type"`
	Description string      `bun:"description,notnull" json:"description"`
	CreatedAt   time.Time   `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}
