package customers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"fibertrack/api/shared/actor"
	"fibertrack/api/shared/respond"
	"fibertrack/infrastructure/apperr"
	"fibertrack/infrastructure/audit"
	"fibertrack/infrastructure/sqlite"
	"fibertrack/models"
)

// ProvisionCustomerCommandHandler handles POST /customers.
func ProvisionCustomerCommandHandler(db *sqlite.DB, auditSvc *audit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := actor.FromContext(r.Context())

		var in ProvisionInput
		if err := respond.DecodeJSON(r, &in); err != nil {
			respond.Error(w, err)
			return
		}

		created, err := ProvisionCustomer(r.Context(), db, auditSvc, user, in)
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.JSON(w, http.StatusCreated, created)
	}
}

// ListCustomersQueryHandler handles GET /customers.
func ListCustomersQueryHandler(db *sqlite.DB, auditSvc *audit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := actor.FromContext(r.Context())

		status := models.CustomerStatus(r.URL.Query().Get("status"))
		list, err := ListCustomers(r.Context(), db, status)
		if err != nil {
			respond.Error(w, err)
			return
		}

		auditSvc.RecordRead(r.Context(), db, user, readAuditDescription(user, "the customer list"))
		respond.JSON(w, http.StatusOK, list)
	}
}

// ProvisioningDetailsQueryHandler handles GET /customers/{id}/provisioning-details.
func ProvisioningDetailsQueryHandler(db *sqlite.DB, auditSvc *audit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := actor.FromContext(r.Context())

		id, err := customerIDParam(r)
		if err != nil {
			respond.Error(w, err)
			return
		}
		details, err := GetProvisioningDetails(r.Context(), db, id)
		if err != nil {
			respond.Error(w, err)
			return
		}

		auditSvc.RecordRead(r.Context(), db, user, readAuditDescription(user, fmt.Sprintf("provisioning details for customer %d", id)))
		respond.JSON(w, http.StatusOK, details)
	}
}

// DeactivateCustomerCommandHandler handles POST /customers/{id}/deactivate.
func DeactivateCustomerCommandHandler(db *sqlite.DB, auditSvc *audit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := actor.FromContext(r.Context())

		id, err := customerIDParam(r)
		if err != nil {
			respond.Error(w, err)
			return
		}
		customer, err := DeactivateCustomer(r.Context(), db, auditSvc, user, id)
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.JSON(w, http.StatusOK, customer)
	}
}

// DeactivationDetailsQueryHandler handles GET /customers/{id}/deactivation-details.
func DeactivationDetailsQueryHandler(db *sqlite.DB, auditSvc *audit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := actor.FromContext(r.Context())

		id, err := customerIDParam(r)
		if err != nil {
			respond.Error(w, err)
			return
		}
		details, err := GetDeactivationDetails(r.Context(), db, id)
		if err != nil {
			respond.Error(w, err)
			return
		}

		auditSvc.RecordRead(r.Context(), db, user, readAuditDescription(user, fmt.Sprintf("deactivation details for customer %d", id)))
		respond.JSON(w, http.StatusOK, details)
	}
}

func customerIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.InvalidState("invalid customer id")
	}
	return id, nil
}
