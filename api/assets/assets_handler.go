package assets

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun"

	"fibertrack/api/shared/actor"
	"fibertrack/api/shared/respond"
	"fibertrack/infrastructure/apperr"
	"fibertrack/infrastructure/audit"
	"fibertrack/infrastructure/sqlite"
	"fibertrack/models"
)

// ListAssetsQueryHandler handles GET /assets.
func ListAssetsQueryHandler(db *sqlite.DB, auditSvc *audit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := actor.FromContext(r.Context())

		assetType := models.AssetType(r.URL.Query().Get("type"))
		status := models.AssetStatus(r.URL.Query().Get("status"))
		list, err := ListAssets(r.Context(), db, assetType, status)
		if err != nil {
			respond.Error(w, err)
			return
		}

		auditSvc.RecordRead(r.Context(), db, user, fmt.Sprintf("User '%s' viewed the asset list.", user.Username))
		respond.JSON(w, http.StatusOK, list)
	}
}

// GetAssetQueryHandler handles GET /assets/{id}.
func GetAssetQueryHandler(db *sqlite.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := assetIDParam(r)
		if err != nil {
			respond.Error(w, err)
			return
		}
		asset, err := GetAsset(r.Context(), db, id)
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.JSON(w, http.StatusOK, asset)
	}
}

// AssetHistoryQueryHandler handles GET /assets/{id}/history.
func AssetHistoryQueryHandler(db *sqlite.DB, auditSvc *audit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := actor.FromContext(r.Context())

		id, err := assetIDParam(r)
		if err != nil {
			respond.Error(w, err)
			return
		}
		history, err := GetAssetHistory(r.Context(), db, id)
		if err != nil {
			respond.Error(w, err)
			return
		}

		auditSvc.RecordRead(r.Context(), db, user, fmt.Sprintf("User '%s' viewed history of asset %d.", user.Username, id))
		respond.JSON(w, http.StatusOK, history)
	}
}

// CreateAssetCommandHandler handles POST /assets.
func CreateAssetCommandHandler(db *sqlite.DB, auditSvc *audit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := actor.FromContext(r.Context())

		var in CreateAssetInput
		if err := respond.DecodeJSON(r, &in); err != nil {
			respond.Error(w, err)
			return
		}
		created, err := CreateAsset(r.Context(), db, auditSvc, user, in)
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.JSON(w, http.StatusCreated, created)
	}
}

// BulkImportCommandHandler handles POST /assets/bulk. The body is a
// CSV upload with columns type,model,serial_number,pincode.
func BulkImportCommandHandler(db *sqlite.DB, auditSvc *audit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := actor.FromContext(r.Context())

		inputs, err := parseAssetsCSV(r.Body)
		if err != nil {
			respond.Error(w, err)
			return
		}
		summary, err := BulkCreateAssets(r.Context(), db, auditSvc, user, inputs)
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.JSON(w, http.StatusCreated, summary)
	}
}

// UpdateAssetCommandHandler handles PATCH /assets/{id}.
func UpdateAssetCommandHandler(db *sqlite.DB, auditSvc *audit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := actor.FromContext(r.Context())

		id, err := assetIDParam(r)
		if err != nil {
			respond.Error(w, err)
			return
		}
		var in UpdateAssetInput
		if err := respond.DecodeJSON(r, &in); err != nil {
			respond.Error(w, err)
			return
		}
		updated, err := UpdateAsset(r.Context(), db, auditSvc, user, id, in)
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.JSON(w, http.StatusOK, updated)
	}
}

// DeleteAssetCommandHandler handles DELETE /assets/{id}.
func DeleteAssetCommandHandler(db *sqlite.DB, auditSvc *audit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := actor.FromContext(r.Context())

		id, err := assetIDParam(r)
		if err != nil {
			respond.Error(w, err)
			return
		}
		if err := DeleteAsset(r.Context(), db, auditSvc, user, id); err != nil {
			respond.Error(w, err)
			return
		}
		respond.JSON(w, http.StatusNoContent, nil)
	}
}

// SwapAssetsCommandHandler handles POST /assets/swap.
func SwapAssetsCommandHandler(db *sqlite.DB, auditSvc *audit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := actor.FromContext(r.Context())

		var in SwapInput
		if err := respond.DecodeJSON(r, &in); err != nil {
			respond.Error(w, err)
			return
		}
		swapped, err := SwapAssets(r.Context(), db, auditSvc, user, in)
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.JSON(w, http.StatusOK, swapped)
	}
}

// ExportAssetsQueryHandler handles GET /assets/export.csv.
func ExportAssetsQueryHandler(db *sqlite.DB, auditSvc *audit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := actor.FromContext(r.Context())

		assetType := models.AssetType(r.URL.Query().Get("type"))
		status := models.AssetStatus(r.URL.Query().Get("status"))
		list, err := ListAssets(r.Context(), db, assetType, status)
		if err != nil {
			respond.Error(w, err)
			return
		}

		auditSvc.RecordRead(r.Context(), db, user, fmt.Sprintf("User '%s' exported the asset list.", user.Username))

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="assets.csv"`)
		if err := writeAssetsCSV(w, list); err != nil {
			respond.Error(w, err)
		}
	}
}

// AssetLabelsQueryHandler handles GET /assets/labels.pdf?ids=1,2,3.
func AssetLabelsQueryHandler(db *sqlite.DB, auditSvc *audit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := actor.FromContext(r.Context())

		ids, err := parseIDList(r.URL.Query().Get("ids"))
		if err != nil {
			respond.Error(w, err)
			return
		}
		list, err := loadAssetsByIDs(r.Context(), db, ids)
		if err != nil {
			respond.Error(w, err)
			return
		}

		pdfBytes, err := renderAssetLabelsPDF(list, time.Now())
		if err != nil {
			respond.Error(w, err)
			return
		}

		auditSvc.RecordRead(r.Context(), db, user, fmt.Sprintf("User '%s' printed labels for %d assets.", user.Username, len(list)))

		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="asset-labels.pdf"`)
		_, _ = w.Write(pdfBytes)
	}
}

func loadAssetsByIDs(ctx context.Context, db *sqlite.DB, ids []int64) ([]models.Asset, error) {
	var list []models.Asset
	err := db.R.NewSelect().
		Model(&list).
		Where("id IN (?)", bun.In(ids)).
		OrderExpr("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, apperr.NotFound("no assets found for the given ids")
	}
	return list, nil
}

func parseIDList(raw string) ([]int64, error) {
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id <= 0 {
			return nil, apperr.InvalidState("invalid asset id: %s", part)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, apperr.InvalidState("ids query parameter is required")
	}
	return ids, nil
}

func assetIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.InvalidState("invalid asset id")
	}
	return id, nil
}
