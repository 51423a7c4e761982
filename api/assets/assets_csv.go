package assets

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"fibertrack/infrastructure/apperr"
	"fibertrack/models"
)

// parseAssetsCSV reads a bulk upload of the form:
//
//	type,model,serial_number,pincode
//	ONT,ONT-100,SN0001,560001
func parseAssetsCSV(reader io.Reader) ([]CreateAssetInput, error) {
	r := csv.NewReader(reader)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, apperr.InvalidState("read CSV header: %v", err)
	}
	if len(header) < 4 ||
		!strings.EqualFold(strings.TrimSpace(header[0]), "type") ||
		!strings.EqualFold(strings.TrimSpace(header[1]), "model") ||
		!strings.EqualFold(strings.TrimSpace(header[2]), "serial_number") ||
		!strings.EqualFold(strings.TrimSpace(header[3]), "pincode") {
		return nil, apperr.InvalidState("invalid CSV header; expected type,model,serial_number,pincode")
	}

	var inputs []CreateAssetInput
	line := 1
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, apperr.InvalidState("line %d: %v", line, err)
		}
		if len(record) < 4 {
			return nil, apperr.InvalidState("line %d: expected 4 columns", line)
		}
		inputs = append(inputs, CreateAssetInput{
			Type:         models.AssetType(strings.TrimSpace(record[0])),
			Model:        strings.TrimSpace(record[1]),
			SerialNumber: strings.TrimSpace(record[2]),
			Pincode:      strings.TrimSpace(record[3]),
		})
	}
	return inputs, nil
}

// writeAssetsCSV is the inverse shape, used by exports.
func writeAssetsCSV(w io.Writer, list []models.Asset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "type", "model", "serial_number", "status", "pincode"}); err != nil {
		return err
	}
	for _, a := range list {
		row := []string{
			fmt.Sprintf("%d", a.ID),
			string(a.Type),
			a.Model,
			a.SerialNumber,
			string(a.Status),
			a.Pincode,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
