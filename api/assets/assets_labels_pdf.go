package assets

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"time"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/jung-kurt/gofpdf"

	"fibertrack/models"
)

// renderAssetLabelsPDF produces one label page per asset with a
// code128 barcode of its serial number, for sticking on the hardware
// before dispatch.
func renderAssetLabelsPDF(assets []models.Asset, printedAt time.Time) ([]byte, error) {
	if len(assets) == 0 {
		return nil, fmt.Errorf("no labels to render")
	}

	pdf := gofpdf.New("L", "mm", "A5", "")
	pdf.SetTitle("Asset Labels", false)

	for _, asset := range assets {
		barcodePNG, err := renderCode128PNG(asset.SerialNumber, 1200, 260)
		if err != nil {
			return nil, err
		}

		pdf.AddPage()

		pdf.SetFont("Helvetica", "B", 30)
		pdf.CellFormat(0, 14, string(asset.Type)+" "+asset.Model, "", 1, "C", false, 0, "")

		pdf.SetFont("Helvetica", "", 12)
		pdf.CellFormat(0, 7, fmt.Sprintf("Asset ID: %d", asset.ID), "", 1, "C", false, 0, "")
		pdf.CellFormat(0, 7, "Pincode: "+asset.Pincode, "", 1, "C", false, 0, "")
		pdf.CellFormat(0, 7, "Printed: "+printedAt.Format("02/01/2006"), "", 1, "C", false, 0, "")

		opt := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
		imageName := fmt.Sprintf("asset-barcode-%d", asset.ID)
		pdf.RegisterImageOptionsReader(imageName, opt, bytes.NewReader(barcodePNG))
		pageW, _ := pdf.GetPageSize()
		imgW := 150.0
		imgH := 36.0
		x := (pageW - imgW) / 2
		y := 62.0
		pdf.ImageOptions(imageName, x, y, imgW, imgH, false, opt, 0, "")

		pdf.SetY(y + imgH + 4)
		pdf.SetFont("Helvetica", "B", 18)
		pdf.CellFormat(0, 10, asset.SerialNumber, "", 1, "C", false, 0, "")
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func renderCode128PNG(value string, width, height int) ([]byte, error) {
	code, err := code128.Encode(value)
	if err != nil {
		return nil, err
	}
	scaled, err := barcode.Scale(code, width, height)
	if err != nil {
		return nil, err
	}
	normalized := toNRGBA(scaled)
	var barcodePNG bytes.Buffer
	if err := png.Encode(&barcodePNG, normalized); err != nil {
		return nil, err
	}
	return barcodePNG.Bytes(), nil
}

func toNRGBA(src image.Image) *image.NRGBA {
	bounds := src.Bounds()
	dst := image.NewNRGBA(bounds)
	draw.Draw(dst, bounds, src, bounds.Min, draw.Src)
	return dst
}
