package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"marketplace-backend/internal/domains/product/model"
)

const exportSheet = "Products"

var exportHeaders = []string{
	"ID",
	"Title",
	"Description",
	"Price",
	"Image URL",
	"File URL",
	"Created At",
	"Updated At",
}

// ExportByOwner builds an xlsx workbook of the owner's products, newest first.
func (s *ProductService) ExportByOwner(ctx context.Context, ownerID uuid.UUID) (*excelize.File, error) {
	// Bỏ qua cache, export luôn đọc dữ liệu mới nhất
	items, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	f, err := buildProductsExcelFile(items)
	if err != nil {
		return nil, fmt.Errorf("failed to build excel file: %w", err)
	}
	return f, nil
}

func buildProductsExcelFile(items []model.ProductListItem) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, err
	}

	// Row 1: header
	for colIdx, header := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(colIdx+1, 1)
		if err := f.SetCellValue(exportSheet, cell, header); err != nil {
			return nil, err
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		lastHeader, _ := excelize.CoordinatesToCellName(len(exportHeaders), 1)
		_ = f.SetCellStyle(exportSheet, "A1", lastHeader, headerStyle)
	}

	// Data rows từ row 2
	for i, p := range items {
		row := []interface{}{
			p.ID.String(),
			p.Title,
			p.Description,
			p.Price.InexactFloat64(),
			p.ImageURL,
			p.FileURL,
			p.CreatedAt.Format("2006-01-02 15:04:05"),
			p.UpdatedAt.Format("2006-01-02 15:04:05"),
		}
		start, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(exportSheet, start, &row); err != nil {
			return nil, err
		}
	}

	return f, nil
}
