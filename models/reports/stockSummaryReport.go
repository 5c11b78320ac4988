package reports

import (
	"context"
	"fmt"
	"io"

	"github.com/mmfurniture/store_backend/config"
	"github.com/mmfurniture/store_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

type StockSummaryResponse struct {
	ProductId          *int            `json:"ProductId,omitempty"`
	ProductName        *string         `json:"ProductName,omitempty"`
	Category           *string         `json:"Category,omitempty"`
	StandardQuantity   decimal.Decimal `json:"StandardQuantity"`
	CustomizedOnHand   int             `json:"CustomizedOnHand"`
	CustomizedReserved int             `json:"CustomizedReserved"`
	CustomizedSold     int             `json:"CustomizedSold"`
}

// GetStockSummaryReport aggregates the inventory per product: the standard
// aggregate quantity plus the customized units grouped by their status.
func GetStockSummaryReport(ctx context.Context) ([]*StockSummaryResponse, error) {

	sql := `
SELECT
    inventory_items.product_id,
    products.name AS product_name,
    products.category,
    SUM(CASE WHEN inventory_items.is_standard_stock = 1 THEN inventory_items.quantity ELSE 0 END) AS standard_quantity,
    SUM(CASE WHEN inventory_items.is_standard_stock = 0 AND inventory_items.status = 'Available' THEN 1 ELSE 0 END) AS customized_on_hand,
    SUM(CASE WHEN inventory_items.is_standard_stock = 0 AND inventory_items.status = 'Reserved' THEN 1 ELSE 0 END) AS customized_reserved,
    SUM(CASE WHEN inventory_items.is_standard_stock = 0 AND inventory_items.status = 'Sold' THEN 1 ELSE 0 END) AS customized_sold
FROM
    inventory_items
    LEFT JOIN products ON products.id = inventory_items.product_id
WHERE
    inventory_items.store_id = ?
GROUP BY inventory_items.product_id, products.name, products.category
ORDER BY products.name
`

	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == "" {
		return nil, utils.ErrorStoreRequired
	}

	var records []*StockSummaryResponse
	db := config.GetDB()
	if err := db.WithContext(ctx).Raw(sql, storeId).Scan(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// ExportStockSummaryExcel writes the report as an xlsx workbook.
func ExportStockSummaryExcel(ctx context.Context, w io.Writer) error {
	records, err := GetStockSummaryReport(ctx)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	if _, err := f.NewSheet("Sheet1"); err != nil {
		return err
	}

	f.SetCellValue("Sheet1", "A1", "ProductName")
	f.SetCellValue("Sheet1", "B1", "Category")
	f.SetCellValue("Sheet1", "C1", "StandardQuantity")
	f.SetCellValue("Sheet1", "D1", "CustomizedOnHand")
	f.SetCellValue("Sheet1", "E1", "CustomizedReserved")
	f.SetCellValue("Sheet1", "F1", "CustomizedSold")

	for i, d := range records {
		row := fmt.Sprint(i + 2)
		f.SetCellValue("Sheet1", "A"+row, utils.DereferencePtr(d.ProductName))
		f.SetCellValue("Sheet1", "B"+row, utils.DereferencePtr(d.Category))
		f.SetCellValue("Sheet1", "C"+row, d.StandardQuantity.String())
		f.SetCellValue("Sheet1", "D"+row, d.CustomizedOnHand)
		f.SetCellValue("Sheet1", "E"+row, d.CustomizedReserved)
		f.SetCellValue("Sheet1", "F"+row, d.CustomizedSold)
	}

	return f.Write(w)
}
