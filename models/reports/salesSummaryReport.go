package reports

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/mmfurniture/store_backend/config"
	"github.com/mmfurniture/store_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

type SalesSummaryResponse struct {
	CustomerId    *int            `json:"CustomerId,omitempty"`
	CustomerName  *string         `json:"CustomerName,omitempty"`
	OrderCount    int             `json:"OrderCount"`
	TotalSales    decimal.Decimal `json:"TotalSales"`
	TotalDiscount decimal.Decimal `json:"TotalDiscount"`
	TotalReceived decimal.Decimal `json:"TotalReceived"`
}

// GetSalesSummaryReport groups orders by customer over a date window.
// Cancelled orders are excluded; payments count whatever was actually
// received regardless of order state.
func GetSalesSummaryReport(ctx context.Context, fromDate, toDate time.Time) ([]*SalesSummaryResponse, error) {

	sql := `
SELECT
    so.customer_id,
    customers.name AS customer_name,
    so.order_count,
    so.total_sales,
    so.total_discount,
    COALESCE(pay.total_received, 0) AS total_received
FROM
    (SELECT
        customer_id,
            COUNT(orders.id) AS order_count,
            SUM(final_amount) AS total_sales,
            SUM(discount) AS total_discount
    FROM
        orders
    WHERE
        store_id = @storeId
            AND order_date BETWEEN @fromDate AND @toDate
            AND status != 'Cancelled'
    GROUP BY customer_id) AS so
        LEFT JOIN
    customers ON customers.id = so.customer_id
        LEFT JOIN
    (SELECT
        orders.customer_id AS customer_id,
            SUM(payments.amount) AS total_received
    FROM
        payments
    JOIN orders ON orders.id = payments.order_id
    WHERE
        payments.store_id = @storeId
            AND payments.payment_date BETWEEN @fromDate AND @toDate
    GROUP BY orders.customer_id) AS pay ON pay.customer_id = so.customer_id
ORDER BY so.total_sales DESC
`

	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == "" {
		return nil, utils.ErrorStoreRequired
	}

	var records []*SalesSummaryResponse
	db := config.GetDB()
	if err := db.WithContext(ctx).Raw(sql, map[string]interface{}{
		"storeId":  storeId,
		"fromDate": fromDate,
		"toDate":   toDate,
	}).Scan(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func ExportSalesSummaryExcel(ctx context.Context, w io.Writer, fromDate, toDate time.Time) error {
	records, err := GetSalesSummaryReport(ctx, fromDate, toDate)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	if _, err := f.NewSheet("Sheet1"); err != nil {
		return err
	}

	f.SetCellValue("Sheet1", "A1", "CustomerName")
	f.SetCellValue("Sheet1", "B1", "OrderCount")
	f.SetCellValue("Sheet1", "C1", "TotalSales")
	f.SetCellValue("Sheet1", "D1", "TotalDiscount")
	f.SetCellValue("Sheet1", "E1", "TotalReceived")

	for i, d := range records {
		row := fmt.Sprint(i + 2)
		f.SetCellValue("Sheet1", "A"+row, utils.DereferencePtr(d.CustomerName))
		f.SetCellValue("Sheet1", "B"+row, d.OrderCount)
		f.SetCellValue("Sheet1", "C"+row, d.TotalSales.String())
		f.SetCellValue("Sheet1", "D"+row, d.TotalDiscount.String())
		f.SetCellValue("Sheet1", "E"+row, d.TotalReceived.String())
	}

	return f.Write(w)
}
