package reports

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

type Service struct {
	DB *pgxpool.Pool
}

func NewService(pool *pgxpool.Pool) *Service {
	return &Service{DB: pool}
}

// Dashboard is the operator's landing-page snapshot.
type Dashboard struct {
	TotalWorkers        int             `json:"totalWorkers"`
	TodayAttendance     int             `json:"todayAttendance"`
	WeeklyProduction    int             `json:"weeklyProduction"`
	InventoryLevel      int             `json:"inventoryLevel"`
	OutstandingBalances decimal.Decimal `json:"outstandingBalances"`
	RecentOrders        []RecentOrder   `json:"recentOrders"`
}

type RecentOrder struct {
	ID           string          `json:"id"`
	OrderNumber  string          `json:"orderNumber"`
	CustomerName string          `json:"customerName"`
	Quantity     int             `json:"quantity"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
	Status       string          `json:"status"`
	OrderDate    time.Time       `json:"orderDate"`
}

func (s *Service) Dashboard(ctx context.Context, now time.Time) (Dashboard, error) {
	var d Dashboard

	today := now.Format("2006-01-02")
	weekAgo := now.AddDate(0, 0, -7).Format("2006-01-02")

	err := s.DB.QueryRow(ctx, `
    SELECT
      (SELECT COUNT(*) FROM workers WHERE is_active),
      (SELECT COUNT(*) FROM attendance WHERE date = $1 AND is_present),
      (SELECT COALESCE(SUM(bricks_produced), 0) FROM attendance WHERE date >= $2 AND is_present),
      (SELECT COALESCE(MAX(current_stock), 0) FROM inventory),
      (SELECT COALESCE(SUM(balance), 0) FROM workers WHERE is_active AND balance > 0)
  `, today, weekAgo).Scan(&d.TotalWorkers, &d.TodayAttendance, &d.WeeklyProduction, &d.InventoryLevel, &d.OutstandingBalances)
	if err != nil {
		return Dashboard{}, err
	}

	rows, err := s.DB.Query(ctx, `
    SELECT o.id, o.order_number, c.name, o.quantity, o.total_amount, o.status, o.order_date
    FROM sales_orders o
    JOIN customers c ON o.customer_id = c.id
    ORDER BY o.order_date DESC, o.created_at DESC
    LIMIT 5
  `)
	if err != nil {
		return Dashboard{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var o RecentOrder
		if err := rows.Scan(&o.ID, &o.OrderNumber, &o.CustomerName, &o.Quantity, &o.TotalAmount, &o.Status, &o.OrderDate); err != nil {
			return Dashboard{}, err
		}
		d.RecentOrders = append(d.RecentOrders, o)
	}
	return d, rows.Err()
}

type registerRow struct {
	workerName  string
	weekStart   time.Time
	weekEnd     time.Time
	gross       decimal.Decimal
	paid        decimal.Decimal
	balance     decimal.Decimal
	paymentDate time.Time
}

// PaymentRegisterPDF renders every settlement whose payment date falls inside
// [weekStart, weekEnd] as a one-page-per-overflow register table.
func (s *Service) PaymentRegisterPDF(ctx context.Context, weekStart, weekEnd time.Time, out io.Writer) error {
	rows, err := s.DB.Query(ctx, `
    SELECT w.name, p.week_start_date, p.week_end_date, p.gross_amount, p.paid_amount, p.balance_amount, p.payment_date
    FROM payments p
    JOIN workers w ON p.worker_id = w.id
    WHERE p.payment_date >= $1 AND p.payment_date < $2 + INTERVAL '1 day'
    ORDER BY p.payment_date, w.name
  `, weekStart, weekEnd)
	if err != nil {
		return err
	}
	defer rows.Close()

	var register []registerRow
	totalGross, totalPaid, totalBalance := decimal.Zero, decimal.Zero, decimal.Zero
	for rows.Next() {
		var r registerRow
		if err := rows.Scan(&r.workerName, &r.weekStart, &r.weekEnd, &r.gross, &r.paid, &r.balance, &r.paymentDate); err != nil {
			return err
		}
		register = append(register, r)
		totalGross = totalGross.Add(r.gross)
		totalPaid = totalPaid.Add(r.paid)
		totalBalance = totalBalance.Add(r.balance)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Payment Register")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 8, fmt.Sprintf("Week: %s to %s", weekStart.Format("2006-01-02"), weekEnd.Format("2006-01-02")))
	pdf.Ln(10)

	widths := []float64{70, 55, 35, 35, 35, 35}
	headers := []string{"Worker", "Period", "Gross", "Paid", "Balance", "Paid On"}
	pdf.SetFont("Helvetica", "B", 10)
	for i, header := range headers {
		pdf.CellFormat(widths[i], 8, header, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, r := range register {
		period := r.weekStart.Format("02 Jan") + " - " + r.weekEnd.Format("02 Jan")
		pdf.CellFormat(widths[0], 7, r.workerName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, period, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 7, r.gross.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 7, r.paid.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 7, r.balance.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[5], 7, r.paymentDate.Format("2006-01-02"), "1", 0, "L", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(widths[0]+widths[1], 8, fmt.Sprintf("Total (%d payments)", len(register)), "1", 0, "L", false, 0, "")
	pdf.CellFormat(widths[2], 8, totalGross.StringFixed(2), "1", 0, "R", false, 0, "")
	pdf.CellFormat(widths[3], 8, totalPaid.StringFixed(2), "1", 0, "R", false, 0, "")
	pdf.CellFormat(widths[4], 8, totalBalance.StringFixed(2), "1", 0, "R", false, 0, "")
	pdf.CellFormat(widths[5], 8, "", "1", 0, "L", false, 0, "")

	return pdf.Output(out)
}
