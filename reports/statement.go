package reports

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"delivery-ledger-backend/db/models"
	"delivery-ledger-backend/jobs"
	"delivery-ledger-backend/utils"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/shopspring/decimal"
)

const statementDir = "./public/files"

type statementRow struct {
	Date       string
	VoucherNo  string
	VehicleNo  string
	Desc       string
	Volume     string
	Unit       string
	UnitPrice  string
	GrossValue string
	Discount   string
	NetValue   string
}

type statementData struct {
	SupplierName  string
	PeriodFrom    string
	PeriodTo      string
	PrintDate     string
	Rows          []statementRow
	TotalGross    string
	TotalDiscount string
	TotalNet      string
	RowCount      int
}

// runDeliveryStatement renders a per-supplier account statement as a PDF.
func (r *Runner) runDeliveryStatement(ctx context.Context, payload jobs.ReportPayload) (string, string, error) {
	if payload.SupplierID == nil {
		return "", "", fmt.Errorf("delivery statement requires a supplier id")
	}
	from, to, err := parseDateRange(payload)
	if err != nil {
		return "", "", err
	}

	deliveries, err := r.deliveryRepo.GetDeliveriesBySupplier(*payload.SupplierID)
	if err != nil {
		return "", "", fmt.Errorf("failed to load supplier deliveries: %w", err)
	}

	data := buildStatementData(deliveries, from, to)
	if data.SupplierName == "" {
		data.SupplierName = payload.SupplierID.String()
	}

	htmlContent, err := renderStatementHTML(data)
	if err != nil {
		return "", "", err
	}

	pdf, err := renderPDF(ctx, htmlContent)
	if err != nil {
		return "", "", fmt.Errorf("failed to render statement PDF: %w", err)
	}

	if err := utils.EnsureDirectoryExists(statementDir); err != nil {
		return "", "", err
	}
	filename := fmt.Sprintf("delivery_statement_%s.pdf", time.Now().Format("20060102_150405"))
	diskPath := filepath.Join(statementDir, filename)
	if err := os.WriteFile(diskPath, pdf, 0644); err != nil {
		return "", "", err
	}

	title := fmt.Sprintf("Delivery Statement for %s (%s to %s)", data.SupplierName, data.PeriodFrom, data.PeriodTo)
	return diskPath, title, nil
}

func buildStatementData(deliveries []models.DeliveryRecord, from, to time.Time) statementData {
	data := statementData{
		PeriodFrom: from.Format("2006-01-02"),
		PeriodTo:   to.Format("2006-01-02"),
		PrintDate:  time.Now().In(utils.DateLocation).Format("02 January 2006"),
	}

	totalGross := decimal.Zero
	totalDiscount := decimal.Zero
	totalNet := decimal.Zero

	for _, d := range deliveries {
		day := utils.NormalizeDate(d.DeliveryDate)
		if day.Before(from) || day.After(to) {
			continue
		}
		if data.SupplierName == "" && d.Supplier != nil {
			data.SupplierName = d.Supplier.Name
		}

		if d.GrossValue != nil {
			totalGross = totalGross.Add(*d.GrossValue)
		}
		totalDiscount = totalDiscount.Add(d.Discount)
		if d.NetValue != nil {
			totalNet = totalNet.Add(*d.NetValue)
		}

		data.Rows = append(data.Rows, statementRow{
			Date:       d.DeliveryDate.Format("2006-01-02"),
			VoucherNo:  d.VoucherNumber,
			VehicleNo:  d.VehicleNumber,
			Desc:       d.Description,
			Volume:     formatVolume(d.Volume),
			Unit:       d.UnitLabel,
			UnitPrice:  formatMoney(d.UnitPrice),
			GrossValue: formatMoney(d.GrossValue),
			Discount:   d.Discount.StringFixed(2),
			NetValue:   formatMoney(d.NetValue),
		})
	}

	data.TotalGross = totalGross.StringFixed(2)
	data.TotalDiscount = totalDiscount.StringFixed(2)
	data.TotalNet = totalNet.StringFixed(2)
	data.RowCount = len(data.Rows)
	return data
}

func renderStatementHTML(data statementData) (string, error) {
	tmpl, err := template.New("delivery-statement").Parse(statementTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse statement template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute statement template: %w", err)
	}
	return buf.String(), nil
}

// renderPDF serves the HTML on a loopback listener and prints it to an A4
// portrait PDF through headless Chrome.
func renderPDF(parent context.Context, htmlContent string) ([]byte, error) {
	ctx, cancel := chromedp.NewContext(parent)
	defer cancel()

	ctx, cancel = context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(htmlContent))
	})

	server := &http.Server{Handler: mux}
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	defer listener.Close()

	go server.Serve(listener)
	defer server.Close()

	url := fmt.Sprintf("http://127.0.0.1:%d", listener.Addr().(*net.TCPAddr).Port)

	var buf []byte
	err = chromedp.Run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			buf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
				WithMarginTop(0.4).
				WithMarginBottom(0.4).
				WithMarginLeft(0.4).
				WithMarginRight(0.4).
				WithLandscape(false).
				WithPreferCSSPageSize(false).
				WithDisplayHeaderFooter(false).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

const statementTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
  body { font-family: Arial, Helvetica, sans-serif; font-size: 11px; color: #222; }
  h1 { font-size: 18px; margin-bottom: 2px; }
  .meta { margin-bottom: 14px; color: #555; }
  table { width: 100%; border-collapse: collapse; }
  th, td { border: 1px solid #bbb; padding: 4px 6px; text-align: left; }
  th { background: #f0f0f0; }
  td.num, th.num { text-align: right; }
  tr.total td { font-weight: bold; background: #fafafa; }
  .footer { margin-top: 16px; font-size: 10px; color: #777; }
</style>
</head>
<body>
  <h1>Delivery Statement</h1>
  <div class="meta">
    Supplier: <strong>{{.SupplierName}}</strong><br>
    Period: {{.PeriodFrom}} to {{.PeriodTo}}<br>
    Printed: {{.PrintDate}}
  </div>
  <table>
    <thead>
      <tr>
        <th>Date</th><th>Voucher No</th><th>Vehicle No</th><th>Description</th>
        <th class="num">Volume</th><th>Unit</th><th class="num">Unit Price</th>
        <th class="num">Gross</th><th class="num">Discount</th><th class="num">Net</th>
      </tr>
    </thead>
    <tbody>
      {{range .Rows}}
      <tr>
        <td>{{.Date}}</td><td>{{.VoucherNo}}</td><td>{{.VehicleNo}}</td><td>{{.Desc}}</td>
        <td class="num">{{.Volume}}</td><td>{{.Unit}}</td><td class="num">{{.UnitPrice}}</td>
        <td class="num">{{.GrossValue}}</td><td class="num">{{.Discount}}</td><td class="num">{{.NetValue}}</td>
      </tr>
      {{end}}
      <tr class="total">
        <td colspan="7">TOTAL ({{.RowCount}} deliveries)</td>
        <td class="num">{{.TotalGross}}</td>
        <td class="num">{{.TotalDiscount}}</td>
        <td class="num">{{.TotalNet}}</td>
      </tr>
    </tbody>
  </table>
  <div class="footer">System-generated statement. Figures are net of recorded discounts.</div>
</body>
</html>`
