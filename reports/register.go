package reports

import (
	"fmt"

	"delivery-ledger-backend/db/models"
	"delivery-ledger-backend/jobs"
	"delivery-ledger-backend/utils"

	"github.com/shopspring/decimal"
)

// runDeliveryRegister renders the delivery register: every delivery line in
// the requested range, supplier-scoped when a supplier id is given.
func (r *Runner) runDeliveryRegister(payload jobs.ReportPayload) (string, string, error) {
	from, to, err := parseDateRange(payload)
	if err != nil {
		return "", "", err
	}

	var deliveries []models.DeliveryRecord
	if payload.SupplierID != nil {
		deliveries, err = r.deliveryRepo.GetDeliveriesBySupplier(*payload.SupplierID)
	} else {
		deliveries, err = r.deliveryRepo.GetDeliveriesByDateRange(from, to)
	}
	if err != nil {
		return "", "", fmt.Errorf("failed to load deliveries for register: %w", err)
	}

	headers := []string{
		"Delivery Date", "Voucher No", "Vehicle No", "Supplier", "Contractor",
		"Description", "Volume", "Unit", "Unit Price", "Gross Value", "Discount", "Net Value",
	}

	rows := make([][]interface{}, 0, len(deliveries)+1)
	totalGross := decimal.Zero
	totalDiscount := decimal.Zero
	totalNet := decimal.Zero

	for _, d := range deliveries {
		supplierName := ""
		if d.Supplier != nil {
			supplierName = d.Supplier.Name
		}
		contractorName := ""
		if d.Contractor != nil {
			contractorName = d.Contractor.Name
		}

		if d.GrossValue != nil {
			totalGross = totalGross.Add(*d.GrossValue)
		}
		totalDiscount = totalDiscount.Add(d.Discount)
		if d.NetValue != nil {
			totalNet = totalNet.Add(*d.NetValue)
		}

		rows = append(rows, []interface{}{
			d.DeliveryDate.Format("2006-01-02"),
			d.VoucherNumber,
			d.VehicleNumber,
			supplierName,
			contractorName,
			d.Description,
			formatVolume(d.Volume),
			d.UnitLabel,
			formatMoney(d.UnitPrice),
			formatMoney(d.GrossValue),
			d.Discount.StringFixed(2),
			formatMoney(d.NetValue),
		})
	}

	rows = append(rows, []interface{}{
		"TOTAL", "", "", "", "", "", "", "", "",
		totalGross.StringFixed(2),
		totalDiscount.StringFixed(2),
		totalNet.StringFixed(2),
	})

	_, diskPath, err := utils.GenerateExcel("delivery_register", headers, rows)
	if err != nil {
		return "", "", fmt.Errorf("failed to render delivery register: %w", err)
	}
	title := fmt.Sprintf("Delivery Register %s to %s", from.Format("2006-01-02"), to.Format("2006-01-02"))
	return diskPath, title, nil
}

func formatMoney(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.StringFixed(2)
}

func formatVolume(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.StringFixed(3)
}
