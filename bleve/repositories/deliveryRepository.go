package repositories

import (
	"strings"

	"delivery-ledger-backend/config"
	"delivery-ledger-backend/db/models"

	"github.com/blevesearch/bleve/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const deliveriesIndex = "deliveries"

// bleveDeliveryDoc is the flattened view of a delivery record held in the
// index. Money fields are indexed as strings so the stored form matches what
// the API renders.
type bleveDeliveryDoc struct {
	ID             string `json:"id"`
	DeliveryDate   string `json:"delivery_date"`
	VoucherNumber  string `json:"voucher_number"`
	VehicleNumber  string `json:"vehicle_number"`
	SupplierID     string `json:"supplier_id,omitempty"`
	SupplierName   string `json:"supplier_name,omitempty"`
	ContractorID   string `json:"contractor_id,omitempty"`
	ContractorName string `json:"contractor_name,omitempty"`
	Description    string `json:"description,omitempty"`
	Volume         string `json:"volume,omitempty"`
	NetValue       string `json:"net_value,omitempty"`
}

func toDeliveryDoc(record models.DeliveryRecord) bleveDeliveryDoc {
	doc := bleveDeliveryDoc{
		ID:            record.ID.String(),
		DeliveryDate:  record.DeliveryDate.Format("2006-01-02"),
		VoucherNumber: record.VoucherNumber,
		VehicleNumber: record.VehicleNumber,
		SupplierID:    derefUUID(record.SupplierID),
		ContractorID:  derefUUID(record.ContractorID),
		Description:   record.Description,
	}
	if record.Supplier != nil {
		doc.SupplierName = record.Supplier.Name
	}
	if record.Contractor != nil {
		doc.ContractorName = record.Contractor.Name
	}
	if record.Volume != nil {
		doc.Volume = record.Volume.String()
	}
	if record.NetValue != nil {
		doc.NetValue = record.NetValue.String()
	}
	return doc
}

func (r *BleveRepository) IndexSingleDelivery(record models.DeliveryRecord) error {
	err := r.indexer.IndexDocument(deliveriesIndex, record.ID.String(), toDeliveryDoc(record))
	if err != nil {
		config.Logger.Error("Failed to index delivery into Bleve",
			zap.Error(err),
			zap.String("delivery_id", record.ID.String()))
		return err
	}
	return nil
}

func (r *BleveRepository) IndexExistingDeliveries(records []models.DeliveryRecord) error {
	docs := make(map[string]interface{}, len(records))
	for _, record := range records {
		docs[record.ID.String()] = toDeliveryDoc(record)
	}

	if len(docs) == 0 {
		config.Logger.Info("No deliveries to index into Bleve.")
		return nil
	}

	if err := r.indexer.BulkIndexDocuments(deliveriesIndex, docs); err != nil {
		config.Logger.Error("Failed to bulk index deliveries into Bleve", zap.Error(err))
		return err
	}
	config.Logger.Info("Bulk indexed deliveries into Bleve", zap.Int("count", len(docs)))
	return nil
}

func (r *BleveRepository) UpdateDelivery(record models.DeliveryRecord) error {
	if err := r.indexer.DeleteDocument(deliveriesIndex, record.ID.String()); err != nil {
		config.Logger.Error("Failed to delete delivery document for update",
			zap.Error(err),
			zap.String("delivery_id", record.ID.String()))
		return err
	}
	return r.IndexSingleDelivery(record)
}

func (r *BleveRepository) DeleteDelivery(recordID string) error {
	if err := r.indexer.DeleteDocument(deliveriesIndex, recordID); err != nil {
		config.Logger.Error("Failed to delete delivery from Bleve",
			zap.Error(err),
			zap.String("delivery_id", recordID))
		return err
	}
	return nil
}

// SearchDeliveries ranks exact voucher matches above prefix and fuzzy hits,
// then applies the structured filters as musts.
func (r *BleveRepository) SearchDeliveries(queryString, supplierID, contractorID, vehicleNumber string) (*bleve.SearchResult, error) {
	queryString = strings.TrimSpace(queryString)
	queryStringLower := strings.ToLower(queryString)

	booleanQuery := bleve.NewBooleanQuery()
	if queryString != "" {
		voucherExact := bleve.NewTermQuery(queryString)
		voucherExact.SetField("voucher_number")
		voucherExact.SetBoost(10.0)
		booleanQuery.AddShould(voucherExact)

		voucherExactLower := bleve.NewTermQuery(queryStringLower)
		voucherExactLower.SetField("voucher_number")
		voucherExactLower.SetBoost(9.0)
		booleanQuery.AddShould(voucherExactLower)

		vehicleExact := bleve.NewTermQuery(queryStringLower)
		vehicleExact.SetField("vehicle_number")
		vehicleExact.SetBoost(8.0)
		booleanQuery.AddShould(vehicleExact)

		supplierMatch := bleve.NewMatchQuery(queryString)
		supplierMatch.SetField("supplier_name")
		supplierMatch.SetBoost(7.0)
		booleanQuery.AddShould(supplierMatch)

		descriptionMatch := bleve.NewMatchQuery(queryString)
		descriptionMatch.SetField("description")
		descriptionMatch.SetBoost(5.0)
		booleanQuery.AddShould(descriptionMatch)

		voucherPrefix := bleve.NewPrefixQuery(queryStringLower)
		voucherPrefix.SetField("voucher_number")
		voucherPrefix.SetBoost(6.0)
		booleanQuery.AddShould(voucherPrefix)

		vehiclePrefix := bleve.NewPrefixQuery(queryStringLower)
		vehiclePrefix.SetField("vehicle_number")
		vehiclePrefix.SetBoost(4.0)
		booleanQuery.AddShould(vehiclePrefix)

		fuzzyQuery := bleve.NewFuzzyQuery(queryStringLower)
		fuzzyQuery.SetField("voucher_number")
		fuzzyQuery.SetBoost(3.0)
		fuzzyQuery.SetFuzziness(1)
		booleanQuery.AddShould(fuzzyQuery)
	}

	finalQuery := bleve.NewBooleanQuery()
	if queryString != "" {
		finalQuery.AddMust(booleanQuery)
	}

	if supplierID != "" {
		supplierQuery := bleve.NewTermQuery(strings.ToLower(supplierID))
		supplierQuery.SetField("supplier_id")
		finalQuery.AddMust(supplierQuery)
	}
	if contractorID != "" {
		contractorQuery := bleve.NewTermQuery(strings.ToLower(contractorID))
		contractorQuery.SetField("contractor_id")
		finalQuery.AddMust(contractorQuery)
	}
	if vehicleNumber != "" {
		vehicleQuery := bleve.NewTermQuery(strings.ToLower(vehicleNumber))
		vehicleQuery.SetField("vehicle_number")
		finalQuery.AddMust(vehicleQuery)
	}

	return r.indexer.SearchIndex(deliveriesIndex, finalQuery, 20)
}

func (r *BleveRepository) GetDeliveryDocument(id string) (interface{}, error) {
	return r.indexer.GetDocument(deliveriesIndex, id)
}

func derefUUID(u *uuid.UUID) string {
	if u != nil {
		return u.String()
	}
	return ""
}
