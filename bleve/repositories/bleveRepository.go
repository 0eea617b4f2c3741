package repositories

import (
	"context"

	bleveindex "delivery-ledger-backend/bleve/services"
	"delivery-ledger-backend/db/models"

	"github.com/blevesearch/bleve/v2"
)

type BleveRepository struct {
	indexer *bleveindex.IndexingService
}

type BleveRepositoryInterface interface {
	// General
	DeleteAllIndices(ctx context.Context) error

	// ==== Delivery Indexing ====
	IndexSingleDelivery(record models.DeliveryRecord) error
	IndexExistingDeliveries(records []models.DeliveryRecord) error
	UpdateDelivery(record models.DeliveryRecord) error
	DeleteDelivery(recordID string) error
	SearchDeliveries(queryString, supplierID, contractorID, vehicleNumber string) (*bleve.SearchResult, error)
	GetDeliveryDocument(id string) (interface{}, error)

	// ==== Supplier / Contractor Indexing ====
	IndexSingleSupplier(supplier models.Supplier) error
	IndexExistingSuppliers(suppliers []models.Supplier) error
	IndexSingleContractor(contractor models.Contractor) error
	IndexExistingContractors(contractors []models.Contractor) error
	SearchPartners(indexName, queryString string, active *bool) (*bleve.SearchResult, error)
	GetPartnerDocument(indexName, id string) (interface{}, error)
}

// Constructor returning both the struct and the interface
func NewBleveRepository(indexer *bleveindex.IndexingService) (*BleveRepository, BleveRepositoryInterface) {
	repo := &BleveRepository{indexer: indexer}
	return repo, repo
}

func (r *BleveRepository) DeleteAllIndices(ctx context.Context) error {
	return r.indexer.DeleteAllIndices()
}
