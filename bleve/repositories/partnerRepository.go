package repositories

import (
	"strings"

	"delivery-ledger-backend/config"
	"delivery-ledger-backend/db/models"

	"github.com/blevesearch/bleve/v2"
	"go.uber.org/zap"
)

const (
	suppliersIndex   = "suppliers"
	contractorsIndex = "contractors"
)

// blevePartnerDoc is shared between suppliers and contractors; the two live
// in separate indexes but carry the same shape.
type blevePartnerDoc struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Phone    string `json:"phone,omitempty"`
	TaxCode  string `json:"tax_code,omitempty"`
	IsActive bool   `json:"is_active"`
}

func (r *BleveRepository) IndexSingleSupplier(supplier models.Supplier) error {
	doc := blevePartnerDoc{
		ID:       supplier.ID.String(),
		Name:     supplier.Name,
		Phone:    derefString(supplier.Phone),
		TaxCode:  derefString(supplier.TaxCode),
		IsActive: supplier.IsActive,
	}
	if err := r.indexer.IndexDocument(suppliersIndex, doc.ID, doc); err != nil {
		config.Logger.Error("Failed to index supplier into Bleve",
			zap.Error(err),
			zap.String("supplier_id", doc.ID))
		return err
	}
	return nil
}

func (r *BleveRepository) IndexExistingSuppliers(suppliers []models.Supplier) error {
	docs := make(map[string]interface{}, len(suppliers))
	for _, supplier := range suppliers {
		docs[supplier.ID.String()] = blevePartnerDoc{
			ID:       supplier.ID.String(),
			Name:     supplier.Name,
			Phone:    derefString(supplier.Phone),
			TaxCode:  derefString(supplier.TaxCode),
			IsActive: supplier.IsActive,
		}
	}
	if len(docs) == 0 {
		return nil
	}
	return r.indexer.BulkIndexDocuments(suppliersIndex, docs)
}

func (r *BleveRepository) IndexSingleContractor(contractor models.Contractor) error {
	doc := blevePartnerDoc{
		ID:       contractor.ID.String(),
		Name:     contractor.Name,
		Phone:    derefString(contractor.Phone),
		IsActive: contractor.IsActive,
	}
	if err := r.indexer.IndexDocument(contractorsIndex, doc.ID, doc); err != nil {
		config.Logger.Error("Failed to index contractor into Bleve",
			zap.Error(err),
			zap.String("contractor_id", doc.ID))
		return err
	}
	return nil
}

func (r *BleveRepository) IndexExistingContractors(contractors []models.Contractor) error {
	docs := make(map[string]interface{}, len(contractors))
	for _, contractor := range contractors {
		docs[contractor.ID.String()] = blevePartnerDoc{
			ID:       contractor.ID.String(),
			Name:     contractor.Name,
			Phone:    derefString(contractor.Phone),
			IsActive: contractor.IsActive,
		}
	}
	if len(docs) == 0 {
		return nil
	}
	return r.indexer.BulkIndexDocuments(contractorsIndex, docs)
}

// SearchPartners searches either partner index by name, phone or tax code.
func (r *BleveRepository) SearchPartners(indexName, queryString string, active *bool) (*bleve.SearchResult, error) {
	queryString = strings.TrimSpace(queryString)
	queryStringLower := strings.ToLower(queryString)

	booleanQuery := bleve.NewBooleanQuery()
	if queryString != "" {
		nameMatch := bleve.NewMatchQuery(queryString)
		nameMatch.SetField("name")
		nameMatch.SetBoost(10.0)
		booleanQuery.AddShould(nameMatch)

		namePrefix := bleve.NewPrefixQuery(queryStringLower)
		namePrefix.SetField("name")
		namePrefix.SetBoost(7.0)
		booleanQuery.AddShould(namePrefix)

		taxCodeExact := bleve.NewTermQuery(queryString)
		taxCodeExact.SetField("tax_code")
		taxCodeExact.SetBoost(9.0)
		booleanQuery.AddShould(taxCodeExact)

		phonePrefix := bleve.NewPrefixQuery(queryStringLower)
		phonePrefix.SetField("phone")
		phonePrefix.SetBoost(5.0)
		booleanQuery.AddShould(phonePrefix)

		fuzzyName := bleve.NewFuzzyQuery(queryStringLower)
		fuzzyName.SetField("name")
		fuzzyName.SetBoost(3.0)
		fuzzyName.SetFuzziness(1)
		booleanQuery.AddShould(fuzzyName)
	}

	finalQuery := bleve.NewBooleanQuery()
	if queryString != "" {
		finalQuery.AddMust(booleanQuery)
	}
	if active != nil {
		activeQuery := bleve.NewBoolFieldQuery(*active)
		activeQuery.SetField("is_active")
		finalQuery.AddMust(activeQuery)
	}

	return r.indexer.SearchIndex(indexName, finalQuery, 20)
}

func (r *BleveRepository) GetPartnerDocument(indexName, id string) (interface{}, error) {
	return r.indexer.GetDocument(indexName, id)
}

func derefString(s *string) string {
	if s != nil {
		return *s
	}
	return ""
}
