package bootstrap

import (
	"context"
	"log"

	bleveRepositories "delivery-ledger-backend/bleve/repositories"
	"delivery-ledger-backend/config"
	delivery_repositories "delivery-ledger-backend/deliveries/repositories"

	"go.uber.org/zap"
)

// IndexBleveData rebuilds the search indexes from the database on startup.
// The indexes live on local disk and can drift from Postgres after a restore,
// so a full reindex is the safe default.
func IndexBleveData(
	ctx context.Context,
	deliveryRepo delivery_repositories.DeliveryRepository,
	bleveRepo bleveRepositories.BleveRepositoryInterface,
) {
	err := bleveRepo.DeleteAllIndices(ctx)
	if err != nil {
		log.Fatalf("Error deleting all indices: %v", err)
	}

	if deliveries, err := deliveryRepo.GetAllDeliveries(); err != nil {
		config.Logger.Error("Error fetching deliveries for Bleve indexing", zap.Error(err))
	} else if err := bleveRepo.IndexExistingDeliveries(deliveries); err != nil {
		config.Logger.Error("Failed to index deliveries into Bleve", zap.Error(err))
	}

	if suppliers, err := deliveryRepo.GetAllSuppliers(); err != nil {
		config.Logger.Error("Error fetching suppliers for Bleve indexing", zap.Error(err))
	} else if err := bleveRepo.IndexExistingSuppliers(suppliers); err != nil {
		config.Logger.Error("Failed to index suppliers into Bleve", zap.Error(err))
	}

	if contractors, err := deliveryRepo.GetAllContractors(); err != nil {
		config.Logger.Error("Error fetching contractors for Bleve indexing", zap.Error(err))
	} else if err := bleveRepo.IndexExistingContractors(contractors); err != nil {
		config.Logger.Error("Failed to index contractors into Bleve", zap.Error(err))
	}
}
