package services

// ServiceContainer holds instances of all the application services. This is
// the main entry point for accessing service functionality and is what the
// handlers receive.
type ServiceContainer struct {
	Claim     ClaimSvcFacade
	Ingestion IngestionSvc
	Inventory InventorySvc
	Session   SessionSvc
	Auth      AuthSvc
}
