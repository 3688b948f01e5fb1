package errors

// Error code constants.
// Format: CATEGORY_SPECIFIC_DETAIL
// The frontend maps these codes to user-facing messages.

const (
	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT" // malformed request body
	ValidationRequired     = "VALIDATION_REQUIRED"      // missing required field

	// ==================== Resources (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"      // no such row
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS" // duplicate
	ResourceConflict      = "RESOURCE_CONFLICT"       // referenced elsewhere

	// ==================== Catalog (CATALOG_) ====================
	CatalogLineNotFound   = "CATALOG_LINE_NOT_FOUND"   // unknown product line
	CatalogLoadFailed     = "CATALOG_LOAD_FAILED"      // catalog fetch failed
	CatalogSyncFailed     = "CATALOG_SYNC_FAILED"      // remote sync failed
	CatalogExportFailed   = "CATALOG_EXPORT_FAILED"    // variant export failed

	// ==================== Configurator (CONFIG_) ====================
	ConfigSessionNotFound  = "CONFIG_SESSION_NOT_FOUND"  // unknown session id
	ConfigUnknownCategory  = "CONFIG_UNKNOWN_CATEGORY"   // category not on line
	ConfigInvalidOption    = "CONFIG_INVALID_OPTION"     // option not in category
	ConfigInvalidQuantity  = "CONFIG_INVALID_QUANTITY"   // quantity below 1
	ConfigAccessoryToggle  = "CONFIG_ACCESSORY_TOGGLE"   // accessories use the toggle endpoint

	// ==================== Internal (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"   // unclassified
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR" // database failure
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"   // remote backend failure
)
