package constants

const (
	APP_STOREFRONT         = "storefront"
	APP_CART_SERVICE       = "cart-service"
	APP_CART_SYNC_WORKER   = "cart-sync-worker"
	APP_CATALOG_SERVICE    = "catalog-service"
	APP_CHECKOUT_SERVICE   = "checkout-service"
	APP_BOOKING_SERVICE    = "booking-service"
	APP_USER_SERVICE       = "user-service"
	APP_ADMIN_SERVICE      = "admin-service"
	APP_MAIN_STOREFRONT    = "main storefront"
	ROLE_ADMIN             = "admin"
	ROLE_CUSTOMER          = "customer"
	HEADER_REQUEST_ID      = "X-Request-Id"
	HEADER_IDEMPOTENCY     = "Idempotency-Key"
	HEADER_AUTHORIZATION   = "Authorization"
	HEADER_CONTENT_TYPE    = "Content-Type"
	VALUE_APPLICATION_JSON = "application/json"
)
