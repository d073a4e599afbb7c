package constants

const (
	KEY_APP_NAME           = "app"
	KEY_BACKEND_PATH       = "backendPath"
	KEY_BACKEND_METHOD     = "backendMethod"
	KEY_BACKEND_STATUS     = "backendStatus"
	KEY_BANNER_ID          = "bannerId"
	KEY_BODY               = "body"
	KEY_BOOKING            = "booking"
	KEY_BOOKING_ID         = "bookingId"
	KEY_CACHE_KEY          = "cacheKey"
	KEY_CART               = "cart"
	KEY_CART_COUNT         = "cartCount"
	KEY_CART_ITEM_ID       = "cartItemId"
	KEY_CART_ITEM_QUANTITY = "cartItemQuantity"
	KEY_CART_TOTAL         = "cartTotal"
	KEY_CONFIG             = "config"
	KEY_EMAIL              = "email"
	KEY_FIELD_ERRORS       = "fieldErrors"
	KEY_HEADER             = "header"
	KEY_IDEMPOTENCY_KEY    = "idempotencyKey"
	KEY_JSON_CACHE         = "jsonCache"
	KEY_KYC_STATUS         = "kycStatus"
	KEY_OP                 = "op"
	KEY_OP_ATTEMPTS        = "opAttempts"
	KEY_OP_KIND            = "opKind"
	KEY_ORDER_ID           = "orderId"
	KEY_PATH_VALUES        = "pathValues"
	KEY_PAYMENT_METHOD     = "paymentMethod"
	KEY_PROCESS            = "process"
	KEY_PRODUCT_ID         = "productId"
	KEY_PRODUCTS           = "products"
	KEY_REQUEST            = "request"
	KEY_REQUEST_BODY       = "requestBody"
	KEY_REQUEST_HOST       = "host"
	KEY_REQUEST_ID         = "requestId"
	KEY_REQUEST_IP         = "requesterIP"
	KEY_REQUEST_METHOD     = "requestMethod"
	KEY_REQUEST_URI        = "requestURI"
	KEY_REQUEST_URL        = "requestURL"
	KEY_ROLE               = "role"
	KEY_SEARCH_QUERY       = "searchQuery"
	KEY_SERVICE_ID         = "serviceId"
	KEY_SESSION_ID         = "sessionId"
	KEY_SPAN_ID            = "spanId"
	KEY_STEP               = "step"
	KEY_TAG                = "tag"
	KEY_TOKEN              = "token"
	KEY_TRACE_ID           = "traceId"
	KEY_USER_ID            = "userId"
	KEY_WISHLIST_COUNT     = "wishlistCount"
)
