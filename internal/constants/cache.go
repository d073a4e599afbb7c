package constants

const (
	CACHE_KEY_SESSION        = "storefront:session:%s"
	CACHE_KEY_SYNC_SESSIONS  = "storefront:sync:sessions"
	CACHE_KEY_SYNC_QUEUE     = "storefront:sync:queue:%s"
	CACHE_KEY_CATEGORIES     = "storefront:catalog:categories"
	CACHE_KEY_SERVICES       = "storefront:catalog:services"
	CACHE_KEY_ACTIVE_BANNERS = "storefront:catalog:banners:active"
	CACHE_KEY_LOCATIONS      = "storefront:catalog:locations"
)
