package common

const (
	// Cache key for one country-year holiday set, e.g. holidays:JP:2025.
	KEY_HOLIDAYS_YEAR = "holidays:%s:%d"
)

const (
	KEY_LOG_HOOK_SEND_ALERT = "send_alert"
)
