package constants

const (
	APIPrefix = "/v1"

	// Admin routes live under /v1/admin/<manager>
	AdminPrefix = APIPrefix + "/admin"
)
