package config

import (
	"strings"
	"time"

	"github.com/jrsteele09/go-materials-client/internal/utils"
)

const (
	apiBaseURLVar    = "API_BASE_URL"
	imageBaseURLVar  = "IMAGE_BASE_URL"
	pageSizeVar      = "PAGE_SIZE"
	materialTypesVar = "MATERIAL_TYPES"
	httpTimeoutVar   = "HTTP_TIMEOUT"
	triggerRateVar   = "TRIGGER_RATE"
	restorePolicyVar = "RESTORE_POLICY"
)

// Restore policies accepted by RESTORE_POLICY.
const (
	RestorePolicyKeep    = "keep"
	RestorePolicyRefresh = "refresh"
)

type Client struct {
	values values
}

var _ ClientConfig = Client{}

// GetAPIBaseURL returns the REST API base URL without a trailing slash.
func (c Client) GetAPIBaseURL() string {
	return strings.TrimRight(c.values.get(apiBaseURLVar, "http://localhost:5000/api"), "/")
}

// GetImageBaseURL returns the static asset base URL without a trailing slash.
func (c Client) GetImageBaseURL() string {
	return strings.TrimRight(c.values.get(imageBaseURLVar, "http://localhost:5000/images"), "/")
}

func (c Client) GetPageSize() int {
	size := c.values.getInt(pageSizeVar, 20)
	if size <= 0 {
		return 20
	}
	return size
}

// GetMaterialTypes returns the fixed type constraint sent with every page request.
func (c Client) GetMaterialTypes() []int {
	types, err := utils.ParseIntList(c.values.get(materialTypesVar, "1"))
	if err != nil || len(types) == 0 {
		return []int{1}
	}
	return types
}

func (c Client) GetHTTPTimeout() time.Duration {
	return c.values.getDuration(httpTimeoutVar, 30*time.Second)
}

// GetTriggerRate returns the maximum number of intersection events acted on per second.
func (c Client) GetTriggerRate() float64 {
	rate := c.values.getFloat(triggerRateVar, 4)
	if rate <= 0 {
		return 4
	}
	return rate
}

// GetRestorePolicy returns how startup treats an unreachable API: "keep" the
// stored session, or "refresh" it as if the token had been rejected.
func (c Client) GetRestorePolicy() string {
	policy := strings.ToLower(c.values.get(restorePolicyVar, RestorePolicyKeep))
	if policy != RestorePolicyRefresh {
		return RestorePolicyKeep
	}
	return policy
}
