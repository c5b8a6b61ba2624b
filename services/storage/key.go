package storage

import (
	"fmt"
	"time"

	"github.com/customeros/mailgate/internal/utils"
)

const rawMimeKeySuffixLength = 16

// NewRawMimeKey returns a time-partitioned key with a random suffix, e.g.
// inbound/42/2025/03/07/142501-v1stgxr8z5jdhi6b.eml
func NewRawMimeKey(tenantID uint64, now time.Time) string {
	now = now.UTC()
	return fmt.Sprintf("inbound/%d/%s/%s-%s.eml",
		tenantID,
		now.Format("2006/01/02"),
		now.Format("150405"),
		utils.GenerateNanoID(rawMimeKeySuffixLength),
	)
}
