package sales

import (
	"encoding/json"

	"github.com/matthieukhl/pocketpos/internal/models"
	"github.com/matthieukhl/pocketpos/internal/tenant"
)

// LinkTenant marks a QR code that joins an employee to a tenant
const LinkTenant = "tenant"

// QRPayload is the JSON carried by product and tenant-link QR codes
type QRPayload struct {
	ID       int64  `json:"id,omitempty"`
	Link     string `json:"link,omitempty"`
	TenantID *int64 `json:"tenant_id,omitempty"`
}

// IsTenantLink reports whether the code links an account rather than
// identifying a product
func (q QRPayload) IsTenantLink() bool {
	return q.Link == LinkTenant
}

// Tenant returns the tenant carried by a link code
func (q QRPayload) Tenant() tenant.ID {
	if q.TenantID == nil {
		return tenant.Unassigned
	}
	return tenant.ID(*q.TenantID)
}

// ParseQRPayload decodes a scanned QR code
func ParseQRPayload(data []byte) (QRPayload, error) {
	var q QRPayload
	if err := json.Unmarshal(data, &q); err != nil {
		return QRPayload{}, models.Invalid("malformed QR payload: %v", err)
	}

	if q.Link != "" {
		if !q.IsTenantLink() {
			return QRPayload{}, models.Invalid("unknown QR link %q", q.Link)
		}
		if q.TenantID == nil || *q.TenantID <= 0 {
			return QRPayload{}, models.Invalid("tenant link without tenant_id")
		}
		return q, nil
	}

	if q.ID <= 0 {
		return QRPayload{}, models.Invalid("QR payload without product id")
	}
	return q, nil
}
