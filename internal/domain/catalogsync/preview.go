package catalogsync

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/storesync/backend/internal/domain/shared"
)

// AuditDetailDraft is the not-yet-persisted audit row for one classified SKU
type AuditDetailDraft struct {
	SKU            string          `json:"sku"`
	DisplayName    string          `json:"display_name"`
	Status         DetailStatus    `json:"status"`
	ChangesPayload json.RawMessage `json:"changes_payload"`
	ErrorMessage   string          `json:"error_message,omitempty"`
}

// NewAuditDetailDraft builds the draft for item; UpToDate and NotFound get {}
func NewAuditDetailDraft(item ClassifiedItem) (AuditDetailDraft, error) {
	payload, err := MarshalChanges(item.ChangeList())
	if err != nil {
		return AuditDetailDraft{}, fmt.Errorf("serialize changes for %s: %w", item.ItemSKU(), err)
	}
	return AuditDetailDraft{
		SKU:            item.ItemSKU(),
		DisplayName:    item.ItemName(),
		Status:         item.Status(),
		ChangesPayload: payload,
	}, nil
}

// SyncPreview is the reviewable changeset held by the client until the user
// confirms or cancels it.
type SyncPreview struct {
	PreviewID     uuid.UUID             `json:"preview_id"`
	StoreID       uuid.UUID             `json:"store_id"`
	Platform      PlatformCode          `json:"platform"`
	GeneratedAt   time.Time             `json:"generated_at"`
	ToUpdate      []ToUpdateItem        `json:"to_update"`
	UpToDate      []UpToDateItem        `json:"up_to_date"`
	NotFound      []NotFoundItem        `json:"not_found"`
	UpdatePayload []RemoteUpdateCommand `json:"update_payload"`
	AuditDetails  []AuditDetailDraft    `json:"audit_details"`
}

// EmptyPreview returns a preview with no items and non-nil lists
func EmptyPreview(storeID uuid.UUID, platform PlatformCode) *SyncPreview {
	return &SyncPreview{
		PreviewID:     uuid.New(),
		StoreID:       storeID,
		Platform:      platform,
		GeneratedAt:   time.Now(),
		ToUpdate:      []ToUpdateItem{},
		UpToDate:      []UpToDateItem{},
		NotFound:      []NotFoundItem{},
		UpdatePayload: []RemoteUpdateCommand{},
		AuditDetails:  []AuditDetailDraft{},
	}
}

// NewSyncPreview assembles a preview from a classification. Audit drafts
// follow the classification's input order.
func NewSyncPreview(storeID uuid.UUID, platform PlatformCode, c Classification) (*SyncPreview, error) {
	p := EmptyPreview(storeID, platform)
	p.ToUpdate = c.ToUpdate
	p.UpToDate = c.UpToDate
	p.NotFound = c.NotFound

	p.UpdatePayload = make([]RemoteUpdateCommand, 0, len(c.ToUpdate))
	for _, item := range c.ToUpdate {
		p.UpdatePayload = append(p.UpdatePayload, NewUpdateCommand(item))
	}

	p.AuditDetails = make([]AuditDetailDraft, 0, len(c.Items))
	for _, item := range c.Items {
		draft, err := NewAuditDetailDraft(item)
		if err != nil {
			return nil, err
		}
		p.AuditDetails = append(p.AuditDetails, draft)
	}
	return p, nil
}

// HasUpdates returns true if applying the preview would touch the remote store
func (p *SyncPreview) HasUpdates() bool {
	return len(p.UpdatePayload) > 0
}

// Validate checks the preview counting invariants. A preview that arrives
// back from a client is validated before anything is sent to the platform.
func (p *SyncPreview) Validate() error {
	if p.PreviewID == uuid.Nil {
		return invalidPreview("preview_id is required")
	}
	if len(p.ToUpdate) != len(p.UpdatePayload) {
		return invalidPreview(fmt.Sprintf("to_update has %d items but update_payload has %d",
			len(p.ToUpdate), len(p.UpdatePayload)))
	}

	counts := make(map[DetailStatus]int, 3)
	for _, d := range p.AuditDetails {
		if d.Status != DetailStatusUpdated && d.Status != DetailStatusUpToDate && d.Status != DetailStatusNotFound {
			return invalidPreview(fmt.Sprintf("audit detail %s has status %q", d.SKU, d.Status))
		}
		// Settle pairs the k-th updated draft with the k-th update command
		if k := counts[DetailStatusUpdated]; d.Status == DetailStatusUpdated && k < len(p.ToUpdate) && d.SKU != p.ToUpdate[k].SKU {
			return invalidPreview(fmt.Sprintf("updated audit detail %d sku %s does not match to_update sku %s",
				k, d.SKU, p.ToUpdate[k].SKU))
		}
		counts[d.Status]++
	}
	if counts[DetailStatusUpdated] != len(p.ToUpdate) ||
		counts[DetailStatusUpToDate] != len(p.UpToDate) ||
		counts[DetailStatusNotFound] != len(p.NotFound) {
		return invalidPreview("audit_details do not match the classified lists")
	}

	for i, cmd := range p.UpdatePayload {
		if cmd.RemoteID == "" {
			return invalidPreview(fmt.Sprintf("update_payload[%d] has no remote_id", i))
		}
		if cmd.SKU != p.ToUpdate[i].SKU {
			return invalidPreview(fmt.Sprintf("update_payload[%d] sku %s does not match to_update sku %s",
				i, cmd.SKU, p.ToUpdate[i].SKU))
		}
	}
	return nil
}

func invalidPreview(msg string) error {
	return shared.NewDomainError(ErrInvalidPreview.Code, ErrInvalidPreview.Message+": "+msg)
}
