// Package domain defines the core types shared across the kioskwatch
// service: reconciled listings, display metadata, snapshots, and the
// sentinel errors used by the storage and cache layers.
package domain

import "time"

// Display holds the on-chain display metadata attached to an item via the
// Sui display standard. All fields come from the object's display template;
// an item without a display template produces no Display at all.
type Display struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}

// ListingKey uniquely identifies a listing. The kiosk ID is part of the key:
// the same item ID appearing in two kiosks counts as two distinct listings.
type ListingKey struct {
	ItemID  string
	KioskID string
}

// Listing is a currently-active offer to sell one item out of a kiosk,
// reconciled from the ledger event feed. Price is a decimal string in MIST
// (the smallest unit of SUI) to preserve the ledger's u64 precision.
type Listing struct {
	ItemID     string   `json:"item_id"`
	KioskID    string   `json:"kiosk_id"`
	Price      string   `json:"price"`
	Display    *Display `json:"display,omitempty"`
	Seller     string   `json:"seller,omitempty"`
	TxDigest   string   `json:"tx_digest"`
	ItemType   string   `json:"item_type"`
	PackageID  string   `json:"package_id"`
	ModuleName string   `json:"module_name"`
	StructName string   `json:"struct_name"`
}

// Key returns the uniqueness key for this listing.
func (l Listing) Key() ListingKey {
	return ListingKey{ItemID: l.ItemID, KioskID: l.KioskID}
}

// Snapshot is one reconciliation pass frozen in time, used by the archival
// layers. The reconciliation core itself never reads snapshots back.
type Snapshot struct {
	TakenAt  time.Time `json:"taken_at"`
	Listings []Listing `json:"listings"`
}

// Keys returns the set of listing keys present in the snapshot.
func (s Snapshot) Keys() map[ListingKey]struct{} {
	keys := make(map[ListingKey]struct{}, len(s.Listings))
	for _, l := range s.Listings {
		keys[l.Key()] = struct{}{}
	}
	return keys
}
