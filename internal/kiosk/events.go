// Package kiosk reconstructs the set of currently-active marketplace
// listings from the ledger's kiosk event feed. It contains the event
// adapter, the windowed reconciler, the display-metadata hydrator, and the
// query facade that composes them.
package kiosk

import (
	"strconv"
	"strings"
)

// Kiosk event type prefixes emitted by the framework kiosk module. Each is
// generic over the listed item's type, e.g.
// "0x2::kiosk::ItemListed<0xabc::workshop_nft::WorkshopNft>".
const (
	EventListed    = "0x2::kiosk::ItemListed"
	EventPurchased = "0x2::kiosk::ItemPurchased"
	EventDelisted  = "0x2::kiosk::ItemDelisted"
)

// eventPrefixes lists every event kind relevant to listing reconciliation.
var eventPrefixes = []string{EventListed, EventPurchased, EventDelisted}

// ParsedEvent is the type identity extracted from a kiosk event's generic
// parameter: which item type was listed, from which package.
type ParsedEvent struct {
	ItemType   string
	PackageID  string
	ModuleName string
	StructName string
}

// Matcher decides which kiosk events belong to this marketplace. An event
// is relevant when its generic item type matches the configured module and
// struct name, and, if an allow-list of publisher packages is configured,
// when the item's package is in that list.
type Matcher struct {
	moduleName string
	structName string
	allowed    map[string]struct{}
}

// NewMatcher builds a Matcher for the given target item type. Publisher
// package IDs in allowedPublishers are normalized (lowercase, 0x-prefixed);
// an empty list admits any publisher.
func NewMatcher(moduleName, structName string, allowedPublishers []string) *Matcher {
	allowed := make(map[string]struct{}, len(allowedPublishers))
	for _, pkg := range allowedPublishers {
		pkg = normalizePackageID(pkg)
		if pkg == "" {
			continue
		}
		allowed[pkg] = struct{}{}
	}
	return &Matcher{
		moduleName: moduleName,
		structName: structName,
		allowed:    allowed,
	}
}

// Match tests an event type tag against one expected kind prefix. It returns
// nil for any event that is not relevant, including malformed generic
// parameters; parsing never fails the caller.
func (m *Matcher) Match(eventType, prefix string) *ParsedEvent {
	if !strings.HasPrefix(eventType, prefix+"<") {
		return nil
	}
	return m.parseInnerType(eventType)
}

// MatchesAny reports whether the event type matches any of the three kiosk
// event kinds for the configured item type.
func (m *Matcher) MatchesAny(eventType string) bool {
	for _, prefix := range eventPrefixes {
		if m.Match(eventType, prefix) != nil {
			return true
		}
	}
	return false
}

// parseInnerType extracts and validates the generic parameter between the
// outermost angle brackets: "package::module::Struct[<...>]".
func (m *Matcher) parseInnerType(eventType string) *ParsedEvent {
	start := strings.Index(eventType, "<")
	end := strings.LastIndex(eventType, ">")
	if start == -1 || end == -1 || end <= start {
		return nil
	}

	inner := strings.TrimSpace(eventType[start+1 : end])
	parts := strings.Split(inner, "::")
	if len(parts) < 3 {
		return nil
	}

	packageID := normalizePackageID(parts[0])
	moduleName := parts[1]
	// The struct may itself carry generic parameters; strip them before
	// comparing.
	structName, _, _ := strings.Cut(parts[2], "<")

	if moduleName != m.moduleName || structName != m.structName {
		return nil
	}
	if len(m.allowed) > 0 {
		if _, ok := m.allowed[packageID]; !ok {
			return nil
		}
	}

	return &ParsedEvent{
		ItemType:   inner,
		PackageID:  packageID,
		ModuleName: moduleName,
		StructName: structName,
	}
}

// normalizePackageID lowercases a package ID and ensures the 0x prefix, so
// allow-list membership is case- and prefix-insensitive.
func normalizePackageID(pkg string) string {
	pkg = strings.ToLower(strings.TrimSpace(pkg))
	if pkg == "" {
		return ""
	}
	if !strings.HasPrefix(pkg, "0x") {
		pkg = "0x" + pkg
	}
	return pkg
}

// Payload field aliases. Upstream contract versions are not consistent
// about field naming, so each logical field is looked up under an ordered
// list of known spellings and the first present non-null value wins.
var (
	itemIDKeys        = []string{"itemId", "item_id", "objectId"}
	kioskIDKeys       = []string{"kiosk", "kioskId", "kiosk_id"}
	purchaseKioskKeys = []string{"kiosk", "sellerKiosk", "kiosk_id"}
	priceKeys         = []string{"price", "list_price"}
	sellerKeys        = []string{"seller", "owner", "lister"}
)

// pickString returns the first present non-null payload value among keys,
// coerced to a string. JSON numbers are rendered without an exponent.
func pickString(payload map[string]any, keys ...string) (string, bool) {
	for _, key := range keys {
		v, ok := payload[key]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			return t, true
		case float64:
			return strconv.FormatFloat(t, 'f', -1, 64), true
		case bool:
			return strconv.FormatBool(t), true
		}
	}
	return "", false
}
