package kiosk

import "testing"

func TestMatcher_Match(t *testing.T) {
	m := NewMatcher("workshop_nft", "WorkshopNft", nil)

	tests := []struct {
		name      string
		eventType string
		prefix    string
		want      bool
	}{
		{
			name:      "matching listed event",
			eventType: "0x2::kiosk::ItemListed<0xabc::workshop_nft::WorkshopNft>",
			prefix:    EventListed,
			want:      true,
		},
		{
			name:      "matching purchased event",
			eventType: "0x2::kiosk::ItemPurchased<0xabc::workshop_nft::WorkshopNft>",
			prefix:    EventPurchased,
			want:      true,
		},
		{
			name:      "wrong kind for prefix",
			eventType: "0x2::kiosk::ItemPurchased<0xabc::workshop_nft::WorkshopNft>",
			prefix:    EventListed,
			want:      false,
		},
		{
			name:      "wrong module",
			eventType: "0x2::kiosk::ItemListed<0xabc::other_nft::WorkshopNft>",
			prefix:    EventListed,
			want:      false,
		},
		{
			name:      "wrong struct",
			eventType: "0x2::kiosk::ItemListed<0xabc::workshop_nft::OtherNft>",
			prefix:    EventListed,
			want:      false,
		},
		{
			name:      "unrelated event type",
			eventType: "0x3::staking::StakeDeposited",
			prefix:    EventListed,
			want:      false,
		},
		{
			name:      "prefix without generic parameter",
			eventType: "0x2::kiosk::ItemListed",
			prefix:    EventListed,
			want:      false,
		},
		{
			name:      "malformed generic, too few segments",
			eventType: "0x2::kiosk::ItemListed<WorkshopNft>",
			prefix:    EventListed,
			want:      false,
		},
		{
			name:      "empty generic parameter",
			eventType: "0x2::kiosk::ItemListed<>",
			prefix:    EventListed,
			want:      false,
		},
		{
			name:      "struct with its own generic parameter",
			eventType: "0x2::kiosk::ItemListed<0xabc::workshop_nft::WorkshopNft<0x2::sui::SUI>>",
			prefix:    EventListed,
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.Match(tt.eventType, tt.prefix)
			if (got != nil) != tt.want {
				t.Errorf("Match(%q, %q) = %v, want match=%v", tt.eventType, tt.prefix, got, tt.want)
			}
		})
	}
}

func TestMatcher_Match_ParsedFields(t *testing.T) {
	m := NewMatcher("workshop_nft", "WorkshopNft", nil)

	parsed := m.Match("0x2::kiosk::ItemListed<0xABC::workshop_nft::WorkshopNft>", EventListed)
	if parsed == nil {
		t.Fatal("expected a match, got nil")
	}
	if parsed.PackageID != "0xabc" {
		t.Errorf("PackageID = %q, want %q", parsed.PackageID, "0xabc")
	}
	if parsed.ModuleName != "workshop_nft" {
		t.Errorf("ModuleName = %q, want %q", parsed.ModuleName, "workshop_nft")
	}
	if parsed.StructName != "WorkshopNft" {
		t.Errorf("StructName = %q, want %q", parsed.StructName, "WorkshopNft")
	}
	if parsed.ItemType != "0xABC::workshop_nft::WorkshopNft" {
		t.Errorf("ItemType = %q", parsed.ItemType)
	}
}

func TestMatcher_AllowedPublishers(t *testing.T) {
	m := NewMatcher("workshop_nft", "WorkshopNft", []string{"0xAB", "cd"})

	tests := []struct {
		name      string
		eventType string
		want      bool
	}{
		{
			name:      "allowed publisher, exact form",
			eventType: "0x2::kiosk::ItemListed<0xab::workshop_nft::WorkshopNft>",
			want:      true,
		},
		{
			name:      "allowed publisher, different case",
			eventType: "0x2::kiosk::ItemListed<0xAB::workshop_nft::WorkshopNft>",
			want:      true,
		},
		{
			name:      "allow-list entry given without 0x prefix",
			eventType: "0x2::kiosk::ItemListed<0xcd::workshop_nft::WorkshopNft>",
			want:      true,
		},
		{
			name:      "publisher not in allow-list",
			eventType: "0x2::kiosk::ItemListed<0xff::workshop_nft::WorkshopNft>",
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.Match(tt.eventType, EventListed)
			if (got != nil) != tt.want {
				t.Errorf("Match(%q) = %v, want match=%v", tt.eventType, got, tt.want)
			}
		})
	}
}

func TestMatcher_MatchesAny(t *testing.T) {
	m := NewMatcher("workshop_nft", "WorkshopNft", nil)

	if !m.MatchesAny("0x2::kiosk::ItemDelisted<0xabc::workshop_nft::WorkshopNft>") {
		t.Error("delisted event should match")
	}
	if m.MatchesAny("0x2::kiosk::ItemListed<0xabc::workshop_nft::OtherNft>") {
		t.Error("foreign item type should not match")
	}
	if m.MatchesAny("garbage") {
		t.Error("garbage should not match")
	}
}

func TestPickString(t *testing.T) {
	payload := map[string]any{
		"item_id": "0x1",
		"price":   float64(5000),
		"blank":   nil,
		"flag":    true,
	}

	tests := []struct {
		name   string
		keys   []string
		want   string
		wantOk bool
	}{
		{"first alias present", []string{"itemId", "item_id"}, "0x1", true},
		{"string value", []string{"item_id"}, "0x1", true},
		{"numeric value rendered plain", []string{"price"}, "5000", true},
		{"bool value", []string{"flag"}, "true", true},
		{"null skipped, later alias wins", []string{"blank", "item_id"}, "0x1", true},
		{"nothing present", []string{"missing", "also_missing"}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := pickString(payload, tt.keys...)
			if got != tt.want || ok != tt.wantOk {
				t.Errorf("pickString(%v) = (%q, %v), want (%q, %v)", tt.keys, got, ok, tt.want, tt.wantOk)
			}
		})
	}
}

func TestNormalizePackageID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0xABC", "0xabc"},
		{"abc", "0xabc"},
		{"  0xDef  ", "0xdef"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := normalizePackageID(tt.in); got != tt.want {
			t.Errorf("normalizePackageID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
