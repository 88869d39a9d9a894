package sui

// EventID identifies one event on the ledger and doubles as the pagination
// cursor for suix_queryEvents. Ordering is transaction digest first, then
// event sequence within the transaction.
type EventID struct {
	TxDigest string `json:"txDigest"`
	EventSeq string `json:"eventSeq"`
}

// Event is a single ledger event as returned by the fullnode. ParsedJSON
// carries the Move event payload with field names chosen by the emitting
// contract; callers must treat it as schemaless.
type Event struct {
	ID                EventID        `json:"id"`
	PackageID         string         `json:"packageId"`
	TransactionModule string         `json:"transactionModule"`
	Sender            string         `json:"sender"`
	Type              string         `json:"type"`
	ParsedJSON        map[string]any `json:"parsedJson"`
	TimestampMs       string         `json:"timestampMs"`
}

// EventPage is one page of a paginated event query.
type EventPage struct {
	Data        []Event  `json:"data"`
	NextCursor  *EventID `json:"nextCursor"`
	HasNextPage bool     `json:"hasNextPage"`
}

// MoveEventModuleFilter matches every event emitted by one Move module.
type MoveEventModuleFilter struct {
	Package string `json:"package"`
	Module  string `json:"module"`
}

// EventFilter is the subset of the fullnode's event filter language that
// kioskwatch uses. Exactly one field should be set.
type EventFilter struct {
	MoveEventModule *MoveEventModuleFilter `json:"MoveEventModule,omitempty"`
}

// KioskEventFilter matches all events emitted by the framework kiosk module
// (0x2::kiosk), which includes ItemListed, ItemPurchased, and ItemDelisted.
func KioskEventFilter() EventFilter {
	return EventFilter{
		MoveEventModule: &MoveEventModuleFilter{
			Package: "0x2",
			Module:  "kiosk",
		},
	}
}
