package models

// Payment is one append-only payment record, exactly as stored.
//
// Timestamp is opaque text in the form "DD.MM.YYYY, HH:MM:SS" (Warsaw
// clock); it is never parsed into a time value, only prefix-matched and
// compared as a string. Amount uses comma as the decimal separator.
type Payment struct {
	UID         string `json:"uid"`
	Timestamp   string `json:"timestamp"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Notes       string `json:"notes"`
}
