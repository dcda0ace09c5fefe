package model

// UserSummary carries the display fields joined into enriched ticket
// and payment views.  The user directory itself is external; this core
// stores only the opaque user id and reads these fields for
// presentation.
type UserSummary struct {
	ID          uint64 `json:"id"`           // users.id
	FullName    string `json:"full_name"`    // users.full_name
	PhoneNumber string `json:"phone_number"` // users.phone_number
}
