package models

import "time"

// Notification statuses. Only a published notification triggers live dispatch.
const (
	StatusDraft     = "0"
	StatusPublished = "1"
)

// Dict category for notification type codes.
const DictNotifyType = "notify_type"

// Notification is an internal announcement addressed to a set of users.
// UserIDs is a point-in-time snapshot supplied by the caller, not a live query.
type Notification struct {
	ID         int64     `json:"id" db:"id"`
	Title      string    `json:"title" db:"title"`
	Content    string    `json:"content" db:"content"`
	Type       string    `json:"type" db:"type"`
	Status     string    `json:"status" db:"status"`
	CreateBy   int64     `json:"createBy" db:"create_by"`
	UpdateDate time.Time `json:"updateDate" db:"update_date"`
	UserIDs    []int64   `json:"userIds" db:"-"`

	// Display fields resolved on read paths; never persisted.
	TypeLabel string `json:"typeLabel,omitempty" db:"-"`
	UserNames string `json:"userNames,omitempty" db:"-"`
}

// DeliveryRecord tracks one (notification, recipient) pair with a read flag.
// Records are created unread and rebuilt wholesale on every update.
type DeliveryRecord struct {
	ID             string `json:"id" db:"id"`
	NotificationID int64  `json:"notificationId" db:"notification_id"`
	UserID         int64  `json:"userId" db:"user_id"`
	IsRead         bool   `json:"isRead" db:"is_read"`
}

// Filter narrows list/count queries.
type Filter struct {
	Title  string
	Type   string
	Status string
	UserID int64 // self-list: recipient scope
	Offset int
	Limit  int
}

// SelfRow is one row of a recipient's own notification view.
type SelfRow struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Type       string    `json:"type"`
	IsRead     bool      `json:"isRead"`
	CreateBy   int64     `json:"createBy"`
	Sender     string    `json:"sender"`
	UpdateDate time.Time `json:"updateDate"`
	Before     string    `json:"before"` // elapsed time since update, human readable
}

// Page is a paged result envelope.
type Page struct {
	Rows  []SelfRow `json:"rows"`
	Total int       `json:"total"`
}
