package models

import (
	"gorm.io/gorm"
)

// Order record statuses
const (
	OrderStatusPending   = "pending"
	OrderStatusSubmitted = "submitted"
	OrderStatusFailed    = "failed"
)

// OrderRecord is the local record of an order extracted from a conversation.
// Details holds the extracted payload as a JSON string; the ERP document
// name is filled in once the sales order is created remotely.
type OrderRecord struct {
	gorm.Model
	OrderID     string `json:"order_id" gorm:"uniqueIndex"`
	SessionID   string `json:"session_id" gorm:"index"`
	PhoneNumber string `json:"phone_number" gorm:"index"`
	Details     string `json:"details"`
	Status      string `json:"status"`
	ERPDocName  string `json:"erp_doc_name"`
}
