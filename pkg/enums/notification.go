package enums

import "fmt"

// NotificationType identifies which customer email a notification carries.
type NotificationType string

const (
	NotificationTypeOrderConfirmation NotificationType = "order_confirmation"
	NotificationTypeStatusUpdate      NotificationType = "status_update"
	NotificationTypeRefundOutcome     NotificationType = "refund_outcome"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeOrderConfirmation,
	NotificationTypeStatusUpdate,
	NotificationTypeRefundOutcome,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}

// NotificationStatus records whether the email left the mailer.
type NotificationStatus string

const (
	NotificationStatusSent   NotificationStatus = "sent"
	NotificationStatusFailed NotificationStatus = "failed"
)
