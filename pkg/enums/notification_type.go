package enums

// NotificationType classifies stored notification records.
type NotificationType string

const (
	NotificationNewScheme       NotificationType = "NEW_SCHEME"
	NotificationOrderDelivered  NotificationType = "ORDER_DELIVERED"
	NotificationReturnConfirmed NotificationType = "RETURN_CONFIRMED"
)

var validNotificationTypes = []NotificationType{
	NotificationNewScheme,
	NotificationOrderDelivered,
	NotificationReturnConfirmed,
}

func (n NotificationType) String() string {
	return string(n)
}

func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if n == candidate {
			return true
		}
	}
	return false
}
