package enums

import "fmt"

// RefundStatus tracks the review state of a refund request.
type RefundStatus string

const (
	RefundStatusPending  RefundStatus = "PENDING"
	RefundStatusApproved RefundStatus = "APPROVED"
	RefundStatusRejected RefundStatus = "REJECTED"
)

var validRefundStatuses = []RefundStatus{
	RefundStatusPending,
	RefundStatusApproved,
	RefundStatusRejected,
}

// String implements fmt.Stringer.
func (r RefundStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RefundStatus.
func (r RefundStatus) IsValid() bool {
	for _, candidate := range validRefundStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// IsResolved reports whether a seller already decided on the refund.
func (r RefundStatus) IsResolved() bool {
	return r == RefundStatusApproved || r == RefundStatusRejected
}

// ParseRefundStatus converts raw input into a RefundStatus.
func ParseRefundStatus(value string) (RefundStatus, error) {
	for _, candidate := range validRefundStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid refund status %q", value)
}
