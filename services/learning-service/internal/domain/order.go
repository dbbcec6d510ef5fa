package domain

import "time"

// OrderBasic is the payload the order service publishes on payment and refund.
type OrderBasic struct {
	OrderID    int64     `json:"orderId"`
	UserID     int64     `json:"userId"`
	CourseIDs  []int64   `json:"courseIds"`
	FinishTime time.Time `json:"finishTime"`
}

// Valid reports whether the event names a user and at least one course.
func (o *OrderBasic) Valid() bool {
	return o != nil && o.UserID != 0 && len(o.CourseIDs) > 0
}
