package mq_listener

import (
	"context"
	"encoding/json"

	"github.com/juju/errors"

	"learningplatform/services/learning-service/internal/domain"
	"learningplatform/services/learning-service/internal/infrastructure/mq"
	"learningplatform/services/learning-service/internal/platform/logger"
)

const (
	OrderExchange     = "order.topic"
	OrderPayKey       = "order.pay"
	OrderRefundKey    = "order.refund"
	LessonPayQueue    = "learning.lesson.pay.queue"
	LessonRefundQueue = "learning.lesson.refund.queue"
)

// LessonService is what the listener drives on payment and refund.
type LessonService interface {
	AddUserLessons(ctx context.Context, userID int64, courseIDs []int64) error
	RemoveInvalidCoursesFromMQ(ctx context.Context, userID int64, courseIDs []int64) error
}

// LessonChangeListener keeps lessons in line with the order service.
type LessonChangeListener struct {
	lessons LessonService
	log     *logger.Logger
}

func NewLessonChangeListener(lessons LessonService, log *logger.Logger) *LessonChangeListener {
	if log == nil {
		log = logger.Nop()
	}
	return &LessonChangeListener{lessons: lessons, log: log.With("component", "LessonChangeListener")}
}

// Register binds the pay and refund queues on sub.
func (l *LessonChangeListener) Register(sub *mq.Subscriber) {
	sub.Bind(mq.Binding{
		Queue:    LessonPayQueue,
		Exchange: OrderExchange,
		Key:      OrderPayKey,
		Handler:  l.decode(l.ListenLessonPay),
	})
	sub.Bind(mq.Binding{
		Queue:    LessonRefundQueue,
		Exchange: OrderExchange,
		Key:      OrderRefundKey,
		Handler:  l.decode(l.ListenLessonRefund),
	})
}

func (l *LessonChangeListener) decode(next func(context.Context, *domain.OrderBasic) error) mq.Handler {
	return func(ctx context.Context, payload []byte) error {
		var order domain.OrderBasic
		if err := json.Unmarshal(payload, &order); err != nil {
			l.log.Error("undecodable order message", "error", err)
			return nil
		}
		return next(ctx, &order)
	}
}

// ListenLessonPay enrolls the buyer in the paid courses. Invalid orders are dropped.
func (l *LessonChangeListener) ListenLessonPay(ctx context.Context, order *domain.OrderBasic) error {
	if !order.Valid() {
		l.log.Error("invalid pay message, order data empty", "order", order)
		return nil
	}
	return errors.Trace(l.lessons.AddUserLessons(ctx, order.UserID, order.CourseIDs))
}

// ListenLessonRefund removes the refunded courses. Invalid orders are dropped.
func (l *LessonChangeListener) ListenLessonRefund(ctx context.Context, order *domain.OrderBasic) error {
	if !order.Valid() {
		l.log.Error("invalid refund message, order data empty", "order", order)
		return nil
	}
	return errors.Trace(l.lessons.RemoveInvalidCoursesFromMQ(ctx, order.UserID, order.CourseIDs))
}
