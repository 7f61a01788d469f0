package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"spotless/internal/domain"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationOrderConfirmed   NotificationType = "ORDER_CONFIRMED"
	NotificationPickupOffer      NotificationType = "PICKUP_OFFER"
	NotificationDriverAssigned   NotificationType = "DRIVER_ASSIGNED"
	NotificationOrderPickedUp    NotificationType = "ORDER_PICKED_UP"
	NotificationOrderInTransit   NotificationType = "ORDER_IN_TRANSIT"
	NotificationOrderDelivered   NotificationType = "ORDER_DELIVERED"
	NotificationOrderCompleted   NotificationType = "ORDER_COMPLETED"
	NotificationOrderCancelled   NotificationType = "ORDER_CANCELLED"
	NotificationPaymentSuccess   NotificationType = "PAYMENT_SUCCESS"
	NotificationPaymentFailed    NotificationType = "PAYMENT_FAILED"
	NotificationRefundInitiated  NotificationType = "REFUND_INITIATED"
	NotificationNoDriverCoverage NotificationType = "NO_DRIVER_COVERAGE"
)

// Notification represents a notification to be sent.
type Notification struct {
	ID          string
	Type        NotificationType
	RecipientID string // Customer or Driver ID
	Title       string
	Message     string
	Data        map[string]interface{}
	CreatedAt   time.Time
}

// NotificationService handles notification delivery.
type NotificationService struct {
	// In a real system, this would have:
	// - Push notification client (FCM, APNS)
	// - SMS client (Twilio)
	// - Email client (SendGrid)
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// NotifyOrderConfirmed notifies the customer that payment settled and the
// order entered the fulfillment pipeline.
func (s *NotificationService) NotifyOrderConfirmed(ctx context.Context, order *domain.Order) error {
	notification := Notification{
		Type:        NotificationOrderConfirmed,
		RecipientID: order.CustomerID,
		Title:       "Order Confirmed",
		Message:     fmt.Sprintf("Your laundry order for %s is confirmed. We are finding a driver.", order.TotalAmount.String()),
		Data: map[string]interface{}{
			"order_id": order.ID,
			"total":    order.TotalAmount.String(),
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// NotifyPickupOffer tells a driver they hold an exclusive pickup offer.
func (s *NotificationService) NotifyPickupOffer(ctx context.Context, order *domain.Order, driverID string, window time.Duration) error {
	notification := Notification{
		Type:        NotificationPickupOffer,
		RecipientID: driverID,
		Title:       "New Pickup Offer",
		Message:     fmt.Sprintf("Laundry pickup near (%.4f, %.4f). Respond within %s.", order.PickupLat, order.PickupLng, window),
		Data: map[string]interface{}{
			"order_id":   order.ID,
			"pickup_lat": order.PickupLat,
			"pickup_lng": order.PickupLng,
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// NotifyDriverAssigned notifies the customer that a driver claimed the order.
func (s *NotificationService) NotifyDriverAssigned(ctx context.Context, order *domain.Order, driver *domain.Driver) error {
	notification := Notification{
		Type:        NotificationDriverAssigned,
		RecipientID: order.CustomerID,
		Title:       "Driver Assigned",
		Message:     fmt.Sprintf("%s is on the way to pick up your laundry", driver.Name),
		Data: map[string]interface{}{
			"order_id":    order.ID,
			"driver_id":   driver.ID,
			"driver_name": driver.Name,
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// NotifyMilestone notifies the customer of a fulfillment milestone.
func (s *NotificationService) NotifyMilestone(ctx context.Context, order *domain.Order, status domain.OrderStatus) error {
	var notifType NotificationType
	var title, message string

	switch status {
	case domain.OrderStatusPickedUp:
		notifType = NotificationOrderPickedUp
		title = "Laundry Picked Up"
		message = "Your laundry has been picked up."
	case domain.OrderStatusInTransit:
		notifType = NotificationOrderInTransit
		title = "Laundry In Transit"
		message = "Your laundry is on its way back to you."
	case domain.OrderStatusDelivered:
		notifType = NotificationOrderDelivered
		title = "Laundry Delivered"
		message = "Your laundry has been delivered. Please confirm receipt."
	case domain.OrderStatusCompleted:
		notifType = NotificationOrderCompleted
		title = "Order Completed"
		message = "Your order is complete. Thanks for using Spotless!"
	default:
		return nil
	}

	notification := Notification{
		Type:        notifType,
		RecipientID: order.CustomerID,
		Title:       title,
		Message:     message,
		Data: map[string]interface{}{
			"order_id": order.ID,
			"status":   string(status),
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// NotifyOrderCancelled notifies the customer, and the driver if one was
// already assigned.
func (s *NotificationService) NotifyOrderCancelled(ctx context.Context, order *domain.Order, reason string) error {
	notification := Notification{
		Type:        NotificationOrderCancelled,
		RecipientID: order.CustomerID,
		Title:       "Order Cancelled",
		Message:     fmt.Sprintf("Your order was cancelled: %s", reason),
		Data: map[string]interface{}{
			"order_id": order.ID,
			"reason":   reason,
		},
		CreatedAt: time.Now(),
	}
	if err := s.send(ctx, notification); err != nil {
		return err
	}

	if order.DriverID != "" {
		driverNotif := Notification{
			Type:        NotificationOrderCancelled,
			RecipientID: order.DriverID,
			Title:       "Pickup Cancelled",
			Message:     "The customer's order was cancelled.",
			Data: map[string]interface{}{
				"order_id": order.ID,
			},
			CreatedAt: time.Now(),
		}
		return s.send(ctx, driverNotif)
	}
	return nil
}

// NotifyPaymentSuccess notifies the customer of a settled payment.
func (s *NotificationService) NotifyPaymentSuccess(ctx context.Context, payment *domain.Payment) error {
	notification := Notification{
		Type:        NotificationPaymentSuccess,
		RecipientID: payment.CustomerID,
		Title:       "Payment Successful",
		Message:     fmt.Sprintf("Payment of %s was successful", payment.Amount.String()),
		Data: map[string]interface{}{
			"payment_id": payment.ID,
			"amount":     payment.Amount.String(),
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// NotifyPaymentFailed notifies the customer of a failed payment.
func (s *NotificationService) NotifyPaymentFailed(ctx context.Context, payment *domain.Payment) error {
	notification := Notification{
		Type:        NotificationPaymentFailed,
		RecipientID: payment.CustomerID,
		Title:       "Payment Failed",
		Message:     fmt.Sprintf("Payment of %s failed. Please try again.", payment.Amount.String()),
		Data: map[string]interface{}{
			"payment_id": payment.ID,
			"amount":     payment.Amount.String(),
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// NotifyRefundInitiated notifies the customer that a refund is on its way.
func (s *NotificationService) NotifyRefundInitiated(ctx context.Context, order *domain.Order) error {
	notification := Notification{
		Type:        NotificationRefundInitiated,
		RecipientID: order.CustomerID,
		Title:       "Refund Initiated",
		Message:     fmt.Sprintf("A refund of %s has been initiated for your cancelled order", order.TotalAmount.String()),
		Data: map[string]interface{}{
			"order_id": order.ID,
			"amount":   order.TotalAmount.String(),
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// NotifyNoDriverCoverage tells the customer no driver could be found.
func (s *NotificationService) NotifyNoDriverCoverage(ctx context.Context, order *domain.Order) error {
	notification := Notification{
		Type:        NotificationNoDriverCoverage,
		RecipientID: order.CustomerID,
		Title:       "No Driver Available",
		Message:     "We could not find a driver for your pickup. Your order was cancelled and refunded.",
		Data: map[string]interface{}{
			"order_id": order.ID,
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// send delivers a notification (mock implementation).
func (s *NotificationService) send(ctx context.Context, notification Notification) error {
	// In a real implementation, this would:
	// 1. Store notification in database
	// 2. Send push notification via FCM/APNS
	// 3. Send SMS if enabled
	// 4. Broadcast via WebSocket for real-time updates

	log.Printf("[NOTIFICATION] Type=%s, Recipient=%s, Title=%s, Message=%s",
		notification.Type, notification.RecipientID, notification.Title, notification.Message)

	return nil
}
