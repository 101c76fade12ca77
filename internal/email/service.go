package email

import (
	"fmt"
	"net/smtp"
)

// Service handles email sending via SMTP
type Service struct {
	host string
	port string
	from string
}

// NewService creates a new email service
func NewService(host, port, from string) *Service {
	return &Service{
		host: host,
		port: port,
		from: from,
	}
}

// SendOrderConfirmation sends an order confirmation email
func (s *Service) SendOrderConfirmation(to, orderID string, total int, items []OrderItem) error {
	subject := fmt.Sprintf("Order confirmed (#%s)", shortID(orderID))
	return s.send(to, subject, BuildOrderConfirmationBody(orderID, total, items))
}

// SendOrderCancelled sends an order cancellation email
func (s *Service) SendOrderCancelled(to, orderID, reason string) error {
	subject := fmt.Sprintf("Order cancelled (#%s)", shortID(orderID))
	return s.send(to, subject, BuildOrderCancelledBody(orderID, reason))
}

// SendOutForDelivery tells the customer their order left with a rider
func (s *Service) SendOutForDelivery(to, orderID, riderName string) error {
	subject := fmt.Sprintf("Your order is out for delivery (#%s)", shortID(orderID))
	return s.send(to, subject, BuildOutForDeliveryBody(orderID, riderName))
}

// SendDelivered confirms the completed delivery
func (s *Service) SendDelivered(to, orderID string) error {
	subject := fmt.Sprintf("Your order has been delivered (#%s)", shortID(orderID))
	return s.send(to, subject, BuildDeliveredBody(orderID))
}

func shortID(orderID string) string {
	if len(orderID) > 8 {
		return orderID[:8]
	}
	return orderID
}

func (s *Service) send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.from, to, subject, body)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	return smtp.SendMail(addr, nil, s.from, []string{to}, []byte(msg))
}
