package email

import (
	"fmt"
	"strings"
)

// OrderItem represents an item in an order for email purposes
type OrderItem struct {
	ProductID string
	Name      string
	Quantity  int
	Price     int
}

// BuildOrderConfirmationBody builds the HTML body for order confirmation email
func BuildOrderConfirmationBody(orderID string, total int, items []OrderItem) string {
	var itemsHTML strings.Builder
	for _, item := range items {
		name := item.Name
		if name == "" {
			name = item.ProductID
		}
		itemsHTML.WriteString(fmt.Sprintf(
			`<tr>
				<td style="padding: 10px; border-bottom: 1px solid #eee;">%s</td>
				<td style="padding: 10px; border-bottom: 1px solid #eee; text-align: center;">%d</td>
				<td style="padding: 10px; border-bottom: 1px solid #eee; text-align: right;">%s</td>
			</tr>`,
			name,
			item.Quantity,
			formatNumber(item.Price*item.Quantity),
		))
	}

	return wrapBody("Thank you for your order", fmt.Sprintf(`
		<p style="margin-top: 0;">We have received your order and will let you know when it ships.</p>
		%s
		<table style="width: 100%%; border-collapse: collapse; margin: 20px 0;">
			<thead>
				<tr style="background: #f8f9fa;">
					<th style="padding: 10px; text-align: left;">Item</th>
					<th style="padding: 10px; text-align: center;">Qty</th>
					<th style="padding: 10px; text-align: right;">Subtotal</th>
				</tr>
			</thead>
			<tbody>%s</tbody>
		</table>
		<div style="text-align: right; padding: 15px; background: #f8f9fa; border-radius: 5px;">
			<span style="font-size: 14px; color: #666;">Total</span>
			<span style="font-size: 22px; font-weight: bold; margin-left: 10px;">%s</span>
		</div>`,
		orderBox(orderID), itemsHTML.String(), formatNumber(total)))
}

// BuildOrderCancelledBody builds the HTML body for a cancellation notice
func BuildOrderCancelledBody(orderID, reason string) string {
	reasonHTML := ""
	if reason != "" {
		reasonHTML = fmt.Sprintf(`<p style="color: #666;">Reason: %s</p>`, reason)
	}
	return wrapBody("Your order was cancelled", fmt.Sprintf(`
		<p style="margin-top: 0;">The following order has been cancelled. Any reserved stock has been returned.</p>
		%s
		%s`,
		orderBox(orderID), reasonHTML))
}

// BuildOutForDeliveryBody builds the HTML body for the dispatch notice
func BuildOutForDeliveryBody(orderID, riderName string) string {
	riderHTML := ""
	if riderName != "" {
		riderHTML = fmt.Sprintf(`<p>Your rider is <strong>%s</strong>.</p>`, riderName)
	}
	return wrapBody("Your order is on its way", fmt.Sprintf(`
		<p style="margin-top: 0;">Your order has left our warehouse and is out for delivery. You can follow it live from your order page.</p>
		%s
		%s`,
		orderBox(orderID), riderHTML))
}

// BuildDeliveredBody builds the HTML body for the delivery confirmation
func BuildDeliveredBody(orderID string) string {
	return wrapBody("Delivered", fmt.Sprintf(`
		<p style="margin-top: 0;">Your order has been delivered. Proof of delivery is available on your order page.</p>
		%s`,
		orderBox(orderID)))
}

func orderBox(orderID string) string {
	return fmt.Sprintf(`<div style="background: #f8f9fa; padding: 15px; border-radius: 5px; margin: 20px 0;">
		<p style="margin: 0; font-size: 14px; color: #666;">Order number</p>
		<p style="margin: 5px 0 0 0; font-size: 18px; font-weight: bold; font-family: monospace;">%s</p>
	</div>`, orderID)
}

func wrapBody(heading, content string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
	<div style="background: #2d6cdf; padding: 25px; border-radius: 10px 10px 0 0;">
		<h1 style="color: white; margin: 0; font-size: 22px;">%s</h1>
	</div>
	<div style="background: #fff; padding: 25px; border: 1px solid #eee; border-top: none; border-radius: 0 0 10px 10px;">
		%s
		<hr style="border: none; border-top: 1px solid #eee; margin: 30px 0;">
		<p style="font-size: 12px; color: #999; margin-bottom: 0;">
			This is an automated message. If you have any questions, please contact support.
		</p>
	</div>
</body>
</html>`, heading, content)
}

// formatNumber formats a number with comma separators
func formatNumber(n int) string {
	str := fmt.Sprintf("%d", n)
	if len(str) <= 3 {
		return str
	}

	var result strings.Builder
	remainder := len(str) % 3
	if remainder > 0 {
		result.WriteString(str[:remainder])
		if len(str) > remainder {
			result.WriteString(",")
		}
	}
	for i := remainder; i < len(str); i += 3 {
		result.WriteString(str[i : i+3])
		if i+3 < len(str) {
			result.WriteString(",")
		}
	}
	return result.String()
}
