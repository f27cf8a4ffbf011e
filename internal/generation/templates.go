// internal/generation/templates.go
package generation

// directResponseTemplates are the canned answers served for BUCKET_A
// intents without touching an LLM.
var directResponseTemplates = map[string]string{
	"check_invoice": "I can help you check your invoice. Please provide your order number or email address, and I'll look it up for you right away.",

	"check_payment_methods": `We accept the following payment methods:
• Credit/Debit cards (Visa, Mastercard, American Express, Discover)
• PayPal
• Apple Pay
• Google Pay
• Bank transfer (for orders over $500)

All payments are secure and encrypted.`,

	"track_order": "I'd be happy to help you track your order! Please provide your order number (found in your confirmation email), and I'll get you the latest shipping information.",

	"delivery_options": `We offer several delivery options:

Standard Delivery: 5-7 business days (Free on orders $50+)
Express Delivery: 2-3 business days ($9.99)
Next Day Delivery: Next business day ($19.99)

Shipping costs may vary by location and will be calculated at checkout.`,

	"check_refund_policy": `Our refund policy:

• 30-day return window from purchase date
• Items must be unused and in original packaging
• Full refund to original payment method
• Free return shipping on defective items
• 10% restocking fee may apply on some items

To start a return, visit your account's order history or contact us with your order number.`,

	"check_cancellation_fee": `Cancellation policy:

• Free cancellation within 24 hours of order placement
• After 24 hours: 10% processing fee may apply
• Orders already shipped cannot be cancelled (but can be returned)
• Digital products/services: cancellation only before download/activation

To cancel, go to your order details or contact us immediately.`,

	"delivery_period": `Delivery timeframes:

Standard Delivery: 5-7 business days
Express Delivery: 2-3 business days
Next Day Delivery: 1 business day (order by 2 PM)

Note: Business days exclude weekends and holidays. You'll receive tracking information once your order ships.`,

	"track_refund": `To track your refund:

1. Provide your order number
2. I'll check the refund status in our system
3. Refund timeline:
   • Processing: 3-5 business days
   • Bank/card credit: 5-10 business days after processing

You'll receive an email confirmation once the refund is processed.`,
}

// escalationMessages are the per-intent handoff messages for BUCKET_C.
var escalationMessages = map[string]string{
	"complaint": "I understand you're experiencing an issue and I sincerely apologize for any inconvenience. I'm connecting you with a senior support specialist who can better assist you and ensure your concern is fully addressed.",

	"payment_issue": "Payment issues require immediate attention. I'm escalating this to our payment support team right away. They'll contact you within the next 30 minutes to resolve this. In the meantime, please don't attempt any additional payments.",

	"contact_human_agent": "I'm connecting you with a human agent now. They'll be with you shortly. Thank you for your patience.",

	"contact_customer_service": "Let me transfer you to our customer service team. They have access to more tools and resources to help with your request. Please hold for just a moment.",
}

const (
	defaultDirectResponse    = "I can help you with that. Could you please provide more details?"
	defaultEscalationMessage = "I'm escalating your request to a specialist who can provide better assistance. You'll be connected shortly. Thank you for your patience."
	unknownBucketResponse    = "I apologize, but I'm unable to process your request at the moment. Please contact our support team directly."
)

// HasDirectResponse reports whether a canned answer exists for the intent.
// The conditional edge in the orchestrator uses this to decide whether a
// BUCKET_A decision can skip retrieval.
func HasDirectResponse(intent string) bool {
	_, ok := directResponseTemplates[intent]
	return ok
}

// DirectResponse returns the canned answer for an intent, or a generic
// prompt for details when none exists.
func DirectResponse(intent string) string {
	if resp, ok := directResponseTemplates[intent]; ok {
		return resp
	}
	return defaultDirectResponse
}

// EscalationMessage returns the handoff message for an escalated intent.
func EscalationMessage(intent string) string {
	if msg, ok := escalationMessages[intent]; ok {
		return msg
	}
	return defaultEscalationMessage
}
