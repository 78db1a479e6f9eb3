package domain

// RegisterWebhookRequest is the inbound payload for POST /api/webhooks (§6).
type RegisterWebhookRequest struct {
	URL            string `json:"url" validate:"required,url,max=500"`
	RecaptchaToken string `json:"recaptchaToken" validate:"required"`
}
