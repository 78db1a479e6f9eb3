package verification

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const verifyEndpoint = "https://www.google.com/recaptcha/api/siteverify"

// RecaptchaVerifier checks a token against Google's reCAPTCHA siteverify
// endpoint using the configured secret key.
type RecaptchaVerifier struct {
	secretKey  string
	httpClient *http.Client
}

func NewRecaptchaVerifier(secretKey string) *RecaptchaVerifier {
	return &RecaptchaVerifier{
		secretKey:  secretKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type siteVerifyResponse struct {
	Success bool     `json:"success"`
	Errors  []string `json:"error-codes"`
}

func (v *RecaptchaVerifier) Verify(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}

	form := url.Values{
		"secret":   {v.secretKey},
		"response": {token},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, verifyEndpoint, nil)
	if err != nil {
		return false, fmt.Errorf("build verification request: %w", err)
	}
	req.URL.RawQuery = form.Encode()

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("call verification oracle: %w", err)
	}
	defer resp.Body.Close()

	var body siteVerifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("decode verification response: %w", err)
	}

	return body.Success, nil
}

var _ Verifier = (*RecaptchaVerifier)(nil)
