package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// ErrVerifyNotConfigured is returned when the Twilio env vars are absent.
var ErrVerifyNotConfigured = errors.New("SMS verification not configured")

// ErrCodeRejected is returned for a wrong or expired OTP.
var ErrCodeRejected = errors.New("invalid or expired code")

// TwilioVerifier implements OTPVerifier against the Twilio Verify API.
type TwilioVerifier struct {
	accountSID string
	authToken  string
	serviceSID string
	client     *http.Client
}

func NewTwilioVerifier() *TwilioVerifier {
	return &TwilioVerifier{
		accountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
		authToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
		serviceSID: os.Getenv("TWILIO_VERIFY_SERVICE_SID"),
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *TwilioVerifier) configured() bool {
	return t.accountSID != "" && t.authToken != "" && t.serviceSID != ""
}

func (t *TwilioVerifier) Send(phone string) error {
	if !t.configured() {
		return ErrVerifyNotConfigured
	}
	_, err := t.post("Verifications", url.Values{
		"To":      {phone},
		"Channel": {"sms"},
	})
	return err
}

func (t *TwilioVerifier) Check(phone, code string) error {
	if !t.configured() {
		return ErrVerifyNotConfigured
	}
	body, err := t.post("VerificationCheck", url.Values{
		"To":   {phone},
		"Code": {code},
	})
	if err != nil {
		return err
	}

	var result struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return err
	}
	if result.Status != "approved" {
		return ErrCodeRejected
	}
	return nil
}

func (t *TwilioVerifier) post(resource string, form url.Values) ([]byte, error) {
	endpoint := fmt.Sprintf("https://verify.twilio.com/v2/Services/%s/%s", t.serviceSID, resource)
	req, err := http.NewRequest(http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(t.accountSID, t.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, ErrCodeRejected
	}
	return body, nil
}

// NormalizePhone converts a raw phone number to E.164
// (e.g. 5551234567 -> +15551234567).
func NormalizePhone(phone string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	if len(d) == 10 {
		return "+1" + d
	}
	return "+" + d
}
