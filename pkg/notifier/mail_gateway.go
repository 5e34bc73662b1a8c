package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Message is one outbound email
type Message struct {
	ToEmail string
	ToName  string
	Subject string
	Body    string
}

// Gateway delivers email messages
type Gateway interface {
	Send(msg Message) error
	GetName() string
}

// HTTPGateway implements email sending via a transactional mail HTTP API
type HTTPGateway struct {
	apiURL      string
	apiKey      string
	senderEmail string
	senderName  string
	client      *http.Client
}

// HTTPConfig holds configuration for the HTTP mail gateway
type HTTPConfig struct {
	APIURL      string
	APIKey      string
	SenderEmail string
	SenderName  string
}

// NewHTTPGateway creates a new HTTP mail gateway client
func NewHTTPGateway(config HTTPConfig) *HTTPGateway {
	return &HTTPGateway{
		apiURL:      config.APIURL,
		apiKey:      config.APIKey,
		senderEmail: config.SenderEmail,
		senderName:  config.SenderName,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// sendMailRequest is the mail API's send payload
type sendMailRequest struct {
	Sender      mailParty   `json:"sender"`
	To          []mailParty `json:"to"`
	Subject     string      `json:"subject"`
	HTMLContent string      `json:"htmlContent"`
}

type mailParty struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// sendMailResponse is the mail API's send response
type sendMailResponse struct {
	MessageID string `json:"messageId"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

// Send delivers one email through the mail API
func (g *HTTPGateway) Send(msg Message) error {
	mailReq := sendMailRequest{
		Sender:      mailParty{Email: g.senderEmail, Name: g.senderName},
		To:          []mailParty{{Email: msg.ToEmail, Name: msg.ToName}},
		Subject:     msg.Subject,
		HTMLContent: msg.Body,
	}

	jsonData, err := json.Marshal(mailReq)
	if err != nil {
		return fmt.Errorf("failed to marshal mail request: %w", err)
	}

	url := fmt.Sprintf("%s/smtp/email", g.apiURL)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create mail request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send mail request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read mail response: %w", err)
	}

	if resp.StatusCode >= 300 {
		var mailResp sendMailResponse
		if err := json.Unmarshal(body, &mailResp); err == nil && mailResp.Message != "" {
			return fmt.Errorf("mail sending failed: %s (code: %s)", mailResp.Message, mailResp.Code)
		}
		return fmt.Errorf("mail sending failed: HTTP %d", resp.StatusCode)
	}

	return nil
}

// GetName returns the name of this mail gateway
func (g *HTTPGateway) GetName() string {
	return "HTTP Mail Gateway"
}
