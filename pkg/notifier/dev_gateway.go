package notifier

import "log"

// DevGateway logs messages instead of delivering them. Used when
// MAIL_MODE=dev so local environments never need mail credentials.
type DevGateway struct{}

// NewDevGateway creates a new development mail gateway
func NewDevGateway() *DevGateway {
	return &DevGateway{}
}

// Send logs the message and reports success
func (g *DevGateway) Send(msg Message) error {
	log.Printf("[DEV MAIL] To: %s <%s> | Subject: %s\n%s\n", msg.ToName, msg.ToEmail, msg.Subject, msg.Body)
	return nil
}

// GetName returns the name of this mail gateway
func (g *DevGateway) GetName() string {
	return "Development Mail Gateway"
}
