package validator

import (
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"

	"github.com/technofair/registration-backend/internal/models"
)

var (
	// ErrEmptyTeamName indicates the team name is missing
	ErrEmptyTeamName = errors.New("team name cannot be empty")

	// ErrNoLeader indicates no member is marked as the team leader
	ErrNoLeader = errors.New("team must have exactly one leader")

	// ErrDuplicateEmail indicates two members share an email address
	ErrDuplicateEmail = errors.New("member emails must be unique")

	// ErrInvalidPhone indicates a phone number is not a valid Indonesian mobile number
	ErrInvalidPhone = errors.New("phone number must be a valid Indonesian mobile number (08xxxxxxxxxx)")
)

// phoneRegex matches digits only
var phoneRegex = regexp.MustCompile(`^\d+$`)

// TeamValidator validates team composition for registration
type TeamValidator struct{}

// NewTeamValidator creates a new team validator instance
func NewTeamValidator() *TeamValidator {
	return &TeamValidator{}
}

// Validate checks a team against a competition's size bounds. Member emails
// must be unique, exactly one member must be the leader, and every member
// needs a valid email and phone number.
func (v *TeamValidator) Validate(team *models.Team, minSize, maxSize int) error {
	if strings.TrimSpace(team.Name) == "" {
		return ErrEmptyTeamName
	}

	if len(team.Members) < minSize || len(team.Members) > maxSize {
		return fmt.Errorf("team must have between %d and %d members, got %d", minSize, maxSize, len(team.Members))
	}

	leaders := 0
	seen := make(map[string]bool, len(team.Members))
	for i := range team.Members {
		m := &team.Members[i]

		if strings.TrimSpace(m.FullName) == "" {
			return fmt.Errorf("member %d: full name cannot be empty", i+1)
		}

		email := strings.ToLower(strings.TrimSpace(m.Email))
		if _, err := mail.ParseAddress(email); err != nil {
			return fmt.Errorf("member %d: invalid email address", i+1)
		}
		if seen[email] {
			return ErrDuplicateEmail
		}
		seen[email] = true

		sanitized, err := v.SanitizePhone(m.Phone)
		if err != nil {
			return fmt.Errorf("member %d: %w", i+1, err)
		}
		m.Phone = sanitized

		if m.IsLeader {
			leaders++
		}
	}

	if leaders != 1 {
		return ErrNoLeader
	}

	return nil
}

// SanitizePhone normalizes an Indonesian mobile number to local 08x format.
// Accepts separators and the +62 country code.
func (v *TeamValidator) SanitizePhone(phone string) (string, error) {
	for _, sep := range []string{" ", "-", "(", ")", "+", "."} {
		phone = strings.ReplaceAll(phone, sep, "")
	}

	// Replace country code with local prefix
	if strings.HasPrefix(phone, "62") && len(phone) >= 11 {
		phone = "0" + phone[2:]
	}

	if !phoneRegex.MatchString(phone) {
		return "", ErrInvalidPhone
	}
	if len(phone) < 10 || len(phone) > 13 {
		return "", ErrInvalidPhone
	}
	if !strings.HasPrefix(phone, "08") {
		return "", ErrInvalidPhone
	}

	return phone, nil
}

// ValidateArtifactURL checks that an artifact reference is an HTTP(S) URL
func (v *TeamValidator) ValidateArtifactURL(rawURL string) error {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return errors.New("artifact URL cannot be empty")
	}
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		return errors.New("artifact URL must start with http:// or https://")
	}
	return nil
}
