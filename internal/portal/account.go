package portal

import (
	"context"
	"fmt"
	"strings"

	"github.com/nhle/jobportal/internal/model"
)

type emailRequest struct {
	Email string `json:"email"`
}

type otpRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type resetRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

// Me returns the identity behind the current token. It doubles as the
// connection check in the setup view.
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	raw, err := c.GetRaw(ctx, "/users/me")
	if err != nil {
		return nil, fmt.Errorf("fetching current user: %w", err)
	}
	u, err := decodeObject[model.User](raw)
	if err != nil {
		return nil, fmt.Errorf("fetching current user: %w", err)
	}
	return &u, nil
}

// SendOTP asks the backend to email a reset code to the applicant.
func (c *Client) SendOTP(ctx context.Context, email string) error {
	body := emailRequest{Email: strings.TrimSpace(email)}
	if err := c.Post(ctx, "/auth/forgot-password/send-otp", body, nil); err != nil {
		return fmt.Errorf("sending OTP: %w", err)
	}
	return nil
}

// ResendOTP issues a fresh code for an in-progress reset.
func (c *Client) ResendOTP(ctx context.Context, email string) error {
	body := emailRequest{Email: strings.TrimSpace(email)}
	if err := c.Post(ctx, "/auth/forgot-password/resend-otp", body, nil); err != nil {
		return fmt.Errorf("resending OTP: %w", err)
	}
	return nil
}

// VerifyOTP checks the emailed code. Any 2xx response means verified.
func (c *Client) VerifyOTP(ctx context.Context, email, otp string) error {
	body := otpRequest{Email: strings.TrimSpace(email), OTP: strings.TrimSpace(otp)}
	if err := c.Post(ctx, "/auth/forgot-password/verify-otp", body, nil); err != nil {
		return fmt.Errorf("verifying OTP: %w", err)
	}
	return nil
}

// ResetPassword sets a new password once the OTP has been verified.
func (c *Client) ResetPassword(ctx context.Context, email, otp, newPassword string) error {
	body := resetRequest{
		Email:       strings.TrimSpace(email),
		OTP:         strings.TrimSpace(otp),
		NewPassword: newPassword,
	}
	if err := c.Post(ctx, "/auth/forgot-password/reset", body, nil); err != nil {
		return fmt.Errorf("resetting password: %w", err)
	}
	return nil
}
