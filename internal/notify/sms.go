package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tombola/internal/config"

	"github.com/google/logger"
)

// SMSSender posts text messages to an HTTP SMS gateway.
type SMSSender struct {
	baseURL  string
	password string
	client   *http.Client
	force    bool
}

// NewSMSSender creates a sender for the gateway described by cfg.
func NewSMSSender(cfg config.SMSConfig, force bool) *SMSSender {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.Insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &SMSSender{
		baseURL:  "https://" + net.JoinHostPort(cfg.Hostname, strconv.Itoa(cfg.Port)),
		password: cfg.Password,
		client:   &http.Client{Transport: transport, Timeout: 30 * time.Second},
		force:    force,
	}
}

// SendText sends message to phone, or logs it in dry-run mode.
func (s *SMSSender) SendText(ctx context.Context, phone, message string) error {
	if !s.force {
		logger.Infof("would have sent the following message to %s\n---\n%s\n---", phone, message)
		return nil
	}

	form := url.Values{
		"message":  {message},
		"password": {s.password},
		"phone":    {phone},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/sendSMS", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send sms to %s: %w", phone, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("send sms to %s: gateway answered %s", phone, resp.Status)
	}
	return nil
}
