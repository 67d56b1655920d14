package docusign

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hallelx2/legal-ai-backend/internal/config"
	"golang.org/x/oauth2"
)

var ErrNoAccount = errors.New("docusign user has no accounts")

type Account struct {
	AccountID   string `json:"account_id"`
	AccountName string `json:"account_name"`
	IsDefault   bool   `json:"is_default"`
	BaseURI     string `json:"base_uri"`
}

type UserInfo struct {
	Sub      string    `json:"sub"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Accounts []Account `json:"accounts"`
}

type EnvelopeSummary struct {
	EnvelopeID     string `json:"envelopeId"`
	Status         string `json:"status"`
	StatusDateTime string `json:"statusDateTime"`
	URI            string `json:"uri"`
}

// APIError is a non-success answer from the eSignature REST API.
type APIError struct {
	StatusCode int
	ErrorCode  string `json:"errorCode"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.ErrorCode != "" {
		return fmt.Sprintf("docusign %d %s: %s", e.StatusCode, e.ErrorCode, e.Message)
	}
	return fmt.Sprintf("docusign %d: %s", e.StatusCode, e.Message)
}

// Client talks to the DocuSign OAuth service and eSignature REST API.
type Client struct {
	oauth      *oauth2.Config
	authServer string
	apiBase    string
	httpClient *http.Client
}

func NewClient(cfg config.DocuSignConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	authServer := strings.TrimRight(cfg.AuthServer, "/")

	return &Client{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       []string{"signature"},
			Endpoint: oauth2.Endpoint{
				AuthURL:   authServer + "/oauth/auth",
				TokenURL:  authServer + "/oauth/token",
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		authServer: authServer,
		apiBase:    strings.TrimRight(cfg.APIBase, "/"),
		httpClient: httpClient,
	}
}

func (c *Client) AuthCodeURL(state string) string {
	return c.oauth.AuthCodeURL(state)
}

func (c *Client) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := c.oauth.Exchange(c.withHTTPClient(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	return token, nil
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	source := c.oauth.TokenSource(c.withHTTPClient(ctx), &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		return nil, fmt.Errorf("refresh access token: %w", err)
	}
	return token, nil
}

// DefaultAccount resolves the account envelopes are sent from: the default
// account if one is flagged, otherwise the first.
func (c *Client) DefaultAccount(ctx context.Context, accessToken string) (*Account, error) {
	var info UserInfo
	if err := c.do(ctx, http.MethodGet, c.authServer+"/oauth/userinfo", accessToken, nil, &info); err != nil {
		return nil, err
	}
	if len(info.Accounts) == 0 {
		return nil, ErrNoAccount
	}
	for i := range info.Accounts {
		if info.Accounts[i].IsDefault {
			return &info.Accounts[i], nil
		}
	}
	return &info.Accounts[0], nil
}

func (c *Client) CreateEnvelope(ctx context.Context, accessToken string, account *Account, envelope EnvelopeDefinition) (*EnvelopeSummary, error) {
	base := c.apiBase
	if base == "" {
		base = strings.TrimRight(account.BaseURI, "/") + "/restapi"
	}
	url := fmt.Sprintf("%s/v2.1/accounts/%s/envelopes", base, account.AccountID)

	var summary EnvelopeSummary
	if err := c.do(ctx, http.MethodPost, url, accessToken, envelope, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

func (c *Client) withHTTPClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

func (c *Client) do(ctx context.Context, method, url, accessToken string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode docusign request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("docusign request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read docusign response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if json.Unmarshal(raw, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode docusign response: %w", err)
	}
	return nil
}
