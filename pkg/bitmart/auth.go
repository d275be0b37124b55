package bitmart

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sync"

	"github.com/veiloq/bitmart-connector/pkg/rest"
)

// authenticator exchanges API credentials for a bearer token used on
// authenticated channels. The token is cached for the client's lifetime and
// never refreshed; the exchange invalidates stale tokens by rejecting the
// subscription.
type authenticator struct {
	http     rest.Client
	endpoint string

	apiKey  string
	secret  string
	apiName string

	mu          sync.Mutex
	accessToken string
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

func newAuthenticator(http rest.Client, endpoint, apiKey, secret, apiName string) *authenticator {
	return &authenticator{
		http:     http,
		endpoint: endpoint,
		apiKey:   apiKey,
		secret:   secret,
		apiName:  apiName,
	}
}

// token returns the cached bearer token, performing the signed exchange on
// first use. Fails with ErrMissingCredentials when any credential is absent.
func (a *authenticator) token(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.accessToken != "" {
		return a.accessToken, nil
	}
	if a.apiKey == "" || a.secret == "" || a.apiName == "" {
		return "", ErrMissingCredentials
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", a.apiKey)
	form.Set("client_secret", a.sign())

	var resp tokenResponse
	if err := a.http.PostForm(ctx, a.endpoint, form, &resp); err != nil {
		return "", fmt.Errorf("exchanging credentials for token: %w", err)
	}

	a.accessToken = resp.AccessToken
	return a.accessToken, nil
}

// sign computes the hex-encoded HMAC-SHA256 of "key:secret:name" keyed by the
// API secret.
func (a *authenticator) sign() string {
	mac := hmac.New(sha256.New, []byte(a.secret))
	fmt.Fprintf(mac, "%s:%s:%s", a.apiKey, a.secret, a.apiName)
	return hex.EncodeToString(mac.Sum(nil))
}
