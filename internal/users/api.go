package users

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
)

// signingService is the IAM service name the directory's API gateway
// authorizes against.
const signingService = "execute-api"

const requestTimeout = 10 * time.Second

// APIDirectory talks to the platform's user API over signed HTTP. Requests
// carry SigV4 authentication; responses are the API's JSON user documents.
type APIDirectory struct {
	base   string
	region string
	creds  aws.CredentialsProvider
	signer *v4.Signer
	client *http.Client
}

// APIOption customizes an APIDirectory.
type APIOption func(*APIDirectory)

// WithHTTPClient overrides the HTTP client (tests, custom transports).
func WithHTTPClient(c *http.Client) APIOption {
	return func(d *APIDirectory) { d.client = c }
}

// NewAPIDirectory builds a Directory backed by the user API at base,
// signing requests with the given credentials for region.
func NewAPIDirectory(base, region string, creds aws.CredentialsProvider, opts ...APIOption) *APIDirectory {
	d := &APIDirectory{
		base:   strings.TrimRight(base, "/"),
		region: region,
		creds:  creds,
		signer: v4.NewSigner(),
		client: &http.Client{Timeout: requestTimeout},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// CreateUser registers a new directory entry for a chat-platform identity.
func (d *APIDirectory) CreateUser(ctx context.Context, telegramID int64, name string) (*User, error) {
	body, err := json.Marshal(map[string]any{
		"telegram_id": telegramID,
		"name":        name,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	var u User
	if err := d.do(ctx, http.MethodPost, "/users", body, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByTelegramID looks up the directory entry for a chat-platform
// identity. Returns ErrNotFound when no entry exists.
func (d *APIDirectory) GetUserByTelegramID(ctx context.Context, telegramID int64) (*User, error) {
	var u User
	path := "/users/telegram/" + strconv.FormatInt(telegramID, 10)
	if err := d.do(ctx, http.MethodGet, path, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// DeleteUser removes a directory entry by its platform id.
func (d *APIDirectory) DeleteUser(ctx context.Context, id string) error {
	return d.do(ctx, http.MethodDelete, "/users/"+id, nil, nil)
}

// do signs and executes one API call, decoding a JSON response into out when
// out is non-nil. 404 maps to ErrNotFound; any other non-2xx maps to
// ErrUnavailable with the status attached.
func (d *APIDirectory) do(ctx context.Context, method, path string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, d.base+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if err := d.sign(ctx, req, body); err != nil {
		return fmt.Errorf("%w: sign: %v", ErrUnavailable, err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	return nil
}

// sign applies SigV4 to the request with the payload's SHA-256 hash.
func (d *APIDirectory) sign(ctx context.Context, req *http.Request, body []byte) error {
	creds, err := d.creds.Retrieve(ctx)
	if err != nil {
		return err
	}
	sum := sha256.Sum256(body)
	return d.signer.SignHTTP(ctx, creds, req, hex.EncodeToString(sum[:]), signingService, d.region, time.Now().UTC())
}
