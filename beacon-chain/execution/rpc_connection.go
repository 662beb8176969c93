package execution

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	gethRPC "github.com/ethereum/go-ethereum/rpc"
	"github.com/golang-jwt/jwt/v4"
	"github.com/pkg/errors"
)

// jwtTransport is an http.RoundTripper that authenticates every request to the
// engine with a freshly issued HS256 token.
type jwtTransport struct {
	underlyingTransport http.RoundTripper
	jwtSecret           []byte
}

// RoundTrip signs a token with an issued-at claim of the current time and sets it as
// the bearer credential of the request.
func (t *jwtTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		IssuedAt: jwt.NewNumericDate(time.Now()),
	})
	tokenString, err := token.SignedString(t.jwtSecret)
	if err != nil {
		return nil, errors.Wrap(err, "could not produce signed JWT token")
	}
	req.Header.Set("Authorization", "Bearer "+tokenString)
	return t.underlyingTransport.RoundTrip(req)
}

// NewClient dials the engine endpoint. HTTP endpoints are authenticated with the JWT secret,
// any other endpoint is treated as an IPC path.
func NewClient(ctx context.Context, endpoint string, jwtSecret []byte) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, err
	}
	var client *gethRPC.Client
	switch u.Scheme {
	case "http", "https":
		if len(jwtSecret) == 0 {
			return nil, errors.New("http endpoints require a jwt secret")
		}
		client, err = gethRPC.DialHTTPWithClient(endpoint, &http.Client{
			Timeout: defaultEngineTimeout,
			Transport: &jwtTransport{
				underlyingTransport: http.DefaultTransport,
				jwtSecret:           jwtSecret,
			},
		})
	case "":
		client, err = gethRPC.DialIPC(ctx, endpoint)
	default:
		return nil, errors.Errorf("no known transport for URL scheme %q", u.Scheme)
	}
	if err != nil {
		return nil, err
	}
	log.WithField("endpoint", u.Redacted()).Info("Connected to execution engine")
	return &Client{rpc: client}, nil
}

// LoadJWTSecret reads a hex encoded 32 byte secret from the given file.
func LoadJWTSecret(path string) ([]byte, error) {
	enc, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		return nil, errors.Wrap(err, "could not read jwt secret file")
	}
	strData := strings.TrimSpace(string(enc))
	if len(strData) == 0 {
		return nil, ErrInvalidJWTSecret
	}
	if !strings.HasPrefix(strData, "0x") {
		strData = "0x" + strData
	}
	secret, err := hexutil.Decode(strData)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidJWTSecret, err.Error())
	}
	if len(secret) != 32 {
		return nil, ErrInvalidJWTSecret
	}
	return secret, nil
}
