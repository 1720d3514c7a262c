package network

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"auction-predictor/src/helpers"
	"auction-predictor/src/logger"
	"auction-predictor/src/models"
)

type NetworkManager struct {
	Config    *models.MConfig
	Client    *http.Client
	Logger    *logger.Logger
	BaseDelay time.Duration
}

// errPermanent marks responses that retrying cannot fix.
type errPermanent struct{ status int }

func (e errPermanent) Error() string { return fmt.Sprintf("bad status: %d", e.status) }

// -----------------------------------------------------------------------------

func NewNetworkManager(cfg *models.MConfig, log *logger.Logger) *NetworkManager {
	return &NetworkManager{
		Config: cfg,
		Client: &http.Client{
			Timeout: time.Duration(cfg.Network.RequestTimeout) * time.Second,
		},
		Logger:    log,
		BaseDelay: time.Second,
	}
}

// -----------------------------------------------------------------------------

// Get performs a GET request with exponential backoff retries.
// 4xx responses other than 429 fail immediately.
func (nm *NetworkManager) Get(ctx context.Context, urlStr string, params map[string]string) ([]byte, error) {
	reqUrl, err := url.Parse(urlStr)
	if err != nil {
		return nil, helpers.NewValidationError("invalid url %q: %v", urlStr, err)
	}

	q := reqUrl.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	reqUrl.RawQuery = q.Encode()
	finalUrl := reqUrl.String()

	var body []byte
	var permanent error
	attempts := nm.Config.Network.MaxRetries + 1

	err = helpers.RetryWithBackoff(ctx, nm.Logger, "GET "+reqUrl.Host+reqUrl.Path, attempts, nm.BaseDelay, func() error {
		b, err := nm.do(ctx, finalUrl)
		if pe, ok := err.(errPermanent); ok {
			permanent = pe
			return nil
		}
		body = b
		return err
	})
	if err != nil {
		return nil, err
	}
	if permanent != nil {
		return nil, helpers.NewNetworkError(permanent, "GET %s", finalUrl)
	}
	return body, nil
}

// -----------------------------------------------------------------------------

func (nm *NetworkManager) do(ctx context.Context, finalUrl string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, finalUrl, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", nm.Config.Network.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := nm.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, fmt.Errorf("bad status: %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errPermanent{status: resp.StatusCode}
	}

	return io.ReadAll(resp.Body)
}
