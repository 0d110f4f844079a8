package testerclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// SubmitRequest asks the testing backend to run one commit against its test
// repository. Results come back asynchronously on the return url.
type SubmitRequest struct {
	Uniid           string   `json:"uniid"`
	Hash            string   `json:"hash"`
	TestingPlatform string   `json:"testingPlatform"`
	GitStudentRepo  string   `json:"gitStudentRepo"`
	GitTestRepo     string   `json:"gitTestRepo"`
	DockerTimeout   int      `json:"dockerTimeout,omitempty"`
	DockerExtra     []string `json:"dockerExtra,omitempty"`
	SystemExtra     []string `json:"systemExtra,omitempty"`
	ReturnUrl       string   `json:"returnUrl"`
}

// Client talks to the external testing backend. All calls are bounded-retry
// with a fixed delay; the backend is slow to restart and transient refusals
// are normal during deploys.
type Client struct {
	url       string
	returnUrl string
	client    *http.Client
	retries   uint
}

func New(url string, timeout time.Duration, retries uint) *Client {
	return &Client{
		url:     url,
		client:  &http.Client{Timeout: timeout},
		retries: retries,
	}
}

// WithReturnUrl sets the default url the backend delivers result events to.
func (c *Client) WithReturnUrl(returnUrl string) *Client {
	c.returnUrl = returnUrl
	return c
}

// SubmitAsync queues a test run on the backend. The backend replies 202
// immediately and delivers the result event to the return url later.
func (c *Client) SubmitAsync(ctx context.Context, request *SubmitRequest) error {
	if request.ReturnUrl == "" {
		request.ReturnUrl = c.returnUrl
	}
	body, err := json.Marshal(request)
	if err != nil {
		return errors.Wrap(err, "marshalling test request")
	}
	_, err = c.do(ctx, http.MethodPost, c.url+"/test", body)
	return errors.Wrapf(err, "submitting test run for %s", request.Uniid)
}

// State returns the backend's self-reported status document.
func (c *Client) State(ctx context.Context) (string, error) {
	response, err := c.do(ctx, http.MethodGet, c.url+"/state", nil)
	return string(response), errors.Wrap(err, "fetching tester state")
}

// Logs returns the backend's recent log output.
func (c *Client) Logs(ctx context.Context) (string, error) {
	response, err := c.do(ctx, http.MethodGet, c.url+"/logs", nil)
	return string(response), errors.Wrap(err, "fetching tester logs")
}

func (c *Client) do(ctx context.Context, method string, url string, body []byte) ([]byte, error) {
	requestId := uuid.New().String()
	var response []byte
	err := retry.Do(
		func() error {
			var reader io.Reader
			if body != nil {
				reader = bytes.NewReader(body)
			}
			request, err := http.NewRequestWithContext(ctx, method, url, reader)
			if err != nil {
				return err
			}
			request.Header.Set("Content-Type", "application/json")
			request.Header.Set("X-Request-Id", requestId)

			resp, err := c.client.Do(request)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			data, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}
			if resp.StatusCode >= 300 {
				return errors.Errorf("tester returned status %d", resp.StatusCode)
			}
			response = data
			return nil
		},
		retry.Attempts(c.retries),
		retry.Delay(100*time.Millisecond),
		retry.OnRetry(func(attempt uint, err error) {
			log.WithError(err).Warnf("Tester call %s %s failed on attempt %d", method, url, attempt+1)
		}),
	)
	return response, err
}
