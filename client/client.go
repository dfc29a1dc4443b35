package client

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/Polqt/iComplain/errors"
	"github.com/Polqt/iComplain/types"
)

// Client is the iComplain API client. Credentials ride on a session cookie,
// so every request shares one cookie jar. Retry policy deliberately lives
// above this layer; the transport issues exactly one request per call.
type Client struct {
	httpClient *resty.Client
	baseURL    string
	userAgent  string
	log        *zap.Logger

	// Service clients
	Tickets       *TicketsService
	Comments      *CommentsService
	Feedback      *FeedbackService
	Notifications *NotificationsService
	Users         *UsersService
	Dashboard     *DashboardService
}

// Config represents client configuration.
type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	Debug     bool
	Logger    *zap.Logger
}

// NewClient creates a new iComplain API client.
func NewClient(config *Config) *Client {
	if config.UserAgent == "" {
		config.UserAgent = "icomplain-go/1.0.0"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	jar, _ := cookiejar.New(nil)

	httpClient := resty.New().
		SetBaseURL(config.BaseURL).
		SetTimeout(config.Timeout).
		SetCookieJar(jar).
		SetHeader("User-Agent", config.UserAgent).
		SetHeader("Accept", "application/json")

	if config.Debug {
		httpClient.SetDebug(true)
	}

	client := &Client{
		httpClient: httpClient,
		baseURL:    config.BaseURL,
		userAgent:  config.UserAgent,
		log:        config.Logger,
	}

	// Initialize service clients
	client.Tickets = &TicketsService{client: client}
	client.Comments = &CommentsService{client: client}
	client.Feedback = &FeedbackService{client: client}
	client.Notifications = &NotificationsService{client: client}
	client.Users = &UsersService{client: client}
	client.Dashboard = &DashboardService{client: client}

	// Normalize every non-2xx response into the RequestError contract.
	httpClient.OnAfterResponse(func(c *resty.Client, resp *resty.Response) error {
		if resp.IsSuccess() {
			return nil
		}
		return errors.FromResponse(resp.StatusCode(), resp.Body())
	})

	return client
}

// BaseURL returns the configured API origin. The realtime channel derives
// its socket URL from this.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetTimeout updates the client's timeout.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.httpClient.SetTimeout(timeout)
}

// wrap folds transport-level failures into the normalized error shape.
// Errors produced by the response middleware pass through untouched.
func (c *Client) wrap(err error) error {
	if err == nil {
		return nil
	}
	if errors.IsRequestError(err) {
		return err
	}
	return errors.FromTransport(err)
}

// Get performs a GET request. The API speaks JSON only, so decoding is
// forced regardless of the advertised content type.
func (c *Client) Get(ctx context.Context, path string, result interface{}) error {
	req := c.httpClient.R().SetContext(ctx)
	if result != nil {
		req.SetResult(result).ForceContentType("application/json")
	}
	_, err := req.Get(path)
	return c.wrap(err)
}

// Post performs a JSON POST request.
func (c *Client) Post(ctx context.Context, path string, body interface{}, result interface{}) error {
	return c.send(ctx, http.MethodPost, path, body, result)
}

// Put performs a JSON PUT request.
func (c *Client) Put(ctx context.Context, path string, body interface{}, result interface{}) error {
	return c.send(ctx, http.MethodPut, path, body, result)
}

// Patch performs a JSON PATCH request.
func (c *Client) Patch(ctx context.Context, path string, body interface{}, result interface{}) error {
	return c.send(ctx, http.MethodPatch, path, body, result)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) error {
	_, err := c.httpClient.R().SetContext(ctx).Delete(path)
	return c.wrap(err)
}

func (c *Client) send(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	req := c.httpClient.R().SetContext(ctx).SetHeader("Content-Type", "application/json")
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result).ForceContentType("application/json")
	}
	_, err := req.Execute(method, path)
	return c.wrap(err)
}

// sendMultipart issues a multipart form request for the create/update calls
// that may carry a binary attachment.
func (c *Client) sendMultipart(ctx context.Context, method, path string, fields map[string]string, attachment *types.Upload, result interface{}) error {
	req := c.httpClient.R().SetContext(ctx).SetMultipartFormData(fields)
	if attachment != nil {
		req.SetMultipartField("attachment", attachment.Filename, attachment.ContentType, attachment.Reader)
	}
	if result != nil {
		req.SetResult(result).ForceContentType("application/json")
	}
	_, err := req.Execute(method, path)
	return c.wrap(err)
}

// Ping checks if the API is reachable.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.httpClient.R().SetContext(ctx).Get("/health")
	return c.wrap(err)
}
