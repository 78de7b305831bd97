package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/threadline/comments-backend/models"
	"github.com/threadline/comments-backend/services"
)

const DefaultBaseURL = "http://localhost:3001/api"

const parentNotFoundMessage = "Parent comment not found"

// APIError is a non-2xx answer from the comments API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("API Error: %s (%d)", e.Message, e.Status)
	}
	return fmt.Sprintf("API Error: %s", http.StatusText(e.Status))
}

// Unwrap maps the status onto the service error taxonomy.
func (e *APIError) Unwrap() error {
	switch {
	case e.Status == http.StatusBadRequest && e.Message == parentNotFoundMessage:
		return services.ErrParentNotFound
	case e.Status == http.StatusBadRequest:
		return services.ErrInvalidInput
	case e.Status >= http.StatusInternalServerError:
		return services.ErrStoreUnavailable
	}
	return nil
}

type errorBody struct {
	Error string `json:"error"`
}

// APIClient talks to the comments HTTP API.
type APIClient struct {
	http *resty.Client
}

func NewAPIClient(baseURL string, timeout time.Duration) *APIClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json")
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	return &APIClient{http: c}
}

func (c *APIClient) ListComments(ctx context.Context) ([]*models.Node, error) {
	var wire []models.WireComment
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&wire).
		SetError(&errorBody{}).
		Get("/comments")
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return services.FromWireForest(wire)
}

func (c *APIClient) AddComment(ctx context.Context, text, parentID string) (*models.Node, error) {
	var created models.WireComment
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(models.CreateCommentRequest{Text: text, ParentID: parentID}).
		SetResult(&created).
		SetError(&errorBody{}).
		Post("/comments")
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return services.FromWire(created)
}

func (c *APIClient) DeleteComment(ctx context.Context, id string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetError(&errorBody{}).
		Delete("/comments/" + url.PathEscape(id))
	return checkResponse(resp, err)
}

func checkResponse(resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("%w: %v", services.ErrStoreUnavailable, err)
	}
	if !resp.IsError() {
		return nil
	}
	apiErr := &APIError{Status: resp.StatusCode()}
	if body, ok := resp.Error().(*errorBody); ok && body != nil {
		apiErr.Message = body.Error
	}
	return apiErr
}
