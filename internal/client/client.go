// Package client talks to the product-service REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MikeMC777/product-catalog/internal/product"
)

// ErrNotFound is returned when the service answers 404.
var ErrNotFound = errors.New("product not found")

// ValidationError is a 422 answer from the service.
type ValidationError struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Errors))
	for f := range e.Errors {
		fields = append(fields, f)
	}
	return fmt.Sprintf("validation error on %s", strings.Join(fields, ", "))
}

// ProductRequest is the body sent on create and update.
type ProductRequest struct {
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
}

type Client struct {
	HTTP    *http.Client
	BaseURL string
}

func New(baseURL string) *Client {
	return &Client{
		HTTP:    &http.Client{Timeout: 5 * time.Second},
		BaseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (c *Client) List(ctx context.Context, params url.Values) (*product.Page, error) {
	u := c.BaseURL + "/products"
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	var page product.Page
	if err := c.do(ctx, http.MethodGet, u, nil, http.StatusOK, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) Get(ctx context.Context, id string) (*product.Product, error) {
	return c.single(ctx, http.MethodGet, id, nil, http.StatusOK)
}

func (c *Client) Create(ctx context.Context, in ProductRequest) (*product.Product, error) {
	return c.single(ctx, http.MethodPost, "", in, http.StatusCreated)
}

func (c *Client) Update(ctx context.Context, id string, in ProductRequest) (*product.Product, error) {
	return c.single(ctx, http.MethodPut, id, in, http.StatusOK)
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, c.productURL(id), nil, http.StatusOK, nil)
}

func (c *Client) productURL(id string) string {
	if id == "" {
		return c.BaseURL + "/products"
	}
	return c.BaseURL + "/products/" + url.PathEscape(id)
}

func (c *Client) single(ctx context.Context, method, id string, body any, want int) (*product.Product, error) {
	var out struct {
		Data product.Product `json:"data"`
	}
	if err := c.do(ctx, method, c.productURL(id), body, want, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func (c *Client) do(ctx context.Context, method, u string, body any, want int, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case want:
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnprocessableEntity:
		ve := &ValidationError{}
		if err := json.NewDecoder(res.Body).Decode(ve); err != nil {
			return fmt.Errorf("decode validation error: %w", err)
		}
		return ve
	default:
		return fmt.Errorf("%s %s: %s", method, u, res.Status)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
