package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Application is a push application: the container for the platform variants that
// deliver notifications to devices.
type Application struct {
	ID           string           `json:"pushApplicationID,omitempty"`
	Name         string           `json:"name" validate:"required,max=255"`
	Description  string           `json:"description" validate:"max=255"`
	MasterSecret string           `json:"masterSecret,omitempty"`
	Developer    string           `json:"developer,omitempty"`
	Variants     []VariantSummary `json:"variants,omitempty"`
}

// VariantSummary is the variant listing embedded in an application.
type VariantSummary struct {
	ID   string `json:"variantID"`
	Name string `json:"name"`
	Type string `json:"type"`
}

func (a Application) Key() string   { return a.ID }
func (a Application) Label() string { return a.Name }

// Mutable returns the fields an update may change.
func (a Application) Mutable() Application {
	return Application{Name: a.Name, Description: a.Description}
}

// Applications is the /applications collection.
type Applications struct {
	c *Client
}

// Fetch returns 1-based page n. The server counts pages from zero and reports the
// collection size in the "total" header.
func (r *Applications) Fetch(ctx context.Context, n int) (Page[Application], error) {
	if n < 1 {
		n = 1
	}
	q, err := encodeQuery(pageQuery{Page: n - 1, PerPage: r.c.pageSize})
	if err != nil {
		return Page[Application]{}, fmt.Errorf("encode page query: %w", err)
	}
	var items []Application
	header, err := r.c.do(ctx, http.MethodGet, "/applications", q, nil, &items)
	if err != nil {
		return Page[Application]{}, fmt.Errorf("fetch applications page %d: %w", n, err)
	}
	total, err := ParseTotal(header.Get("total"))
	if err != nil {
		return Page[Application]{}, fmt.Errorf("fetch applications page %d: %w", n, err)
	}
	return Page[Application]{Items: items, Total: total, Number: n}, nil
}

// Get returns one application.
func (r *Applications) Get(ctx context.Context, id string) (Application, error) {
	var app Application
	if _, err := r.c.do(ctx, http.MethodGet, "/applications/"+url.PathEscape(id), nil, nil, &app); err != nil {
		return Application{}, fmt.Errorf("get application %s: %w", id, err)
	}
	return app, nil
}

// Create registers a new application and returns it as stored by the server.
func (r *Applications) Create(ctx context.Context, app Application) (Application, error) {
	if err := Validate(app); err != nil {
		return Application{}, err
	}
	var created Application
	if _, err := r.c.do(ctx, http.MethodPost, "/applications", nil, app, &created); err != nil {
		return Application{}, fmt.Errorf("create application %q: %w", app.Name, err)
	}
	return created, nil
}

// Update changes the name and description of application id.
func (r *Applications) Update(ctx context.Context, id string, patch Application) error {
	if id == "" {
		return fmt.Errorf("%w: application id is required", ErrInvalid)
	}
	patch = patch.Mutable()
	if err := Validate(patch); err != nil {
		return err
	}
	if _, err := r.c.do(ctx, http.MethodPut, "/applications/"+url.PathEscape(id), nil, patch, nil); err != nil {
		return fmt.Errorf("update application %s: %w", id, err)
	}
	return nil
}

// Remove deletes application id and all of its variants.
func (r *Applications) Remove(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: application id is required", ErrInvalid)
	}
	if _, err := r.c.do(ctx, http.MethodDelete, "/applications/"+url.PathEscape(id), nil, nil, nil); err != nil {
		return fmt.Errorf("remove application %s: %w", id, err)
	}
	return nil
}
