package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// AndroidVariant delivers an application's notifications to Android devices.
type AndroidVariant struct {
	ID            string `json:"variantID,omitempty"`
	Name          string `json:"name" validate:"required,max=255"`
	Description   string `json:"description" validate:"max=255"`
	GoogleKey     string `json:"googleKey" validate:"required"`
	ProjectNumber string `json:"projectNumber,omitempty" validate:"omitempty,numeric"`
	Secret        string `json:"secret,omitempty"`
	Type          string `json:"type,omitempty"`
}

func (v AndroidVariant) Key() string   { return v.ID }
func (v AndroidVariant) Label() string { return v.Name }

// Mutable returns the fields an update may change.
func (v AndroidVariant) Mutable() AndroidVariant {
	return AndroidVariant{
		Name:          v.Name,
		Description:   v.Description,
		GoogleKey:     v.GoogleKey,
		ProjectNumber: v.ProjectNumber,
	}
}

// AndroidVariants is the /applications/{id}/android collection.
type AndroidVariants struct {
	c     *Client
	appID string
}

func (r *AndroidVariants) path(parts ...string) string {
	p := "/applications/" + url.PathEscape(r.appID) + "/android"
	for _, part := range parts {
		p += "/" + url.PathEscape(part)
	}
	return p
}

// Fetch lists every Android variant of the application. The endpoint is not paged,
// so the whole list comes back as page 1.
func (r *AndroidVariants) Fetch(ctx context.Context, _ int) (Page[AndroidVariant], error) {
	var items []AndroidVariant
	if _, err := r.c.do(ctx, http.MethodGet, r.path(), nil, nil, &items); err != nil {
		return Page[AndroidVariant]{}, fmt.Errorf("list android variants of %s: %w", r.appID, err)
	}
	return Page[AndroidVariant]{Items: items, Total: len(items), Number: 1}, nil
}

// Create registers a new Android variant.
func (r *AndroidVariants) Create(ctx context.Context, v AndroidVariant) (AndroidVariant, error) {
	if err := Validate(v); err != nil {
		return AndroidVariant{}, err
	}
	var created AndroidVariant
	if _, err := r.c.do(ctx, http.MethodPost, r.path(), nil, v, &created); err != nil {
		return AndroidVariant{}, fmt.Errorf("create android variant %q: %w", v.Name, err)
	}
	return created, nil
}

// Update replaces the mutable fields of variant id.
func (r *AndroidVariants) Update(ctx context.Context, id string, patch AndroidVariant) error {
	if id == "" {
		return fmt.Errorf("%w: variant id is required", ErrInvalid)
	}
	patch = patch.Mutable()
	if err := Validate(patch); err != nil {
		return err
	}
	if _, err := r.c.do(ctx, http.MethodPut, r.path(id), nil, patch, nil); err != nil {
		return fmt.Errorf("update android variant %s: %w", id, err)
	}
	return nil
}

// Remove deletes variant id.
func (r *AndroidVariants) Remove(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: variant id is required", ErrInvalid)
	}
	if _, err := r.c.do(ctx, http.MethodDelete, r.path(id), nil, nil, nil); err != nil {
		return fmt.Errorf("remove android variant %s: %w", id, err)
	}
	return nil
}
