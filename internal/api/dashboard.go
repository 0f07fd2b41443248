package api

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/sync/errgroup"
)

// DashboardTotals counts what the signed-in developer owns.
type DashboardTotals struct {
	Applications int64 `json:"applications"`
	Devices      int64 `json:"devices"`
	Messages     int64 `json:"messages"`
}

// ApplicationVariant names a variant together with its application.
type ApplicationVariant struct {
	ApplicationID   string `json:"applicationId"`
	ApplicationName string `json:"applicationName"`
	VariantID       string `json:"variantId"`
	VariantName     string `json:"variantName"`
	VariantType     string `json:"variantType"`
	Receivers       int64  `json:"receivers"`
}

// ApplicationActivity is an application ranked by received messages.
type ApplicationActivity struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	TotalReceivers int64  `json:"totalReceivers"`
}

// Dashboard is the landing view of the console.
type Dashboard struct {
	Totals   DashboardTotals
	Warnings []ApplicationVariant
	Active   []ApplicationActivity
}

// Dashboard loads totals, variants with delivery warnings and the most active
// applications concurrently. Any failure fails the whole load.
func (c *Client) Dashboard(ctx context.Context) (Dashboard, error) {
	var d Dashboard
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := c.do(ctx, http.MethodGet, "/metrics/dashboard", nil, nil, &d.Totals)
		return err
	})
	g.Go(func() error {
		_, err := c.do(ctx, http.MethodGet, "/metrics/dashboard/warnings", nil, nil, &d.Warnings)
		return err
	})
	g.Go(func() error {
		_, err := c.do(ctx, http.MethodGet, "/metrics/dashboard/active", nil, nil, &d.Active)
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, fmt.Errorf("load dashboard: %w", err)
	}
	return d, nil
}
