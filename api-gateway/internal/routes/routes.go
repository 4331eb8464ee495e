// Package routes is the gateway's service directory: which path prefixes go
// to which upstream, and which fallback answers when that upstream's breaker
// is open.
package routes

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Route struct {
	Name     string   `yaml:"name"`
	Prefixes []string `yaml:"prefixes"`
	Target   string   `yaml:"target"`
	Fallback string   `yaml:"fallback"`
}

type file struct {
	Routes []Route `yaml:"routes"`
}

// Default builds the route table from service address variables.
func Default(getEnv func(key, defaultValue string) string) []Route {
	return []Route{
		{
			Name:     "order",
			Prefixes: []string{"/api/orders", "/api/carts"},
			Target:   getEnv("ORDER_SERVICE_URL", "http://localhost:8081"),
			Fallback: "order",
		},
		{
			Name:     "payment",
			Prefixes: []string{"/api/payments"},
			Target:   getEnv("PAYMENT_SERVICE_URL", "http://localhost:8082"),
			Fallback: "payment",
		},
		{
			Name:     "shipping",
			Prefixes: []string{"/api/order-items", "/api/shipments"},
			Target:   getEnv("SHIPPING_SERVICE_URL", "http://localhost:8083"),
			Fallback: "shipping",
		},
		{
			Name:     "product",
			Prefixes: []string{"/api/products", "/api/categories"},
			Target:   getEnv("PRODUCT_SERVICE_URL", "http://localhost:8084"),
			Fallback: "product",
		},
	}
}

// Load reads a YAML route table:
//
//	routes:
//	  - name: product
//	    prefixes: [/api/products]
//	    target: http://product-service:8084
//	    fallback: product
func Load(path string) ([]Route, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read routes file: %w", err)
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse routes file: %w", err)
	}
	if err := Validate(f.Routes); err != nil {
		return nil, err
	}
	return f.Routes, nil
}

func Validate(routes []Route) error {
	if len(routes) == 0 {
		return errors.New("route table is empty")
	}

	names := make(map[string]bool)
	prefixes := make(map[string]string)
	for _, r := range routes {
		if r.Name == "" {
			return errors.New("route without name")
		}
		if names[r.Name] {
			return fmt.Errorf("duplicate route %q", r.Name)
		}
		names[r.Name] = true

		if r.Target == "" {
			return fmt.Errorf("route %q has no target", r.Name)
		}
		if len(r.Prefixes) == 0 {
			return fmt.Errorf("route %q has no prefixes", r.Name)
		}
		for _, p := range r.Prefixes {
			if !strings.HasPrefix(p, "/") || strings.HasSuffix(p, "/") {
				return fmt.Errorf("route %q: prefix %q must start and not end with /", r.Name, p)
			}
			if owner, ok := prefixes[p]; ok {
				return fmt.Errorf("prefix %q claimed by %q and %q", p, owner, r.Name)
			}
			prefixes[p] = r.Name
		}
	}
	return nil
}
