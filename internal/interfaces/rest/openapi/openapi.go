// Package openapi holds the HTTP contract of the invoice routes and serves it as documentation.
package openapi

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/swaggo/swag"
)

// InstanceName is the swag registry key of the document.
const InstanceName = "epay-reconciler"

//go:embed openapi.yaml
var contract []byte

// Load parses and validates the embedded document.
func Load(ctx context.Context) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx

	doc, err := loader.LoadFromData(contract)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("validate openapi document: %w", err)
	}
	return doc, nil
}

type document struct {
	raw string
}

func (d document) ReadDoc() string { return d.raw }

var registerOnce sync.Once

// Register publishes doc in the swag registry. Only the first call has an effect.
func Register(doc *openapi3.T) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode openapi document: %w", err)
	}
	registerOnce.Do(func() {
		swag.Register(InstanceName, document{raw: string(raw)})
	})
	return nil
}

// RegisterDocsRoutes serves the registered document at /openapi.json.
func RegisterDocsRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /openapi.json", func(w http.ResponseWriter, _ *http.Request) {
		doc, err := swag.ReadDoc(InstanceName)
		if err != nil {
			http.Error(w, "documentation not registered", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(doc))
	})
}
