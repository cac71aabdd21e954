// Package openapi embeds the HTTP API description served at /api/openapi.yaml.
package openapi

import _ "embed"

// Spec is the raw OpenAPI 3 document.
//
//go:embed openapi.yaml
var Spec []byte
