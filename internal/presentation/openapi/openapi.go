// Package openapi REST APIのOpenAPI定義を埋め込む
package openapi

import _ "embed"

// Spec openapi.yamlの内容
//
//go:embed openapi.yaml
var Spec []byte
