// Package manifest handles discovery and parsing of kaji project
// manifests.
//
// A manifest is optional. When present it lives in the project root as
// kaji.json, kaji.jsonc, kaji.yaml, or kaji.yml and names the build
// script, the default task, extra environment variables, and an optional
// container sandbox image. JSON manifests may contain comments (JSONC),
// which are stripped with github.com/tidwall/jsonc before parsing with
// the standard encoding/json library; YAML manifests use gopkg.in/yaml.v3.
package manifest
