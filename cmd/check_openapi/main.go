package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

type openAPIDoc struct {
	Paths      map[string]map[string]any `yaml:"paths"`
	Components struct {
		Schemas   map[string]schema `yaml:"schemas"`
		Responses map[string]any    `yaml:"responses"`
	} `yaml:"components"`
}

type schema struct {
	Type       string            `yaml:"type"`
	Format     string            `yaml:"format"`
	Properties map[string]schema `yaml:"properties"`
	Required   []string          `yaml:"required"`
}

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <board-openapi.yaml>\n", os.Args[0])
		os.Exit(2)
	}
	doc, err := loadDoc(os.Args[1])
	if err != nil {
		exitErr(err)
	}
	if err := checkDoc(doc); err != nil {
		exitErr(err)
	}
	fmt.Println("OpenAPI consistency check passed.")
}

// checkDoc verifies the document against the shapes the board server writes.
func checkDoc(doc openAPIDoc) error {
	if err := validateRoutes(doc); err != nil {
		return err
	}
	errSchema, err := getSchema(doc, "ErrorResponse")
	if err != nil {
		return err
	}
	if err := validateErrorResponse(errSchema); err != nil {
		return err
	}
	postSchema, err := getSchema(doc, "PostMessageResponse")
	if err != nil {
		return err
	}
	return validatePostResponse(postSchema)
}

func loadDoc(path string) (openAPIDoc, error) {
	var doc openAPIDoc
	raw, err := os.ReadFile(path)
	if err != nil {
		return doc, fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return doc, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}

func getSchema(doc openAPIDoc, name string) (schema, error) {
	if doc.Components.Schemas == nil {
		return schema{}, errors.New("components.schemas missing")
	}
	s, ok := doc.Components.Schemas[name]
	if !ok {
		return schema{}, fmt.Errorf("schema %q missing", name)
	}
	return s, nil
}

// validateRoutes requires exactly GET and POST on the root path, GET on the
// operational endpoints, and the shared 404/405 responses.
func validateRoutes(doc openAPIDoc) error {
	for _, path := range []string{"/healthz", "/metrics"} {
		if _, ok := doc.Paths[path]["get"]; !ok {
			return fmt.Errorf("paths.%q must declare get", path)
		}
	}
	for _, name := range []string{"NotFound", "MethodNotAllowed"} {
		if _, ok := doc.Components.Responses[name]; !ok {
			return fmt.Errorf("components.responses.%s missing", name)
		}
	}
	root, ok := doc.Paths["/"]
	if !ok {
		return errors.New(`paths must include "/"`)
	}
	methods := make([]string, 0, len(root))
	for method := range root {
		methods = append(methods, strings.ToLower(method))
	}
	sort.Strings(methods)
	if strings.Join(methods, ",") != "get,post" {
		return fmt.Errorf(`paths."/" must declare exactly get and post, got %v`, methods)
	}
	return nil
}

func validateErrorResponse(s schema) error {
	if s.Type != "object" {
		return errors.New("ErrorResponse must be object")
	}
	required := makeSet(s.Required)
	for _, field := range []string{"error", "code"} {
		if !required[field] {
			return fmt.Errorf("ErrorResponse.required must include %q", field)
		}
	}
	for _, field := range []string{"error", "code", "requestId"} {
		prop, ok := s.Properties[field]
		if !ok || prop.Type != "string" {
			return fmt.Errorf("ErrorResponse.%s must be string", field)
		}
	}
	return nil
}

func validatePostResponse(s schema) error {
	if s.Type != "object" {
		return errors.New("PostMessageResponse must be object")
	}
	if !makeSet(s.Required)["timestamp"] {
		return errors.New(`PostMessageResponse.required must include "timestamp"`)
	}
	prop, ok := s.Properties["timestamp"]
	if !ok || prop.Type != "integer" || prop.Format != "int64" {
		return errors.New("PostMessageResponse.timestamp must be integer/int64")
	}
	if len(s.Properties) != 1 {
		return fmt.Errorf("PostMessageResponse must only declare timestamp, got %d properties", len(s.Properties))
	}
	return nil
}

func makeSet(items []string) map[string]bool {
	out := make(map[string]bool, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out[item] = true
	}
	return out
}

func exitErr(err error) {
	fmt.Fprintln(os.Stderr, err.Error())
	os.Exit(1)
}
