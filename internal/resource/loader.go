package resource

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// Registry maps route names to their loaded resources.
var Registry = map[string]*Resource{}

// Allowed keys per object; unknown keys are a configuration error.
var allowedResourceKeys = map[string]bool{
	"table":                 true,
	"default_limit":         true,
	"max_limit":             true,
	"default_sort":          true,
	"allowed_sort_fields":   true,
	"allowed_filter_fields": true,
	"search_fields":         true,
	"date_field":            true,
	"category_param":        true,
	"category_field":        true,
	"category_table":        true,
	"populate":              true,
}

var allowedPopulateKeys = map[string]bool{
	"as":            true,
	"table":         true,
	"local_field":   true,
	"foreign_field": true,
}

// InitRegistry loads every *.yml in dir into the registry. All files are
// validated before any is registered; per-file errors are aggregated so one
// bad file does not mask the rest.
func InitRegistry(dir string) error {
	files, err := filepath.Glob(filepath.Join(dir, "*.yml"))
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no resource files found in %s", dir)
	}

	var errs *multierror.Error
	loaded := map[string]*Resource{}
	for _, path := range files {
		res, err := loadFile(path)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		loaded[res.Name] = res
	}
	if err := errs.ErrorOrNil(); err != nil {
		return err
	}

	for name, res := range loaded {
		Registry[name] = res
	}
	return nil
}

func loadFile(path string) (*Resource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Parse into yaml.Node first for structural validation, then decode.
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("YAML parse error in %s: %w", path, err)
	}
	if len(root.Content) == 0 {
		return nil, fmt.Errorf("empty YAML in %s", path)
	}
	if err := validateResourceNode(root.Content[0]); err != nil {
		return nil, fmt.Errorf("validation error in %s: %w", path, err)
	}

	var res Resource
	if err := root.Decode(&res); err != nil {
		return nil, fmt.Errorf("unmarshal error in %s: %w", path, err)
	}
	if res.Table == "" {
		return nil, fmt.Errorf("%s: table is required", path)
	}
	if (res.CategoryParam != "") != (res.CategoryField != "") {
		return nil, fmt.Errorf("%s: category_param and category_field must be set together", path)
	}
	res.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return &res, nil
}

func validateResourceNode(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("resource must be a mapping")
	}

	var errs *multierror.Error
	for i := 0; i < len(node.Content)-1; i += 2 {
		keyNode := node.Content[i]
		valNode := node.Content[i+1]

		if !allowedResourceKeys[keyNode.Value] {
			errs = multierror.Append(errs, fmt.Errorf("unknown key %q (line %d)", keyNode.Value, keyNode.Line))
			continue
		}
		if keyNode.Value == "populate" {
			if err := validatePopulateNode(valNode); err != nil {
				errs = multierror.Append(errs, err)
			}
		}
	}
	return errs.ErrorOrNil()
}

func validatePopulateNode(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("populate must be a sequence (line %d)", node.Line)
	}

	var errs *multierror.Error
	for _, item := range node.Content {
		if item.Kind != yaml.MappingNode {
			errs = multierror.Append(errs, fmt.Errorf("populate entry must be a mapping (line %d)", item.Line))
			continue
		}
		for i := 0; i < len(item.Content)-1; i += 2 {
			keyNode := item.Content[i]
			if !allowedPopulateKeys[keyNode.Value] {
				errs = multierror.Append(errs, fmt.Errorf("unknown populate key %q (line %d)", keyNode.Value, keyNode.Line))
			}
		}
	}
	return errs.ErrorOrNil()
}
