package rules

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/TSENGHUNGLIN/chenyang-learning-platform-sub001/internal/validation"
)

// catalogFile is the YAML layout of a schema catalog:
//
//	schemas:
//	  - key: roster_contractors
//	    group: Users
//	    label: Contractor roster
//	    rules:
//	      - name: name
//	        required: true
//	        type: string
//	        min: 2
//	        max: 50
//	      - name: badge
//	        pattern: '^C\d{4}$'
type catalogFile struct {
	Schemas []schemaSpec `yaml:"schemas"`
}

type schemaSpec struct {
	Key         string     `yaml:"key"`
	Group       string     `yaml:"group"`
	Label       string     `yaml:"label"`
	Description string     `yaml:"description"`
	Rules       []ruleSpec `yaml:"rules"`
}

type ruleSpec struct {
	Name     string   `yaml:"name"`
	Required bool     `yaml:"required"`
	Type     string   `yaml:"type"`
	Pattern  string   `yaml:"pattern"`
	Min      *float64 `yaml:"min"`
	Max      *float64 `yaml:"max"`
	Enum     []string `yaml:"enum"`
}

// ParseCatalog decodes a YAML catalog. Every problem in the document is
// reported in a single aggregated error.
func ParseCatalog(data []byte, source string) ([]Schema, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}

	var (
		errs    *multierror.Error
		schemas []Schema
		keys    = make(map[string]bool)
	)
	for i, spec := range file.Schemas {
		where := fmt.Sprintf("%s: schemas[%d]", source, i)
		if spec.Key == "" {
			errs = multierror.Append(errs, fmt.Errorf("%s: key is required", where))
			continue
		}
		where = fmt.Sprintf("%s: schema %q", source, spec.Key)
		if keys[spec.Key] {
			errs = multierror.Append(errs, fmt.Errorf("%s: duplicate key", where))
			continue
		}
		keys[spec.Key] = true

		rules, err := buildRules(spec.Rules)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", where, err))
			continue
		}

		label := spec.Label
		if label == "" {
			label = spec.Key
		}
		schemas = append(schemas, Schema{
			Key:         spec.Key,
			Group:       spec.Group,
			Label:       label,
			Description: spec.Description,
			Source:      source,
			Rules:       rules,
		})
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return schemas, nil
}

func buildRules(specs []ruleSpec) ([]validation.FieldRule, error) {
	var errs *multierror.Error
	rules := make([]validation.FieldRule, 0, len(specs))
	seen := make(map[string]bool)

	for i, rs := range specs {
		name := strings.TrimSpace(rs.Name)
		if name == "" {
			errs = multierror.Append(errs, fmt.Errorf("rules[%d]: name is required", i))
			continue
		}
		if seen[name] {
			errs = multierror.Append(errs, fmt.Errorf("rule %q: duplicate name", name))
			continue
		}
		seen[name] = true

		ft, err := validation.ParseFieldType(rs.Type)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("rule %q: %w", name, err))
			continue
		}

		rule := validation.FieldRule{
			Name:     name,
			Required: rs.Required,
			Type:     ft,
			Min:      rs.Min,
			Max:      rs.Max,
			Enum:     rs.Enum,
		}
		if rs.Pattern != "" {
			re, err := regexp.Compile(rs.Pattern)
			if err != nil {
				errs = multierror.Append(errs, fmt.Errorf("rule %q: invalid pattern: %w", name, err))
				continue
			}
			rule.Pattern = re
		}
		if rs.Min != nil && rs.Max != nil && *rs.Min > *rs.Max {
			errs = multierror.Append(errs, fmt.Errorf("rule %q: min %v exceeds max %v", name, *rs.Min, *rs.Max))
			continue
		}
		rules = append(rules, rule)
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return rules, nil
}

// LoadFile parses the catalog at path.
func LoadFile(path string) ([]Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data, filepath.Base(path))
}

// LoadDir registers every schema found in *.yaml and *.yml files under dir.
// Files are read in name order. Keys that collide with an already registered
// schema are reported, and the remaining schemas are still registered.
// It returns the number of schemas added.
func LoadDir(dir string) (int, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return 0, err
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)

	var (
		errs  *multierror.Error
		added int
	)
	for _, path := range paths {
		schemas, err := LoadFile(path)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		for _, s := range schemas {
			if err := add(s); err != nil {
				errs = multierror.Append(errs, fmt.Errorf("%s: %w", s.Source, err))
				continue
			}
			added++
		}
	}
	return added, errs.ErrorOrNil()
}
