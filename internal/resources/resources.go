// Package resources loads resource inventories from files.
//
// Two document shapes are accepted and may be mixed within one
// multi-document YAML file:
//
//   - inventory documents: {resources: [{kind, name, source, properties}]}
//   - Kubernetes manifests, including kind: List
package resources

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	utilyaml "k8s.io/apimachinery/pkg/util/yaml"
	"sigs.k8s.io/yaml"

	"github.com/pankaj-dahiya-devops/policy-catalog/internal/models"
)

// inventory is the file form of a set of resources.
type inventory struct {
	Resources []entry `json:"resources"`
}

type entry struct {
	Kind       models.ResourceKind `json:"kind"`
	Name       string              `json:"name"`
	Source     string              `json:"source,omitempty"`
	Properties json.RawMessage     `json:"properties,omitempty"`
}

// extensions lists the file types LoadPaths picks up when walking a directory.
var extensions = map[string]bool{".yaml": true, ".yml": true, ".json": true}

// LoadPaths loads every file in paths. Directories are walked recursively and
// only .yaml, .yml and .json files are read. Resources keep file order.
func LoadPaths(paths []string) ([]models.Resource, error) {
	var out []models.Resource
	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			res, err := LoadFile(root)
			if err != nil {
				return nil, err
			}
			out = append(out, res...)
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !extensions[strings.ToLower(filepath.Ext(path))] {
				return nil
			}
			res, err := LoadFile(path)
			if err != nil {
				return err
			}
			out = append(out, res...)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// LoadFile reads every document in the file at path.
func LoadFile(path string) ([]models.Resource, error) {
	f, err := os.Open(path) //nolint:gosec // user-provided inventory path
	if err != nil {
		return nil, fmt.Errorf("reading resource file: %w", err)
	}
	defer f.Close()

	res, err := Load(f, path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return res, nil
}

// Load reads a multi-document YAML or JSON stream. source is recorded on
// resources that do not name their own.
func Load(r io.Reader, source string) ([]models.Resource, error) {
	reader := utilyaml.NewYAMLReader(bufio.NewReader(r))
	var out []models.Resource
	for i := 0; ; i++ {
		doc, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		if len(bytes.TrimSpace(doc)) == 0 {
			continue
		}
		res, err := loadDocument(doc, source)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		out = append(out, res...)
	}
}

func loadDocument(doc []byte, source string) ([]models.Resource, error) {
	raw, err := yaml.YAMLToJSON(doc)
	if err != nil {
		return nil, err
	}
	var head struct {
		APIVersion string          `json:"apiVersion"`
		Kind       string          `json:"kind"`
		Resources  json.RawMessage `json:"resources"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, err
	}

	switch {
	case head.APIVersion != "" && head.Kind != "":
		return decodeManifest(raw, source)
	case head.Resources != nil:
		return decodeInventory(raw, source)
	case string(raw) == "null":
		return nil, nil
	}
	return nil, fmt.Errorf("neither a resource inventory nor a Kubernetes manifest")
}

func decodeInventory(raw []byte, source string) ([]models.Resource, error) {
	var inv inventory
	if err := json.Unmarshal(raw, &inv); err != nil {
		return nil, err
	}
	out := make([]models.Resource, 0, len(inv.Resources))
	for i, e := range inv.Resources {
		if e.Kind == "" {
			return nil, fmt.Errorf("resources[%d]: kind is required", i)
		}
		props, err := Decode(e.Kind, e.Properties)
		if err != nil {
			return nil, fmt.Errorf("resources[%d]: %w", i, err)
		}
		if e.Source == "" {
			e.Source = source
		}
		out = append(out, models.Resource{Kind: e.Kind, Name: e.Name, Source: e.Source, Properties: props})
	}
	return out, nil
}

// decodeManifest decodes a Kubernetes object. Lists are expanded into their
// items.
func decodeManifest(raw []byte, source string) ([]models.Resource, error) {
	var u unstructured.Unstructured
	if err := u.UnmarshalJSON(raw); err != nil {
		return nil, err
	}
	if !u.IsList() {
		res, err := FromManifest(raw)
		if err != nil {
			return nil, err
		}
		res.Source = source
		return []models.Resource{res}, nil
	}

	list, err := u.ToList()
	if err != nil {
		return nil, err
	}
	out := make([]models.Resource, 0, len(list.Items))
	for i := range list.Items {
		item, err := list.Items[i].MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("items[%d]: %w", i, err)
		}
		res, err := FromManifest(item)
		if err != nil {
			return nil, fmt.Errorf("items[%d]: %w", i, err)
		}
		res.Source = source
		out = append(out, res)
	}
	return out, nil
}
