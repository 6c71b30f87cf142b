package compose

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Luiggi370z/local-ai-stack/cli/stackctl/internal/files"
)

var (
	ErrServiceNotFound = errors.New("service not found")
	ErrInvalidDocument = errors.New("invalid compose document")
)

// Patch describes the edits applied to a compose document.
//
// When Port is non-empty and differs from DefaultPort, the ports of Service
// are replaced by the single mapping "Port:ContainerPort"; any other mapping
// on that service is discarded. When OldKey names a service it is renamed to
// NewKey, and references to it in depends_on and environment entries of every
// service are rewritten.
type Patch struct {
	Service       string
	Port          string
	DefaultPort   string
	ContainerPort string
	OldKey        string
	NewKey        string
}

// Result reports what Apply changed.
type Result struct {
	PortsChanged bool
	Renamed      bool
	// Rewritten lists services whose depends_on or environment changed,
	// in document order.
	Rewritten []string
}

// Changed reports whether the document differs from its input.
func (r Result) Changed() bool {
	return r.PortsChanged || r.Renamed || len(r.Rewritten) > 0
}

func (p Patch) containerPort() string {
	if p.ContainerPort != "" {
		return p.ContainerPort
	}
	return p.DefaultPort
}

func (p Patch) wantsPort() bool {
	return p.Port != "" && p.Port != p.DefaultPort
}

func (p Patch) wantsRename() bool {
	return p.OldKey != "" && p.OldKey != p.NewKey
}

// Apply edits doc in place. doc may be a document node or its root mapping.
func Apply(doc *yaml.Node, p Patch) (Result, error) {
	var res Result
	if p.OldKey != "" && p.NewKey == "" {
		return res, fmt.Errorf("rename of %q needs a new key", p.OldKey)
	}
	root := doc
	if root != nil && root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root == nil || root.Kind != yaml.MappingNode {
		return res, fmt.Errorf("%w: top level is not a mapping", ErrInvalidDocument)
	}
	services, _ := lookup(root, "services")
	if services != nil && services.Kind != yaml.MappingNode {
		return res, fmt.Errorf("%w: services is not a mapping", ErrInvalidDocument)
	}

	if p.wantsPort() {
		svc, _ := lookup(services, p.Service)
		svc = deref(svc)
		if svc == nil {
			return res, fmt.Errorf("%w: %s", ErrServiceNotFound, p.Service)
		}
		if svc.Kind != yaml.MappingNode {
			return res, fmt.Errorf("%w: service %s is not a mapping", ErrInvalidDocument, p.Service)
		}
		res.PortsChanged = setPorts(svc, p.Port+":"+p.containerPort())
	}

	if p.wantsRename() && services != nil {
		if renameKey(services, p.OldKey, p.NewKey) {
			res.Renamed = true
			rw := &rewriter{oldKey: p.OldKey, newKey: p.NewKey, touched: map[*yaml.Node]bool{}}
			for i := 0; i+1 < len(services.Content); i += 2 {
				name, svc := services.Content[i], deref(services.Content[i+1])
				if svc == nil || svc.Kind != yaml.MappingNode {
					continue
				}
				deps := rw.dependsOn(svc)
				env := rw.environment(svc)
				if deps || env {
					res.Rewritten = append(res.Rewritten, name.Value)
				}
			}
		}
	}
	return res, nil
}

// PatchFile applies p to the compose file at path and writes it back
// atomically when anything changed.
func PatchFile(path string, p Patch) (Result, error) {
	out, res, err := Preview(path, p)
	if err != nil || !res.Changed() {
		return res, err
	}
	if err := files.WriteAtomic(path, out, 0o644); err != nil {
		return res, err
	}
	return res, nil
}

// Preview returns the document PatchFile would write, without touching the
// file.
func Preview(path string, p Patch) ([]byte, Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, Result{}, err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, Result{}, fmt.Errorf("%w: %s: %v", ErrInvalidDocument, path, err)
	}
	res, err := Apply(&doc, p)
	if err != nil {
		return nil, res, fmt.Errorf("%s: %w", path, err)
	}
	if !res.Changed() {
		return data, res, nil
	}
	out, err := Encode(&doc)
	if err != nil {
		return nil, res, err
	}
	return out, res, nil
}

// Encode renders doc with two-space indentation.
func Encode(doc *yaml.Node) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// lookup returns the value node stored under key and the index of its key
// node in m.Content, or (nil, -1).
func lookup(m *yaml.Node, key string) (*yaml.Node, int) {
	if m == nil || m.Kind != yaml.MappingNode {
		return nil, -1
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1], i
		}
	}
	return nil, -1
}

func scalar(v string, style yaml.Style) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v, Style: style}
}

func setPorts(svc *yaml.Node, mapping string) bool {
	ports, _ := lookup(svc, "ports")
	if ports != nil && ports.Kind == yaml.SequenceNode && len(ports.Content) == 1 &&
		ports.Content[0].Kind == yaml.ScalarNode && ports.Content[0].Value == mapping {
		return false
	}
	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	seq.Content = []*yaml.Node{scalar(mapping, yaml.DoubleQuotedStyle)}
	if ports == nil {
		svc.Content = append(svc.Content, scalar("ports", 0), seq)
		return true
	}
	*ports = *seq
	return true
}

// renameKey renames oldKey to newKey in mapping m, keeping its value and
// position. An existing newKey entry is removed first.
func renameKey(m *yaml.Node, oldKey, newKey string) bool {
	_, i := lookup(m, oldKey)
	if i < 0 {
		return false
	}
	if _, j := lookup(m, newKey); j >= 0 {
		m.Content = append(m.Content[:j], m.Content[j+2:]...)
		if j < i {
			i -= 2
		}
	}
	m.Content[i].Value = newKey
	return true
}

// deref follows alias nodes to the node they name.
func deref(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

const maxMergeDepth = 16

// resolveKey returns the value of key as seen by a YAML loader: a key defined
// in m wins, otherwise the "<<" merge sources are searched in order. The
// returned node is dereferenced and may be shared with other mappings.
func resolveKey(m *yaml.Node, key string) *yaml.Node {
	return resolveDepth(m, key, 0)
}

func resolveDepth(m *yaml.Node, key string, depth int) *yaml.Node {
	m = deref(m)
	if m == nil || m.Kind != yaml.MappingNode || depth > maxMergeDepth {
		return nil
	}
	if v, _ := lookup(m, key); v != nil {
		return deref(v)
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		k := m.Content[i]
		if k.Kind != yaml.ScalarNode || k.Value != "<<" || (k.Tag != "!!merge" && k.Tag != "") {
			continue
		}
		src := deref(m.Content[i+1])
		if src == nil {
			continue
		}
		sources := []*yaml.Node{src}
		if src.Kind == yaml.SequenceNode {
			sources = src.Content
		}
		for _, from := range sources {
			if v := resolveDepth(from, key, depth+1); v != nil {
				return v
			}
		}
	}
	return nil
}

// rewriter replaces references to oldKey. Nodes reached through anchors are
// rewritten once at their definition; touched remembers them so every
// service sharing one is reported.
type rewriter struct {
	oldKey, newKey string
	touched        map[*yaml.Node]bool
}

func (rw *rewriter) mark(n *yaml.Node, changed bool) bool {
	if changed {
		rw.touched[n] = true
		return true
	}
	return rw.touched[n]
}

func (rw *rewriter) dependsOn(svc *yaml.Node) bool {
	deps := resolveKey(svc, "depends_on")
	if deps == nil {
		return false
	}
	switch deps.Kind {
	case yaml.SequenceNode:
		return rw.mark(deps, rewriteDependsList(deps, rw.oldKey, rw.newKey))
	case yaml.MappingNode:
		return rw.mark(deps, renameKey(deps, rw.oldKey, rw.newKey))
	}
	return false
}

func (rw *rewriter) environment(svc *yaml.Node) bool {
	env := resolveKey(svc, "environment")
	if env == nil {
		return false
	}
	from, to := rw.oldKey+":", rw.newKey+":"
	changed := false
	switch env.Kind {
	case yaml.MappingNode:
		for i := 1; i < len(env.Content); i += 2 {
			v := deref(env.Content[i])
			hit := false
			if v != nil && v.Kind == yaml.ScalarNode && strings.Contains(v.Value, from) {
				v.Value = strings.ReplaceAll(v.Value, from, to)
				hit = true
			}
			if v != nil && rw.mark(v, hit) {
				changed = true
			}
		}
	case yaml.SequenceNode:
		for _, n := range env.Content {
			item := deref(n)
			if item == nil || item.Kind != yaml.ScalarNode {
				continue
			}
			hit := false
			if k, v, ok := strings.Cut(item.Value, "="); ok && strings.Contains(v, from) {
				item.Value = k + "=" + strings.ReplaceAll(v, from, to)
				hit = true
			}
			if rw.mark(item, hit) {
				changed = true
			}
		}
	}
	return changed
}

// rewriteDependsList drops oldKey entries from the short depends_on form
// and appends newKey once.
func rewriteDependsList(deps *yaml.Node, oldKey, newKey string) bool {
	kept := deps.Content[:0:0]
	removed, present := false, false
	for _, n := range deps.Content {
		v := deref(n)
		if v != nil && v.Kind == yaml.ScalarNode && v.Value == oldKey {
			removed = true
			continue
		}
		if v != nil && v.Kind == yaml.ScalarNode && v.Value == newKey {
			present = true
		}
		kept = append(kept, n)
	}
	if !removed {
		return false
	}
	if !present {
		kept = append(kept, scalar(newKey, 0))
	}
	deps.Content = kept
	return true
}
