package config

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Validate inspects cfg and returns warnings and errors. known lists the
// stack names that may be overridden.
func Validate(cfg Config, known []string) (warnings []string, errors []string) {
	knownSet := map[string]bool{}
	for _, k := range known {
		knownSet[k] = true
	}
	for name, sc := range cfg.Stacks {
		if !knownSet[name] {
			errors = append(errors, fmt.Sprintf("unknown stack %q (known: %s)", name, strings.Join(known, ", ")))
			continue
		}
		if sc.Dir != "" && !filepath.IsLocal(sc.Dir) {
			errors = append(errors, fmt.Sprintf("stack %s: dir %q must stay inside the workspace", name, sc.Dir))
		}
	}
	if strings.ContainsAny(cfg.Project, " /") {
		errors = append(errors, fmt.Sprintf("project name %q contains invalid characters", cfg.Project))
	}
	if cfg.N8N.EmitInterval != nil && cfg.N8N.EmitInterval.Duration <= 0 {
		warnings = append(warnings, "n8n.emit_interval is not positive; status events will not be throttled")
	}
	if strings.TrimSpace(cfg.N8N.URL) == "" {
		warnings = append(warnings, "n8n.url is not set; forward will fail until N8N_URL or n8n.url is provided")
	}
	if cfg.N8N.Timeout.Duration < 0 {
		errors = append(errors, "n8n.timeout must not be negative")
	}
	sort.Strings(warnings)
	sort.Strings(errors)
	return warnings, errors
}
