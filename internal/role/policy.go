package role

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// DefaultPages is used when no policy file is configured, and as the base that a
// policy file overrides page by page.
var DefaultPages = map[string][]Role{
	"dashboard":     AllRoles,
	"projects":      AllRoles,
	"tasks":         AllRoles,
	"timeline":      AllRoles,
	"calendar":      AllRoles,
	"notifications": AllRoles,
	"profile":       AllRoles,
	"team":          {Manager, HR},
	"reports":       {Manager, HR},
	"users":         {HR, Manager},
}

// Policy maps page names to the roles allowed to open them. Pages that are not
// listed are closed to every role. It is safe for concurrent use.
type Policy struct {
	mu    sync.RWMutex
	pages map[string][]Role
}

type policyFile struct {
	Pages map[string][]string `yaml:"pages"`
}

func NewPolicy(pages map[string][]Role) *Policy {
	p := &Policy{}
	p.Replace(pages)
	return p
}

func DefaultPolicy() *Policy {
	return NewPolicy(DefaultPages)
}

// ParsePolicy reads a YAML document of the form
//
//	pages:
//	  reports: [Manager, HR]
//
// on top of DefaultPages. A page with an empty list is closed.
func ParsePolicy(data []byte) (map[string][]Role, error) {
	var f policyFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse policy: %w", err)
	}
	pages := make(map[string][]Role, len(DefaultPages)+len(f.Pages))
	for page, roles := range DefaultPages {
		pages[page] = roles
	}
	for page, names := range f.Pages {
		roles := make([]Role, 0, len(names))
		for _, name := range names {
			r, err := ParseRole(name)
			if err != nil {
				return nil, fmt.Errorf("page %s: %w", page, err)
			}
			roles = append(roles, r)
		}
		pages[normalizePage(page)] = roles
	}
	return pages, nil
}

func LoadPolicyFile(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	pages, err := ParsePolicy(data)
	if err != nil {
		return nil, err
	}
	return NewPolicy(pages), nil
}

func (p *Policy) Replace(pages map[string][]Role) {
	m := make(map[string][]Role, len(pages))
	for page, roles := range pages {
		m[normalizePage(page)] = slices.Clone(roles)
	}
	p.mu.Lock()
	p.pages = m
	p.mu.Unlock()
}

func (p *Policy) Allowed(page string) []Role {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.pages[normalizePage(page)])
}

func (p *Policy) Decide(principal *Principal, page string) Decision {
	return Evaluate(principal, p.Allowed(page))
}

func (p *Policy) Pages() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	pages := make([]string, 0, len(p.pages))
	for page := range p.pages {
		pages = append(pages, page)
	}
	slices.Sort(pages)
	return pages
}

func normalizePage(page string) string {
	return strings.ToLower(strings.Trim(strings.TrimSpace(page), "/"))
}
