package notification

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ignatzorin/skillswap-backend/internal/domain/valueobject"
)

//go:embed catalog.yaml
var defaultCatalog []byte

type templateSpec struct {
	Title     string `yaml:"title"`
	Message   string `yaml:"message"`
	Priority  string `yaml:"priority"`
	ActionURL string `yaml:"action_url"`
	TTL       string `yaml:"ttl"`
}

type entry struct {
	title       *template.Template
	message     *template.Template
	actionURL   *template.Template
	priority    valueobject.Priority
	ttl         time.Duration
	needsSender bool
}

// Catalog хранит скомпилированные шаблоны для каждого типа уведомления.
type Catalog struct {
	entries map[valueobject.NotificationType]*entry
}

// DefaultCatalog загружает встроенный catalog.yaml.
func DefaultCatalog() (*Catalog, error) {
	return LoadCatalog(defaultCatalog)
}

// LoadCatalog разбирает YAML и проверяет, что описан каждый тип уведомления.
func LoadCatalog(data []byte) (*Catalog, error) {
	var raw map[string]templateSpec
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse notification catalog: %w", err)
	}

	c := &Catalog{entries: make(map[valueobject.NotificationType]*entry, len(raw))}
	for name, def := range raw {
		t, err := valueobject.NewNotificationType(name)
		if err != nil {
			return nil, fmt.Errorf("notification catalog: unknown type %q", name)
		}
		e, err := compile(name, def)
		if err != nil {
			return nil, err
		}
		c.entries[t] = e
	}

	for _, t := range valueobject.AllNotificationTypes {
		if _, ok := c.entries[t]; !ok {
			return nil, fmt.Errorf("notification catalog: missing template for %q", t)
		}
	}
	return c, nil
}

func compile(name string, def templateSpec) (*entry, error) {
	priority, err := valueobject.NewPriority(def.Priority)
	if err != nil {
		return nil, fmt.Errorf("notification catalog %q: invalid priority %q", name, def.Priority)
	}

	var ttl time.Duration
	if def.TTL != "" {
		if ttl, err = time.ParseDuration(def.TTL); err != nil {
			return nil, fmt.Errorf("notification catalog %q: invalid ttl: %w", name, err)
		}
	}

	parse := func(field, text string) (*template.Template, error) {
		tpl, err := template.New(name + "." + field).Option("missingkey=error").Parse(text)
		if err != nil {
			return nil, fmt.Errorf("notification catalog %q: %s: %w", name, field, err)
		}
		return tpl, nil
	}

	e := &entry{priority: priority, ttl: ttl}
	if e.title, err = parse("title", def.Title); err != nil {
		return nil, err
	}
	if e.message, err = parse("message", def.Message); err != nil {
		return nil, err
	}
	if e.actionURL, err = parse("action_url", def.ActionURL); err != nil {
		return nil, err
	}
	e.needsSender = strings.Contains(def.Title+def.Message, ".SenderName")
	return e, nil
}

func (c *Catalog) lookup(t valueobject.NotificationType) (*entry, bool) {
	e, ok := c.entries[t]
	return e, ok
}

func render(tpl *template.Template, data map[string]any) (string, error) {
	var sb strings.Builder
	if err := tpl.Execute(&sb, data); err != nil {
		return "", err
	}
	return sb.String(), nil
}
