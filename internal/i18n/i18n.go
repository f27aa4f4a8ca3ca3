package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

const (
	LangEN = "en"
	LangIT = "it"
)

//go:embed locales/*.json
var localeFS embed.FS

// Manager owns the message bundle and resolves request languages to one of
// the embedded locales.
type Manager struct {
	bundle          *goi18n.Bundle
	defaultLanguage string
	supported       []string
	tags            []language.Tag
	matcher         language.Matcher
}

func NewManager(defaultLanguage string) (*Manager, error) {
	return newManager(defaultLanguage, localeFS, "locales")
}

func newManager(defaultLanguage string, files fs.FS, dir string) (*Manager, error) {
	bundle := goi18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := fs.ReadDir(files, dir)
	if err != nil {
		return nil, fmt.Errorf("read locales dir: %w", err)
	}

	manager := &Manager{bundle: bundle}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "active.") || !strings.HasSuffix(name, ".json") {
			continue
		}
		code := strings.TrimSuffix(strings.TrimPrefix(name, "active."), ".json")
		tag, err := language.Parse(code)
		if err != nil {
			return nil, fmt.Errorf("locale %s: %w", name, err)
		}
		if _, err := bundle.LoadMessageFileFS(files, dir+"/"+name); err != nil {
			return nil, fmt.Errorf("load locale %s: %w", name, err)
		}
		manager.supported = append(manager.supported, baseLanguage(tag))
	}

	if len(manager.supported) == 0 {
		return nil, fmt.Errorf("no locales found in %s", dir)
	}
	sort.Strings(manager.supported)
	if !manager.isSupported(LangEN) {
		return nil, fmt.Errorf("required locale %q missing", LangEN)
	}

	manager.defaultLanguage = LangEN
	if normalized := manager.match(defaultLanguage); normalized != "" {
		manager.defaultLanguage = normalized
	}

	// The matcher falls back to its first tag, so the default goes first.
	manager.tags = []language.Tag{language.Make(manager.defaultLanguage)}
	for _, code := range manager.supported {
		if code != manager.defaultLanguage {
			manager.tags = append(manager.tags, language.Make(code))
		}
	}
	manager.matcher = language.NewMatcher(manager.tags)
	return manager, nil
}

func (manager *Manager) DefaultLanguage() string {
	return manager.defaultLanguage
}

func (manager *Manager) SupportedLanguages() []string {
	result := make([]string, len(manager.supported))
	copy(result, manager.supported)
	return result
}

// NormalizeLanguage maps tags such as "it-IT" or "EN_us" onto a supported
// language, or the default when none fits.
func (manager *Manager) NormalizeLanguage(raw string) string {
	if normalized := manager.match(raw); normalized != "" {
		return normalized
	}
	return manager.defaultLanguage
}

func (manager *Manager) DetectFromAcceptLanguage(raw string) string {
	tags, _, err := language.ParseAcceptLanguage(raw)
	if err != nil || len(tags) == 0 {
		return manager.defaultLanguage
	}
	_, index, confidence := manager.matcher.Match(tags...)
	if confidence == language.No || index < 0 || index >= len(manager.tags) {
		return manager.defaultLanguage
	}
	return baseLanguage(manager.tags[index])
}

func (manager *Manager) Localizer(lang string) *Localizer {
	resolved := manager.NormalizeLanguage(lang)
	return &Localizer{
		language:  resolved,
		localizer: goi18n.NewLocalizer(manager.bundle, resolved, manager.defaultLanguage),
	}
}

func (manager *Manager) match(raw string) string {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), "_", "-")
	if cleaned == "" {
		return ""
	}
	tag, err := language.Parse(cleaned)
	if err != nil {
		return ""
	}
	if code := baseLanguage(tag); manager.isSupported(code) {
		return code
	}
	return ""
}

func (manager *Manager) isSupported(code string) bool {
	for _, supported := range manager.supported {
		if supported == code {
			return true
		}
	}
	return false
}

func baseLanguage(tag language.Tag) string {
	base, _ := tag.Base()
	return base.String()
}

// Localizer translates message ids for one resolved language. Unknown ids
// come back unchanged.
type Localizer struct {
	language  string
	localizer *goi18n.Localizer
}

func (localizer *Localizer) Language() string {
	return localizer.language
}

func (localizer *Localizer) Text(id string) string {
	return localizer.Textf(id, nil)
}

func (localizer *Localizer) Textf(id string, data map[string]any) string {
	if localizer == nil || localizer.localizer == nil {
		return id
	}
	message, err := localizer.localizer.Localize(&goi18n.LocalizeConfig{MessageID: id, TemplateData: data})
	if err != nil || strings.TrimSpace(message) == "" {
		return id
	}
	return message
}
