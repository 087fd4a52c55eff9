package locale

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed languages.yaml
var languagesYAML []byte

var (
	languagesOnce sync.Once
	languages     map[string]string
)

func loadLanguages() {
	languages = map[string]string{}
	if err := yaml.Unmarshal(languagesYAML, &languages); err != nil {
		panic(fmt.Sprintf("locale: embedded languages.yaml: %v", err))
	}
}

// LanguageName returns the English name for code, or code itself when the
// table has no entry.
func LanguageName(code string) string {
	languagesOnce.Do(loadLanguages)
	if name, ok := languages[code]; ok {
		return name
	}
	return code
}
