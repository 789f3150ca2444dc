package caption

import "encoding/json"

// payload is the envelope the viewer pages' scripts consume.
type payload struct {
	Type         string            `json:"type"`
	Translations translationsBlock `json:"translations"`
	Languages    []string          `json:"languages"`
}

type translationsBlock struct {
	Production map[string]string `json:"production,omitempty"`
	User       map[string]string `json:"user,omitempty"`
}

func marshalProduction(language, line string) []byte {
	b, _ := json.Marshal(payload{
		Type:         "caption",
		Translations: translationsBlock{Production: map[string]string{language: line}},
		Languages:    []string{language},
	})
	return b
}

func marshalAudience(texts map[string]string, languages []string) []byte {
	if languages == nil {
		languages = []string{}
	}
	b, _ := json.Marshal(payload{
		Type:         "caption",
		Translations: translationsBlock{User: texts},
		Languages:    languages,
	})
	return b
}
