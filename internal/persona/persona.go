package persona

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Persona фиксированный характер будки с базовым системным промптом.
// Загружается один раз при старте и дальше только читается.
type Persona struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	DefaultVoice string `json:"default_voice"`
	ReplyLength  string `json:"reply_length"`
	SystemPrompt string `json:"system_prompt"`
}

// Registry набор персон, ключ — id. Системный промпт каждой персоны уже
// дополнен общим блоком ограничений (guardrails).
type Registry struct {
	personas map[string]Persona
}

// file формат конфигурационного файла персон.
type file struct {
	Guardrails string    `json:"guardrails"`
	Personas   []Persona `json:"personas"`
}

// Load читает персоны из JSON-файла. Пустой путь даёт встроенный набор
// по умолчанию (персона trickster со штатными ограничениями).
func Load(path string) (*Registry, error) {
	if path == "" {
		return defaultRegistry(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read personas file: %w", err)
	}

	var parsed file
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal personas file %s: %w", path, err)
	}
	if len(parsed.Personas) == 0 {
		return nil, fmt.Errorf("personas file %s contains no personas", path)
	}

	return build(parsed), nil
}

func build(parsed file) *Registry {
	r := &Registry{personas: make(map[string]Persona, len(parsed.Personas))}
	for _, p := range parsed.Personas {
		p.SystemPrompt = combine(p.SystemPrompt, parsed.Guardrails)
		r.personas[p.ID] = p
	}
	return r
}

// combine склеивает базовый промпт персоны с общим текстом ограничений.
func combine(base, guardrails string) string {
	return strings.TrimSpace(base + "\n\n" + guardrails)
}

// Get возвращает персону по id.
func (r *Registry) Get(id string) (Persona, bool) {
	p, ok := r.personas[id]
	return p, ok
}

// IDs возвращает отсортированный список id персон.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.personas))
	for id := range r.personas {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func defaultRegistry() *Registry {
	return build(file{
		Guardrails: defaultGuardrails,
		Personas: []Persona{
			{
				ID:           "trickster",
				Name:         "The Trickster",
				Description:  "Playful, mischievous, theatrical character",
				DefaultVoice: "en_US-lessac-high",
				ReplyLength:  "short",
				SystemPrompt: defaultTricksterPrompt,
			},
		},
	})
}

const defaultTricksterPrompt = `You are The Trickster — playful, mischievous, theatrical. Speak with color and surprise, but stay kind. Keep replies short unless asked for more. Prefer 1-2 sentences; vivid imagery, light alliteration, occasional rhyme. Never cruel or insulting.`

const defaultGuardrails = `Audience & Safety (public space)
PG language. No profanity, slurs, harassment, medical/legal advice, or identity guesses.
Avoid discussing age, gender, race, or private traits about the visitor. Do not claim to see their identity.
If a request is unsafe or disallowed, deflect with humor and offer a safe alternative.
Never mention that you are an AI or that you saw an image; speak as a character in the booth.`
