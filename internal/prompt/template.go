package prompt

// Template шаблон промпта с метаданными для автономного выбора режима.
// Шаблоны регистрируются один раз при старте процесса и дальше только читаются.
type Template struct {
	Name         string
	Description  string
	SystemPrompt string
	Keywords     []string
	Synonyms     []string
	// Priority статический бонус шаблона при ранжировании (выше — сильнее).
	Priority int
	// Требования к возможностям будки; неподходящие шаблоны не участвуют в выборе.
	RequiresWebcam bool
	RequiresKeypad bool
	// Переопределения параметров генерации; ноль означает "использовать
	// значения процесса по умолчанию".
	MaxTokens   int
	Temperature float32
}

// Features возможности будки, переданные вызывающей стороной.
type Features struct {
	Webcam bool
	Keypad bool
}

// FallbackName имя шаблона-ловушки, выбираемого когда ничего не совпало.
const FallbackName = "questions"

// Registry упорядоченный реестр шаблонов. Порядок регистрации определяет
// разрешение ничьих при выборе: первый зарегистрированный выигрывает.
type Registry struct {
	templates []Template
	index     map[string]int
}

// NewRegistry создаёт реестр с набором шаблонов будки по умолчанию.
func NewRegistry() *Registry {
	r := &Registry{index: make(map[string]int)}
	for _, t := range defaultTemplates() {
		r.Register(t)
	}
	return r
}

// NewEmptyRegistry создаёт пустой реестр (для тестов и нестандартных сборок).
func NewEmptyRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// Register добавляет шаблон. Повторная регистрация имени заменяет шаблон,
// сохраняя его исходную позицию в порядке ничьих.
func (r *Registry) Register(t Template) {
	if i, ok := r.index[t.Name]; ok {
		r.templates[i] = t
		return
	}
	r.index[t.Name] = len(r.templates)
	r.templates = append(r.templates, t)
}

// Get возвращает шаблон по имени.
func (r *Registry) Get(name string) (Template, bool) {
	i, ok := r.index[name]
	if !ok {
		return Template{}, false
	}
	return r.templates[i], true
}

// Names возвращает имена шаблонов в порядке регистрации.
func (r *Registry) Names() []string {
	names := make([]string, len(r.templates))
	for i, t := range r.templates {
		names[i] = t.Name
	}
	return names
}
