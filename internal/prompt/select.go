package prompt

import (
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
)

// Веса критериев из алгоритма выбора режима.
const (
	keywordWeight      = 2.0
	synonymWeight      = 1.5
	fuzzyKeywordWeight = 0.5
	fuzzySynonymWeight = 0.3
	bigramKeywordBonus = 0.5
	bigramSynonymBonus = 0.3
	priorityWeight     = 0.1
	similarityFloor    = 0.8
)

// Select автономно выбирает шаблон по свободному тексту пользователя.
// Функция детерминированная: одинаковые (текст, возможности, реестр)
// всегда дают один и тот же шаблон.
//
// Ранжирование идёт по сумме баллов совпадения и статического бонуса
// приоритета, но бонус сам по себе шаблон не выбирает: если ни один шаблон
// не набрал баллов совпадения, возвращается шаблон-ловушка "questions".
func (r *Registry) Select(userInput string, feats Features) Template {
	lower := strings.ToLower(userInput)
	words := extractWords(lower)

	var (
		best      *Template
		bestTotal float64
		maxMatch  float64
	)
	for i := range r.templates {
		t := &r.templates[i]
		if t.RequiresWebcam && !feats.Webcam {
			continue
		}
		if t.RequiresKeypad && !feats.Keypad {
			continue
		}

		match := matchScore(t, lower, words)
		if match > maxMatch {
			maxMatch = match
		}

		// Строгое сравнение: при равенстве выигрывает первый зарегистрированный.
		total := match + float64(t.Priority)*priorityWeight
		if best == nil || total > bestTotal {
			best = t
			bestTotal = total
		}
	}

	if best == nil || maxMatch == 0 {
		if fallback, ok := r.Get(FallbackName); ok {
			return fallback
		}
	}
	if best == nil {
		return Template{}
	}
	return *best
}

// matchScore считает баллы совпадения шаблона с текстом без учёта приоритета.
func matchScore(t *Template, lowerInput string, words []string) float64 {
	var score float64

	for _, kw := range t.Keywords {
		if strings.Contains(lowerInput, strings.ToLower(kw)) {
			score += keywordWeight
		}
	}
	for _, syn := range t.Synonyms {
		if strings.Contains(lowerInput, strings.ToLower(syn)) {
			score += synonymWeight
		}
	}

	for _, word := range words {
		for _, kw := range t.Keywords {
			if sim := Similarity(word, kw); sim > similarityFloor {
				score += sim * fuzzyKeywordWeight
			}
		}
		for _, syn := range t.Synonyms {
			if sim := Similarity(word, syn); sim > similarityFloor {
				score += sim * fuzzySynonymWeight
			}
		}
	}

	// Биграммы имеют смысл только для фраз длиннее двух слов.
	if len(words) > 2 {
		for i := 0; i+1 < len(words); i++ {
			phrase := words[i] + " " + words[i+1]
			for _, kw := range t.Keywords {
				if strings.Contains(phrase, strings.ToLower(kw)) {
					score += bigramKeywordBonus
				}
			}
			for _, syn := range t.Synonyms {
				if strings.Contains(phrase, strings.ToLower(syn)) {
					score += bigramSynonymBonus
				}
			}
		}
	}

	return score
}

// Similarity нормированная похожесть двух строк в диапазоне [0,1]:
// 1 - расстояние Левенштейна, делённое на длину большей строки.
// Регистр не учитывается.
func Similarity(a, b string) float64 {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	if a == b {
		return 1
	}
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(maxLen)
}

// extractWords разбивает текст на слова, отбрасывая пунктуацию.
func extractWords(lower string) []string {
	return strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
