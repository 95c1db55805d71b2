package booth

import (
	"bufio"
	"context"
	"io"
	"math"
	"strings"
	"time"
)

// Clip синтезированная аудиореплика: 16-битный PCM без сжатия.
type Clip struct {
	Samples    []int16
	SampleRate int
	Duration   time.Duration
}

// Recognizer распознавание речи. Единственный потребитель результата —
// текст реплики посетителя для запроса генерации.
type Recognizer interface {
	Transcribe(ctx context.Context, pcm []int16, sampleRate int) (string, error)
}

// Synthesizer синтез речи персоны. voice - идентификатор голоса персоны.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string) (Clip, error)
}

// LineRecognizer отладочный "распознаватель": читает реплики построчно
// (PCM-вход игнорируется). Используется локальным циклом будки.
type LineRecognizer struct {
	scanner *bufio.Scanner
}

// NewLineRecognizer создаёт построчный распознаватель поверх r.
func NewLineRecognizer(r io.Reader) *LineRecognizer {
	return &LineRecognizer{scanner: bufio.NewScanner(r)}
}

func (l *LineRecognizer) Transcribe(ctx context.Context, pcm []int16, sampleRate int) (string, error) {
	if !l.scanner.Scan() {
		if err := l.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(l.scanner.Text()), nil
}

// MockTTS отладочный синтезатор: генерирует синусоиду, длительность
// которой пропорциональна длине текста, а высота тона определяется
// именем голоса. Достаточно для проверки конвейера звука и света.
type MockTTS struct {
	SampleRate int
}

// NewMockTTS создаёт отладочный синтезатор с частотой 16 кГц.
func NewMockTTS() *MockTTS {
	return &MockTTS{SampleRate: 16000}
}

const (
	mockMsPerRune   = 45
	mockMinDuration = 300 * time.Millisecond
	mockMaxDuration = 12 * time.Second
	mockAmplitude   = 0.4
)

func (m *MockTTS) Synthesize(ctx context.Context, text, voice string) (Clip, error) {
	dur := time.Duration(len([]rune(text))*mockMsPerRune) * time.Millisecond
	if dur < mockMinDuration {
		dur = mockMinDuration
	}
	if dur > mockMaxDuration {
		dur = mockMaxDuration
	}

	freq := voicePitch(voice)
	n := int(float64(m.SampleRate) * dur.Seconds())
	samples := make([]int16, n)
	for i := range samples {
		t := float64(i) / float64(m.SampleRate)
		samples[i] = int16(mockAmplitude * math.MaxInt16 * math.Sin(2*math.Pi*freq*t))
	}

	return Clip{
		Samples:    samples,
		SampleRate: m.SampleRate,
		Duration:   dur,
	}, nil
}

// voicePitch детерминированно отображает имя голоса в базовую частоту
// из речевого диапазона 160..320 Гц.
func voicePitch(voice string) float64 {
	var h uint32 = 2166136261
	for _, b := range []byte(voice) {
		h ^= uint32(b)
		h *= 16777619
	}
	return 160 + float64(h%161)
}

// AmplitudeEnvelope нарезает клип на окна и возвращает нормированную
// RMS-громкость каждого окна в [0,1]. Потребитель - контроллер света.
func AmplitudeEnvelope(clip Clip, window time.Duration) []float64 {
	if len(clip.Samples) == 0 || window <= 0 || clip.SampleRate <= 0 {
		return nil
	}

	perWindow := int(float64(clip.SampleRate) * window.Seconds())
	if perWindow < 1 {
		perWindow = 1
	}

	envelope := make([]float64, 0, len(clip.Samples)/perWindow+1)
	for start := 0; start < len(clip.Samples); start += perWindow {
		end := start + perWindow
		if end > len(clip.Samples) {
			end = len(clip.Samples)
		}

		var sum float64
		for _, s := range clip.Samples[start:end] {
			v := float64(s) / math.MaxInt16
			sum += v * v
		}
		rms := math.Sqrt(sum / float64(end-start))
		if rms > 1 {
			rms = 1
		}
		envelope = append(envelope, rms)
	}
	return envelope
}
