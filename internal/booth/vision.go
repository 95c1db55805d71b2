package booth

import "context"

// VisionScene описание кадра с камеры будки.
type VisionScene struct {
	Caption string
	Tags    []string
}

// Vision камера будки. Результат при желании вкладывается в запрос
// генерации как подсказка сцены.
type Vision interface {
	Capture(ctx context.Context) (VisionScene, error)
}

// StaticVision отладочная камера, всегда возвращающая одну сцену.
type StaticVision struct {
	Scene VisionScene
}

func (v *StaticVision) Capture(ctx context.Context) (VisionScene, error) {
	return v.Scene, nil
}
