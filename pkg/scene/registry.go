package scene

import (
	"fmt"
	"sync"
)

// Registry は読み込み済みシーンとアクティブなシーン名を保持する
// プロセス全体の状態は持たず、呼び出し側が生成して受け渡す
type Registry struct {
	mu     sync.RWMutex
	scenes map[string]*Scene
	order  []string
	active string
}

// NewRegistry は空のRegistryを作成する
func NewRegistry() *Registry {
	return &Registry{scenes: make(map[string]*Scene)}
}

// Add はシーンを登録する。同じ名前のシーンは置き換える
func (r *Registry) Add(s *Scene) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.scenes[s.Name]; !exists {
		r.order = append(r.order, s.Name)
	}
	r.scenes[s.Name] = s
}

// Scene は名前でシーンを取得する
func (r *Registry) Scene(name string) (*Scene, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.scenes[name]
	return s, ok
}

// Scenes は登録順のシーン一覧を返す
func (r *Registry) Scenes() []*Scene {
	r.mu.RLock()
	defer r.mu.RUnlock()

	scenes := make([]*Scene, 0, len(r.order))
	for _, name := range r.order {
		scenes = append(scenes, r.scenes[name])
	}
	return scenes
}

// SetActive はアクティブなシーン名を設定する
// 未登録のシーン名はエラー
func (r *Registry) SetActive(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.scenes[name]; !ok {
		return fmt.Errorf("scene %q is not loaded", name)
	}
	r.active = name
	return nil
}

// ActiveSceneName はアクティブなシーン名を返す（未設定の場合は空文字列）
func (r *Registry) ActiveSceneName() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// ActiveScene はアクティブなシーンを返す
func (r *Registry) ActiveScene() (*Scene, bool) {
	name := r.ActiveSceneName()
	if name == "" {
		return nil, false
	}
	return r.Scene(name)
}
