package asset

import (
	"sort"
	"sync"
)

// Library は読み込み済みアセットを参照ごとに保持する
type Library struct {
	mu    sync.RWMutex
	items map[Ref]any
}

// NewLibrary は空のLibraryを作成する
func NewLibrary() *Library {
	return &Library{items: make(map[Ref]any)}
}

// Put はアセットを登録する（同じ参照は上書き）
func (l *Library) Put(ref Ref, a any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items[ref] = a
}

// Get はアセットを取得する
func (l *Library) Get(ref Ref) (any, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	a, ok := l.items[ref]
	return a, ok
}

// Text はテキストアセットを取得する
func (l *Library) Text(p string) (*TextAsset, bool) {
	a, ok := l.Get(NewRef(KindText, p))
	if !ok {
		return nil, false
	}
	t, ok := a.(*TextAsset)
	return t, ok
}

// Gfx は画像アセットを取得する
func (l *Library) Gfx(p string) (*GfxAsset, bool) {
	a, ok := l.Get(NewRef(KindGfx, p))
	if !ok {
		return nil, false
	}
	g, ok := a.(*GfxAsset)
	return g, ok
}

// Sound はサウンドアセットを取得する
func (l *Library) Sound(p string) (*SoundAsset, bool) {
	a, ok := l.Get(NewRef(KindSound, p))
	if !ok {
		return nil, false
	}
	s, ok := a.(*SoundAsset)
	return s, ok
}

// Len は登録数を返す
func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// Refs は登録済みの参照を文字列順で返す
func (l *Library) Refs() []Ref {
	l.mu.RLock()
	refs := make([]Ref, 0, len(l.items))
	for ref := range l.items {
		refs = append(refs, ref)
	}
	l.mu.RUnlock()

	sort.Slice(refs, func(i, j int) bool {
		return refs[i].String() < refs[j].String()
	})
	return refs
}
