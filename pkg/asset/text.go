package asset

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// TextAsset は key=value 形式のテキストアセット
// キーはxxhash64で保持する
type TextAsset struct {
	Name    string
	entries map[uint64]string
	keys    []string
}

// HashKey はテキストキーのハッシュ値を返す
func HashKey(key string) uint64 {
	return xxhash.Sum64String(key)
}

// ParseText はテキストアセットを解析する
// 空行と#で始まる行は無視し、=を含まない行も無視する
// 同じキーが複数回現れた場合は後の値で上書きする
func ParseText(name string, data []byte) *TextAsset {
	t := &TextAsset{Name: name, entries: make(map[uint64]string)}

	scanner := bufio.NewScanner(bytes.NewReader(DecodeText(data)))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		h := HashKey(key)
		if _, exists := t.entries[h]; !exists {
			t.keys = append(t.keys, key)
		}
		t.entries[h] = strings.TrimSpace(value)
	}

	return t
}

// Value はキーに対応する値を返す
func (t *TextAsset) Value(key string) (string, bool) {
	v, ok := t.entries[HashKey(key)]
	return v, ok
}

// Keys は定義順のキー一覧を返す
func (t *TextAsset) Keys() []string {
	return append([]string(nil), t.keys...)
}

// Len はエントリ数を返す
func (t *TextAsset) Len() int {
	return len(t.entries)
}
