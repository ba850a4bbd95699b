package sitecontent

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
)

// TimestampLayout はupdatedAtの形式（UTC・ミリ秒）。
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// FormatTimestamp はtをupdatedAt形式の文字列にする。
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

type field struct {
	key string
	raw json.RawMessage
}

// Document はサイトコンテンツのトップレベルオブジェクト。
// キーの順序と値の生JSONを保持し、未知のキーもそのまま書き戻す。
type Document struct {
	fields []field
}

// Decode はJSONオブジェクトをDocumentとして読み込む。
// オブジェクト以外は*ValidationErrorを返す。
func Decode(data []byte) (*Document, error) {
	doc := &Document{}
	if err := doc.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return doc, nil
}

// UnmarshalJSON はjson.Unmarshalerを実装する。
func (d *Document) UnmarshalJSON(data []byte) error {
	notObject := &ValidationError{Message: "content payload must be an object"}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return notObject
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	if _, err := dec.Token(); err != nil {
		return notObject
	}

	d.fields = nil
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("invalid content json: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("invalid content json: unexpected token %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("invalid content json: %w", err)
		}
		d.set(key, raw)
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("invalid content json: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid content json: trailing data")
	}
	return nil
}

// MarshalJSON はjson.Marshalerを実装する。キー順は読み込み時のまま。
func (d *Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range d.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(f.raw)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Encode はリポジトリに書き込む形式（2スペースインデント・末尾改行）で出力する。
func (d *Document) Encode() ([]byte, error) {
	out, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

// Keys はトップレベルのキーを順に返す。
func (d *Document) Keys() []string {
	keys := make([]string, len(d.fields))
	for i, f := range d.fields {
		keys[i] = f.key
	}
	return keys
}

// Raw はkeyの生JSONを返す。
func (d *Document) Raw(key string) (json.RawMessage, bool) {
	for _, f := range d.fields {
		if f.key == key {
			return f.raw, true
		}
	}
	return nil, false
}

// Set はkeyの値を置き換える。存在しないキーは末尾に追加する。
func (d *Document) Set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	d.set(key, raw)
	return nil
}

func (d *Document) set(key string, raw json.RawMessage) {
	for i := range d.fields {
		if d.fields[i].key == key {
			d.fields[i].raw = raw
			return
		}
	}
	d.fields = append(d.fields, field{key: key, raw: raw})
}

// Stamp はupdatedAtとupdatedByを設定する。
func (d *Document) Stamp(at time.Time, login string) {
	// 文字列のMarshalは失敗しない
	_ = d.Set("updatedAt", FormatTimestamp(at))
	_ = d.Set("updatedBy", login)
}

// Content は型付きビューを返す。
// 型が合わない場合はエラーになるため、先にValidateを通しておく。
func (d *Document) Content() (*SiteContent, error) {
	data, err := d.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var content SiteContent
	if err := json.Unmarshal(data, &content); err != nil {
		return nil, fmt.Errorf("failed to decode site content: %w", err)
	}
	return &content, nil
}

// tree は検証用に汎用の値へ展開する。
func (d *Document) tree() (map[string]any, error) {
	tree := make(map[string]any, len(d.fields))
	for _, f := range d.fields {
		var v any
		if err := json.Unmarshal(f.raw, &v); err != nil {
			return nil, fmt.Errorf("invalid content json: %w", err)
		}
		tree[f.key] = v
	}
	return tree, nil
}
