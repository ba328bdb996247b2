package postgres

import (
	"bytes"

	sonic "github.com/bytedance/sonic"
	"github.com/valyala/bytebufferpool"
)

// encodeJSON marshals a stat map through a pooled buffer. Empty maps encode
// as SQL NULL so the jsonb column distinguishes "not reported" from "{}".
func encodeJSON(v map[string]float64) ([]byte, error) {
	if len(v) == 0 {
		return nil, nil
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if err := sonic.ConfigDefault.NewEncoder(buf).Encode(v); err != nil {
		return nil, err
	}
	out := make([]byte, 0, buf.Len())
	return append(out, bytes.TrimSpace(buf.B)...), nil
}

func decodeJSON(raw []byte, dst *map[string]float64) error {
	if len(raw) == 0 {
		return nil
	}
	return sonic.Unmarshal(raw, dst)
}
