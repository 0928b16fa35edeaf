package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DecodeInt reads an integer field from a hand-edited record. It accepts a
// JSON number with no fractional part, the same number in a string, and
// null or an absent field as 0.
func DecodeInt(raw json.RawMessage) (int, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return 0, nil
	}

	text := string(trimmed)
	if trimmed[0] == '"' {
		var quoted string
		if err := json.Unmarshal(trimmed, &quoted); err != nil {
			return 0, err
		}
		text = strings.TrimSpace(quoted)
	}

	if n, err := strconv.Atoi(text); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("%s is not an integer", text)
	}
	return int(f), nil
}
