package sanitize

import (
	"encoding/base64"
	"fmt"
	"strings"
)

const elementIDPrefix = "mapping-"

// EncodeID turns a catalog-supplied mapping id into a string that is safe as an
// element id or selector. The original id must be kept for comparisons.
func EncodeID(id string) string {
	return elementIDPrefix + base64.RawURLEncoding.EncodeToString([]byte(id))
}

// DecodeID reverses EncodeID.
func DecodeID(elementID string) (string, error) {
	enc, ok := strings.CutPrefix(elementID, elementIDPrefix)
	if !ok {
		return "", fmt.Errorf("element id %q lacks prefix %q", elementID, elementIDPrefix)
	}
	b, err := base64.RawURLEncoding.DecodeString(enc)
	if err != nil {
		return "", fmt.Errorf("decode element id %q: %w", elementID, err)
	}
	return string(b), nil
}
