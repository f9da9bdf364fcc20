// Package armor provides PEM ASCII-armor encode/decode for exported key
// material, using the literal header/trailer SecureStore key files have
// always used: "PRIVATE KEY". encoding/pem already wraps base64 payloads at
// 64 columns, which is exactly what the wire format calls for, so this
// package is a thin, named layer over it rather than a reimplementation.
package armor

import (
	"encoding/pem"
	"fmt"
)

// blockType is the PEM block type emitted between
// "-----BEGIN "/"-----END " and "-----".
const blockType = "PRIVATE KEY"

// Encode wraps payload in PEM ASCII armor with the PRIVATE KEY header.
func Encode(payload []byte) []byte {
	return pem.EncodeToMemory(&pem.Block{
		Type:  blockType,
		Bytes: payload,
	})
}

// Decode extracts the raw payload from a PEM-armored key file. It fails if
// data is not a well-formed PEM block or if trailing data follows the
// block.
func Decode(data []byte) ([]byte, error) {
	block, rest := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("armor: data is not a valid PEM block")
	}
	if len(rest) > 0 {
		return nil, fmt.Errorf("armor: unexpected trailing data after PEM block")
	}
	return block.Bytes, nil
}
