package bdat

import "io"

// DetectReader determines a BDAT stream's dialect the same way Detect
// does, for a caller that has an io.Reader rather than an in-memory
// buffer (§6). Detection may need to scan past an unbounded run of
// legacy table headers, which an io.Reader cannot seek back over, so
// the stream is first read into an owned in-memory copy (§5) rather
// than consumed destructively.
func DetectReader(r io.Reader) (Dialect, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	return Detect(data)
}

// Detect determines which dialect a BDAT file uses, without requiring
// the caller to already know it (§4.6). It distinguishes Modern,
// Legacy-Switch, and Legacy-Wii-U; Legacy-Wii cannot be told apart from
// Legacy-Wii-U by file layout alone (both big-endian, same table-count
// field shape) and must be requested explicitly by the caller.
//
// Detection always reads multi-byte fields as little-endian, whatever
// the host's byte order; on the little-endian platforms this package
// targets (amd64, arm64) that is the native order.
func Detect(data []byte) (Dialect, error) {
	native := littleEndian
	c := newCursor(data, native)

	magic, err := c.u32()
	if err != nil {
		return 0, err
	}
	if magic == fileMagicValue {
		return DialectModern, nil
	}

	fileSize, err := c.u32()
	if err != nil {
		return 0, err
	}

	if magic == 0 {
		if fileSize > 1000 {
			return DialectLegacyWiiU, nil
		}
		return DialectLegacySwitch, nil
	}

	var actualTableCount uint32
	for {
		n, err := c.u32()
		if err != nil {
			return 0, &Error{Kind: ErrMalformedFile, Scope: ScopeFile, Message: "could not locate first table while detecting dialect"}
		}
		if n == fileMagicValue {
			break
		}
		actualTableCount++
	}

	if actualTableCount == magic {
		return DialectLegacySwitch, nil
	}
	return DialectLegacyWiiU, nil
}
