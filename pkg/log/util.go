package log

import (
	"fmt"
	"unicode/utf8"

	"go.uber.org/zap"
)

// maxPayload caps the bytes of a []byte value written to the log. Stream
// messages and snapshot bodies can be large.
const maxPayload = 256

// toFields converts alternating keys and values to zap fields. A zap.Field is
// passed through and a bare error becomes the "error" field. []byte values are
// logged as text, cut at maxPayload. A key that is not a string is formatted,
// and a trailing value without a key is kept under "extra".
func toFields(args ...any) []zap.Field {
	if len(args) == 0 {
		return nil
	}

	fields := make([]zap.Field, 0, len(args)/2+1)
	for i := 0; i < len(args); {
		switch v := args[i].(type) {
		case zap.Field:
			fields = append(fields, v)
			i++
			continue
		case error:
			fields = append(fields, zap.Error(v))
			i++
			continue
		}

		if i == len(args)-1 {
			fields = append(fields, zap.Any("extra", args[i]))
			break
		}

		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		fields = append(fields, field(key, args[i+1]))
		i += 2
	}
	return fields
}

func field(key string, val any) zap.Field {
	switch v := val.(type) {
	case []byte:
		return zap.String(key, payload(v))
	case error:
		return zap.NamedError(key, v)
	case fmt.Stringer:
		return zap.Stringer(key, v)
	}
	return zap.Any(key, val)
}

// payload renders b as text, cut at maxPayload on a rune boundary.
func payload(b []byte) string {
	if len(b) <= maxPayload {
		return string(b)
	}
	cut := maxPayload
	for cut > 0 && !utf8.RuneStart(b[cut]) {
		cut--
	}
	return fmt.Sprintf("%s...(%d bytes)", b[:cut], len(b))
}
