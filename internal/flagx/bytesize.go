package flagx

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ByteSize is a size in bytes that parses from strings such as "10MiB",
// "512KB", "1g" or plain "1048576". Decimal and binary suffixes are both
// read as powers of 1024. It implements flag.Value and json.Unmarshaler.
type ByteSize int64

const (
	KiB ByteSize = 1 << 10
	MiB ByteSize = 1 << 20
	GiB ByteSize = 1 << 30
	TiB ByteSize = 1 << 40
)

var sizeUnits = []struct {
	suffixes []string
	mult     ByteSize
}{
	{[]string{"tib", "tb", "t"}, TiB},
	{[]string{"gib", "gb", "g"}, GiB},
	{[]string{"mib", "mb", "m"}, MiB},
	{[]string{"kib", "kb", "k"}, KiB},
	{[]string{"b"}, 1},
}

// ParseByteSize parses s into a ByteSize. Negative values are rejected.
func ParseByteSize(s string) (ByteSize, error) {
	str := strings.ToLower(strings.TrimSpace(s))
	if str == "" {
		return 0, fmt.Errorf("empty byte size")
	}

	mult := ByteSize(1)
	num := str
outer:
	for _, u := range sizeUnits {
		for _, suf := range u.suffixes {
			if strings.HasSuffix(str, suf) {
				mult = u.mult
				num = strings.TrimSpace(strings.TrimSuffix(str, suf))
				break outer
			}
		}
	}

	n, err := strconv.ParseInt(num, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid byte size %q: %w", s, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid byte size %q: negative", s)
	}
	if mult > 1 && n > int64((1<<63-1)/mult) {
		return 0, fmt.Errorf("invalid byte size %q: overflow", s)
	}
	return ByteSize(n) * mult, nil
}

func (b ByteSize) String() string {
	switch {
	case b >= GiB && b%GiB == 0:
		return strconv.FormatInt(int64(b/GiB), 10) + "GiB"
	case b >= MiB && b%MiB == 0:
		return strconv.FormatInt(int64(b/MiB), 10) + "MiB"
	case b >= KiB && b%KiB == 0:
		return strconv.FormatInt(int64(b/KiB), 10) + "KiB"
	default:
		return strconv.FormatInt(int64(b), 10)
	}
}

func (b *ByteSize) Set(s string) error {
	v, err := ParseByteSize(s)
	if err != nil {
		return err
	}
	*b = v
	return nil
}

// UnmarshalJSON accepts either a JSON number of bytes or a size string.
func (b *ByteSize) UnmarshalJSON(data []byte) error {
	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		if n < 0 {
			return fmt.Errorf("invalid byte size %d: negative", n)
		}
		*b = ByteSize(n)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("byte size must be a number or string: %w", err)
	}
	return b.Set(s)
}
