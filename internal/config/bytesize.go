package config

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// Byte size units.
const (
	KiB ByteSize = 1 << (10 * (iota + 1))
	MiB
	GiB
)

// ByteSize is a byte count written in config files as a human string ("10MiB", "512 kB").
type ByteSize uint64

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *ByteSize) UnmarshalText(text []byte) error {
	n, err := humanize.ParseBytes(string(text))
	if err != nil {
		return fmt.Errorf("could not parse byte size %q: %w", string(text), err)
	}
	*b = ByteSize(n)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (b ByteSize) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b ByteSize) String() string {
	return humanize.IBytes(uint64(b))
}

// Bytes returns the size as a plain byte count.
func (b ByteSize) Bytes() int64 {
	return int64(b)
}
