package order

import (
	"encoding/binary"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const (
	DefaultIDPrefix = "COLA"
	idSuffixLen     = 13 // base36 width of a uint64
)

// IDGenerator produces order ids of the form PREFIX-XXXXXXXXXXXXX, where the
// suffix is the base36 rendering of 64 bits taken from a random uuid.
type IDGenerator struct {
	prefix string
	source func() uuid.UUID
}

func NewIDGenerator(prefix string) *IDGenerator {
	if prefix == "" {
		prefix = DefaultIDPrefix
	}
	return &IDGenerator{prefix: prefix, source: uuid.New}
}

func (g *IDGenerator) Next() string {
	u := g.source()
	n := binary.BigEndian.Uint64(u[8:])

	suffix := strings.ToUpper(strconv.FormatUint(n, 36))
	if pad := idSuffixLen - len(suffix); pad > 0 {
		suffix = strings.Repeat("0", pad) + suffix
	}
	return g.prefix + "-" + suffix
}
