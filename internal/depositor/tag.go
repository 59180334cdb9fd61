package depositor

import (
	"strconv"
	"time"
)

// TagGenerator builds tx_musd tags of the form <prefix><unix-ts>-<i>. The
// timestamp is fixed for the run, so tags differ only by iteration index.
type TagGenerator struct {
	base string
}

func NewTagGenerator(prefix string, startedAt time.Time) TagGenerator {
	return TagGenerator{base: prefix + strconv.FormatInt(startedAt.Unix(), 10) + "-"}
}

func (g TagGenerator) Tag(i int) string {
	return g.base + strconv.Itoa(i)
}
