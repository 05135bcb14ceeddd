package depgraph

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/trustmon/lola/value"
)

func TestEmptyLongestPastWindowIsMax(t *testing.T) {
	assert.Equal(t, math.MaxInt, Empty{}.LongestPastWindow(value.New("x")))
}

func TestEmptyLongestPastWindowsIsEmpty(t *testing.T) {
	assert.Empty(t, Empty{}.LongestPastWindows())
}

func TestEmptySatisfiesResolver(t *testing.T) {
	var _ Resolver = Empty{}
}
