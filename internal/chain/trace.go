package chain

import (
	"bytes"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// CallFrame is one node of a callTracer result.
type CallFrame struct {
	Type    string          `json:"type"`
	From    common.Address  `json:"from"`
	To      *common.Address `json:"to,omitempty"`
	Value   *hexutil.Big    `json:"value,omitempty"`
	Gas     hexutil.Uint64  `json:"gas"`
	GasUsed hexutil.Uint64  `json:"gasUsed"`
	Input   hexutil.Bytes   `json:"input"`
	Output  hexutil.Bytes   `json:"output,omitempty"`
	Error   string          `json:"error,omitempty"`
	Calls   []CallFrame     `json:"calls,omitempty"`
}

// Selector returns the 4-byte method selector of the call input.
func (f *CallFrame) Selector() []byte {
	if len(f.Input) < 4 {
		return nil
	}
	return f.Input[:4]
}

// TxTrace is the per-transaction entry of debug_traceBlockByNumber.
type TxTrace struct {
	TxHash common.Hash `json:"txHash"`
	Result CallFrame   `json:"result"`
}

// CallCriteria selects frames in SearchCall. Empty fields match anything.
type CallCriteria struct {
	To        common.Address
	Type      string
	Selectors [][]byte
}

func (c CallCriteria) matches(f *CallFrame) bool {
	if c.Type != "" && !strings.EqualFold(c.Type, f.Type) {
		return false
	}
	if c.To != (common.Address{}) && (f.To == nil || *f.To != c.To) {
		return false
	}
	if len(c.Selectors) == 0 {
		return true
	}
	selector := f.Selector()
	if selector == nil {
		return false
	}
	for _, s := range c.Selectors {
		if bytes.Equal(s, selector) {
			return true
		}
	}
	return false
}

// SearchCall walks the call tree depth-first in execution order, root
// included, and returns the rank-th (zero based) frame matching criteria.
func SearchCall(root *CallFrame, criteria CallCriteria, rank int) *CallFrame {
	if root == nil || rank < 0 {
		return nil
	}
	seen := 0
	var found *CallFrame
	var walk func(f *CallFrame) bool
	walk = func(f *CallFrame) bool {
		if criteria.matches(f) {
			if seen == rank {
				found = f
				return true
			}
			seen++
		}
		for i := range f.Calls {
			if walk(&f.Calls[i]) {
				return true
			}
		}
		return false
	}
	walk(root)
	return found
}
