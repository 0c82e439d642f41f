//go:build !nojsonsimd

package main

import (
	"reflect"

	"github.com/bytedance/sonic"
)

func init() {
	// Sonic compiles codecs lazily. Pretouching the record types keeps the
	// first emitted share and the first verified line off the slow path.
	// Best-effort: a failure only means the first call compiles instead.
	_ = sonic.Pretouch(reflect.TypeFor[ShareRecord]())
	_ = sonic.Pretouch(reflect.TypeFor[sharelogLine]())
	_ = sonic.Pretouch(reflect.TypeFor[rpcTipRequest]())
	_ = sonic.Pretouch(reflect.TypeFor[rpcTipResponse]())
}
