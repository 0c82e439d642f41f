//go:build !nojsonsimd

package main

import "github.com/bytedance/sonic"

// shareJSON leaves HTML characters and non-ASCII text unescaped, which is
// how ckpool writes its sharelogs.
var shareJSON = sonic.Config{
	EscapeHTML:  false,
	SortMapKeys: false,
}.Froze()

func fastJSONMarshal(v any) ([]byte, error) {
	return shareJSON.Marshal(v)
}

func fastJSONUnmarshal(data []byte, v any) error {
	return shareJSON.Unmarshal(data, v)
}
