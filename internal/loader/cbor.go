package loader

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// cborDecMode decodes CBOR maps into map[string]any so that decoded data
// has the same shape as the text formats.
var cborDecMode cbor.DecMode

func init() {
	var err error
	cborDecMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("loader: CBOR decoder initialization failed: " + err.Error())
	}
}

// CBOR loads binary .cbor files.
type CBOR struct{}

// Extensions returns "cbor".
func (CBOR) Extensions() []string { return []string{"cbor"} }

// Load decodes the CBOR file at path.
func (CBOR) Load(path string) (map[string]any, error) {
	return load(path, "CBOR", func(data []byte) (any, error) {
		var raw any
		if err := cborDecMode.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		return raw, nil
	})
}
