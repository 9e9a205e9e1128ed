package model

import (
	"reflect"

	"github.com/mitchellh/copystructure"
	"github.com/pkg/errors"
)

func init() {
	// AssetID is immutable and its fields are unexported, copy it by value.
	copystructure.Copiers[reflect.TypeOf(AssetID{})] = func(v interface{}) (interface{}, error) {
		return v, nil
	}
}

// CloneAssets returns a deep copy of the given assets.
func CloneAssets(assets []Asset) ([]Asset, error) {
	if assets == nil {
		return nil, nil
	}

	dup, err := copystructure.Copy(assets)
	if err != nil {
		return nil, errors.Wrap(err, "copy assets")
	}

	out, ok := dup.([]Asset)
	if !ok {
		return nil, errors.New("copy assets: unexpected type")
	}

	return out, nil
}
