package types

import (
	"encoding/json"
	"fmt"

	collcodec "cosmossdk.io/collections/codec"
)

// HoldingAccountValue encodes HoldingAccount records as JSON in collections.
var HoldingAccountValue collcodec.ValueCodec[HoldingAccount] = jsonValue[HoldingAccount]{name: "custody.HoldingAccount"}

type jsonValue[T any] struct {
	name string
}

func (v jsonValue[T]) Encode(value T) ([]byte, error) { return json.Marshal(value) }

func (v jsonValue[T]) Decode(b []byte) (T, error) {
	var value T
	err := json.Unmarshal(b, &value)
	return value, err
}

func (v jsonValue[T]) EncodeJSON(value T) ([]byte, error) { return v.Encode(value) }

func (v jsonValue[T]) DecodeJSON(b []byte) (T, error) { return v.Decode(b) }

func (v jsonValue[T]) Stringify(value T) string { return fmt.Sprintf("%+v", value) }

func (v jsonValue[T]) ValueType() string { return "json/" + v.name }
