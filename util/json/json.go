package json

import (
	stdjson "encoding/json"

	jsoniter "github.com/json-iterator/go"
)

// 定义JSON操作
var (
	json          = jsoniter.ConfigCompatibleWithStandardLibrary
	Marshal       = json.Marshal
	Unmarshal     = json.Unmarshal
	MarshalIndent = json.MarshalIndent
	NewDecoder    = json.NewDecoder
	NewEncoder    = json.NewEncoder
	Valid         = json.Valid
)

// RawMessage is an encoded JSON value passed through untouched.
type RawMessage = stdjson.RawMessage
