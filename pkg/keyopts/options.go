package keyopts

import (
	"errors"
)

// Options is a flat map of key metadata. The protocol addresses keys by
// "id" (session ID) and "role" (server or client).
type Options map[string]interface{}

func NewOptions() Options {
	return make(Options)
}

func (opts Options) Set(kVs ...interface{}) error {
	if len(kVs)%2 != 0 {
		return errors.New("keyopts: options must be key/value pairs")
	}
	for i := 0; i < len(kVs); i += 2 {
		key, ok := kVs[i].(string)
		if !ok {
			return errors.New("keyopts: option keys must be strings")
		}
		opts[key] = kVs[i+1]
	}
	return nil
}

func (opts Options) Get(key string) (interface{}, bool) {
	val, ok := opts[key]
	return val, ok
}
