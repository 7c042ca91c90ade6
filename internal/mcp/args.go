package mcp

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/mark3labs/mcp-go/mcp"
)

var errInvalidArguments = errors.New("invalid arguments format")

// bindArguments decodes tool arguments into target by json tag. Clients
// sometimes send every value as a string, so strings are weakly converted
// to the field type; string fields are trimmed.
func bindArguments[T any](request mcp.CallToolRequest, target *T) error {
	rawArgs, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return errInvalidArguments
	}

	trimHook := func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if f.Kind() != reflect.String || t.Kind() != reflect.String {
			return data, nil
		}
		return strings.TrimSpace(data.(string)), nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		DecodeHook:       trimHook,
		Result:           target,
		TagName:          "json",
	})
	if err != nil {
		return err
	}
	return decoder.Decode(rawArgs)
}

// variableName strips the sigil users often type with a view variable.
func variableName(name string) string {
	return strings.TrimPrefix(name, "$")
}
