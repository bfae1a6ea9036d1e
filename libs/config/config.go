// Package config hydrates netclub configuration structs from an optional
// YAML file and NETCLUB_*-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// The YAML file is optional and named by NETCLUB_CONFIG. Environment
// variables always win over file values.
const (
	fileEnv   = "NETCLUB_CONFIG"
	envPrefix = "NETCLUB"
)

// Load hydrates target, a pointer to a struct, from the optional YAML
// file and then from the environment. Untagged fields map to generated
// NETCLUB_<PARENT>_<FIELD> keys; an `env:"KEY"` tag overrides the
// generated name and `env:"-"` skips the field.
func Load(target interface{}) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return errors.New("config: target must be a struct pointer")
	}

	if path := os.Getenv(fileEnv); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, target); err != nil {
			return fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	return fromEnv(v.Elem(), envPrefix)
}

func fromEnv(v reflect.Value, prefix string) error {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		if !field.CanSet() {
			continue
		}

		key := t.Field(i).Tag.Get("env")
		switch key {
		case "-":
			continue
		case "":
			key = prefix + "_" + strings.ToUpper(t.Field(i).Name)
		}

		if field.Kind() == reflect.Struct {
			if err := fromEnv(field, key); err != nil {
				return err
			}
			continue
		}

		raw, ok := os.LookupEnv(key)
		if !ok {
			continue
		}
		if err := set(field, raw); err != nil {
			return fmt.Errorf("config: %s: %w", key, err)
		}
	}
	return nil
}

// set parses raw into the field. Only the kinds netclub config actually
// uses are supported; anything else is a programming error surfaced at
// startup.
func set(field reflect.Value, raw string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Bool:
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		field.SetBool(parsed)
	case reflect.Int, reflect.Int64:
		parsed, err := strconv.ParseInt(raw, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetInt(parsed)
	default:
		return fmt.Errorf("unsupported field kind %s", field.Kind())
	}
	return nil
}
