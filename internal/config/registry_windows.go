//go:build windows

package config

import (
	"errors"

	"golang.org/x/sys/windows/registry"

	"github.com/turtacn/verboten/pkg/consts"
)

// serviceParams reads HKLM\...\Services\<name>\Parameters. A missing key or
// value is not an error; the value is simply absent from the result.
func serviceParams(name string) (map[string]any, error) {
	k, err := registry.OpenKey(registry.LOCAL_MACHINE,
		consts.RegistryServicesPath+`\`+name+`\`+consts.RegistryParamsKey, registry.QUERY_VALUE)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer k.Close()

	child := map[string]any{}
	obs := map[string]any{}
	for _, p := range []struct {
		value string
		dst   map[string]any
		key   string
	}{
		{"Exec", child, "exec"},
		{"Port", child, "port"},
		{"Timeout", child, "timeout"},
		{"FlagPrefix", child, "flag_prefix"},
		{"LogLevel", obs, "log_level"},
	} {
		s, _, err := k.GetStringValue(p.value)
		if err == nil {
			p.dst[p.key] = s
			continue
		}
		if errors.Is(err, registry.ErrNotExist) {
			continue
		}
		if errors.Is(err, registry.ErrUnexpectedType) {
			// Port may have been written as a DWORD by hand.
			if n, _, ierr := k.GetIntegerValue(p.value); ierr == nil {
				p.dst[p.key] = n
				continue
			}
		}
		return nil, err
	}

	params := map[string]any{}
	if len(child) > 0 {
		params["child"] = child
	}
	if len(obs) > 0 {
		params["observability"] = obs
	}
	return params, nil
}

// WriteServiceParams stores the install-time parameters of a service.
func WriteServiceParams(name string, values map[string]string) error {
	k, _, err := registry.CreateKey(registry.LOCAL_MACHINE,
		consts.RegistryServicesPath+`\`+name+`\`+consts.RegistryParamsKey, registry.SET_VALUE)
	if err != nil {
		return err
	}
	defer k.Close()

	for value, v := range values {
		if err := k.SetStringValue(value, v); err != nil {
			return err
		}
	}
	return nil
}

// Personal.AI order the ending
