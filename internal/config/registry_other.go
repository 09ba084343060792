//go:build !windows

package config

// Service parameters only exist in the Windows registry.
func serviceParams(string) (map[string]any, error) {
	return nil, nil
}

// Personal.AI order the ending
