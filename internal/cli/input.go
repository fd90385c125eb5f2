package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
)

// InputPrefix prefixes environment variables that provide flag values.
const InputPrefix = "INPUT_"

// LookupFunc returns the value of an environment variable and whether it is set.
type LookupFunc func(name string) (string, bool)

// ErrInvalidBool is returned for boolean inputs outside the accepted spellings.
var ErrInvalidBool = errors.New("invalid boolean value")

// InputName returns the environment variable carrying flag name.
func InputName(flag string) string {
	return InputPrefix + strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}

// NormalizeInputEnv copies INPUT_FOO-BAR style variables to INPUT_FOO_BAR
// unless the underscore spelling is already set.
func NormalizeInputEnv() {
	for _, entry := range os.Environ() {
		key, value, ok := strings.Cut(entry, "=")
		if !ok || !strings.HasPrefix(key, InputPrefix) || !strings.Contains(key, "-") {
			continue
		}

		normalized := strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
		if _, exists := os.LookupEnv(normalized); exists {
			continue
		}

		_ = os.Setenv(normalized, value)
	}
}

// ParseBool accepts 1/true/yes/on and 0/false/no/off in any case.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "on":
		return true, nil
	case "0", "false", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrInvalidBool, s)
	}
}

// BindInputs fills every flag not given on the command line from its
// INPUT_<FLAG> variable. Blank values leave the default in place.
// Array flags take one entry per non-empty line.
func BindInputs(flags *pflag.FlagSet, lookup LookupFunc) error {
	var errs []error

	flags.VisitAll(func(flag *pflag.Flag) {
		if flag.Changed || flag.Name == "help" {
			return
		}

		name := InputName(flag.Name)

		value, ok := lookup(name)
		if !ok || strings.TrimSpace(value) == "" {
			return
		}

		if err := setFromInput(flags, flag, value); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	})

	return errors.Join(errs...)
}

func setFromInput(flags *pflag.FlagSet, flag *pflag.Flag, value string) error {
	switch flag.Value.Type() {
	case "bool":
		parsed, err := ParseBool(value)
		if err != nil {
			return err
		}

		return flags.Set(flag.Name, fmt.Sprint(parsed))
	case "stringArray", "stringSlice":
		for _, line := range strings.Split(value, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}

			if err := flags.Set(flag.Name, line); err != nil {
				return err
			}
		}

		return nil
	default:
		return flags.Set(flag.Name, strings.TrimSpace(value))
	}
}
