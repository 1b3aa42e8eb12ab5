package prompt

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
)

func run(p promptui.Prompt) (string, error) {
	result, err := p.Run()
	return result, wrapError(err)
}

// Input prompts for free text.
func Input(label, defaultValue string) (string, error) {
	return run(promptui.Prompt{Label: label, Default: defaultValue})
}

// InputRequired prompts for text that may not be blank.
func InputRequired(label string) (string, error) {
	return run(promptui.Prompt{Label: label, Validate: validateRequired})
}

// InputPort prompts for a TCP port.
func InputPort(label string, defaultValue int) (int, error) {
	result, err := run(promptui.Prompt{
		Label:    label,
		Default:  strconv.Itoa(defaultValue),
		Validate: validatePort,
	})
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(result)
}

// InputDuration prompts for a Go duration such as "72h".
func InputDuration(label string, defaultValue time.Duration) (time.Duration, error) {
	result, err := run(promptui.Prompt{
		Label:    label,
		Default:  defaultValue.String(),
		Validate: validateDuration,
	})
	if err != nil {
		return 0, err
	}
	return time.ParseDuration(result)
}

// Password prompts for a masked secret.
func Password(label string) (string, error) {
	return run(promptui.Prompt{Label: label, Mask: '*'})
}

func validateRequired(input string) error {
	if strings.TrimSpace(input) == "" {
		return errors.New("value is required")
	}
	return nil
}

func validatePort(input string) error {
	port, err := strconv.Atoi(input)
	if err != nil {
		return errors.New("must be a valid integer")
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("must be a valid port (1-65535)")
	}
	return nil
}

func validateDuration(input string) error {
	d, err := time.ParseDuration(input)
	if err != nil {
		return errors.New("must be a duration such as 48h or 30m")
	}
	if d < 0 {
		return errors.New("must not be negative")
	}
	return nil
}
