package dialog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/auticonnect/pkg/domain"
)

// Static returns a prompt that ignores the answers.
func Static(text string) PromptFunc {
	return func(map[string]any) string { return text }
}

// NonEmpty accepts any non-blank text and stores it trimmed.
func NonEmpty(reason string) ValidateFunc {
	return func(in Input) (any, error) {
		v := strings.TrimSpace(in.Raw)
		if v == "" {
			return nil, domain.Invalid(reason)
		}
		return v, nil
	}
}

// IntRange accepts a whole number within [lo, hi].
func IntRange(lo, hi int, reason string) ValidateFunc {
	return func(in Input) (any, error) {
		n, err := strconv.Atoi(strings.TrimSpace(in.Raw))
		if err != nil || n < lo || n > hi {
			return nil, domain.Invalid(reason)
		}
		return n, nil
	}
}

// Lines splits the input on newlines, trimming entries and dropping blanks.
// Blank input yields an empty list.
func Lines() ValidateFunc {
	return func(in Input) (any, error) {
		return split(in.Raw, "\n"), nil
	}
}

// CSV splits the input on commas, trimming entries and dropping blanks.
// Blank input yields an empty list.
func CSV() ValidateFunc {
	return func(in Input) (any, error) {
		return split(in.Raw, ","), nil
	}
}

func split(raw, sep string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, sep) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// OneOf accepts the token of one of the offered buttons.
func OneOf() ValidateFunc {
	return func(in Input) (any, error) {
		raw := strings.TrimSpace(in.Raw)
		for _, b := range in.Choices {
			if b.Token == raw {
				return b.Token, nil
			}
		}
		return nil, domain.Invalid(fmt.Sprintf("Opção inválida: %q. Escolha uma das opções abaixo.", raw))
	}
}
