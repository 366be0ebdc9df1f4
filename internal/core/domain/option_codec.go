package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	legacySeparator    = "::"
	legacyPromptMarker = "prompt="
)

type taggedOption struct {
	Kind    OptionKind `json:"kind"`
	Text    string     `json:"text"`
	Options []string   `json:"options,omitempty"`
	Prompt  string     `json:"prompt,omitempty"`
}

// CodecOptions tunes how legacy cells are decoded.
type CodecOptions struct {
	// PromptHeuristic treats a legacy sub-option list whose first entry mentions
	// "prompt" or "enter" as a free answer prompted by that entry.
	PromptHeuristic bool
}

// EncodeOption renders an option into a single table cell. Leaves stay bare text
// unless the text itself could be read back as a tagged or legacy cell.
func EncodeOption(opt Option) (string, error) {
	if opt.Text == "" {
		return "", fmt.Errorf("%w: empty option text", ErrMalformedOption)
	}

	tagged := taggedOption{Kind: opt.Kind(), Text: opt.Text}
	switch tagged.Kind {
	case OptionLeaf:
		if !leafNeedsTag(opt.Text) {
			return opt.Text, nil
		}
	case OptionFree:
		tagged.Prompt = opt.FreeTextPrompt
	case OptionBranch:
		tagged.Options = opt.SubOptions
	}

	raw, err := json.Marshal(tagged)
	if err != nil {
		return "", fmt.Errorf("failed to encode option %q: %w", opt.Text, err)
	}
	return string(raw), nil
}

func leafNeedsTag(text string) bool {
	return strings.HasPrefix(text, "{") ||
		strings.Contains(text, legacySeparator) ||
		strings.TrimSpace(text) != text
}

// DecodeOption parses a cell written by EncodeOption or by the legacy delimited format.
func DecodeOption(cell string, copts CodecOptions) (Option, error) {
	if strings.TrimSpace(cell) == "" {
		return Option{}, ErrEmptyCell
	}

	if strings.HasPrefix(cell, "{") {
		return decodeTagged(cell)
	}

	text, rest, found := strings.Cut(cell, legacySeparator)
	if !found {
		return LeafOption(strings.TrimSpace(cell)), nil
	}
	return decodeLegacy(strings.TrimSpace(text), strings.TrimSpace(rest), copts)
}

func decodeTagged(cell string) (Option, error) {
	var tagged taggedOption
	if err := json.Unmarshal([]byte(cell), &tagged); err != nil {
		return Option{}, fmt.Errorf("%w: %v", ErrMalformedOption, err)
	}
	if tagged.Text == "" {
		return Option{}, fmt.Errorf("%w: missing text", ErrMalformedOption)
	}

	switch tagged.Kind {
	case OptionLeaf:
		return LeafOption(tagged.Text), nil
	case OptionFree:
		return FreeOption(tagged.Text, tagged.Prompt), nil
	case OptionBranch:
		if len(tagged.Options) == 0 {
			return Option{}, fmt.Errorf("%w: branch %q without sub-options", ErrMalformedOption, tagged.Text)
		}
		return BranchOption(tagged.Text, tagged.Options...), nil
	default:
		return Option{}, fmt.Errorf("%w: unknown kind %q", ErrMalformedOption, tagged.Kind)
	}
}

func decodeLegacy(text, rest string, copts CodecOptions) (Option, error) {
	if text == "" {
		return Option{}, fmt.Errorf("%w: missing text", ErrMalformedOption)
	}
	if rest == "" {
		return FreeOption(text, ""), nil
	}
	if strings.HasPrefix(rest, legacyPromptMarker) {
		return FreeOption(text, strings.TrimSpace(strings.TrimPrefix(rest, legacyPromptMarker))), nil
	}

	subs := SplitSubOptions(rest)
	if len(subs) == 0 {
		return FreeOption(text, ""), nil
	}
	if copts.PromptHeuristic && looksLikePrompt(subs[0]) {
		return FreeOption(text, subs[0]), nil
	}
	return BranchOption(text, subs...), nil
}

func looksLikePrompt(s string) bool {
	lower := strings.ToLower(s)
	return strings.Contains(lower, "prompt") || strings.Contains(lower, "enter")
}
