package bot

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ActionKind classifies an inline-button callback.
type ActionKind int

const (
	// ActionAnother requests a different random photo variant.
	ActionAnother ActionKind = iota
	// ActionHD requests the original source URL of the shown variant.
	ActionHD
	// ActionUpdate requests a fresh scrape, bypassing the cached record.
	ActionUpdate
)

// Action is a parsed callback command. Key is the image-set key or license
// plate; Index is the variant currently on screen.
type Action struct {
	Kind  ActionKind
	Key   string
	Index int
}

// ParseAction decodes callback data of the forms "another_<key>_<index>",
// "hd_<key>_<index>" and "update_<plate>". Keys are query-escaped so the
// underscore separators stay unambiguous.
func ParseAction(data string) (Action, error) {
	kind, rest, ok := strings.Cut(data, "_")
	if !ok {
		return Action{}, fmt.Errorf("malformed callback %q", data)
	}

	switch kind {
	case "update":
		if rest == "" {
			return Action{}, fmt.Errorf("malformed callback %q", data)
		}
		return Action{Kind: ActionUpdate, Key: rest}, nil
	case "another", "hd":
	default:
		return Action{}, fmt.Errorf("unknown callback command %q", kind)
	}

	sep := strings.LastIndex(rest, "_")
	if sep < 1 {
		return Action{}, fmt.Errorf("malformed callback %q", data)
	}
	idx, err := strconv.Atoi(rest[sep+1:])
	if err != nil || idx < 0 {
		return Action{}, fmt.Errorf("malformed callback index in %q", data)
	}
	key, err := url.QueryUnescape(rest[:sep])
	if err != nil {
		return Action{}, fmt.Errorf("malformed callback key in %q", data)
	}

	a := Action{Kind: ActionAnother, Key: key, Index: idx}
	if kind == "hd" {
		a.Kind = ActionHD
	}
	return a, nil
}

func anotherData(key string, index int) string {
	return fmt.Sprintf("another_%s_%d", url.QueryEscape(key), index)
}

func hdData(key string, index int) string {
	return fmt.Sprintf("hd_%s_%d", url.QueryEscape(key), index)
}

func updateData(plate string) string {
	return "update_" + plate
}
