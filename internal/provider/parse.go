package provider

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"mediagen-gateway/internal/request"
)

// Structured payloads stored in the cache, one shape per operation.

type ScriptPayload struct {
	Script string `json:"script"`
}

type TitlesPayload struct {
	Titles     []string `json:"titles"`
	Thumbnails []string `json:"thumbnails"`
}

type Short struct {
	Title    string `json:"title"`
	Hook     string `json:"hook"`
	Script   string `json:"script"`
	Caption  string `json:"caption"`
	Hashtags string `json:"hashtags"`
}

type ShortsPayload struct {
	Shorts []Short `json:"shorts"`
}

type NarrationPayload struct {
	AudioPath string `json:"audio_path"`
	Chars     int    `json:"chars"`
}

type Image struct {
	URL    string `json:"url"`
	Source string `json:"source"`
}

type ImagesPayload struct {
	Images []Image `json:"images"`
}

// payloadForText converts raw model output into the structured payload for
// a text operation.
func payloadForText(op request.Operation, raw string, spec request.Spec) (json.RawMessage, error) {
	switch op {
	case request.OpScript:
		script := strings.TrimSpace(raw)
		if script == "" {
			return nil, fmt.Errorf("empty script in model output")
		}
		return json.Marshal(ScriptPayload{Script: script})
	case request.OpTitles:
		titles, thumbnails := parseTitlesThumbnails(raw)
		if len(titles) == 0 {
			return nil, fmt.Errorf("no titles found in model output")
		}
		return json.Marshal(TitlesPayload{Titles: titles, Thumbnails: thumbnails})
	case request.OpShortsExtraction:
		shorts := parseShorts(raw, spec.NumShorts)
		if len(shorts) == 0 {
			return nil, fmt.Errorf("no shorts found in model output")
		}
		return json.Marshal(ShortsPayload{Shorts: shorts})
	}
	return nil, fmt.Errorf("operation %q is not a text operation", op)
}

// listMarker matches only the leading "1." / "1)" / "-" marker so an item
// that itself starts with digits survives intact.
var listMarker = regexp.MustCompile(`^(\d+[.)]|[-*•])\s*`)

// parseNumberedList extracts items from "1. ..." / "1) ..." / "- ..." lines.
func parseNumberedList(text string, max int) []string {
	var items []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		marker := listMarker.FindString(line)
		if marker == "" {
			// Section headers and prose lines are dropped.
			continue
		}
		if item := strings.TrimSpace(line[len(marker):]); item != "" {
			items = append(items, item)
		}
		if len(items) == max {
			break
		}
	}
	return items
}

// parseTitlesThumbnails splits model output on the TITLES:/THUMBNAILS:
// section markers.
func parseTitlesThumbnails(raw string) (titles, thumbnails []string) {
	upper := strings.ToUpper(raw)

	titleIdx := strings.Index(upper, "TITLES:")
	thumbIdx := strings.Index(upper, "THUMBNAILS:")

	titleSection := raw
	thumbSection := ""
	if titleIdx >= 0 && thumbIdx > titleIdx {
		titleSection = raw[titleIdx:thumbIdx]
		thumbSection = raw[thumbIdx:]
	} else if thumbIdx >= 0 {
		thumbSection = raw[thumbIdx:]
	}

	titles = parseNumberedList(titleSection, 3)
	thumbnails = parseNumberedList(thumbSection, 3)
	return titles, thumbnails
}

var shortMarker = regexp.MustCompile(`(?i)SHORT\s+\d+\s*:`)

// parseShorts splits model output on SHORT N: markers and pulls the labeled
// fields out of each block.
func parseShorts(raw string, expected int) []Short {
	blocks := shortMarker.Split(raw, -1)
	var shorts []Short

	// blocks[0] is whatever precedes the first SHORT marker; skip it.
	for _, block := range blocks[1:] {
		block = strings.TrimSpace(strings.Trim(strings.TrimSpace(block), "-"))
		if block == "" {
			continue
		}

		short := parseShortBlock(block)
		if short.Script != "" || short.Hook != "" {
			shorts = append(shorts, short)
		}
		if len(shorts) == expected {
			break
		}
	}
	return shorts
}

func parseShortBlock(block string) Short {
	var short Short
	lines := strings.Split(block, "\n")
	if len(lines) > 0 {
		short.Title = strings.TrimSpace(lines[0])
	}

	field := ""
	var buf []string
	flush := func() {
		text := strings.TrimSpace(strings.Join(buf, "\n"))
		switch field {
		case "HOOK":
			short.Hook = text
		case "SCRIPT":
			short.Script = text
		case "CAPTION":
			short.Caption = text
		case "HASHTAGS":
			short.Hashtags = text
		}
		buf = buf[:0]
	}

	for _, line := range lines[1:] {
		trimmed := strings.TrimSpace(line)
		matched := false
		for _, name := range []string{"HOOK", "SCRIPT", "CAPTION", "HASHTAGS"} {
			prefix := name + ":"
			if strings.HasPrefix(strings.ToUpper(trimmed), prefix) {
				flush()
				field = name
				buf = append(buf, strings.TrimSpace(trimmed[len(prefix):]))
				matched = true
				break
			}
		}
		if !matched && field != "" {
			buf = append(buf, line)
		}
	}
	flush()
	return short
}
