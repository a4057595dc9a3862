package usecase

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/docsage/docsage/internal/core/domain"
)

// Extraction grammar, one tier per function so the fallback order is
// provable: anchored scan → cross-line scan → (guards take over from here
// with sentence/window synthesis).

const minAnchoredItems = 5

var (
	anchoredItemRE  = regexp.MustCompile(`(?m)^\s{0,3}(\d{1,3})[.)\-]\s+(.+)$`)
	inlineItemRE    = regexp.MustCompile(`(\d{1,3})[.)\-]\s+`)
	keyValueLineRE  = regexp.MustCompile(`^\s*([^:|]{2,50}?)\s*:\s*(.+)$`)
	looseKeyValueRE = regexp.MustCompile(`^\s*([^:]{1,80}?)\s*:\s*(.+)$`)
	straightQuoteRE = regexp.MustCompile(`"([^"]+)"`)
	curlyQuoteRE    = regexp.MustCompile(`“([^”]+)”`)
	tripleNewlineRE = regexp.MustCompile(`\n{3,}`)
)

// ExtractNumberedItems scans for digit-prefixed items. The anchored per-line
// tier runs first; when it yields fewer than five items, a cross-line tier
// re-scans capturing each digit-prefixed span up to the next one.
func ExtractNumberedItems(text string) []domain.ListItem {
	items := anchoredNumberedItems(text)
	if len(items) < minAnchoredItems {
		if inline := inlineNumberedItems(text); len(inline) > len(items) {
			items = inline
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Number < items[j].Number })
	return items
}

func anchoredNumberedItems(text string) []domain.ListItem {
	matches := anchoredItemRE.FindAllStringSubmatch(text, -1)
	return dedupeItems(matches)
}

func inlineNumberedItems(text string) []domain.ListItem {
	locs := inlineItemRE.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}

	raw := make([][]string, 0, len(locs))
	for i, loc := range locs {
		number := text[loc[2]:loc[3]]
		valueStart := loc[1]
		valueEnd := len(text)
		if i+1 < len(locs) {
			valueEnd = locs[i+1][0]
		}
		raw = append(raw, []string{"", number, text[valueStart:valueEnd]})
	}
	return dedupeItems(raw)
}

func dedupeItems(matches [][]string) []domain.ListItem {
	seen := make(map[int]struct{}, len(matches))
	items := make([]domain.ListItem, 0, len(matches))
	for _, m := range matches {
		number, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		value := trimItemValue(m[2])
		if value == "" {
			continue
		}
		if _, ok := seen[number]; ok {
			continue
		}
		seen[number] = struct{}{}
		items = append(items, domain.ListItem{Number: number, Text: value})
	}
	return items
}

func trimItemValue(s string) string {
	return strings.Trim(strings.TrimSpace(s), ".,;:–- \t\n")
}

// ExtractKeyValuePairs captures "key: value" lines. Keys are 2–50 chars and
// may not contain colons or pipes; both sides are trimmed.
func ExtractKeyValuePairs(text string) []domain.TableRow {
	return scanKeyValueLines(text, keyValueLineRE)
}

// ExtractKeyValuePairsLoose is the guard-tier rescan with relaxed key
// length constraints.
func ExtractKeyValuePairsLoose(text string) []domain.TableRow {
	return scanKeyValueLines(text, looseKeyValueRE)
}

func scanKeyValueLines(text string, re *regexp.Regexp) []domain.TableRow {
	var rows []domain.TableRow
	for _, line := range strings.Split(text, "\n") {
		m := re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		key := strings.TrimSpace(m[1])
		value := strings.TrimSpace(m[2])
		if key == "" || value == "" {
			continue
		}
		rows = append(rows, domain.TableRow{Key: key, Value: value})
	}
	return rows
}

// ExtractQuote returns the first quoted span, straight or curly quotes,
// re-wrapped in straight quotes.
func ExtractQuote(text string) (string, bool) {
	straight := straightQuoteRE.FindStringSubmatchIndex(text)
	curly := curlyQuoteRE.FindStringSubmatchIndex(text)

	pick := straight
	if pick == nil || (curly != nil && curly[0] < pick[0]) {
		pick = curly
	}
	if pick == nil {
		return "", false
	}
	inner := strings.TrimSpace(text[pick[2]:pick[3]])
	if inner == "" {
		return "", false
	}
	return `"` + inner + `"`, true
}

// CombineChunks joins chunk contents with a blank line, in rank order.
func CombineChunks(chunks []domain.ScoredChunk) string {
	parts := make([]string, 0, len(chunks))
	for _, sc := range chunks {
		content := strings.TrimSpace(sc.Chunk.Content)
		if content != "" {
			parts = append(parts, content)
		}
	}
	return strings.Join(parts, "\n\n")
}

// CombineChunksForList additionally collapses runs of three or more
// newlines to two, preserving paragraph structure without flooding
// whitespace.
func CombineChunksForList(chunks []domain.ScoredChunk) string {
	return tripleNewlineRE.ReplaceAllString(CombineChunks(chunks), "\n\n")
}
