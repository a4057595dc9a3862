package usecase

import (
	"fmt"
	"strconv"
	"time"

	"github.com/docsage/docsage/internal/core/domain"
)

// Adaptive timeout budgets: a deterministic size→budget lookup consumed by
// upstream extraction collaborators. OCR and table budgets are larger
// multiples of the base budget at every tier. This is a contract, not a
// measurement.

const (
	megabyte          = 1 << 20
	veryLargeFileSize = 100 * megabyte
)

type timeoutTier struct {
	maxSize    int64
	extraction time.Duration
	ocr        time.Duration
	table      time.Duration
}

var timeoutTiers = []timeoutTier{
	{1 * megabyte, 30 * time.Second, 60 * time.Second, 45 * time.Second},
	{10 * megabyte, 60 * time.Second, 120 * time.Second, 90 * time.Second},
	{50 * megabyte, 120 * time.Second, 240 * time.Second, 180 * time.Second},
	{100 * megabyte, 300 * time.Second, 600 * time.Second, 450 * time.Second},
	{200 * megabyte, 600 * time.Second, 1200 * time.Second, 900 * time.Second},
	{400 * megabyte, 900 * time.Second, 1800 * time.Second, 1350 * time.Second},
}

// Sizes above the last tier.
var timeoutCeiling = timeoutTier{
	extraction: 1200 * time.Second,
	ocr:        2400 * time.Second,
	table:      1800 * time.Second,
}

func tierFor(sizeBytes int64) timeoutTier {
	for _, tier := range timeoutTiers {
		if sizeBytes < tier.maxSize {
			return tier
		}
	}
	return timeoutCeiling
}

func CalculateTimeout(sizeBytes int64) time.Duration {
	return tierFor(sizeBytes).extraction
}

func CalculateOCRTimeout(sizeBytes int64) time.Duration {
	return tierFor(sizeBytes).ocr
}

func CalculateTableTimeout(sizeBytes int64) time.Duration {
	return tierFor(sizeBytes).table
}

func IsVeryLargeFile(sizeBytes int64) bool {
	return sizeBytes > veryLargeFileSize
}

// DefaultIndexTimeout applies when a document carries no size metadata.
const DefaultIndexTimeout = 5 * time.Minute

// CalculateTimeoutForDocument reads the stored size_bytes metadata and
// resolves the extraction budget for it.
func CalculateTimeoutForDocument(doc *domain.Document) time.Duration {
	if doc == nil {
		return DefaultIndexTimeout
	}
	raw, ok := doc.Metadata["size_bytes"]
	if !ok {
		return DefaultIndexTimeout
	}
	size, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || size <= 0 {
		return DefaultIndexTimeout
	}
	return CalculateTimeout(size)
}

// EstimateProcessingTime renders a human-readable budget for status pages.
func EstimateProcessingTime(sizeBytes int64) string {
	budget := CalculateTimeout(sizeBytes)
	minutes := int(budget.Minutes())
	if minutes < 1 {
		return fmt.Sprintf("cerca de %d segundos", int(budget.Seconds()))
	}
	if minutes == 1 {
		return "cerca de 1 minuto"
	}
	return fmt.Sprintf("cerca de %d minutos", minutes)
}
