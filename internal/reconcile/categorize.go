package reconcile

import "strings"

// CategoryGeneral is assigned when no bucket keyword matches.
const CategoryGeneral = "general"

// Bucket maps a numerical-info category to the label keywords that select it.
type Bucket struct {
	Category string
	Keywords []string
}

// DefaultBuckets returns the built-in buckets in priority order.
func DefaultBuckets() []Bucket {
	return []Bucket{
		{Category: "banking", Keywords: []string{"bank", "account", "balance", "금액", "계좌"}},
		{Category: "health", Keywords: []string{"weight", "height", "blood", "체중", "신장", "혈압"}},
		{Category: "finance", Keywords: []string{"budget", "expense", "income", "예산", "지출", "수입"}},
		{Category: "education", Keywords: []string{"score", "grade", "점수", "성적"}},
	}
}

// Categorize returns the category of the first bucket with a keyword
// contained in label, case-insensitively, or CategoryGeneral.
func Categorize(buckets []Bucket, label string) string {
	lower := strings.ToLower(label)
	for _, b := range buckets {
		for _, kw := range b.Keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				return b.Category
			}
		}
	}
	return CategoryGeneral
}
