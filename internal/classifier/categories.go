package classifier

// Category is the closed set of classification outcomes.
type Category string

const (
	CategoryLeadSearch      Category = "LEAD_SEARCH"
	CategoryLeadQuestion    Category = "LEAD_QUESTION"
	CategoryPartnerServices Category = "PARTNER_SERVICES"
	CategoryCompetitor      Category = "COMPETITOR"
	CategorySpam            Category = "SPAM"
	CategoryOfftop          Category = "OFFTOP"
	CategoryOther           Category = "OTHER"
)

// DefaultPriority is the tie-break ordering used when two categories
// accumulate the same score: the earlier entry wins. The bias toward
// partner services over a direct lead is a product decision carried
// over from the original scoring policy and can be overridden in config.
var DefaultPriority = []Category{
	CategoryPartnerServices,
	CategoryCompetitor,
	CategoryLeadSearch,
	CategoryLeadQuestion,
	CategoryOther,
}

// ParseCategory maps a string to a known Category. The second return
// value is false for anything outside the closed set.
func ParseCategory(s string) (Category, bool) {
	switch Category(s) {
	case CategoryLeadSearch, CategoryLeadQuestion, CategoryPartnerServices,
		CategoryCompetitor, CategorySpam, CategoryOfftop, CategoryOther:
		return Category(s), true
	default:
		return CategoryOther, false
	}
}

// Provenance values recorded on a classification result.
const (
	ProvenanceRules    = "rules"
	ProvenanceEnriched = "enriched"
)

// Result is the outcome of classifying one message text.
type Result struct {
	Category   Category `json:"category"`
	Score      int      `json:"score"`
	Reasons    []string `json:"reasons,omitempty"`
	Draft      string   `json:"draft,omitempty"`
	Provenance string   `json:"provenance"`
}
